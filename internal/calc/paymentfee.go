package calc

// Money represents a monetary value stored in minor units (JPY has none, so
// values are whole yen).
type Money = int64

// PaymentMethod identifies one of the four payment methods accepted over the
// phone. The values are the canonical wire strings persisted with each order
// and exported to the fulfillment CSV.
type PaymentMethod string

const (
	PaymentCashOnDelivery  PaymentMethod = "代金引換"
	PaymentCreditCard      PaymentMethod = "クレジットカード"
	PaymentBankTransfer    PaymentMethod = "銀行振込"
	PaymentDeferredInvoice PaymentMethod = "後払い"
)

// PaymentMethods lists every accepted method in display order.
var PaymentMethods = []PaymentMethod{
	PaymentCashOnDelivery,
	PaymentCreditCard,
	PaymentBankTransfer,
	PaymentDeferredInvoice,
}

// Valid reports whether m is one of the accepted methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCashOnDelivery, PaymentCreditCard, PaymentBankTransfer, PaymentDeferredInvoice:
		return true
	}
	return false
}

const (
	// codCeiling is the hard business rule: cash on delivery is refused at
	// or above this order value.
	codCeiling Money = 300_000

	deferredInvoiceFee Money = 250
)

// ErrCashOnDeliveryCeiling is the operator-facing rejection message for COD
// orders at or above the ceiling. Callers must treat a non-empty error as
// blocking submission.
const ErrCashOnDeliveryCeiling = "代金引換は30万円以上のご注文にはご利用いただけません"

type codTier struct {
	max Money
	fee Money
}

// Inclusive upper bounds; the last tier's fee also covers the gap below the
// ceiling.
var codTiers = []codTier{
	{max: 9_999, fee: 330},
	{max: 29_999, fee: 440},
	{max: 99_999, fee: 660},
	{max: 299_999, fee: 1_100},
}

// PaymentFeeResult carries the resolved fee and, for cash on delivery at or
// above the ceiling, a non-empty rejection message.
type PaymentFeeResult struct {
	Fee   Money
	Error string
}

// PaymentFee resolves the payment-method surcharge for the given pre-fee
// total. Unknown methods resolve to zero; they are rejected upstream by
// request validation and this branch exists only as a fallback.
func PaymentFee(method PaymentMethod, preFeeTotal Money) PaymentFeeResult {
	switch method {
	case PaymentCashOnDelivery:
		if preFeeTotal >= codCeiling {
			return PaymentFeeResult{Fee: 0, Error: ErrCashOnDeliveryCeiling}
		}
		for _, tier := range codTiers {
			if preFeeTotal <= tier.max {
				return PaymentFeeResult{Fee: tier.fee}
			}
		}
		return PaymentFeeResult{Fee: codTiers[len(codTiers)-1].fee}
	case PaymentDeferredInvoice:
		return PaymentFeeResult{Fee: deferredInvoiceFee}
	case PaymentCreditCard, PaymentBankTransfer:
		return PaymentFeeResult{}
	default:
		return PaymentFeeResult{}
	}
}
