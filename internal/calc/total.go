package calc

// Line is one ordered product going to one destination, with the unit price
// already resolved by the caller (promotional pricing happens upstream).
type Line struct {
	LineIndex      int
	UnitPrice      Money
	Quantity       int
	PostalCode     string
	AddressLine1   string
	RecipientName  string
	IsFreeShipping bool
	NoshiType      string
	WrappingType   string
}

// Result is the full totals breakdown. The per-line slices are indexed in the
// same order as the input lines. PaymentFeeError is non-empty only for the
// cash-on-delivery ceiling rejection; all other fields remain populated so the
// caller can render the breakdown alongside the blocking message.
type Result struct {
	LineTotals       []Money
	ShippingFees     []Money
	WrappingFees     []Money
	Subtotal         Money
	TotalShippingFee Money
	TotalWrappingFee Money
	TotalFee         Money
	TotalAmount      Money
	PaymentFeeError  string
}

// ComputeOrderTotal turns line items plus payment method and settings into the
// invoice breakdown. It is pure arithmetic: identical inputs always produce
// identical outputs, nothing is validated, and nothing is ever raised. Both
// the live preview and the persistence path run this same function; the
// server-side run is authoritative.
func ComputeOrderTotal(lines []Line, method PaymentMethod, discount, defaultShippingFee, freeShippingThreshold Money) Result {
	if len(lines) == 0 {
		// No order lines means no applicable payment-method rule either.
		return Result{LineTotals: []Money{}, ShippingFees: []Money{}, WrappingFees: []Money{}}
	}

	lineTotals := make([]Money, len(lines))
	for i, line := range lines {
		lineTotals[i] = line.UnitPrice * Money(line.Quantity)
	}

	shippingLines := make([]ShippingLine, len(lines))
	for i, line := range lines {
		shippingLines[i] = ShippingLine{
			LineIndex:      line.LineIndex,
			PostalCode:     line.PostalCode,
			AddressLine1:   line.AddressLine1,
			RecipientName:  line.RecipientName,
			LineTotal:      lineTotals[i],
			IsFreeShipping: line.IsFreeShipping,
		}
	}
	allocated := AllocateShipping(shippingLines, defaultShippingFee, freeShippingThreshold)
	shippingFees := make([]Money, len(lines))
	for i, line := range lines {
		shippingFees[i] = allocated[line.LineIndex]
	}

	// Wrapping is strictly per line, never grouped by destination.
	wrappingFees := make([]Money, len(lines))
	for i, line := range lines {
		wrappingFees[i] = WrappingFee(line.NoshiType, line.WrappingType)
	}

	var subtotal, totalShippingFee, totalWrappingFee Money
	for i := range lines {
		subtotal += lineTotals[i]
		totalShippingFee += shippingFees[i]
		totalWrappingFee += wrappingFees[i]
	}

	// The payment fee tiers apply to the post-discount amount.
	preFeeTotal := subtotal + totalShippingFee + totalWrappingFee - discount
	feeResult := PaymentFee(method, preFeeTotal)

	return Result{
		LineTotals:       lineTotals,
		ShippingFees:     shippingFees,
		WrappingFees:     wrappingFees,
		Subtotal:         subtotal,
		TotalShippingFee: totalShippingFee,
		TotalWrappingFee: totalWrappingFee,
		TotalFee:         feeResult.Fee,
		TotalAmount:      preFeeTotal + feeResult.Fee,
		PaymentFeeError:  feeResult.Error,
	}
}
