package calc

// Noshi (ribbon label) and wrapping styles as keyed in by the operator. Empty
// string means the option was not selected.
const (
	NoshiNone     = "なし"
	NoshiSticker  = "シールのし"
	NoshiStandard = "通常のし"

	WrappingNone   = "なし"
	WrappingSimple = "簡易包装"
	WrappingFull   = "フル包装"
)

const (
	noshiFee        Money = 305
	fullWrappingFee Money = 305

	// maxWrappingFeePerLine is a bundled maximum: selecting both paid
	// options still costs 305 for that line.
	maxWrappingFeePerLine Money = 305
)

// WrappingFee resolves the gift-wrap charge for a single line. Simple wrap
// waives the noshi charge entirely; otherwise the paid noshi and the paid full
// wrap each add 305, clamped to the per-line ceiling.
func WrappingFee(noshiType, wrappingType string) Money {
	if wrappingType == WrappingSimple {
		return 0
	}

	var fee Money
	if noshiType == NoshiStandard {
		fee += noshiFee
	}
	if wrappingType == WrappingFull {
		fee += fullWrappingFee
	}
	if fee > maxWrappingFeePerLine {
		fee = maxWrappingFeePerLine
	}
	return fee
}
