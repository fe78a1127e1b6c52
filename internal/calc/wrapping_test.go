package calc

import "testing"

func TestWrappingFee(t *testing.T) {
	cases := []struct {
		name     string
		noshi    string
		wrapping string
		fee      Money
	}{
		{"nothing selected", "", "", 0},
		{"explicit none", NoshiNone, WrappingNone, 0},
		{"sticker noshi is free", NoshiSticker, "", 0},
		{"standard noshi", NoshiStandard, "", 305},
		{"full wrap", "", WrappingFull, 305},
		{"both paid options capped", NoshiStandard, WrappingFull, 305},
		{"simple wrap waives noshi", NoshiStandard, WrappingSimple, 0},
		{"simple wrap alone", "", WrappingSimple, 0},
		{"sticker noshi with full wrap", NoshiSticker, WrappingFull, 305},
	}
	for _, tc := range cases {
		if got := WrappingFee(tc.noshi, tc.wrapping); got != tc.fee {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.fee, got)
		}
	}
}

func TestWrappingFeeNeverExceedsCap(t *testing.T) {
	noshiTypes := []string{"", NoshiNone, NoshiSticker, NoshiStandard}
	wrappingTypes := []string{"", WrappingNone, WrappingSimple, WrappingFull}
	for _, noshi := range noshiTypes {
		for _, wrapping := range wrappingTypes {
			fee := WrappingFee(noshi, wrapping)
			if fee < 0 || fee > 305 {
				t.Fatalf("noshi=%q wrapping=%q: fee %d out of [0,305]", noshi, wrapping, fee)
			}
		}
	}
}
