package calc

import (
	"reflect"
	"testing"
)

func singleDestinationLine(idx int, unitPrice Money, qty int) Line {
	return Line{
		LineIndex:     idx,
		UnitPrice:     unitPrice,
		Quantity:      qty,
		PostalCode:    "1000001",
		AddressLine1:  "千代田区千代田1-1",
		RecipientName: "山田太郎",
	}
}

// Scenario: one line, price 1000 x2, COD, fee 880, threshold 5000.
func TestComputeOrderTotalBasicCashOnDelivery(t *testing.T) {
	result := ComputeOrderTotal([]Line{singleDestinationLine(0, 1_000, 2)}, PaymentCashOnDelivery, 0, 880, 5_000)

	if result.LineTotals[0] != 2_000 {
		t.Fatalf("line total: expected 2000, got %d", result.LineTotals[0])
	}
	if result.ShippingFees[0] != 880 {
		t.Fatalf("shipping: expected 880, got %d", result.ShippingFees[0])
	}
	if result.WrappingFees[0] != 0 {
		t.Fatalf("wrapping: expected 0, got %d", result.WrappingFees[0])
	}
	if result.Subtotal != 2_000 || result.TotalShippingFee != 880 {
		t.Fatalf("aggregates wrong: %+v", result)
	}
	if result.TotalFee != 330 {
		t.Fatalf("COD fee on 2880: expected 330, got %d", result.TotalFee)
	}
	if result.TotalAmount != 3_210 {
		t.Fatalf("total: expected 3210, got %d", result.TotalAmount)
	}
	if result.PaymentFeeError != "" {
		t.Fatalf("unexpected rejection: %q", result.PaymentFeeError)
	}
}

// Scenario: group total 6000 clears the 5000 threshold.
func TestComputeOrderTotalFreeShippingThreshold(t *testing.T) {
	result := ComputeOrderTotal([]Line{singleDestinationLine(0, 3_000, 2)}, PaymentCashOnDelivery, 0, 880, 5_000)
	if result.ShippingFees[0] != 0 {
		t.Fatalf("expected free shipping, got %d", result.ShippingFees[0])
	}
	if result.TotalShippingFee != 0 {
		t.Fatalf("expected zero shipping total, got %d", result.TotalShippingFee)
	}
}

// Scenario: two lines to the same destination, single charge on the lowest
// index regardless of input order.
func TestComputeOrderTotalSameDestinationChargedOnce(t *testing.T) {
	lines := []Line{
		singleDestinationLine(0, 1_000, 1),
		singleDestinationLine(1, 2_000, 1),
	}
	reversed := []Line{lines[1], lines[0]}

	for _, input := range [][]Line{lines, reversed} {
		result := ComputeOrderTotal(input, PaymentBankTransfer, 0, 880, 5_000)
		if result.TotalShippingFee != 880 {
			t.Fatalf("expected a single 880 charge, got %d", result.TotalShippingFee)
		}
		for i, line := range input {
			want := Money(0)
			if line.LineIndex == 0 {
				want = 880
			}
			if result.ShippingFees[i] != want {
				t.Fatalf("line index %d: expected %d, got %d", line.LineIndex, want, result.ShippingFees[i])
			}
		}
	}
}

// Scenario: COD at exactly the ceiling is rejected with the breakdown intact.
func TestComputeOrderTotalCashOnDeliveryRejection(t *testing.T) {
	line := singleDestinationLine(0, 300_000, 1)
	line.IsFreeShipping = true
	result := ComputeOrderTotal([]Line{line}, PaymentCashOnDelivery, 0, 880, 5_000)

	if result.PaymentFeeError == "" {
		t.Fatal("expected a rejection message at the 300000 ceiling")
	}
	if result.TotalFee != 0 {
		t.Fatalf("rejected orders carry no fee, got %d", result.TotalFee)
	}
	if result.Subtotal != 300_000 {
		t.Fatalf("breakdown must survive the rejection, got subtotal %d", result.Subtotal)
	}
	if result.TotalAmount != 300_000 {
		t.Fatalf("total without fee: expected 300000, got %d", result.TotalAmount)
	}
}

// Scenario: both paid wrap options on one line cost 305, not 610.
func TestComputeOrderTotalWrappingCap(t *testing.T) {
	line := singleDestinationLine(0, 1_000, 1)
	line.NoshiType = NoshiStandard
	line.WrappingType = WrappingFull
	result := ComputeOrderTotal([]Line{line}, PaymentCreditCard, 0, 880, 5_000)
	if result.WrappingFees[0] != 305 {
		t.Fatalf("expected capped 305, got %d", result.WrappingFees[0])
	}
	if result.TotalWrappingFee != 305 {
		t.Fatalf("expected wrapping total 305, got %d", result.TotalWrappingFee)
	}
}

func TestComputeOrderTotalDiscountBeforePaymentFee(t *testing.T) {
	// Subtotal 10000 + shipping 880 = 10880 would hit the 440 COD tier;
	// the 1000 discount pulls the pre-fee total back under 10000.
	result := ComputeOrderTotal([]Line{singleDestinationLine(0, 10_000, 1)}, PaymentCashOnDelivery, 1_000, 880, 50_000)
	if result.TotalFee != 330 {
		t.Fatalf("fee must be tiered on the post-discount amount, got %d", result.TotalFee)
	}
	if result.TotalAmount != 10_000+880-1_000+330 {
		t.Fatalf("unexpected total %d", result.TotalAmount)
	}
}

func TestComputeOrderTotalInvariants(t *testing.T) {
	lines := []Line{
		singleDestinationLine(0, 1_200, 3),
		singleDestinationLine(1, 800, 1),
		{
			LineIndex:     2,
			UnitPrice:     2_500,
			Quantity:      2,
			PostalCode:    "5300001",
			AddressLine1:  "大阪市北区梅田1-1",
			RecipientName: "佐藤花子",
			NoshiType:     NoshiStandard,
		},
	}
	result := ComputeOrderTotal(lines, PaymentDeferredInvoice, 500, 880, 50_000)

	var sum Money
	for i, line := range lines {
		if result.LineTotals[i] != line.UnitPrice*Money(line.Quantity) {
			t.Fatalf("line %d total mismatch", i)
		}
		sum += result.LineTotals[i]
	}
	if result.Subtotal != sum {
		t.Fatalf("subtotal %d != sum of line totals %d", result.Subtotal, sum)
	}
	want := result.Subtotal + result.TotalShippingFee + result.TotalWrappingFee - 500 + result.TotalFee
	if result.TotalAmount != want {
		t.Fatalf("total identity broken: %d != %d", result.TotalAmount, want)
	}
}

func TestComputeOrderTotalIdempotent(t *testing.T) {
	lines := []Line{
		singleDestinationLine(0, 1_000, 2),
		singleDestinationLine(1, 3_000, 1),
	}
	first := ComputeOrderTotal(lines, PaymentCashOnDelivery, 100, 880, 5_000)
	second := ComputeOrderTotal(lines, PaymentCashOnDelivery, 100, 880, 5_000)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical inputs must produce identical results:\n%+v\n%+v", first, second)
	}
}

func TestComputeOrderTotalEmptyOrder(t *testing.T) {
	result := ComputeOrderTotal(nil, PaymentCashOnDelivery, 0, 880, 5_000)
	if result.Subtotal != 0 || result.TotalAmount != 0 || result.TotalFee != 0 {
		t.Fatalf("empty order must be all zero, got %+v", result)
	}
	if result.PaymentFeeError != "" {
		t.Fatalf("empty order carries no payment rule, got %q", result.PaymentFeeError)
	}
	if len(result.LineTotals) != 0 || len(result.ShippingFees) != 0 || len(result.WrappingFees) != 0 {
		t.Fatalf("per-line slices must be empty, got %+v", result)
	}
}

func TestComputeOrderTotalNegativePreFeeTotalIsNotAnError(t *testing.T) {
	// Oversized discounts are the validator's problem; the engine stays
	// pure arithmetic.
	result := ComputeOrderTotal([]Line{singleDestinationLine(0, 100, 1)}, PaymentBankTransfer, 10_000, 0, 0)
	if result.TotalAmount != 100-10_000 {
		t.Fatalf("expected raw arithmetic result, got %d", result.TotalAmount)
	}
	if result.PaymentFeeError != "" {
		t.Fatalf("no rejection expected, got %q", result.PaymentFeeError)
	}
}
