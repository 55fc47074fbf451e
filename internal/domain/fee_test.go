package domain

import (
	"math"
	"testing"
)

func TestComputeFee(t *testing.T) {
	cases := []struct {
		gross       int64
		basisPoints uint32
		wantFee     int64
		wantNet     int64
	}{
		{1_000_000, 25, 2_500, 997_500},
		{1_000, 25, 2, 998},
		{100, 0, 0, 100},
		{1, 25, 0, 1},
		{10_000, 500, 500, 9_500},
		{3, 9_999, 2, 1},
		// Beyond MaxInt64/10000 the scaled product takes the big.Int path.
		{math.MaxInt64, 25, 23_058_430_092_136_939, math.MaxInt64 - 23_058_430_092_136_939},
	}
	for _, tc := range cases {
		fee, net := ComputeFee(tc.gross, tc.basisPoints)
		if fee != tc.wantFee || net != tc.wantNet {
			t.Fatalf("ComputeFee(%d, %d) = (%d, %d), want (%d, %d)", tc.gross, tc.basisPoints, fee, net, tc.wantFee, tc.wantNet)
		}
		if fee+net != tc.gross {
			t.Fatalf("conservation violated for gross %d: fee %d + net %d", tc.gross, fee, net)
		}
	}
}

func TestComputeFeeNeverExceedsRate(t *testing.T) {
	for _, gross := range []int64{1, 7, 999, 10_001, 123_456_789, math.MaxInt64 / 3, math.MaxInt64} {
		for _, bps := range []uint32{0, 1, 25, 100, 500} {
			fee, net := ComputeFee(gross, bps)
			if fee < 0 || net < 0 {
				t.Fatalf("negative component for gross %d bps %d: fee %d net %d", gross, bps, fee, net)
			}
			if fee+net != gross {
				t.Fatalf("fee %d + net %d != gross %d at %d bps", fee, net, gross, bps)
			}
		}
	}
}

func TestProportionalShare(t *testing.T) {
	if got := ProportionalShare(300, 998, 1000); got != 299 {
		t.Fatalf("ProportionalShare(300, 998, 1000) = %d, want 299", got)
	}
	if got := ProportionalShare(400, 998, 1000); got != 399 {
		t.Fatalf("ProportionalShare(400, 998, 1000) = %d, want 399", got)
	}
	if got := ProportionalShare(5, 0, 1000); got != 0 {
		t.Fatalf("zero numerator: got %d", got)
	}
	if got := ProportionalShare(5, 998, 0); got != 0 {
		t.Fatalf("zero denominator: got %d", got)
	}
	// amount * numerator overflows int64; the quotient must still be exact.
	big := int64(math.MaxInt64 / 2)
	if got := ProportionalShare(big, big, big); got != big {
		t.Fatalf("identity share: got %d, want %d", got, big)
	}
}

func TestFeeConfigValidate(t *testing.T) {
	if err := (FeeConfig{BasisPoints: 25, Collector: "treasury"}).Validate(500); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if err := (FeeConfig{BasisPoints: 501, Collector: "treasury"}).Validate(500); err != ErrInvalidFeeConfig {
		t.Fatalf("over-ceiling config: got %v", err)
	}
	if err := (FeeConfig{BasisPoints: 25, Collector: "  "}).Validate(500); err != ErrInvalidFeeConfig {
		t.Fatalf("blank collector: got %v", err)
	}
	if err := (FeeConfig{BasisPoints: 500, Collector: "treasury"}).Validate(500); err != nil {
		t.Fatalf("ceiling itself must be allowed: %v", err)
	}
}
