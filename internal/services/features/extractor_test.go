package features

import (
	"math"
	"testing"
)

func TestPctChange(t *testing.T) {
	closes := []float64{100, 110}
	got, ok := PctChange(closes, 1)
	if !ok {
		t.Fatalf("expected ok")
	}
	if math.Abs(got-0.1) > 1e-12 {
		t.Fatalf("pct change = %v, want 0.1", got)
	}
}

func TestPctChangeInsufficientHistory(t *testing.T) {
	if _, ok := PctChange([]float64{100}, 1); ok {
		t.Fatalf("single close should not produce a change")
	}
	if _, ok := PctChange(nil, 5); ok {
		t.Fatalf("nil closes should not produce a change")
	}
}

func TestPctChangeNonPositiveReference(t *testing.T) {
	if _, ok := PctChange([]float64{0, 100}, 1); ok {
		t.Fatalf("zero reference close must be excluded")
	}
}

func TestDerivePriceChanges(t *testing.T) {
	closes := make([]float64, 21)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	pc := DerivePriceChanges(closes)
	if pc.OneDay == nil || pc.OneWeek == nil || pc.OneMonth == nil {
		t.Fatalf("21 closes should fill all horizons: %+v", pc)
	}
	if math.Abs(*pc.OneMonth-(120.0/100-1)) > 1e-12 {
		t.Fatalf("one month change = %v", *pc.OneMonth)
	}

	short := DerivePriceChanges(closes[:6])
	if short.OneMonth != nil {
		t.Fatalf("6 closes cannot yield a 1m change")
	}
	if short.OneWeek == nil || short.OneDay == nil {
		t.Fatalf("6 closes should yield 1d and 1w changes")
	}
}
