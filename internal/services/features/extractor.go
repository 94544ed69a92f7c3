package features

// PctChange computes the fractional change between the latest close and the
// close `periods` bars back. Returns (0, false) when the series is too short
// or the reference close is not positive.
func PctChange(closes []float64, periods int) (float64, bool) {
	if periods <= 0 || len(closes) <= periods {
		return 0, false
	}
	last := closes[len(closes)-1]
	ref := closes[len(closes)-1-periods]
	if ref <= 0 {
		return 0, false
	}
	return last/ref - 1, true
}

// PriceChanges derives the 1-day/1-week/1-month fractional moves from a series
// of daily closes, oldest first. Missing horizons come back as nil so sparse
// history flows into the snapshot as absent fields. Trading-day horizons: 1d,
// 5d, 20d (market convention for a week and a month).
type PriceChanges struct {
	OneDay   *float64
	OneWeek  *float64
	OneMonth *float64
}

func DerivePriceChanges(closes []float64) PriceChanges {
	var pc PriceChanges
	if v, ok := PctChange(closes, 1); ok {
		pc.OneDay = &v
	}
	if v, ok := PctChange(closes, 5); ok {
		pc.OneWeek = &v
	}
	if v, ok := PctChange(closes, 20); ok {
		pc.OneMonth = &v
	}
	return pc
}
