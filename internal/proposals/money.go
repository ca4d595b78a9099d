package proposals

// LineTotals computes the monetary amounts for one position:
//
//	lineSubtotal   = unitPrice * quantity
//	discountAmount = lineSubtotal * discountPct / 100
//	vatAmount      = (lineSubtotal - discountAmount) * vatPct / 100
//	lineTotal      = (lineSubtotal - discountAmount) + vatAmount
//
// Negative inputs are coerced to zero and percentages clamped to [0,100], so
// the outputs are always non-negative. No rounding happens here or anywhere
// in aggregation: amounts are rounded at presentation time only, to avoid
// compounding rounding error across the three levels.
func LineTotals(unitPrice float64, quantity int, discountPct, vatPct float64) (lineSubtotal, discountAmount, vatAmount, lineTotal float64) {
	if unitPrice < 0 {
		unitPrice = 0
	}
	if quantity < 0 {
		quantity = 0
	}
	discountPct = clampPct(discountPct)
	vatPct = clampPct(vatPct)

	lineSubtotal = unitPrice * float64(quantity)
	discountAmount = lineSubtotal * discountPct / 100
	beforeVat := lineSubtotal - discountAmount
	vatAmount = beforeVat * vatPct / 100
	lineTotal = beforeVat + vatAmount
	return lineSubtotal, discountAmount, vatAmount, lineTotal
}

func clampPct(pct float64) float64 {
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
