package compliance

// NormalizedEntry is a formula entry annotated with its concentration as a
// percentage of the finished product's mass.
type NormalizedEntry struct {
	Entry FormulaEntry

	// Concentration is the entry's share of the finished product in
	// percent, after amount normalization and dosage scaling.
	Concentration float64
}

// Normalize converts formula entries into finished-product concentrations.
//
// Amount-based entries are normalized against the total amount of all
// amount-based entries and scaled by the finished dosage; concentration-based
// entries are scaled by the finished dosage directly, independent of the
// total. A zero total amount yields concentration 0 for amount-based entries
// rather than an error.
func Normalize(formula []FormulaEntry, finishedDosage float64) []NormalizedEntry {
	var totalAmount float64
	for _, e := range formula {
		if e.Basis == BasisAmount {
			totalAmount += e.Amount
		}
	}

	scale := finishedDosage / 100.0
	out := make([]NormalizedEntry, 0, len(formula))
	for _, e := range formula {
		var conc float64
		switch e.Basis {
		case BasisAmount:
			if totalAmount > 0 {
				conc = (e.Amount / totalAmount) * 100.0 * scale
			}
		case BasisConcentration:
			conc = e.Concentration * scale
		}
		out = append(out, NormalizedEntry{Entry: e, Concentration: conc})
	}
	return out
}
