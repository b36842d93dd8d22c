package compliance

import (
	"math"
	"sort"
)

// complianceEpsilon absorbs floating-point noise when comparing an
// aggregated concentration against its limit.
const complianceEpsilon = 1e-9

// phototoxAggregateName is the critical-component label used when the
// phototoxicity sum-of-ratios sets the compliance margin.
const phototoxAggregateName = "Phototoxicity (Sum of Ratios)"

// roundTo rounds v to the given number of decimal places. Infinities pass
// through unchanged.
func roundTo(v float64, places int) float64 {
	if math.IsInf(v, 0) {
		return v
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// evaluation is the verdict computed from aggregated standards.
type evaluation struct {
	results           []StandardResult
	phototoxicity     PhototoxicityResult
	criticalComponent string
	maxSafeDosage     float64
	isCompliant       bool
}

// evaluate turns per-standard aggregates into the final verdict.
//
// Standards are processed in id order, which makes the result independent of
// formula entry order and fixes critical-component tie-breaking: on equal
// ratios the standard first in id order wins. The phototoxicity aggregate
// competes for critical component on the same ratio scale as individual
// standards.
func evaluate(standards map[string]*standardBucket, finishedDosage float64) evaluation {
	ids := make([]string, 0, len(standards))
	for id := range standards {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	ev := evaluation{isCompliant: true}
	maxRatio := complianceEpsilon
	var sumOfRatios float64

	for _, id := range ids {
		agg := standards[id]
		conc := agg.total

		var (
			ratio      float64
			pass       bool
			exceedance float64
			limit      Limit
		)
		if agg.std.LimitCat4 == nil {
			// Specification-only standards always pass.
			pass = true
			limit = SpecificationOnly()
		} else {
			lv := *agg.std.LimitCat4
			limit = NumericLimit(lv)
			switch {
			case lv > 0:
				ratio = conc / lv
			case conc == 0:
				ratio = 0
			default:
				ratio = math.Inf(1)
			}
			pass = conc <= lv+complianceEpsilon
			if ratio > 1 {
				exceedance = (ratio - 1) * 100
			}
			if agg.std.IsPhototoxic() && lv > 0 {
				sumOfRatios += conc / lv
			}
		}

		if !pass {
			ev.isCompliant = false
		}
		if ratio > maxRatio {
			maxRatio = ratio
			ev.criticalComponent = agg.std.Name
		}

		sources := make(map[string]float64, len(agg.sources))
		for name, sc := range agg.sources {
			sources[name] = roundTo(sc, 6)
		}

		ev.results = append(ev.results, StandardResult{
			StandardID:     id,
			StandardName:   agg.std.Name,
			Concentration:  roundTo(conc, 6),
			Limit:          limit,
			Pass:           pass,
			Ratio:          WireFloat(roundTo(ratio, 4)),
			ExceedancePerc: WireFloat(roundTo(exceedance, 2)),
			Sources:        sources,
		})
	}

	photoPass := sumOfRatios <= 1.0
	if !photoPass {
		ev.isCompliant = false
	}
	if sumOfRatios > maxRatio {
		maxRatio = sumOfRatios
		ev.criticalComponent = phototoxAggregateName
	}
	ev.phototoxicity = PhototoxicityResult{
		SumOfRatios:    roundTo(sumOfRatios, 4),
		Pass:           photoPass,
		ExceedancePerc: roundTo(math.Max(0, (sumOfRatios-1)*100), 2),
	}

	// The dosage at which the tightest ratio would sit exactly at 1.0.
	// Composition is fixed and only dilution varies, so exposure scales
	// linearly with dosage.
	if maxRatio > complianceEpsilon {
		ev.maxSafeDosage = math.Min(100, finishedDosage/maxRatio)
	} else {
		ev.maxSafeDosage = 100
	}

	return ev
}
