package compliance

import (
	"math"
	"sort"

	"github.com/olfacto/scentinel/internal/domain/refdata"
	"github.com/olfacto/scentinel/pkg/errors"
)

// Engine performs compliance calculations against one immutable reference
// snapshot. It holds no per-call state, so a single Engine may serve
// concurrent Evaluate calls.
type Engine struct {
	ref *refdata.Snapshot
}

// NewEngine constructs an Engine over the given reference snapshot.
func NewEngine(ref *refdata.Snapshot) *Engine {
	return &Engine{ref: ref}
}

// Snapshot returns the reference snapshot the engine calculates against.
func (e *Engine) Snapshot() *refdata.Snapshot { return e.ref }

// Evaluate calculates whether the formula, diluted to finishedDosage percent
// of the finished product, complies with every standard in the reference
// snapshot.
//
// Evaluate is deterministic: identical inputs always produce an identical
// Result, independent of formula entry order. The only inputs rejected with
// an error are an out-of-range dosage, an empty formula, and entries with
// non-finite or negative numeric fields; every other data problem degrades
// into warnings on the Result.
func (e *Engine) Evaluate(formula []FormulaEntry, finishedDosage float64) (*Result, error) {
	if math.IsNaN(finishedDosage) || finishedDosage <= 0 || finishedDosage > 100 {
		return nil, errors.Newf(errors.CodeInvalidDosage,
			"finished dosage must be in (0, 100], got %v", finishedDosage)
	}
	if len(formula) == 0 {
		return nil, errors.New(errors.CodeEmptyFormula, "formula has no entries")
	}
	for _, entry := range formula {
		if err := entry.Validate(); err != nil {
			return nil, err
		}
	}

	normalized := Normalize(formula, finishedDosage)

	components := make(componentMap)
	var (
		unresolved []string
		warnings   []string
		truncated  []string
	)
	seenUnresolved := make(map[string]bool)
	seenWarning := make(map[string]bool)
	seenTruncated := make(map[string]bool)

	for _, ne := range normalized {
		entry := ne.Entry
		exempt := IsPhototoxExempt(entry.Name)

		key, found := e.resolutionKey(entry)
		if !found {
			if !seenUnresolved[entry.Name] {
				seenUnresolved[entry.Name] = true
				unresolved = append(unresolved, entry.Name)
			}
			continue
		}

		if rec, ok := e.ref.Contribution(key); ok {
			if w, flagged := compositionWarning(entry.Name, rec); flagged && !seenWarning[w] {
				seenWarning[w] = true
				warnings = append(warnings, w)
			}

			res := resolveContributions(e.ref, key, ne.Concentration)
			for _, cas := range sortedKeys(res.contributions) {
				components.add(cas, entry.Name, res.contributions[cas], exempt)
			}
			if res.truncated && !seenTruncated[entry.Name] {
				seenTruncated[entry.Name] = true
				truncated = append(truncated, entry.Name)
			}
		}

		// A key that is simultaneously decomposable and itself a regulated
		// CAS contributes on both paths.
		if e.ref.HasStandardMapping(key) {
			components.add(refdata.NormalizeKey(key), entry.Name, ne.Concentration, exempt)
		}
	}

	ev := evaluate(aggregateStandards(e.ref, components), finishedDosage)

	// Sorted so the result is identical under any permutation of the
	// formula entries.
	sort.Strings(unresolved)
	sort.Strings(warnings)
	sort.Strings(truncated)

	return &Result{
		IsCompliant:           ev.isCompliant,
		Results:               ev.results,
		Phototoxicity:         ev.phototoxicity,
		CriticalComponent:     ev.criticalComponent,
		MaxSafeDosage:         ev.maxSafeDosage,
		FinishedDosage:        finishedDosage,
		UnresolvedMaterials:   unresolved,
		DataIntegrityWarnings: warnings,
		ResolutionTruncated:   len(truncated) > 0,
		TruncatedMaterials:    truncated,
	}, nil
}

// resolutionKey picks the lookup key for a formula entry: the first of CAS,
// SKU, display name that matches either reference table.
func (e *Engine) resolutionKey(entry FormulaEntry) (string, bool) {
	for _, candidate := range []string{entry.CAS, entry.SKU, entry.Name} {
		key := refdata.NormalizeKey(candidate)
		if key == "" {
			continue
		}
		if e.ref.HasContribution(key) || e.ref.HasStandardMapping(key) {
			return key, true
		}
	}
	return "", false
}
