// Package compliance implements the regulatory compliance calculation
// engine: formula normalization, recursive constituent resolution,
// per-standard aggregation with the phototoxicity exemption heuristic, data
// integrity checking, and the final compliance evaluation.
//
// The engine is a pure function of (formula, finished dosage, reference
// data). It performs no I/O, holds no mutable state across calls, and a
// single Engine may serve concurrent calculations.
package compliance

import (
	"math"

	"github.com/olfacto/scentinel/pkg/errors"
)

// Basis identifies how a formula entry quantifies its material.
type Basis int

const (
	// BasisAmount means the entry carries a mass amount (grams, parts);
	// its share of the concentrate is derived from the formula total.
	BasisAmount Basis = iota + 1

	// BasisConcentration means the entry carries a raw percentage of the
	// concentrate directly.
	BasisConcentration
)

// FormulaEntry is one line of a submitted formula. Entries quantify their
// material either by mass amount or by raw concentration, never both; use
// ByAmount or ByConcentration to construct them.
type FormulaEntry struct {
	// Name is the material display name. It drives name-based table lookup,
	// the phototoxicity exemption heuristic, and source attribution.
	Name string `json:"name"`

	// CAS optionally identifies the material by CAS number.
	CAS string `json:"cas,omitempty"`

	// SKU optionally identifies the material by supplier SKU.
	SKU string `json:"sku,omitempty"`

	// Basis selects which of Amount or Concentration is meaningful.
	Basis Basis `json:"basis"`

	// Amount is the mass amount in arbitrary consistent units (grams,
	// parts). Meaningful only when Basis == BasisAmount.
	Amount float64 `json:"amount,omitempty"`

	// Concentration is the raw percentage of the concentrate. Meaningful
	// only when Basis == BasisConcentration.
	Concentration float64 `json:"concentration,omitempty"`
}

// ByAmount constructs an amount-based formula entry.
func ByAmount(name string, amount float64) FormulaEntry {
	return FormulaEntry{Name: name, Basis: BasisAmount, Amount: amount}
}

// ByConcentration constructs a concentration-based formula entry.
func ByConcentration(name string, concentration float64) FormulaEntry {
	return FormulaEntry{Name: name, Basis: BasisConcentration, Concentration: concentration}
}

// WithCAS returns a copy of the entry with its CAS number set.
func (e FormulaEntry) WithCAS(cas string) FormulaEntry {
	e.CAS = cas
	return e
}

// WithSKU returns a copy of the entry with its supplier SKU set.
func (e FormulaEntry) WithSKU(sku string) FormulaEntry {
	e.SKU = sku
	return e
}

// Validate checks the entry's numeric fields. A NaN, infinite, or negative
// amount or concentration is the one data problem the engine surfaces as an
// error instead of degrading; the returned error names the offending entry.
func (e FormulaEntry) Validate() error {
	switch e.Basis {
	case BasisAmount:
		if !isFiniteNonNegative(e.Amount) {
			return errors.Newf(errors.CodeInvalidNumeric,
				"entry %q has invalid amount %v", e.Name, e.Amount)
		}
	case BasisConcentration:
		if !isFiniteNonNegative(e.Concentration) {
			return errors.Newf(errors.CodeInvalidNumeric,
				"entry %q has invalid concentration %v", e.Name, e.Concentration)
		}
	default:
		return errors.Newf(errors.CodeValidation,
			"entry %q has no amount or concentration basis", e.Name)
	}
	return nil
}

func isFiniteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
