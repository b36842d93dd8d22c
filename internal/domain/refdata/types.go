// Package refdata defines the regulatory reference tables the compliance
// engine calculates against: the standards table, the CAS-to-standard
// mapping, and the material contribution table. The tables are loaded once
// through a Store implementation and held in an immutable Snapshot; nothing
// in this package mutates reference data after construction.
package refdata

import "strings"

// Standard is a single regulatory entry: a restriction, a phototoxicity
// restriction, or a specification-only listing.
type Standard struct {
	// ID is the stable identifier used by the CAS mapping.
	ID string `json:"id"`

	// Name is the display name used in reports and source attribution.
	Name string `json:"name"`

	// Type is the regulatory classification as published, e.g.
	// "RESTRICTION", "PHOTOTOXICITY RESTRICTION", "SPECIFICATION".
	// Classification helpers match on substrings, mirroring the loosely
	// typed upstream tables.
	Type string `json:"type"`

	// LimitCat4 is the category-4 concentration limit in percent of the
	// finished product. Nil means the standard carries no numeric limit and
	// is treated as specification-only: it always passes.
	LimitCat4 *float64 `json:"limit_cat4"`
}

// IsPhototoxic reports whether the standard participates in the
// phototoxicity sum-of-ratios aggregate.
func (s Standard) IsPhototoxic() bool {
	return strings.Contains(strings.ToUpper(s.Type), "PHOTOTOXICITY")
}

// IsSpecificationOnly reports whether the standard has no numeric limit.
func (s Standard) IsSpecificationOnly() bool {
	return s.LimitCat4 == nil
}

// ContributionRecord describes the documented composition of a compound
// material: which constituent keys it breaks down into and at what mass
// percentage. Constituent percentages are in [0, 100] but are not required
// to sum to 100; incompletely documented compositions are used at face value
// and flagged by the engine's integrity checker.
type ContributionRecord struct {
	// Name is the material's display name.
	Name string `json:"name"`

	// Constituents maps normalized constituent key (CAS number or material
	// key) to its mass percentage within this material.
	Constituents map[string]float64 `json:"constituents"`
}

// ConstituentTotal returns the sum of the documented constituent
// percentages.
func (r ContributionRecord) ConstituentTotal() float64 {
	var total float64
	for _, p := range r.Constituents {
		total += p
	}
	return total
}

// NormalizeKey canonicalizes a CAS number, SKU, or material name for table
// lookup: surrounding whitespace is trimmed and the result lowercased.
// Empty input normalizes to the empty string, which never matches a table.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
