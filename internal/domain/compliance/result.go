package compliance

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/olfacto/scentinel/pkg/errors"
)

// specificationLimit is the wire representation of a standard without a
// numeric limit.
const specificationLimit = "specification"

// Limit is a standard's category-4 limit: either a numeric percentage or
// "specification" for specification-only standards. It marshals to a JSON
// number or the string "specification".
type Limit struct {
	value     float64
	specified bool
}

// NumericLimit constructs a Limit with a numeric value.
func NumericLimit(v float64) Limit { return Limit{value: v, specified: true} }

// SpecificationOnly constructs the non-numeric specification-only Limit.
func SpecificationOnly() Limit { return Limit{} }

// Value returns the numeric limit and whether one is present.
func (l Limit) Value() (float64, bool) { return l.value, l.specified }

// IsSpecification reports whether the standard carries no numeric limit.
func (l Limit) IsSpecification() bool { return !l.specified }

// String renders the limit for reports.
func (l Limit) String() string {
	if !l.specified {
		return "Spec."
	}
	return fmt.Sprintf("%g", l.value)
}

// MarshalJSON implements json.Marshaler.
func (l Limit) MarshalJSON() ([]byte, error) {
	if !l.specified {
		return json.Marshal(specificationLimit)
	}
	return json.Marshal(l.value)
}

// UnmarshalJSON implements json.Unmarshaler, accepting a number or the
// string "specification".
func (l *Limit) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*l = NumericLimit(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil && s == specificationLimit {
		*l = SpecificationOnly()
		return nil
	}
	return errors.Newf(errors.CodeSerialization, "invalid limit value %s", string(data))
}

// WireFloat is a float64 whose JSON form survives IEEE infinities: a
// banned material (numeric limit 0 with nonzero exposure) has ratio +Inf,
// which encoding/json cannot represent as a number. Infinities marshal as
// the strings "Infinity" / "-Infinity".
type WireFloat float64

// MarshalJSON implements json.Marshaler.
func (f WireFloat) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(f), 1) {
		return json.Marshal("Infinity")
	}
	if math.IsInf(float64(f), -1) {
		return json.Marshal("-Infinity")
	}
	return json.Marshal(float64(f))
}

// UnmarshalJSON implements json.Unmarshaler, accepting a number or an
// infinity string.
func (f *WireFloat) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*f = WireFloat(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "Infinity":
			*f = WireFloat(math.Inf(1))
			return nil
		case "-Infinity":
			*f = WireFloat(math.Inf(-1))
			return nil
		}
	}
	return errors.Newf(errors.CodeSerialization, "invalid numeric value %s", string(data))
}

// StandardResult is the evaluation outcome for one regulatory standard.
type StandardResult struct {
	StandardID     string    `json:"standard_id"`
	StandardName   string    `json:"standard_name"`
	Concentration  float64   `json:"concentration"`
	Limit          Limit     `json:"limit"`
	Pass           bool      `json:"pass"`
	Ratio          WireFloat `json:"ratio"`
	ExceedancePerc WireFloat `json:"exceedance_perc"`

	// Sources attributes concentration to contributing material display
	// names, summed per name.
	Sources map[string]float64 `json:"sources"`
}

// PhototoxicityResult is the combined phototoxicity verdict.
type PhototoxicityResult struct {
	// SumOfRatios is Σ concentration/limit across phototoxicity-type
	// standards; the formula passes while it stays at or below 1.0.
	SumOfRatios    float64 `json:"sum_of_ratios"`
	Pass           bool    `json:"pass"`
	ExceedancePerc float64 `json:"exceedance_perc"`
}

// Result is the complete outcome of one compliance calculation. It is a
// plain value: safe to cache, serialize, and hand to report collaborators.
type Result struct {
	IsCompliant bool             `json:"is_compliant"`
	Results     []StandardResult `json:"results"`

	Phototoxicity PhototoxicityResult `json:"phototoxicity"`

	// CriticalComponent names the standard (or the phototoxicity aggregate)
	// with the highest ratio to its limit; empty when nothing was
	// aggregated.
	CriticalComponent string `json:"critical_component"`

	// MaxSafeDosage is the finished dosage (%) at which this formula would
	// sit exactly at its tightest limit, capped at 100.
	MaxSafeDosage float64 `json:"max_safe_dosage"`

	FinishedDosage float64 `json:"finished_dosage"`

	// UnresolvedMaterials lists entries (by display name, deduplicated)
	// that matched no reference table and therefore contributed nothing.
	UnresolvedMaterials []string `json:"unresolved_materials"`

	// DataIntegrityWarnings lists materials with incompletely documented
	// composition. Informational only; never affects the verdict.
	DataIntegrityWarnings []string `json:"data_integrity_warnings"`

	// ResolutionTruncated reports that at least one compound material was
	// not fully expanded because its constituent graph exceeded the depth
	// bound; TruncatedMaterials names the affected entries.
	ResolutionTruncated bool     `json:"resolution_truncated"`
	TruncatedMaterials  []string `json:"truncated_materials,omitempty"`
}
