package compliance

import (
	"sort"

	"github.com/olfacto/scentinel/internal/domain/refdata"
)

// maxResolutionDepth bounds the recursive expansion of compound materials.
// The contribution table is not guaranteed acyclic, so expansion beyond this
// depth is truncated rather than followed; the truncation is surfaced on the
// calculation result.
const maxResolutionDepth = 10

// lookupClass classifies a constituent key against the reference tables.
// The two properties are not exclusive: a key may be a regulated CAS that is
// itself further decomposable, in which case it is resolved on both paths.
type lookupClass struct {
	// MappedStandard: the key appears in the CAS-to-standard mapping.
	MappedStandard bool

	// Decomposable: the key has its own contribution record.
	Decomposable bool
}

// IsLeaf reports that the key matches no reference table at all.
func (c lookupClass) IsLeaf() bool {
	return !c.MappedStandard && !c.Decomposable
}

func classifyKey(ref *refdata.Snapshot, key string) lookupClass {
	return lookupClass{
		MappedStandard: ref.HasStandardMapping(key),
		Decomposable:   ref.HasContribution(key),
	}
}

// resolution accumulates the outcome of expanding one formula entry:
// constituent key → concentration contributed, in percent of the finished
// product, plus whether any branch was cut off at the depth bound.
type resolution struct {
	contributions map[string]float64
	truncated     bool
}

func newResolution() *resolution {
	return &resolution{contributions: make(map[string]float64)}
}

// add merges a contribution additively; identical keys from different
// branches sum.
func (r *resolution) add(key string, concentration float64) {
	r.contributions[key] += concentration
}

// resolveInto recursively expands the material identified by key, present at
// the given concentration (% of finished product), into r.
//
// For each documented constituent at percentage P the absolute contribution
// is concentration × P/100. A constituent that maps to a standard receives
// that amount directly; a constituent with its own contribution record is
// additionally expanded one level deeper; a constituent matching neither
// table is kept as a leaf contribution. Expansion past maxResolutionDepth is
// dropped and flagged, bounding the cost of cyclic or malformed tables.
func resolveInto(r *resolution, ref *refdata.Snapshot, key string, concentration float64, depth int) {
	if depth > maxResolutionDepth {
		r.truncated = true
		return
	}

	rec, ok := ref.Contribution(key)
	if !ok {
		return
	}

	// Sorted iteration keeps float accumulation order stable, so identical
	// inputs produce bit-identical results.
	for _, constituent := range sortedKeys(rec.Constituents) {
		perc := rec.Constituents[constituent]
		absolute := concentration * (perc / 100.0)
		class := classifyKey(ref, constituent)

		if class.MappedStandard {
			r.add(constituent, absolute)
		}
		if class.Decomposable {
			resolveInto(r, ref, constituent, absolute, depth+1)
		}
		if class.IsLeaf() {
			r.add(constituent, absolute)
		}
	}
}

// resolveContributions expands a material into its regulated constituents.
func resolveContributions(ref *refdata.Snapshot, key string, concentration float64) *resolution {
	r := newResolution()
	resolveInto(r, ref, key, concentration, 0)
	return r
}

// sortedKeys returns the map's keys in ascending order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
