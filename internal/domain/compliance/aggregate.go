package compliance

import "github.com/olfacto/scentinel/internal/domain/refdata"

// componentBucket accumulates everything contributed to a single constituent
// key across all formula entries.
type componentBucket struct {
	total float64

	// photoExempt is the logical AND of the exemption flag of every material
	// that fed this bucket: the bucket stays exempt only if every contributor
	// is an exempt grade.
	photoExempt bool

	// sources attributes concentration to contributing material display
	// names, summed per name.
	sources map[string]float64
}

// componentMap is the per-calculation working state; each Evaluate call
// allocates its own so a single Engine can serve concurrent calls.
type componentMap map[string]*componentBucket

// add records a contribution to key from the named source material.
func (m componentMap) add(key, sourceName string, concentration float64, exempt bool) {
	b, ok := m[key]
	if !ok {
		b = &componentBucket{photoExempt: exempt, sources: make(map[string]float64)}
		m[key] = b
	}
	b.total += concentration
	b.photoExempt = b.photoExempt && exempt
	b.sources[sourceName] += concentration
}

// standardBucket accumulates the exposure against one regulatory standard.
type standardBucket struct {
	std     refdata.Standard
	total   float64
	sources map[string]float64
}

// aggregateStandards folds resolved component buckets into per-standard
// totals. A bucket whose every contributor is phototox-exempt is skipped for
// phototoxicity-type standards only; the same component still counts toward
// its other standards. Components that map to no standard drop out here;
// they were tracked only so mixed exempt/non-exempt sources combine
// correctly.
func aggregateStandards(ref *refdata.Snapshot, components componentMap) map[string]*standardBucket {
	out := make(map[string]*standardBucket)

	for _, key := range sortedKeys(components) {
		bucket := components[key]
		ids, ok := ref.StandardIDs(key)
		if !ok {
			continue
		}
		for _, id := range ids {
			std, ok := ref.Standard(id)
			if !ok {
				continue
			}
			if bucket.photoExempt && std.IsPhototoxic() {
				continue
			}

			agg, ok := out[id]
			if !ok {
				agg = &standardBucket{std: std, sources: make(map[string]float64)}
				out[id] = agg
			}
			agg.total += bucket.total
			for _, name := range sortedKeys(bucket.sources) {
				agg.sources[name] += bucket.sources[name]
			}
		}
	}
	return out
}
