package refdata

import (
	"context"
	"sort"
	"strings"

	"github.com/olfacto/scentinel/pkg/errors"
)

// Snapshot is an immutable view of the three reference tables. A single
// Snapshot may safely serve concurrent calculations: all accessors are
// read-only and the backing maps are defensively copied at construction.
type Snapshot struct {
	version       string
	standards     map[string]Standard
	casToStandard map[string][]string
	contributions map[string]ContributionRecord
}

// NewSnapshot builds a Snapshot from raw tables. All CAS-mapping and
// contribution keys (including constituent keys) are normalized with
// NormalizeKey, and the inputs are copied so later mutation of the arguments
// cannot leak into the snapshot.
//
// version is an opaque tag identifying the loaded data set (file hash,
// schema revision); it participates in calculation cache keys.
func NewSnapshot(version string, standards map[string]Standard, casMapping map[string][]string, contributions map[string]ContributionRecord) (*Snapshot, error) {
	s := &Snapshot{
		version:       version,
		standards:     make(map[string]Standard, len(standards)),
		casToStandard: make(map[string][]string, len(casMapping)),
		contributions: make(map[string]ContributionRecord, len(contributions)),
	}

	for id, std := range standards {
		if id == "" {
			return nil, errors.New(errors.CodeRefDataInvalid, "standard with empty id")
		}
		std.ID = id
		if std.LimitCat4 != nil && *std.LimitCat4 < 0 {
			return nil, errors.Newf(errors.CodeRefDataInvalid, "standard %s has negative limit", id)
		}
		if std.LimitCat4 != nil {
			limit := *std.LimitCat4
			std.LimitCat4 = &limit
		}
		s.standards[id] = std
	}

	for cas, ids := range casMapping {
		key := NormalizeKey(cas)
		if key == "" {
			continue
		}
		s.casToStandard[key] = append([]string(nil), ids...)
	}

	for key, rec := range contributions {
		norm := NormalizeKey(key)
		if norm == "" {
			continue
		}
		constituents := make(map[string]float64, len(rec.Constituents))
		for ck, perc := range rec.Constituents {
			if perc < 0 || perc > 100 {
				return nil, errors.Newf(errors.CodeRefDataInvalid,
					"material %q constituent %q has percentage %v outside [0, 100]", key, ck, perc)
			}
			constituents[NormalizeKey(ck)] = perc
		}
		s.contributions[norm] = ContributionRecord{Name: rec.Name, Constituents: constituents}
	}

	return s, nil
}

// Version returns the opaque data-set tag supplied at construction.
func (s *Snapshot) Version() string { return s.version }

// Standard returns the standard with the given id.
func (s *Snapshot) Standard(id string) (Standard, bool) {
	std, ok := s.standards[id]
	return std, ok
}

// StandardIDs returns the standard ids mapped to the given (normalized) key,
// in mapping order.
func (s *Snapshot) StandardIDs(key string) ([]string, bool) {
	ids, ok := s.casToStandard[NormalizeKey(key)]
	return ids, ok
}

// HasStandardMapping reports whether the key is a regulated CAS (present in
// the CAS-to-standard mapping).
func (s *Snapshot) HasStandardMapping(key string) bool {
	_, ok := s.casToStandard[NormalizeKey(key)]
	return ok
}

// Contribution returns the contribution record for the given key.
func (s *Snapshot) Contribution(key string) (ContributionRecord, bool) {
	rec, ok := s.contributions[NormalizeKey(key)]
	return rec, ok
}

// HasContribution reports whether the key is decomposable (present in the
// contribution table).
func (s *Snapshot) HasContribution(key string) bool {
	_, ok := s.contributions[NormalizeKey(key)]
	return ok
}

// StandardCount returns the number of standards in the snapshot.
func (s *Snapshot) StandardCount() int { return len(s.standards) }

// MaterialCount returns the number of contribution records in the snapshot.
func (s *Snapshot) MaterialCount() int { return len(s.contributions) }

// Standards returns all standards sorted by id.
func (s *Snapshot) Standards() []Standard {
	out := make([]Standard, 0, len(s.standards))
	for _, std := range s.standards {
		out = append(out, std)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Material is a searchable entry of the contribution table.
type Material struct {
	// Key is the normalized lookup key (CAS, SKU, or name).
	Key string `json:"key"`

	// Name is the display name.
	Name string `json:"name"`
}

// SearchMaterials returns up to limit materials whose key or display name
// contains the query, case-insensitively, sorted by display name with key as
// tie-breaker. Duplicate display names (a material reachable under both its
// CAS and its name) collapse to the shortest key. An empty query matches
// everything; limit <= 0 means no limit.
func (s *Snapshot) SearchMaterials(query string, limit int) []Material {
	q := NormalizeKey(query)

	byName := make(map[string]string, len(s.contributions))
	for key, rec := range s.contributions {
		if q != "" && !strings.Contains(key, q) && !strings.Contains(strings.ToLower(rec.Name), q) {
			continue
		}
		if prev, ok := byName[rec.Name]; !ok || len(key) < len(prev) || (len(key) == len(prev) && key < prev) {
			byName[rec.Name] = key
		}
	}

	out := make([]Material, 0, len(byName))
	for name, key := range byName {
		out = append(out, Material{Key: key, Name: name})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Store loads reference data from a backing source. Implementations live in
// internal/infrastructure/refstore; the engine itself never performs I/O.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
}
