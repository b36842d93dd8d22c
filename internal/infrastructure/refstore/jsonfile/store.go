// Package jsonfile loads reference data from a pair of JSON documents: a
// standards file carrying standard metadata plus the CAS-to-standard
// mapping, and a contributions file keyed by material.
package jsonfile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/olfacto/scentinel/internal/domain/refdata"
	"github.com/olfacto/scentinel/pkg/errors"
)

// Config locates the two reference-data documents on disk.
type Config struct {
	StandardsPath     string
	ContributionsPath string
}

// Store implements refdata.Store over the JSON file pair.
type Store struct {
	cfg Config
}

// NewStore returns a Store for the given file pair. No I/O happens until
// Load.
func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg}
}

// standardsDocument is the wire shape of the standards file.
type standardsDocument struct {
	Metadata   map[string]standardRecord `json:"metadata"`
	CasMapping map[string][]string       `json:"cas_mapping"`
}

type standardRecord struct {
	Name      string   `json:"name"`
	LimitCat4 *float64 `json:"limit_cat4"`
	Type      string   `json:"type"`
}

// contributionRecord is the wire shape of one contributions entry.
type contributionRecord struct {
	Name         string             `json:"name"`
	Constituents map[string]float64 `json:"constituents"`
}

// Tables holds the raw reference tables parsed from the file pair, before
// snapshot validation. Version is a digest of the raw file contents, so
// identical data always produces the same version string.
type Tables struct {
	Version       string
	Standards     map[string]refdata.Standard
	CasMapping    map[string][]string
	Contributions map[string]refdata.ContributionRecord
}

// ReadTables parses both documents into raw tables. Import tooling uses
// this to seed the SQL backends without going through a snapshot.
func ReadTables(cfg Config) (*Tables, error) {
	stdRaw, err := os.ReadFile(cfg.StandardsPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to read standards file").
			WithDetail(cfg.StandardsPath)
	}
	contribRaw, err := os.ReadFile(cfg.ContributionsPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to read contributions file").
			WithDetail(cfg.ContributionsPath)
	}

	var stdDoc standardsDocument
	if err := json.Unmarshal(stdRaw, &stdDoc); err != nil {
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to parse standards file").
			WithDetail(cfg.StandardsPath)
	}
	var contribDoc map[string]contributionRecord
	if err := json.Unmarshal(contribRaw, &contribDoc); err != nil {
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to parse contributions file").
			WithDetail(cfg.ContributionsPath)
	}

	standards := make(map[string]refdata.Standard, len(stdDoc.Metadata))
	for id, rec := range stdDoc.Metadata {
		standards[id] = refdata.Standard{
			ID:        id,
			Name:      rec.Name,
			Type:      rec.Type,
			LimitCat4: rec.LimitCat4,
		}
	}
	contributions := make(map[string]refdata.ContributionRecord, len(contribDoc))
	for key, rec := range contribDoc {
		contributions[key] = refdata.ContributionRecord{
			Name:         rec.Name,
			Constituents: rec.Constituents,
		}
	}

	return &Tables{
		Version:       contentVersion(stdRaw, contribRaw),
		Standards:     standards,
		CasMapping:    stdDoc.CasMapping,
		Contributions: contributions,
	}, nil
}

// Load parses both documents and assembles a validated snapshot.
func (s *Store) Load(_ context.Context) (*refdata.Snapshot, error) {
	t, err := ReadTables(s.cfg)
	if err != nil {
		return nil, err
	}
	return refdata.NewSnapshot(t.Version, t.Standards, t.CasMapping, t.Contributions)
}

// contentVersion digests both payloads into a short stable version string.
func contentVersion(standards, contributions []byte) string {
	h := sha256.New()
	h.Write(standards)
	h.Write(contributions)
	return hex.EncodeToString(h.Sum(nil))[:12]
}
