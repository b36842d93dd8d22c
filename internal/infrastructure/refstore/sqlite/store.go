// Package sqlite provides an embedded single-file reference-data backend.
// It suits desktop and air-gapped deployments where running a database
// server is not an option.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/olfacto/scentinel/internal/domain/refdata"
	"github.com/olfacto/scentinel/pkg/errors"
)

//go:embed schema.sql
var schemaSQL string

// metaVersionKey is the refdata_meta row holding the dataset version.
const metaVersionKey = "version"

// Store implements refdata.Store over a SQLite database file.
type Store struct {
	db   *sql.DB
	path string
	once sync.Once
}

// NewStore opens (creating if needed) the database at path and ensures the
// schema exists.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to create sqlite directory").
				WithDetail(dir)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to open sqlite database").
			WithDetail(path)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to initialize sqlite schema").
			WithDetail(path)
	}
	return &Store{db: db, path: path}, nil
}

// Load reads all reference-data tables and assembles a validated snapshot.
func (s *Store) Load(ctx context.Context) (*refdata.Snapshot, error) {
	standards, err := s.loadStandards(ctx)
	if err != nil {
		return nil, err
	}
	casMapping, err := s.loadCasMappings(ctx)
	if err != nil {
		return nil, err
	}
	contributions, err := s.loadContributions(ctx)
	if err != nil {
		return nil, err
	}
	version, err := s.loadVersion(ctx)
	if err != nil {
		return nil, err
	}
	return refdata.NewSnapshot(version, standards, casMapping, contributions)
}

func (s *Store) loadStandards(ctx context.Context) (map[string]refdata.Standard, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, type, limit_cat4 FROM standards`)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to query standards")
	}
	defer rows.Close()

	standards := make(map[string]refdata.Standard)
	for rows.Next() {
		var std refdata.Standard
		var limit sql.NullFloat64
		if err := rows.Scan(&std.ID, &std.Name, &std.Type, &limit); err != nil {
			return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to scan standard row")
		}
		if limit.Valid {
			v := limit.Float64
			std.LimitCat4 = &v
		}
		standards[std.ID] = std
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to iterate standards")
	}
	return standards, nil
}

func (s *Store) loadCasMappings(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cas_key, standard_id FROM cas_mappings ORDER BY cas_key, standard_id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to query cas mappings")
	}
	defer rows.Close()

	mapping := make(map[string][]string)
	for rows.Next() {
		var cas, stdID string
		if err := rows.Scan(&cas, &stdID); err != nil {
			return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to scan cas mapping row")
		}
		mapping[cas] = append(mapping[cas], stdID)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to iterate cas mappings")
	}
	return mapping, nil
}

func (s *Store) loadContributions(ctx context.Context) (map[string]refdata.ContributionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, name FROM materials`)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to query materials")
	}
	defer rows.Close()

	contributions := make(map[string]refdata.ContributionRecord)
	for rows.Next() {
		var key, name string
		if err := rows.Scan(&key, &name); err != nil {
			return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to scan material row")
		}
		contributions[key] = refdata.ContributionRecord{
			Name:         name,
			Constituents: make(map[string]float64),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to iterate materials")
	}

	crows, err := s.db.QueryContext(ctx,
		`SELECT material_key, constituent_key, percentage FROM constituents`)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to query constituents")
	}
	defer crows.Close()

	for crows.Next() {
		var matKey, constKey string
		var perc float64
		if err := crows.Scan(&matKey, &constKey, &perc); err != nil {
			return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to scan constituent row")
		}
		rec, ok := contributions[matKey]
		if !ok {
			return nil, errors.Newf(errors.CodeRefDataInvalid,
				"constituent references unknown material %q", matKey)
		}
		rec.Constituents[constKey] = perc
	}
	if err := crows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to iterate constituents")
	}
	return contributions, nil
}

func (s *Store) loadVersion(ctx context.Context) (string, error) {
	var version string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM refdata_meta WHERE key = ?`, metaVersionKey).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		return "unversioned", nil
	case err != nil:
		return "", errors.Wrap(err, errors.CodeRefDataLoad, "failed to read dataset version")
	}
	return version, nil
}

// Replace swaps the entire dataset inside a single transaction. It backs
// the import command and test seeding; readers using Load never observe a
// half-written dataset.
func (s *Store) Replace(ctx context.Context, version string, standards map[string]refdata.Standard, casMapping map[string][]string, contributions map[string]refdata.ContributionRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeRefDataLoad, "failed to begin import transaction")
	}
	defer tx.Rollback()

	for _, table := range []string{"constituents", "materials", "cas_mappings", "standards"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return errors.Wrap(err, errors.CodeRefDataLoad, "failed to clear table "+table)
		}
	}

	for id, std := range standards {
		var limit interface{}
		if std.LimitCat4 != nil {
			limit = *std.LimitCat4
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO standards (id, name, type, limit_cat4) VALUES (?, ?, ?, ?)`,
			id, std.Name, std.Type, limit); err != nil {
			return errors.Wrap(err, errors.CodeRefDataLoad, "failed to insert standard").WithDetail(id)
		}
	}
	for cas, ids := range casMapping {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO cas_mappings (cas_key, standard_id) VALUES (?, ?)`,
				refdata.NormalizeKey(cas), id); err != nil {
				return errors.Wrap(err, errors.CodeRefDataLoad, "failed to insert cas mapping").WithDetail(cas)
			}
		}
	}
	for key, rec := range contributions {
		normKey := refdata.NormalizeKey(key)
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO materials (key, name) VALUES (?, ?)`, normKey, rec.Name); err != nil {
			return errors.Wrap(err, errors.CodeRefDataLoad, "failed to insert material").WithDetail(key)
		}
		for constKey, perc := range rec.Constituents {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO constituents (material_key, constituent_key, percentage) VALUES (?, ?, ?)`,
				normKey, refdata.NormalizeKey(constKey), perc); err != nil {
				return errors.Wrap(err, errors.CodeRefDataLoad, "failed to insert constituent").WithDetail(key)
			}
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO refdata_meta (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		metaVersionKey, version); err != nil {
		return errors.Wrap(err, errors.CodeRefDataLoad, "failed to record dataset version")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.CodeRefDataLoad, "failed to commit import transaction")
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	var err error
	s.once.Do(func() { err = s.db.Close() })
	return err
}
