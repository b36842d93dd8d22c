// Package postgres provides the shared-server reference-data backend,
// intended for multi-instance API deployments where all replicas must
// serve the same dataset.
package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/olfacto/scentinel/internal/domain/refdata"
	"github.com/olfacto/scentinel/internal/infrastructure/monitoring/logging"
	"github.com/olfacto/scentinel/pkg/errors"
)

// metaVersionKey is the refdata_meta row holding the dataset version.
const metaVersionKey = "version"

// Config carries the connection settings for the reference-data database.
type Config struct {
	DSN             string
	MaxConns        int32
	ConnMaxLifetime time.Duration
}

// Store implements refdata.Store over a pgx connection pool.
type Store struct {
	pool   *pgxpool.Pool
	logger logging.Logger
	once   sync.Once
}

// NewStore connects to the database and verifies the connection with a
// ping.
func NewStore(ctx context.Context, cfg Config, logger logging.Logger) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "invalid postgres configuration")
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to create postgres pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, errors.CodeServiceUnavailable, "postgres connection failed")
	}

	log := logger.Named("pgstore")
	log.Info("connected to postgres reference database",
		logging.String("host", poolCfg.ConnConfig.Host),
		logging.Int("port", int(poolCfg.ConnConfig.Port)),
		logging.String("database", poolCfg.ConnConfig.Database),
	)
	return &Store{pool: pool, logger: log}, nil
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
	rows, err := s.pool.Query(ctx, `SELECT id, name, type, limit_cat4 FROM standards`)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to query standards")
	}
	defer rows.Close()

	standards := make(map[string]refdata.Standard)
	for rows.Next() {
		var std refdata.Standard
		if err := rows.Scan(&std.ID, &std.Name, &std.Type, &std.LimitCat4); err != nil {
			return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to scan standard row")
		}
		standards[std.ID] = std
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CodeRefDataLoad, "failed to iterate standards")
	}
	return standards, nil
}

func (s *Store) loadCasMappings(ctx context.Context) (map[string][]string, error) {
	rows, err := s.pool.Query(ctx,
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
	rows, err := s.pool.Query(ctx, `SELECT key, name FROM materials`)
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

	crows, err := s.pool.Query(ctx,
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
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM refdata_meta WHERE key = $1`, metaVersionKey).Scan(&version)
	switch {
	case err == pgx.ErrNoRows:
		return "unversioned", nil
	case err != nil:
		return "", errors.Wrap(err, errors.CodeRefDataLoad, "failed to read dataset version")
	}
	return version, nil
}

// Replace swaps the entire dataset inside a single transaction, backing the
// import command.
func (s *Store) Replace(ctx context.Context, version string, standards map[string]refdata.Standard, casMapping map[string][]string, contributions map[string]refdata.ContributionRecord) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CodeRefDataLoad, "failed to begin import transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`TRUNCATE constituents, materials, cas_mappings, standards`); err != nil {
		return errors.Wrap(err, errors.CodeRefDataLoad, "failed to clear reference tables")
	}

	for id, std := range standards {
		if _, err := tx.Exec(ctx,
			`INSERT INTO standards (id, name, type, limit_cat4) VALUES ($1, $2, $3, $4)`,
			id, std.Name, std.Type, std.LimitCat4); err != nil {
			return errors.Wrap(err, errors.CodeRefDataLoad, "failed to insert standard").WithDetail(id)
		}
	}
	for cas, ids := range casMapping {
		for _, id := range ids {
			if _, err := tx.Exec(ctx,
				`INSERT INTO cas_mappings (cas_key, standard_id) VALUES ($1, $2)`,
				refdata.NormalizeKey(cas), id); err != nil {
				return errors.Wrap(err, errors.CodeRefDataLoad, "failed to insert cas mapping").WithDetail(cas)
			}
		}
	}
	for key, rec := range contributions {
		normKey := refdata.NormalizeKey(key)
		if _, err := tx.Exec(ctx,
			`INSERT INTO materials (key, name) VALUES ($1, $2)`, normKey, rec.Name); err != nil {
			return errors.Wrap(err, errors.CodeRefDataLoad, "failed to insert material").WithDetail(key)
		}
		for constKey, perc := range rec.Constituents {
			if _, err := tx.Exec(ctx,
				`INSERT INTO constituents (material_key, constituent_key, percentage) VALUES ($1, $2, $3)`,
				normKey, refdata.NormalizeKey(constKey), perc); err != nil {
				return errors.Wrap(err, errors.CodeRefDataLoad, "failed to insert constituent").WithDetail(key)
			}
		}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO refdata_meta (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		metaVersionKey, version); err != nil {
		return errors.Wrap(err, errors.CodeRefDataLoad, "failed to record dataset version")
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.CodeRefDataLoad, "failed to commit import transaction")
	}
	return nil
}

// Ping verifies the database is reachable, for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return errors.Wrap(err, errors.CodeServiceUnavailable, "postgres ping failed")
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.once.Do(func() {
		s.pool.Close()
		s.logger.Info("closed postgres reference database pool")
	})
}
