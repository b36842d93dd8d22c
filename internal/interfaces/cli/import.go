package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olfacto/scentinel/internal/config"
	"github.com/olfacto/scentinel/internal/infrastructure/refstore/jsonfile"
	"github.com/olfacto/scentinel/internal/infrastructure/refstore/postgres"
	"github.com/olfacto/scentinel/internal/infrastructure/refstore/sqlite"
	"github.com/olfacto/scentinel/pkg/errors"
)

// importOptions holds flags for the import command.
type importOptions struct {
	StandardsPath     string
	ContributionsPath string
	Version           string
}

// NewImportCmd creates the import command: load the JSON reference file
// pair and replace the contents of the configured SQL backend.
func NewImportCmd() *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import the JSON reference data files into the configured SQL backend",
		Long: "Parse the standards and contributions JSON files and replace the contents\n" +
			"of the configured sqlite or postgres backend in one transaction.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.StandardsPath, "standards", "", "standards JSON file (default: refdata.standards_path)")
	f.StringVar(&opts.ContributionsPath, "contributions", "", "contributions JSON file (default: refdata.contributions_path)")
	f.StringVar(&opts.Version, "data-version", "", "version tag to record (default: content digest)")

	return cmd
}

func runImport(cmd *cobra.Command, opts *importOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	cfg := cliCtx.Config

	stdPath := opts.StandardsPath
	if stdPath == "" {
		stdPath = cfg.RefData.StandardsPath
	}
	contribPath := opts.ContributionsPath
	if contribPath == "" {
		contribPath = cfg.RefData.ContributionsPath
	}
	if stdPath == "" || contribPath == "" {
		return errors.New(errors.CodeInvalidParam,
			"standards and contributions paths are required (flags or refdata config)")
	}

	tables, err := jsonfile.ReadTables(jsonfile.Config{
		StandardsPath:     stdPath,
		ContributionsPath: contribPath,
	})
	if err != nil {
		return err
	}
	version := opts.Version
	if version == "" {
		version = tables.Version
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
	defer cancel()

	switch cfg.RefData.Backend {
	case config.BackendSQLite:
		store, err := sqlite.NewStore(cfg.RefData.SQLitePath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Replace(ctx, version, tables.Standards, tables.CasMapping, tables.Contributions); err != nil {
			return err
		}

	case config.BackendPostgres:
		store, err := postgres.NewStore(ctx, postgres.Config{
			DSN:             cfg.RefData.Postgres.DSN(),
			MaxConns:        int32(cfg.RefData.Postgres.MaxConns),
			ConnMaxLifetime: cfg.RefData.Postgres.ConnMaxLifetime,
		}, cliCtx.Logger)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Migrate(); err != nil {
			return err
		}
		if err := store.Replace(ctx, version, tables.Standards, tables.CasMapping, tables.Contributions); err != nil {
			return err
		}

	default:
		return errors.Newf(errors.CodeInvalidParam,
			"import requires a sqlite or postgres backend, configured backend is %q", cfg.RefData.Backend)
	}

	PrintSuccess(cmd, fmt.Sprintf("imported %d standards, %d cas mappings, %d materials (version %s)",
		len(tables.Standards), len(tables.CasMapping), len(tables.Contributions), version))
	return nil
}
