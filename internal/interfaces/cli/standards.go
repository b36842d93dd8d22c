package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olfacto/scentinel/internal/domain/refdata"
)

// standardsResult renders the standards listing as text, JSON, or a table.
type standardsResult struct {
	SnapshotVersion string             `json:"snapshot_version"`
	Standards       []refdata.Standard `json:"standards"`
}

func (r standardsResult) TableHeaders() []string {
	return []string{"ID", "NAME", "TYPE", "LIMIT CAT4 (%)"}
}

func (r standardsResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Standards))
	for _, std := range r.Standards {
		limit := "Spec."
		if std.LimitCat4 != nil {
			limit = fmt.Sprintf("%g", *std.LimitCat4)
		}
		rows = append(rows, []string{std.ID, std.Name, std.Type, limit})
	}
	return rows
}

// NewStandardsCmd creates the standards command: list every regulatory
// standard in the active snapshot.
func NewStandardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "standards",
		Short: "List regulatory standards in the active reference data",
		Args:  cobra.NoArgs,
		RunE:  runStandards,
	}
}

func runStandards(cmd *cobra.Command, _ []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
	defer cancel()

	if cliCtx.Client != nil {
		standards, version, err := cliCtx.Client.ListStandards(ctx)
		if err != nil {
			return err
		}
		result := standardsResult{SnapshotVersion: version}
		for _, std := range standards {
			result.Standards = append(result.Standards, refdata.Standard{
				ID:        std.ID,
				Name:      std.Name,
				Type:      std.Type,
				LimitCat4: std.LimitCat4,
			})
		}
		return PrintResult(cmd, result)
	}

	snap, err := loadSnapshot(ctx, cliCtx.Config, cliCtx.Logger)
	if err != nil {
		return err
	}
	return PrintResult(cmd, standardsResult{
		SnapshotVersion: snap.Version(),
		Standards:       snap.Standards(),
	})
}
