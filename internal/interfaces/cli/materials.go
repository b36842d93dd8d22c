package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/olfacto/scentinel/internal/domain/refdata"
)

// materialsResult renders a material search as text, JSON, or a table.
type materialsResult struct {
	Query     string             `json:"query"`
	Materials []refdata.Material `json:"materials"`
}

func (r materialsResult) TableHeaders() []string { return []string{"KEY", "NAME"} }

func (r materialsResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Materials))
	for _, m := range r.Materials {
		rows = append(rows, []string{m.Key, m.Name})
	}
	return rows
}

// NewMaterialsCmd creates the materials command: search the contribution
// table by name, CAS, or SKU fragment.
func NewMaterialsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "materials <query>",
		Short: "Search reference materials by name, CAS, or SKU fragment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaterials(cmd, args[0], limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of results")
	return cmd
}

func runMaterials(cmd *cobra.Command, query string, limit int) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
	defer cancel()

	result := materialsResult{Query: query}

	if cliCtx.Client != nil {
		materials, err := cliCtx.Client.SearchMaterials(ctx, query, limit)
		if err != nil {
			return err
		}
		for _, m := range materials {
			result.Materials = append(result.Materials, refdata.Material{Key: m.Key, Name: m.Name})
		}
		return PrintResult(cmd, result)
	}

	snap, err := loadSnapshot(ctx, cliCtx.Config, cliCtx.Logger)
	if err != nil {
		return err
	}
	result.Materials = snap.SearchMaterials(query, limit)
	return PrintResult(cmd, result)
}
