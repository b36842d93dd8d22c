package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/olfacto/scentinel/internal/application/reporting"
	domain "github.com/olfacto/scentinel/internal/domain/compliance"
	"github.com/olfacto/scentinel/internal/formula"
	"github.com/olfacto/scentinel/pkg/client"
	"github.com/olfacto/scentinel/pkg/errors"
)

// checkOptions holds flags for the check command.
type checkOptions struct {
	Dosage     float64
	Format     string
	OutPath    string
	Product    string
	ClientName string
	Date       string
	Strict     bool
}

// NewCheckCmd creates the check command: evaluate a formula file against
// the active reference data and render a report.
func NewCheckCmd() *cobra.Command {
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check <formula-file>",
		Short: "Evaluate a formula file (CSV or JSON) for regulatory compliance",
		Long: "Evaluate a formula file against the active reference data and render a\n" +
			"compliance report. With --server the calculation runs on the API server;\n" +
			"otherwise reference data is loaded from the configured local backend.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.Float64VarP(&opts.Dosage, "dosage", "d", 100, "finished product dosage percentage (0, 100]")
	f.StringVarP(&opts.Format, "format", "f", "text", "report format (text, json, pdf)")
	f.StringVar(&opts.OutPath, "out", "", "output file for the pdf format (default: IFRA_Certificate.pdf)")
	f.StringVar(&opts.Product, "product", "", "product name printed on the pdf certificate")
	f.StringVar(&opts.ClientName, "client", "", "client name printed on the pdf certificate")
	f.StringVar(&opts.Date, "date", "", "certificate date (default: today)")
	f.BoolVar(&opts.Strict, "strict", false, "exit with an error when the formula is not compliant")

	return cmd
}

func runCheck(cmd *cobra.Command, path string, opts *checkOptions) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}

	entries, err := formula.LoadFile(path)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cliCtx.Timeout)
	defer cancel()

	if cliCtx.Client != nil {
		return runCheckRemote(ctx, cmd, cliCtx.Client, entries, opts)
	}

	snap, err := loadSnapshot(ctx, cliCtx.Config, cliCtx.Logger)
	if err != nil {
		return err
	}

	result, err := domain.NewEngine(snap).Evaluate(entries, opts.Dosage)
	if err != nil {
		return err
	}

	if err := renderResult(cmd, result, opts); err != nil {
		return err
	}
	return strictVerdict(result.IsCompliant, opts)
}

func renderResult(cmd *cobra.Command, result *domain.Result, opts *checkOptions) error {
	switch opts.Format {
	case "text":
		return reporting.WriteText(cmd.OutOrStdout(), result)
	case "json":
		return reporting.WriteJSON(cmd.OutOrStdout(), result)
	case "pdf":
		product := opts.Product
		if product == "" {
			product = "Unnamed Product"
		}
		pdf, err := reporting.GeneratePDF(reporting.Certificate{
			ProductName: product,
			ClientName:  opts.ClientName,
			Date:        opts.Date,
		}, result)
		if err != nil {
			return err
		}
		return writePDF(cmd, opts.OutPath, pdf)
	default:
		return errors.Newf(errors.CodeInvalidParam, "unsupported report format %q", opts.Format)
	}
}

func runCheckRemote(ctx context.Context, cmd *cobra.Command, c *client.Client, entries []domain.FormulaEntry, opts *checkOptions) error {
	req := &client.CheckRequest{
		Formula:        toClientFormula(entries),
		FinishedDosage: &opts.Dosage,
	}

	switch opts.Format {
	case "text":
		report, err := c.Report(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), report)
		if !opts.Strict {
			return nil
		}
		resp, err := c.Check(ctx, req)
		if err != nil {
			return err
		}
		return strictVerdict(resp.Result != nil && resp.Result.IsCompliant, opts)
	case "json":
		resp, err := c.Check(ctx, req)
		if err != nil {
			return err
		}
		if err := printJSON(cmd, resp); err != nil {
			return err
		}
		return strictVerdict(resp.Result != nil && resp.Result.IsCompliant, opts)
	case "pdf":
		pdf, err := c.Certificate(ctx, &client.CertificateRequest{
			CheckRequest: *req,
			ProductName:  opts.Product,
			ClientName:   opts.ClientName,
			Date:         opts.Date,
		})
		if err != nil {
			return err
		}
		return writePDF(cmd, opts.OutPath, pdf)
	default:
		return errors.Newf(errors.CodeInvalidParam, "unsupported report format %q", opts.Format)
	}
}

func writePDF(cmd *cobra.Command, path string, pdf []byte) error {
	if path == "" {
		path = "IFRA_Certificate.pdf"
	}
	if err := os.WriteFile(path, pdf, 0o644); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to write certificate").WithDetail(path)
	}
	PrintSuccess(cmd, fmt.Sprintf("certificate written to %s", path))
	return nil
}

func strictVerdict(compliant bool, opts *checkOptions) error {
	if opts.Strict && !compliant {
		return errors.New(errors.CodeValidation, "formula is not compliant")
	}
	return nil
}

func toClientFormula(entries []domain.FormulaEntry) []client.FormulaEntry {
	out := make([]client.FormulaEntry, 0, len(entries))
	for _, e := range entries {
		ce := client.FormulaEntry{Name: e.Name, CAS: e.CAS, SKU: e.SKU}
		switch e.Basis {
		case domain.BasisConcentration:
			v := e.Concentration
			ce.Concentration = &v
		default:
			v := e.Amount
			ce.Amount = &v
		}
		out = append(out, ce)
	}
	return out
}
