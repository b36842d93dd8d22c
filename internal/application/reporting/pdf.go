package reporting

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/go-pdf/fpdf"

	domain "github.com/olfacto/scentinel/internal/domain/compliance"
	"github.com/olfacto/scentinel/pkg/errors"
)

// Certificate carries the metadata printed on a compliance certificate.
type Certificate struct {
	ProductName string
	ClientName  string
	Date        string
}

// GeneratePDF renders an IFRA Category 4 conformity certificate for the
// result. Non-compliant results still render, marked NOT COMPLIANT, so a
// perfumer can hand the document to a reformulation discussion.
func GeneratePDF(cert Certificate, result *domain.Result) ([]byte, error) {
	if result == nil {
		return nil, errors.New(errors.CodeInvalidParam, "result is required")
	}
	if cert.ProductName == "" {
		return nil, errors.New(errors.CodeInvalidParam, "product name is required")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("IFRA Certificate - "+cert.ProductName, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "CERTIFICATE OF IFRA CONFORMITY", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Category 4 (51st Amendment)", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 11)
	metaRow(pdf, "Product", cert.ProductName)
	metaRow(pdf, "Client", cert.ClientName)
	metaRow(pdf, "Date", cert.Date)
	metaRow(pdf, "Finished Product Concentration", fmt.Sprintf("%g%%", result.FinishedDosage))
	metaRow(pdf, "Maximum Safe Dosage", fmt.Sprintf("%.4f%%", result.MaxSafeDosage))
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	if result.IsCompliant {
		pdf.SetTextColor(0, 128, 0)
		pdf.CellFormat(0, 10, "STATUS: COMPLIANT", "1", 1, "C", false, 0, "")
	} else {
		pdf.SetTextColor(192, 0, 0)
		pdf.CellFormat(0, 10, "STATUS: NOT COMPLIANT", "1", 1, "C", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(80, 7, "Restricted Standard", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Conc (%)", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "Limit (%)", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "Status", "1", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	rows := append([]domain.StandardResult(nil), result.Results...)
	sort.SliceStable(rows, func(i, j int) bool {
		return float64(rows[i].Ratio) > float64(rows[j].Ratio)
	})
	for _, res := range rows {
		if res.Pass && res.Concentration <= concentrationFloor {
			continue
		}
		status := "PASS"
		if !res.Pass {
			status = "FAIL"
		}
		name := res.StandardName
		if len(name) > 48 {
			name = name[:48]
		}
		pdf.CellFormat(80, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.6f", res.Concentration), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, res.Limit.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, status, "1", 1, "C", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "", 9)
	photoStatus := "PASS"
	if !result.Phototoxicity.Pass {
		photoStatus = "FAIL"
	}
	pdf.CellFormat(0, 6,
		fmt.Sprintf("Phototoxicity (sum of ratios): %g / 1.0 - %s",
			result.Phototoxicity.SumOfRatios, photoStatus),
		"", 1, "L", false, 0, "")

	if len(result.UnresolvedMaterials) > 0 {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.MultiCell(0, 4,
			"Note: some materials were not found in the reference database and are excluded "+
				"from this assessment. Compliance cannot be fully guaranteed.",
			"", "L", false)
	}

	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(90, 6, "_________________________", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, "_________________________", "", 1, "L", false, 0, "")
	pdf.CellFormat(90, 6, "Authorized Signatory", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Date", "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to render pdf certificate")
	}
	return buf.Bytes(), nil
}

func metaRow(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(70, 7, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}
