// Package reporting renders compliance results as text reports, JSON
// exports, and PDF certificates.
package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	domain "github.com/olfacto/scentinel/internal/domain/compliance"
	"github.com/olfacto/scentinel/pkg/errors"
)

const ruleWidth = 85

// concentrationFloor hides passing standards whose aggregated concentration
// is negligible; failing standards always print.
const concentrationFloor = 1e-6

// WriteText renders the fixed-width compliance report.
func WriteText(w io.Writer, result *domain.Result) error {
	if result == nil {
		return errors.New(errors.CodeInvalidParam, "result is required")
	}

	var err error
	p := func(format string, args ...interface{}) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, format+"\n", args...)
	}
	rule := func(ch string) {
		line := ""
		for i := 0; i < ruleWidth; i++ {
			line += ch
		}
		p("%s", line)
	}

	p("")
	rule("=")
	p(" IFRA CATEGORY 4 COMPLIANCE REPORT (51st Amendment)")
	rule("=")

	status := "PASS"
	if !result.IsCompliant {
		status = "!!! FAIL !!!"
	}
	p("OVERALL STATUS: %s", status)
	p("FINISHED PRODUCT CONCENTRATION: %g%%", result.FinishedDosage)
	p("CRITICAL COMPONENT: %s", result.CriticalComponent)
	if !result.IsCompliant {
		p("RECOMMENDED DOSAGE FOR PASS: %.4f%% (Concentrate)", result.MaxSafeDosage)
	} else {
		p("MAX SAFE DOSAGE: %.4f%% (Currently Safe)", result.MaxSafeDosage)
	}

	if len(result.UnresolvedMaterials) > 0 {
		rule("-")
		p("WARNING: THE FOLLOWING MATERIALS WERE NOT FOUND IN THE DATABASE:")
		for _, m := range result.UnresolvedMaterials {
			p(" - %s", m)
		}
		p("COLLECTIVE COMPLIANCE CANNOT BE FULLY GUARANTEED.")
	}
	if len(result.DataIntegrityWarnings) > 0 {
		rule("-")
		p("DATA INTEGRITY WARNINGS (Check for incomplete composition data):")
		for _, m := range result.DataIntegrityWarnings {
			p(" - %s", m)
		}
	}

	rule("-")
	p("%-35s | %-10s | %-8s | %-6s | %s", "Standard Name", "Conc (%)", "Limit", "Ratio", "Exceed %")
	rule("-")

	rows := append([]domain.StandardResult(nil), result.Results...)
	sort.SliceStable(rows, func(i, j int) bool {
		return float64(rows[i].Ratio) > float64(rows[j].Ratio)
	})
	for _, res := range rows {
		if res.Pass && res.Concentration <= concentrationFloor {
			continue
		}
		mark := "OK "
		if !res.Pass {
			mark = "FAIL"
		}
		exceed := "-"
		if float64(res.ExceedancePerc) > 0 {
			exceed = fmt.Sprintf("%g%%", float64(res.ExceedancePerc))
		}
		name := res.StandardName
		if len(name) > 32 {
			name = name[:32]
		}
		p("%-4s %-30s | %-10.6f | %-8s | %-6.2f | %s",
			mark, name, res.Concentration, res.Limit.String(), float64(res.Ratio), exceed)
	}

	rule("-")
	pMark := "OK "
	if !result.Phototoxicity.Pass {
		pMark = "FAIL"
	}
	pExceed := "-"
	if result.Phototoxicity.ExceedancePerc > 0 {
		pExceed = fmt.Sprintf("%g%%", result.Phototoxicity.ExceedancePerc)
	}
	p("%s PHOTOTOXICITY (Sum of Ratios): %g (Limit: 1.0) | Exceed: %s",
		pMark, result.Phototoxicity.SumOfRatios, pExceed)
	rule("=")
	p("")

	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to write report")
	}
	return nil
}

// WriteJSON renders the result as indented JSON.
func WriteJSON(w io.Writer, result *domain.Result) error {
	if result == nil {
		return errors.New(errors.CodeInvalidParam, "result is required")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return errors.Wrap(err, errors.CodeSerialization, "failed to encode result")
	}
	return nil
}
