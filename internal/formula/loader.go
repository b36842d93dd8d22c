// Package formula loads formulas from CSV and JSON files into engine
// entries. CSV column detection is heuristic: perfumery spreadsheets rarely
// agree on header names.
package formula

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olfacto/scentinel/internal/domain/compliance"
	"github.com/olfacto/scentinel/pkg/errors"
)

// amountTokens identify a mass column in a CSV header.
var amountTokens = []string{"amount", "weight", "mass", "gram"}

// LoadFile reads a formula from path, dispatching on the file extension.
func LoadFile(path string) ([]compliance.FormulaEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeFormulaParse, "failed to open formula file").
			WithDetail(path)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ParseCSV(f)
	case ".json":
		return ParseJSON(f)
	default:
		return nil, errors.Newf(errors.CodeFormulaParse,
			"unsupported formula format %q, use .csv or .json", filepath.Ext(path))
	}
}

// ParseCSV reads a headed CSV formula. The material name column is the
// first header containing "name" (else column 0); the amount column is the
// first header containing one of amount/weight/mass/gram (else column 1).
// Optional "cas" and "conc" columns are picked up when present.
func ParseCSV(r io.Reader) ([]compliance.FormulaEntry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeFormulaParse, "failed to parse csv")
	}
	if len(records) < 2 {
		return nil, errors.New(errors.CodeFormulaParse, "csv has no data rows")
	}

	header := records[0]
	nameCol := findColumn(header, func(h string) bool { return strings.Contains(h, "name") })
	if nameCol < 0 {
		nameCol = 0
	}
	amountCol := findColumn(header, func(h string) bool {
		for _, tok := range amountTokens {
			if strings.Contains(h, tok) {
				return true
			}
		}
		return false
	})
	if amountCol < 0 {
		if len(header) < 2 {
			return nil, errors.New(errors.CodeFormulaNoColumns,
				"could not identify an amount column, use a header containing amount, weight, mass, or gram")
		}
		amountCol = 1
	}
	casCol := findColumn(header, func(h string) bool { return strings.Contains(h, "cas") })
	concCol := findColumn(header, func(h string) bool { return strings.Contains(h, "conc") })

	entries := make([]compliance.FormulaEntry, 0, len(records)-1)
	for i, row := range records[1:] {
		name := strings.TrimSpace(cell(row, nameCol))
		if name == "" {
			continue
		}

		var entry compliance.FormulaEntry
		if concCol >= 0 && strings.TrimSpace(cell(row, concCol)) != "" {
			conc, err := parseNumber(cell(row, concCol))
			if err != nil {
				return nil, errors.Newf(errors.CodeFormulaParse,
					"row %d: invalid concentration %q", i+2, cell(row, concCol))
			}
			entry = compliance.ByConcentration(name, conc)
		} else {
			amount, err := parseNumber(cell(row, amountCol))
			if err != nil {
				return nil, errors.Newf(errors.CodeFormulaParse,
					"row %d: invalid amount %q", i+2, cell(row, amountCol))
			}
			entry = compliance.ByAmount(name, amount)
		}
		if casCol >= 0 {
			if cas := strings.TrimSpace(cell(row, casCol)); cas != "" {
				entry = entry.WithCAS(cas)
			}
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, errors.New(errors.CodeFormulaParse, "csv has no usable rows")
	}
	return entries, nil
}

// jsonEntry is the wire shape of one JSON formula line.
type jsonEntry struct {
	Name          string   `json:"name"`
	CAS           string   `json:"cas"`
	SKU           string   `json:"sku"`
	Amount        *float64 `json:"amount"`
	Concentration *float64 `json:"concentration"`
}

// ParseJSON reads a JSON array of formula lines. Lines carrying a
// concentration are treated as raw percentages; all others must carry an
// amount.
func ParseJSON(r io.Reader) ([]compliance.FormulaEntry, error) {
	var rows []jsonEntry
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, errors.Wrap(err, errors.CodeFormulaParse, "failed to parse json formula")
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.CodeFormulaParse, "json formula has no entries")
	}

	entries := make([]compliance.FormulaEntry, 0, len(rows))
	for i, row := range rows {
		if row.Name == "" {
			return nil, errors.Newf(errors.CodeFormulaParse, "entry %d: name is required", i)
		}
		var entry compliance.FormulaEntry
		switch {
		case row.Concentration != nil:
			entry = compliance.ByConcentration(row.Name, *row.Concentration)
		case row.Amount != nil:
			entry = compliance.ByAmount(row.Name, *row.Amount)
		default:
			return nil, errors.Newf(errors.CodeFormulaParse,
				"entry %d (%s): amount or concentration is required", i, row.Name)
		}
		if row.CAS != "" {
			entry = entry.WithCAS(row.CAS)
		}
		if row.SKU != "" {
			entry = entry.WithSKU(row.SKU)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func findColumn(header []string, match func(string) bool) int {
	for i, h := range header {
		if match(strings.ToLower(strings.TrimSpace(h))) {
			return i
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}
