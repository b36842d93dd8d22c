package formula

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olfacto/scentinel/internal/domain/compliance"
	"github.com/olfacto/scentinel/pkg/errors"
)

func TestParseCSVHeuristicColumns(t *testing.T) {
	csv := strings.NewReader(
		"Material Name,CAS Number,Weight (g)\n" +
			"Lemon Oil Cold Pressed,8008-56-8,10.5\n" +
			"Ethanol,,89.5\n")

	entries, err := ParseCSV(csv)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Lemon Oil Cold Pressed", entries[0].Name)
	assert.Equal(t, "8008-56-8", entries[0].CAS)
	assert.Equal(t, compliance.BasisAmount, entries[0].Basis)
	assert.Equal(t, 10.5, entries[0].Amount)

	assert.Equal(t, "Ethanol", entries[1].Name)
	assert.Empty(t, entries[1].CAS)
	assert.Equal(t, 89.5, entries[1].Amount)
}

func TestParseCSVFallbackColumns(t *testing.T) {
	// No recognizable headers: column 0 is the name, column 1 the amount.
	csv := strings.NewReader("Ingredient,Qty\nRose Base,50\n")

	entries, err := ParseCSV(csv)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Rose Base", entries[0].Name)
	assert.Equal(t, 50.0, entries[0].Amount)
}

func TestParseCSVConcentrationColumn(t *testing.T) {
	csv := strings.NewReader(
		"Name,Concentration (%)\n" +
			"Citral,0.5\n")

	entries, err := ParseCSV(csv)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, compliance.BasisConcentration, entries[0].Basis)
	assert.Equal(t, 0.5, entries[0].Concentration)
}

func TestParseCSVSkipsBlankNames(t *testing.T) {
	csv := strings.NewReader("Name,Amount\nLemon,10\n,5\n")

	entries, err := ParseCSV(csv)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestParseCSVSingleColumnNoAmount(t *testing.T) {
	csv := strings.NewReader("Ingredient\nRose Base\n")

	_, err := ParseCSV(csv)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeFormulaNoColumns))
}

func TestParseCSVBadNumber(t *testing.T) {
	csv := strings.NewReader("Name,Amount\nLemon,ten\n")

	_, err := ParseCSV(csv)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeFormulaParse))
}

func TestParseCSVNoRows(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Name,Amount\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeFormulaParse))
}

func TestParseJSON(t *testing.T) {
	payload := strings.NewReader(`[
		{"name": "Lemon Oil Cold Pressed", "cas": "8008-56-8", "amount": 10},
		{"name": "Bergamot FCF", "sku": "BRG-01", "concentration": 2.5}
	]`)

	entries, err := ParseJSON(payload)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, compliance.BasisAmount, entries[0].Basis)
	assert.Equal(t, "8008-56-8", entries[0].CAS)
	assert.Equal(t, compliance.BasisConcentration, entries[1].Basis)
	assert.Equal(t, "BRG-01", entries[1].SKU)
	assert.Equal(t, 2.5, entries[1].Concentration)
}

func TestParseJSONMissingQuantity(t *testing.T) {
	_, err := ParseJSON(strings.NewReader(`[{"name": "Lemon"}]`))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeFormulaParse))
}

func TestParseJSONMissingName(t *testing.T) {
	_, err := ParseJSON(strings.NewReader(`[{"amount": 10}]`))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeFormulaParse))
}

func TestLoadFileDispatch(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "formula.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Name,Amount\nLemon,10\n"), 0o644))
	entries, err := LoadFile(csvPath)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	jsonPath := filepath.Join(dir, "formula.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"name": "Lemon", "amount": 10}]`), 0o644))
	entries, err = LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	txtPath := filepath.Join(dir, "formula.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o644))
	_, err = LoadFile(txtPath)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeFormulaParse))

	_, err = LoadFile(filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeFormulaParse))
}
