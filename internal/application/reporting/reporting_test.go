package reporting

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/olfacto/scentinel/internal/domain/compliance"
	"github.com/olfacto/scentinel/pkg/errors"
)

func sampleResult(compliant bool) *domain.Result {
	ratio := 0.5
	exceed := 0.0
	pass := true
	if !compliant {
		ratio = 2.5
		exceed = 150.0
		pass = false
	}
	return &domain.Result{
		IsCompliant: compliant,
		Results: []domain.StandardResult{
			{
				StandardID:     "std_citral",
				StandardName:   "Citral",
				Concentration:  0.3,
				Limit:          domain.NumericLimit(0.6),
				Pass:           pass,
				Ratio:          domain.WireFloat(ratio),
				ExceedancePerc: domain.WireFloat(exceed),
				Sources:        map[string]float64{"Lemon Oil Cold Pressed": 0.3},
			},
			{
				StandardID:    "std_trace",
				StandardName:  "Trace Standard",
				Concentration: 0,
				Limit:         domain.NumericLimit(1.0),
				Pass:          true,
				Ratio:         0,
			},
		},
		Phototoxicity:     domain.PhototoxicityResult{SumOfRatios: 0.2, Pass: true},
		CriticalComponent: "Citral",
		MaxSafeDosage:     40.0,
		FinishedDosage:    20.0,
	}
}

func TestWriteTextCompliant(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, sampleResult(true)))
	out := buf.String()

	assert.Contains(t, out, "IFRA CATEGORY 4 COMPLIANCE REPORT")
	assert.Contains(t, out, "OVERALL STATUS: PASS")
	assert.Contains(t, out, "CRITICAL COMPONENT: Citral")
	assert.Contains(t, out, "MAX SAFE DOSAGE: 40.0000% (Currently Safe)")
	assert.Contains(t, out, "Citral")
	// Passing standards with negligible concentration stay hidden.
	assert.NotContains(t, out, "Trace Standard")
	assert.Contains(t, out, "PHOTOTOXICITY (Sum of Ratios): 0.2")
}

func TestWriteTextNonCompliant(t *testing.T) {
	result := sampleResult(false)
	result.UnresolvedMaterials = []string{"Mystery Musk"}
	result.DataIntegrityWarnings = []string{"Sparse Oil (Composition only totals 10.0%)"}

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, result))
	out := buf.String()

	assert.Contains(t, out, "OVERALL STATUS: !!! FAIL !!!")
	assert.Contains(t, out, "RECOMMENDED DOSAGE FOR PASS: 40.0000% (Concentrate)")
	assert.Contains(t, out, "Mystery Musk")
	assert.Contains(t, out, "COLLECTIVE COMPLIANCE CANNOT BE FULLY GUARANTEED.")
	assert.Contains(t, out, "Sparse Oil (Composition only totals 10.0%)")
	assert.Contains(t, out, "150%")
	assert.Contains(t, out, "FAIL")
}

func TestWriteTextNilResult(t *testing.T) {
	err := WriteText(&bytes.Buffer{}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestWriteJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, sampleResult(true)))

	var decoded domain.Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.True(t, decoded.IsCompliant)
	assert.Equal(t, "Citral", decoded.CriticalComponent)
}

func TestGeneratePDF(t *testing.T) {
	data, err := GeneratePDF(Certificate{
		ProductName: "Eau de Test",
		ClientName:  "Internal",
		Date:        "2026-08-29",
	}, sampleResult(true))
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "output must be a PDF document")
	assert.Greater(t, len(data), 1000)
}

func TestGeneratePDFNonCompliant(t *testing.T) {
	data, err := GeneratePDF(Certificate{ProductName: "Eau de Test"}, sampleResult(false))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}

func TestGeneratePDFValidation(t *testing.T) {
	_, err := GeneratePDF(Certificate{ProductName: "X"}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = GeneratePDF(Certificate{}, sampleResult(true))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	if testing.Short() {
		return
	}
	// Long product names must not break rendering.
	_, err = GeneratePDF(Certificate{ProductName: strings.Repeat("A", 200)}, sampleResult(true))
	assert.NoError(t, err)
}
