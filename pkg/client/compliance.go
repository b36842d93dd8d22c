package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
)

// FormulaEntry is one line of a fragrance formula. Amount is a raw weight
// in arbitrary units; Concentration is a percentage of the concentrate and
// takes precedence when both are set.
type FormulaEntry struct {
	Name          string   `json:"name"`
	CAS           string   `json:"cas,omitempty"`
	SKU           string   `json:"sku,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	Concentration *float64 `json:"concentration,omitempty"`
}

// CheckRequest is a compliance check submission. A nil FinishedDosage
// evaluates the pure concentrate (100%).
type CheckRequest struct {
	Formula        []FormulaEntry `json:"formula"`
	FinishedDosage *float64       `json:"finished_dosage,omitempty"`
	SkipCache      bool           `json:"skip_cache,omitempty"`
}

// CertificateRequest extends a check with certificate metadata.
type CertificateRequest struct {
	CheckRequest
	ProductName string `json:"product_name"`
	ClientName  string `json:"client_name,omitempty"`
	Date        string `json:"date,omitempty"`
}

// Limit is a standard's limit: numeric, or specification-only with no
// number. It unmarshals from a JSON number or the string "specification".
type Limit struct {
	Value         float64
	Specification bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Limit) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*l = Limit{Value: v}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil && s == "specification" {
		*l = Limit{Specification: true}
		return nil
	}
	return fmt.Errorf("client: invalid limit value %s", string(data))
}

// Float is a float64 that tolerates the API's "Infinity" / "-Infinity"
// encodings for unbounded ratios.
type Float float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*f = Float(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "Infinity":
			*f = Float(math.Inf(1))
			return nil
		case "-Infinity":
			*f = Float(math.Inf(-1))
			return nil
		}
	}
	return fmt.Errorf("client: invalid numeric value %s", string(data))
}

// StandardResult is the verdict for one regulatory standard.
type StandardResult struct {
	StandardID     string             `json:"standard_id"`
	StandardName   string             `json:"standard_name"`
	Concentration  float64            `json:"concentration"`
	Limit          Limit              `json:"limit"`
	Pass           bool               `json:"pass"`
	Ratio          Float              `json:"ratio"`
	ExceedancePerc Float              `json:"exceedance_perc"`
	Sources        map[string]float64 `json:"sources"`
}

// PhototoxicityResult is the combined phototoxicity verdict.
type PhototoxicityResult struct {
	SumOfRatios    float64 `json:"sum_of_ratios"`
	Pass           bool    `json:"pass"`
	ExceedancePerc float64 `json:"exceedance_perc"`
}

// Result is a complete compliance calculation outcome.
type Result struct {
	IsCompliant           bool                `json:"is_compliant"`
	Results               []StandardResult    `json:"results"`
	Phototoxicity         PhototoxicityResult `json:"phototoxicity"`
	CriticalComponent     string              `json:"critical_component"`
	MaxSafeDosage         float64             `json:"max_safe_dosage"`
	FinishedDosage        float64             `json:"finished_dosage"`
	UnresolvedMaterials   []string            `json:"unresolved_materials"`
	DataIntegrityWarnings []string            `json:"data_integrity_warnings"`
	ResolutionTruncated   bool                `json:"resolution_truncated"`
	TruncatedMaterials    []string            `json:"truncated_materials,omitempty"`
}

// CheckResponse wraps a Result with service metadata.
type CheckResponse struct {
	CheckID         string  `json:"check_id"`
	SnapshotVersion string  `json:"snapshot_version"`
	Cached          bool    `json:"cached"`
	Result          *Result `json:"result"`
}

// Material is one reference-data material.
type Material struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Standard describes one regulatory standard.
type Standard struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	LimitCat4 *float64 `json:"limit_cat4"`
}

type materialsResponse struct {
	Query     string     `json:"query"`
	Materials []Material `json:"materials"`
}

type standardsResponse struct {
	SnapshotVersion string     `json:"snapshot_version"`
	Standards       []Standard `json:"standards"`
}

// Health is the readiness report of the server.
type Health struct {
	Status          string            `json:"status"`
	Version         string            `json:"version"`
	SnapshotVersion string            `json:"snapshot_version"`
	Checks          map[string]string `json:"checks"`
}

// Check runs a compliance calculation on the server.
func (c *Client) Check(ctx context.Context, req *CheckRequest) (*CheckResponse, error) {
	var resp CheckResponse
	if err := c.post(ctx, "/api/v1/compliance/check", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Report runs a check and returns the rendered plain-text report.
func (c *Client) Report(ctx context.Context, req *CheckRequest) (string, error) {
	var raw []byte
	if err := c.do(ctx, "POST", "/api/v1/compliance/report?format=text", req, nil, &raw); err != nil {
		return "", err
	}
	return string(raw), nil
}

// Certificate runs a check and returns the PDF certificate bytes.
func (c *Client) Certificate(ctx context.Context, req *CertificateRequest) ([]byte, error) {
	var raw []byte
	if err := c.do(ctx, "POST", "/api/v1/compliance/certificate", req, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// SearchMaterials looks up reference materials by name, CAS, or SKU
// fragment. limit <= 0 uses the server default.
func (c *Client) SearchMaterials(ctx context.Context, query string, limit int) ([]Material, error) {
	path := "/api/v1/materials?q=" + url.QueryEscape(query)
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}
	var resp materialsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Materials, nil
}

// ListStandards returns all regulatory standards in the active snapshot.
func (c *Client) ListStandards(ctx context.Context) ([]Standard, string, error) {
	var resp standardsResponse
	if err := c.get(ctx, "/api/v1/standards", &resp); err != nil {
		return nil, "", err
	}
	return resp.Standards, resp.SnapshotVersion, nil
}

// Health queries the readiness endpoint. A degraded server returns both
// the report and an *APIError with status 503.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.get(ctx, "/health/ready", &h); err != nil {
		return nil, err
	}
	return &h, nil
}
