package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	appcompliance "github.com/olfacto/scentinel/internal/application/compliance"
	"github.com/olfacto/scentinel/internal/application/reporting"
	"github.com/olfacto/scentinel/internal/formula"
	"github.com/olfacto/scentinel/pkg/errors"
)

// ComplianceHandler serves compliance checks, reports, and certificates.
type ComplianceHandler struct {
	service appcompliance.Service
}

// NewComplianceHandler builds the handler.
func NewComplianceHandler(service appcompliance.Service) *ComplianceHandler {
	return &ComplianceHandler{service: service}
}

// checkRequest is the wire shape of a check request. The formula array is
// kept raw and parsed with the shared formula decoder.
type checkRequest struct {
	Formula        json.RawMessage `json:"formula"`
	FinishedDosage *float64        `json:"finished_dosage"`
	SkipCache      bool            `json:"skip_cache"`
}

// certificateRequest extends a check with certificate metadata.
type certificateRequest struct {
	checkRequest
	ProductName string `json:"product_name"`
	ClientName  string `json:"client_name"`
	Date        string `json:"date"`
}

func (h *ComplianceHandler) decodeCheck(r *http.Request, req *checkRequest) (*appcompliance.CheckInput, error) {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "invalid request body")
	}
	if len(req.Formula) == 0 {
		return nil, errors.New(errors.CodeEmptyFormula, "formula is required")
	}
	entries, err := formula.ParseJSON(bytes.NewReader(req.Formula))
	if err != nil {
		return nil, err
	}

	dosage := 100.0
	if req.FinishedDosage != nil {
		dosage = *req.FinishedDosage
	}
	return &appcompliance.CheckInput{
		Formula:        entries,
		FinishedDosage: dosage,
		SkipCache:      req.SkipCache,
	}, nil
}

// Check handles POST /api/v1/compliance/check.
func (h *ComplianceHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	input, err := h.decodeCheck(r, &req)
	if err != nil {
		writeAppError(w, err)
		return
	}

	out, err := h.service.Check(r.Context(), input)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Report handles POST /api/v1/compliance/report. The format query
// parameter selects text (default) or json output.
func (h *ComplianceHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	input, err := h.decodeCheck(r, &req)
	if err != nil {
		writeAppError(w, err)
		return
	}

	out, err := h.service.Check(r.Context(), input)
	if err != nil {
		writeAppError(w, err)
		return
	}

	switch r.URL.Query().Get("format") {
	case "", "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := reporting.WriteText(w, out.Result); err != nil {
			writeAppError(w, err)
		}
	case "json":
		w.Header().Set("Content-Type", "application/json")
		if err := reporting.WriteJSON(w, out.Result); err != nil {
			writeAppError(w, err)
		}
	default:
		writeAppError(w, errors.Newf(errors.CodeInvalidParam,
			"unsupported report format %q", r.URL.Query().Get("format")))
	}
}

// Certificate handles POST /api/v1/compliance/certificate, returning a PDF
// conformity certificate.
func (h *ComplianceHandler) Certificate(w http.ResponseWriter, r *http.Request) {
	var req certificateRequest
	input, err := h.decodeCheck(r, &req.checkRequest)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format("2006-01-02")
	}

	out, err := h.service.Check(r.Context(), input)
	if err != nil {
		writeAppError(w, err)
		return
	}

	pdf, err := reporting.GeneratePDF(reporting.Certificate{
		ProductName: req.ProductName,
		ClientName:  req.ClientName,
		Date:        req.Date,
	}, out.Result)
	if err != nil {
		writeAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "IFRA_Certificate.pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
