package errors

// ErrorCode identifies a failure category. Codes are stable strings so they
// can be emitted as metric labels and returned in API responses without
// leaking internals.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	CodeOK                 ErrorCode = "OK"
	CodeUnknown            ErrorCode = "COMMON_000"
	CodeInternal           ErrorCode = "COMMON_001"
	CodeInvalidParam       ErrorCode = "COMMON_002"
	CodeNotFound           ErrorCode = "COMMON_003"
	CodeTimeout            ErrorCode = "COMMON_004"
	CodeValidation         ErrorCode = "COMMON_005"
	CodeSerialization      ErrorCode = "COMMON_006"
	CodeCacheError         ErrorCode = "COMMON_007"
	CodeServiceUnavailable ErrorCode = "COMMON_008"
)

// Compliance-engine error codes.
const (
	// CodeInvalidNumeric marks a formula entry whose amount or concentration
	// is not a finite, non-negative number. This is the one calculation
	// failure surfaced to the caller rather than degraded (all other data
	// problems become warnings on the result).
	CodeInvalidNumeric ErrorCode = "ENG_001"

	// CodeInvalidDosage marks a finished dosage outside (0, 100].
	CodeInvalidDosage ErrorCode = "ENG_002"

	// CodeEmptyFormula marks a calculation request with no entries.
	CodeEmptyFormula ErrorCode = "ENG_003"
)

// Reference-data error codes.
const (
	CodeRefDataLoad     ErrorCode = "REF_001"
	CodeRefDataInvalid  ErrorCode = "REF_002"
	CodeMaterialUnknown ErrorCode = "REF_003"
)

// Formula-ingestion error codes.
const (
	CodeFormulaParse     ErrorCode = "FML_001"
	CodeFormulaNoColumns ErrorCode = "FML_002"
)
