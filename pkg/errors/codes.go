package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeOK                 ErrorCode = "OK"
	ErrCodeUnknown            ErrorCode = "COMMON_000"
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeCacheMiss          ErrorCode = "COMMON_014"
	ErrCodeExternalService    ErrorCode = "COMMON_015"
	ErrCodeStorage            ErrorCode = "COMMON_016"
	ErrCodeMessageQueue       ErrorCode = "COMMON_017"
)

// Database Module Error Codes
const (
	ErrCodeDatabaseNotFound    ErrorCode = "DB_001"
	ErrCodeDatabaseInvalidName ErrorCode = "DB_002"
	ErrCodeUnknownSection      ErrorCode = "DB_003"
	ErrCodeDatabaseParse       ErrorCode = "DB_004"
	ErrCodeMissingMasterTable  ErrorCode = "DB_005"
)

// Chemistry Module Error Codes
const (
	ErrCodeInvalidFormula ErrorCode = "CHEM_001"
)

// Input Module Error Codes
const (
	ErrCodeInvalidColumn ErrorCode = "INP_001"
	ErrCodeAmbiguousName ErrorCode = "INP_002"
	ErrCodeInvalidValue  ErrorCode = "INP_003"
	ErrCodeEmptyTable    ErrorCode = "INP_004"
)

// Generator Module Error Codes
const (
	ErrCodeUnknownPhase   ErrorCode = "GEN_001"
	ErrCodeNoTargets      ErrorCode = "GEN_002"
	ErrCodeJobSubmission  ErrorCode = "GEN_003"
	ErrCodeResultMismatch ErrorCode = "GEN_004"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeOK:                 http.StatusOK,
	ErrCodeUnknown:            http.StatusInternalServerError,
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeCacheMiss:          http.StatusNotFound,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeStorage:            http.StatusBadGateway,
	ErrCodeMessageQueue:       http.StatusBadGateway,

	ErrCodeDatabaseNotFound:    http.StatusNotFound,
	ErrCodeDatabaseInvalidName: http.StatusBadRequest,
	ErrCodeUnknownSection:      http.StatusNotFound,
	ErrCodeDatabaseParse:       http.StatusInternalServerError,
	ErrCodeMissingMasterTable:  http.StatusUnprocessableEntity,

	ErrCodeInvalidFormula: http.StatusBadRequest,

	ErrCodeInvalidColumn: http.StatusUnprocessableEntity,
	ErrCodeAmbiguousName: http.StatusUnprocessableEntity,
	ErrCodeInvalidValue:  http.StatusBadRequest,
	ErrCodeEmptyTable:    http.StatusBadRequest,

	ErrCodeUnknownPhase:   http.StatusUnprocessableEntity,
	ErrCodeNoTargets:      http.StatusUnprocessableEntity,
	ErrCodeJobSubmission:  http.StatusBadGateway,
	ErrCodeResultMismatch: http.StatusBadGateway,
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// ModuleForCode returns the module prefix of an ErrorCode ("DB", "INP", ...).
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
