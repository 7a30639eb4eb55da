package dto

import "net/http"

// Error code constants exposed on the wire.
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeValidation is used for per-field input validation failures
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeTenantViolation is used when a resource belongs to another dealership
	ErrCodeTenantViolation = "ERR_TENANT_VIOLATION"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for the current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeVehicleNotAvailable is used when a deal references a vehicle that
	// is not attachable
	ErrCodeVehicleNotAvailable = "ERR_VEHICLE_NOT_AVAILABLE"
	// ErrCodeDuplicateDealNumber is used when a deal number collides within a
	// dealership
	ErrCodeDuplicateDealNumber = "ERR_DUPLICATE_DEAL_NUMBER"
)

// Concurrency and availability error codes
const (
	// ErrCodeConflictRetryExhausted is used when a transaction kept conflicting
	// after all retry attempts
	ErrCodeConflictRetryExhausted = "ERR_CONFLICT_RETRY_EXHAUSTED"
	// ErrCodePoolTimeout is used when no database connection could be acquired
	ErrCodePoolTimeout = "ERR_POOL_TIMEOUT"
	// ErrCodeShuttingDown is used for requests arriving during shutdown
	ErrCodeShuttingDown = "ERR_SHUTTING_DOWN"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	// Cross-tenant references are rejected, not hidden: the caller named a
	// real resource it has no rights to.
	ErrCodeTenantViolation: http.StatusForbidden,

	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:        http.StatusUnprocessableEntity,
	ErrCodeVehicleNotAvailable: http.StatusConflict,
	ErrCodeDuplicateDealNumber: http.StatusConflict,

	ErrCodeConflictRetryExhausted: http.StatusConflict,
	ErrCodePoolTimeout:            http.StatusServiceUnavailable,
	ErrCodeShuttingDown:           http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to wire error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"TENANT_VIOLATION":      ErrCodeTenantViolation,
	"VEHICLE_NOT_AVAILABLE": ErrCodeVehicleNotAvailable,
	"DUPLICATE_DEAL_NUMBER": ErrCodeDuplicateDealNumber,
	"INVALID_STATE":         ErrCodeInvalidState,
	"INVALID_INPUT":         ErrCodeBadRequest,
}

// NormalizeErrorCode converts a domain error code to the wire format. Domain
// codes without an explicit mapping are entity-construction failures and read
// as business rule violations.
func NormalizeErrorCode(code string) string {
	if wireCode, ok := DomainErrorCodeMapping[code]; ok {
		return wireCode
	}
	return ErrCodeBusinessRule
}
