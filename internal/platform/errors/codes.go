// Package errors provides structured error handling with machine-readable codes.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Session errors
	CodeSessionInProgress Code = "SESSION_IN_PROGRESS"
	CodeSessionNotOpen    Code = "SESSION_NOT_OPEN"
	CodeSessionFull       Code = "SESSION_FULL"
	CodeInvalidCapacity   Code = "INVALID_CAPACITY"
	CodeInvalidEntryFee   Code = "INVALID_ENTRY_FEE"
	CodeEmptyPartyID      Code = "EMPTY_PARTY_ID"

	// Payment errors
	CodeWrongPayment      Code = "WRONG_PAYMENT"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	CodeTransferFailed    Code = "TRANSFER_FAILED"
	CodeInvalidAmount     Code = "INVALID_AMOUNT"

	// Oracle errors
	CodeUnknownRequest          Code = "UNKNOWN_REQUEST"
	CodeInsufficientOracleFunds Code = "INSUFFICIENT_ORACLE_FUNDS"
	CodeOracleUnavailable       Code = "ORACLE_UNAVAILABLE"

	// Authorization errors
	CodeUnauthorized Code = "UNAUTHORIZED"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures, bad input
	case CodeInvalidCapacity,
		CodeInvalidEntryFee,
		CodeInvalidAmount,
		CodeWrongPayment,
		CodeEmptyPartyID:
		return http.StatusBadRequest

	// Payment required - caller lacks the funds the operation needs
	case CodeInsufficientFunds,
		CodeInsufficientOracleFunds:
		return http.StatusPaymentRequired

	// Conflict - operation disallowed by current state
	case CodeSessionInProgress,
		CodeSessionNotOpen,
		CodeSessionFull:
		return http.StatusConflict

	// Not found
	case CodeNotFound,
		CodeUnknownRequest:
		return http.StatusNotFound

	// Unauthorized
	case CodeUnauthorized:
		return http.StatusUnauthorized

	// Upstream failures
	case CodeTransferFailed,
		CodeOracleUnavailable:
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}
