package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := New(CodeSessionFull, "session already at capacity")
	target := New(CodeSessionFull, "different message")

	if !stderrors.Is(err, target) {
		t.Fatal("expected errors with the same code to match")
	}
	if stderrors.Is(err, New(CodeSessionNotOpen, "other")) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(CodeUnknown, "persist session", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be reachable via errors.Is")
	}
	if err.Error() != "persist session" {
		t.Fatalf("expected message to be the wrap message, got %q", err.Error())
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "domain error", err: New(CodeWrongPayment, "bad amount"), want: CodeWrongPayment},
		{name: "wrapped domain error", err: fmt.Errorf("enter: %w", New(CodeSessionFull, "full")), want: CodeSessionFull},
		{name: "plain error", err: stderrors.New("boom"), want: CodeUnknown},
		{name: "nil", err: nil, want: CodeUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := GetCode(tc.err); got != tc.want {
				t.Fatalf("expected code %q, got %q", tc.want, got)
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeWrongPayment, http.StatusBadRequest},
		{CodeInvalidCapacity, http.StatusBadRequest},
		{CodeInsufficientFunds, http.StatusPaymentRequired},
		{CodeInsufficientOracleFunds, http.StatusPaymentRequired},
		{CodeSessionInProgress, http.StatusConflict},
		{CodeSessionNotOpen, http.StatusConflict},
		{CodeSessionFull, http.StatusConflict},
		{CodeUnknownRequest, http.StatusNotFound},
		{CodeNotFound, http.StatusNotFound},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeTransferFailed, http.StatusBadGateway},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(string(tc.code), func(t *testing.T) {
			if got := tc.code.HTTPStatus(); got != tc.want {
				t.Fatalf("expected status %d, got %d", tc.want, got)
			}
		})
	}
}

func TestGetMetadata(t *testing.T) {
	meta := map[string]string{"session_id": "7"}
	err := WithMetadata(CodeSessionFull, "full", meta)

	got := GetMetadata(fmt.Errorf("enter: %w", err))
	if got == nil || got["session_id"] != "7" {
		t.Fatalf("expected metadata to survive wrapping, got %v", got)
	}
	if GetMetadata(stderrors.New("plain")) != nil {
		t.Fatal("expected nil metadata for plain error")
	}
}
