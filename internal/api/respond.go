package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	apperrors "github.com/fairdraw/fairdraw/internal/platform/errors"
)

type errorBody struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func (a *API) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.GetCode(err)
	message := "internal error"

	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		message = appErr.Message
	} else {
		log.Printf("request %s %s failed: %v", r.Method, r.URL.Path, err)
	}

	a.writeJSON(w, code.HTTPStatus(), map[string]errorBody{"error": {
		Code:     string(code),
		Message:  message,
		Metadata: apperrors.GetMetadata(err),
	}})
}
