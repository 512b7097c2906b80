// Package shared holds the JSON response helpers every handler package uses,
// so status mapping and the error envelope live in one place.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "lifelink/pkg/domain-errors"
)

type errorEnvelope struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteError renders a coded error as the JSON envelope. Unknown errors map
// to internal_error without leaking their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	env := errorEnvelope{
		Error:   string(code),
		Message: err.Error(),
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		env.Details = de.Details
	} else {
		env.Message = "internal server error"
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), env)
}

// WriteJSON renders v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
