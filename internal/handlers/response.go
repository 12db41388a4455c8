package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"readiness-backend/internal/readiness"
)

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// JSONError writes {"ok": false, "error": message}.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]interface{}{"ok": false, "error": message})
}

// writeEvalError maps an evaluation failure to a response. Validation
// failures list their fields; pipeline failures name the step but never
// the driver's text.
func writeEvalError(w http.ResponseWriter, err error) {
	var verr *readiness.ValidationError
	if errors.As(err, &verr) {
		JSON(w, http.StatusBadRequest, map[string]interface{}{
			"ok":      false,
			"step":    readiness.StepValidate,
			"error":   "Validation failed",
			"details": verr.Fields,
		})
		return
	}

	var serr *readiness.StepError
	if errors.As(err, &serr) {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		JSON(w, status, map[string]interface{}{
			"ok":    false,
			"step":  serr.Step,
			"error": serr.Message(),
		})
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		JSONError(w, http.StatusGatewayTimeout, "Request timed out")
		return
	}
	JSONError(w, http.StatusInternalServerError, "Failed to evaluate readiness")
}
