package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JackobAssis/Joburguers/internal/docstore"
	"github.com/JackobAssis/Joburguers/internal/loyalty"
	"github.com/JackobAssis/Joburguers/internal/service"
)

type apiError struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
}

type apiResponse struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	Data    any       `json:"data"`
	Error   *apiError `json:"error,omitempty"`
}

func writeRawJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	if status >= 400 {
		writeRawJSON(w, status, apiResponse{
			Status:  "error",
			Message: "",
			Data:    payload,
			Error: &apiError{
				Code:   status,
				Status: http.StatusText(status),
			},
		})
		return
	}
	writeRawJSON(w, status, apiResponse{
		Status:  "ok",
		Message: "",
		Data:    payload,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	if status < 400 {
		status = http.StatusInternalServerError
	}
	writeRawJSON(w, status, apiResponse{
		Status:  "error",
		Message: message,
		Data:    nil,
		Error: &apiError{
			Code:   status,
			Status: http.StatusText(status),
		},
	})
}

// writeDomainError maps the known error values onto HTTP statuses so
// every handler reports them the same way.
func writeDomainError(w http.ResponseWriter, err error) {
	var validation service.ValidationError
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, service.ErrAccountDisabled):
		writeError(w, http.StatusForbidden, "account disabled")
	case errors.Is(err, service.ErrPhoneTaken):
		writeError(w, http.StatusConflict, "phone already registered")
	case errors.Is(err, loyalty.ErrClientNotFound):
		writeError(w, http.StatusNotFound, "client not found")
	case errors.Is(err, loyalty.ErrRuleNotFound):
		writeError(w, http.StatusNotFound, "redeem rule not found")
	case errors.Is(err, loyalty.ErrRuleInactive):
		writeError(w, http.StatusConflict, "redeem rule is not active")
	case errors.Is(err, loyalty.ErrInsufficientPoints):
		writeError(w, http.StatusUnprocessableEntity, "insufficient points")
	case errors.Is(err, docstore.ErrOffline):
		writeError(w, http.StatusServiceUnavailable, "offline - cannot perform write operations")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
