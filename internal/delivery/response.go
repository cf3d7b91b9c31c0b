package delivery

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Vovarama1992/mediashelf/internal/models"
)

type baseResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Payload any    `json:"payload"`
}

func writeJSON(w http.ResponseWriter, status int, success bool, message string, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(baseResponse{
		Success: success,
		Message: message,
		Payload: payload,
	})
}

func ok(w http.ResponseWriter, status int, message string, payload any) {
	writeJSON(w, status, true, message, payload)
}

// fail maps a service error onto the envelope. Validation messages are shown
// to the client as is; internal causes go to the payload only.
func fail(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		writeJSON(w, http.StatusBadRequest, false, validationMessage(err), nil)
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, false, "Media not found", nil)
	case errors.Is(err, models.ErrUploadFailed):
		writeJSON(w, http.StatusInternalServerError, false, "Error uploading image", err.Error())
	default:
		writeJSON(w, http.StatusInternalServerError, false, fallback, err.Error())
	}
}

// validationMessage turns "validation failed: rating must be..." into
// "Rating must be...".
func validationMessage(err error) string {
	msg, found := strings.CutPrefix(err.Error(), models.ErrValidation.Error()+": ")
	if !found || msg == "" {
		return "Invalid request"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
