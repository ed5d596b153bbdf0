package http

import (
	"encoding/json"
	"net/http"

	"quizdeck-service/internal/domain"
)

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, actionResult{Data: data, Success: true})
}

// writeError maps any failure onto the envelope; unclassified errors surface
// as internal_server_error so clients never see a raw failure.
func writeError(w http.ResponseWriter, err error) {
	de := domain.AsError(err)
	writeJSON(w, de.Status, actionResult{Error: de})
}

func writeJSON(w http.ResponseWriter, status int, body actionResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
