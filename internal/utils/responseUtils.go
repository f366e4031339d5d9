package utils

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// SendJSONError writes the standard {success:false, message} failure payload.
func SendJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	}); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON error response")
	}
}

// RespondWithJSON writes payload as JSON with the given status code.
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
