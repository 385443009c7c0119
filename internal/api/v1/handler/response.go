package handler

import (
	"encoding/json"
	"net/http"

	"plandera/internal/api/v1/dto"
	"plandera/internal/middleware"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

func userIDFrom(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(middleware.UserContextKey).(string)
	return userID, ok && userID != ""
}

// allow wraps h so that other methods get 405.
func allow(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
			return
		}
		h(w, r)
	}
}
