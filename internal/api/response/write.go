package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Success writes a {"success":true,"message":...} response
func Success(w http.ResponseWriter, status int, message string) {
	JSON(w, status, MessageResponse{Success: true, Message: message})
}
