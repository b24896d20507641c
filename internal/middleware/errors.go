package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/recipevault/recipevault/internal/handler/dto"
)

// writeError uses the same envelope as the handlers so clients parse one
// error shape regardless of which layer rejected the request.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: message, Code: code})
}
