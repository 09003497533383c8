package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/VishvaThirumalai/f-mart-backend/internal/auth"
	"github.com/VishvaThirumalai/f-mart-backend/internal/domain"
	"github.com/VishvaThirumalai/f-mart-backend/internal/repository"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Success: false, Message: message})
}

// handleServiceError maps domain error kinds to HTTP status codes. The
// mapping goes by errors.Is/errors.As only; message text is never
// inspected, and storage failures are not leaked to the client.
func handleServiceError(w http.ResponseWriter, err error) {
	var vErr *domain.ValidationError

	switch {
	case errors.As(err, &vErr):
		respondError(w, http.StatusBadRequest, vErr.Message)
	case errors.Is(err, repository.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "cart not found")
	case errors.Is(err, repository.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "item not found in cart")
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, domain.ErrOrderNotCancellable):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrEmailTaken):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, err.Error())
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
