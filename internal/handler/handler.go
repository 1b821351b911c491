// Package handler implements the REST surface. Handlers stay thin: parse
// the request, call the service, shape the response. No business logic.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/mahmoudev/blog-service/internal/apperrors"
	"github.com/mahmoudev/blog-service/internal/service"
	"github.com/mahmoudev/blog-service/internal/storage"
)

type Handler struct {
	auth          *service.AuthService
	posts         *service.PostService
	images        *storage.Images
	maxUploadSize int64
	log           *logrus.Logger
}

func NewHandler(auth *service.AuthService, posts *service.PostService, images *storage.Images, maxUploadSize int64, log *logrus.Logger) *Handler {
	return &Handler{
		auth:          auth,
		posts:         posts,
		images:        images,
		maxUploadSize: maxUploadSize,
		log:           log,
	}
}

func (h *Handler) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

// respondError maps domain errors to HTTP statuses. Validation failures
// include their per-field messages; everything unexpected becomes an opaque
// 500 after being logged.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)

	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		h.respond(w, status, map[string]any{
			"message": "Invalid input.",
			"errors":  ve.Fields,
		})
		return
	}

	if status == http.StatusInternalServerError {
		h.log.Errorf("Request failed: %v", err)
		h.respond(w, status, map[string]any{"message": "Internal server error."})
		return
	}
	h.respond(w, status, map[string]any{"message": err.Error()})
}
