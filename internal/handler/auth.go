package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mahmoudev/blog-service/internal/apperrors"
	"github.com/mahmoudev/blog-service/internal/middleware"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type statusRequest struct {
	Status string `json:"status"`
}

// Signup handles POST /users/signup
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body."})
		return
	}

	user, err := h.auth.Signup(req.Name, req.Email, req.Password)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respond(w, http.StatusCreated, map[string]any{
		"message": "User created!",
		"userId":  user.ID,
	})
}

// Login handles POST /users/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body."})
		return
	}

	token, user, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		var ve *apperrors.ValidationError
		if errors.As(err, &ve) {
			// Wrong email and wrong password share one message on purpose.
			h.respond(w, http.StatusUnprocessableEntity, map[string]any{"message": "Invalid email or password."})
			return
		}
		h.respondError(w, err)
		return
	}

	h.respond(w, http.StatusOK, map[string]any{
		"message": "Logged in!",
		"token":   token,
		"userId":  user.ID,
	})
}

// GetStatus handles GET /users/{userId}/status. Users can only read their
// own status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.respondError(w, apperrors.ErrUnauthenticated)
		return
	}
	if mux.Vars(r)["userId"] != user.ID {
		h.respond(w, http.StatusForbidden, map[string]any{"message": "Not authorized. You can only get your own status."})
		return
	}

	h.respond(w, http.StatusOK, map[string]any{
		"message": "Fetched status!",
		"status":  user.Status,
	})
}

// EditStatus handles PATCH /users/{userId}/status
func (h *Handler) EditStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		h.respondError(w, apperrors.ErrUnauthenticated)
		return
	}
	if mux.Vars(r)["userId"] != user.ID {
		h.respond(w, http.StatusForbidden, map[string]any{"message": "Not authorized. You can only change your own status."})
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respond(w, http.StatusBadRequest, map[string]any{"message": "Invalid request body."})
		return
	}

	status, err := h.auth.EditStatus(user.ID, req.Status)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.respond(w, http.StatusOK, map[string]any{
		"message": "Changed status!",
		"status":  status,
	})
}
