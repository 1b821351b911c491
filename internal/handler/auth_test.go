package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/mahmoudev/blog-service/internal/apperrors"
	"github.com/mahmoudev/blog-service/internal/models"
	"github.com/mahmoudev/blog-service/internal/service"
)

// userStore is a minimal UserStore holding one user, with an injectable
// lookup failure.
type userStore struct {
	user    *models.User
	findErr error
}

func (s *userStore) CreateUser(user *models.User) error { return nil }

func (s *userStore) FindUserByEmail(email string) (*models.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.user != nil && s.user.Email == email {
		cp := *s.user
		return &cp, nil
	}
	return nil, apperrors.ErrNotFound
}

func (s *userStore) FindUserByID(id string) (*models.User, error) {
	if s.user != nil && s.user.ID == id {
		cp := *s.user
		return &cp, nil
	}
	return nil, apperrors.ErrNotFound
}

func (s *userStore) UpdateUserStatus(id, status string) error { return nil }

func newLoginHandler(t *testing.T, store *userStore) *Handler {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	auth := service.NewAuthService(store, nil, time.Hour, log)
	return NewHandler(auth, nil, nil, 0, log)
}

func storedUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt error: %v", err)
	}
	return &models.User{
		ID:           "user-1",
		Email:        email,
		Name:         "Test User",
		PasswordHash: string(hash),
		Secret:       "0123456789abcdef",
	}
}

func postLogin(t *testing.T, h *Handler, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/users/login", strings.NewReader(string(body)))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	return rec
}

func TestLoginWrongPasswordIs422(t *testing.T) {
	t.Parallel()

	store := &userStore{user: storedUser(t, "known@example.com", "right-pass")}
	h := newLoginHandler(t, store)

	rec := postLogin(t, h, "known@example.com", "wrong-pass")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Message != "Invalid email or password." {
		t.Fatalf("message = %q", resp.Message)
	}
}

func TestLoginStorageFailureIs500(t *testing.T) {
	t.Parallel()

	store := &userStore{findErr: errors.New("connection refused")}
	h := newLoginHandler(t, store)

	rec := postLogin(t, h, "known@example.com", "right-pass")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("a database outage must surface as 500, got %d", rec.Code)
	}

	// The outage detail must not leak to the client.
	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Message != "Internal server error." {
		t.Fatalf("message = %q", resp.Message)
	}
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	store := &userStore{user: storedUser(t, "known@example.com", "right-pass")}
	h := newLoginHandler(t, store)

	rec := postLogin(t, h, "known@example.com", "right-pass")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if resp.Token == "" || resp.UserID != "user-1" {
		t.Fatalf("unexpected login payload: %+v", resp)
	}
}
