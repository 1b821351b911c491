package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/mahmoudev/blog-service/internal/apperrors"
	"github.com/mahmoudev/blog-service/internal/models"
)

// memUserStore is an in-memory UserStore for tests.
type memUserStore struct {
	byID    map[string]*models.User
	byEmail map[string]*models.User
	findErr error
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
}

func (m *memUserStore) CreateUser(user *models.User) error {
	if _, ok := m.byEmail[user.Email]; ok {
		return apperrors.ErrAlreadyExists
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	m.byID[user.ID] = &cp
	m.byEmail[user.Email] = &cp
	return nil
}

func (m *memUserStore) FindUserByEmail(email string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if u, ok := m.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *memUserStore) FindUserByID(id string) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperrors.ErrNotFound
}

func (m *memUserStore) UpdateUserStatus(id, status string) error {
	u, ok := m.byID[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	u.Status = status
	return nil
}

func (m *memUserStore) delete(id string) {
	if u, ok := m.byID[id]; ok {
		delete(m.byEmail, u.Email)
		delete(m.byID, id)
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestAuth(t *testing.T) (*AuthService, *memUserStore) {
	t.Helper()
	store := newMemUserStore()
	return NewAuthService(store, nil, time.Hour, quietLogger()), store
}

func signupTestUser(t *testing.T, svc *AuthService, email string) *models.User {
	t.Helper()
	user, err := svc.Signup("Test User", email, "secret-pass")
	if err != nil {
		t.Fatalf("Signup error: %v", err)
	}
	return user
}

func TestSignupAndLogin(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)
	user := signupTestUser(t, svc, "mahmoud@example.com")

	if user.Secret == "" {
		t.Fatal("signup must mint a per-user secret")
	}
	if user.Status != models.DefaultStatus {
		t.Fatalf("status = %q, want %q", user.Status, models.DefaultStatus)
	}

	token, logged, err := svc.Login("mahmoud@example.com", "secret-pass")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if logged.ID != user.ID {
		t.Fatalf("login resolved wrong user: %s", logged.ID)
	}

	resolved, err := svc.Authenticate(token)
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}
	if resolved.ID != user.ID {
		t.Fatalf("authenticate resolved wrong user: %s", resolved.ID)
	}
}

func TestSignupNormalizesEmail(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)
	user, err := svc.Signup("Test User", "  Mixed@Example.COM ", "secret-pass")
	if err != nil {
		t.Fatalf("Signup error: %v", err)
	}
	if user.Email != "mixed@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
}

func TestSignupValidation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)

	_, err := svc.Signup("abc", "not-an-email", "a b")
	var ve *apperrors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"name", "email", "password"} {
		if _, ok := ve.Fields[field]; !ok {
			t.Fatalf("missing %s message in %v", field, ve.Fields)
		}
	}
}

func TestLoginWrongPasswordIndistinguishable(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)
	signupTestUser(t, svc, "known@example.com")

	_, _, errWrongPass := svc.Login("known@example.com", "wrong-pass")
	_, _, errNoUser := svc.Login("ghost@example.com", "secret-pass")

	if errWrongPass == nil || errNoUser == nil {
		t.Fatal("both login failures must error")
	}
	if errWrongPass.Error() != errNoUser.Error() {
		t.Fatalf("wrong-password and unknown-email must be indistinguishable: %q vs %q",
			errWrongPass, errNoUser)
	}
}

func TestLoginStorageFailureIsNotCredentialsError(t *testing.T) {
	t.Parallel()

	svc, store := newTestAuth(t)
	signupTestUser(t, svc, "db@example.com")
	store.findErr = errors.New("connection refused")

	_, _, err := svc.Login("db@example.com", "secret-pass")
	if err == nil {
		t.Fatal("expected error when the store is down")
	}
	var ve *apperrors.ValidationError
	if errors.As(err, &ve) {
		t.Fatalf("storage failure must not read as bad credentials: %v", err)
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)
	if _, err := svc.Authenticate(""); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := svc.Authenticate("not.a.jwt"); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestAuthenticateWrongSecret(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)
	user := signupTestUser(t, svc, "victim@example.com")

	// Forged token: correct claims, wrong signing secret.
	forged := mintToken(t, user, "attacker-controlled-secret", time.Hour)
	if _, err := svc.Authenticate(forged); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for wrong secret, got %v", err)
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)
	user := signupTestUser(t, svc, "late@example.com")

	expired := mintToken(t, user, user.Secret, -time.Minute)
	if _, err := svc.Authenticate(expired); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for expired token, got %v", err)
	}
}

func TestAuthenticateDeletedUser(t *testing.T) {
	t.Parallel()

	svc, store := newTestAuth(t)
	user := signupTestUser(t, svc, "gone@example.com")

	token, _, err := svc.Login("gone@example.com", "secret-pass")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	store.delete(user.ID)
	if _, err := svc.Authenticate(token); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after user deletion, got %v", err)
	}
}

func TestAuthenticateEmailMismatch(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)
	user := signupTestUser(t, svc, "real@example.com")

	// Token claims the right id but a different email. Both must correspond.
	mismatch := *user
	mismatch.Email = "other@example.com"
	token := mintToken(t, &mismatch, user.Secret, time.Hour)
	if _, err := svc.Authenticate(token); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for email mismatch, got %v", err)
	}
}

func TestAuthenticateIsIdempotent(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuth(t)
	user := signupTestUser(t, svc, "again@example.com")
	token, _, err := svc.Login("again@example.com", "secret-pass")
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	for i := 0; i < 3; i++ {
		resolved, err := svc.Authenticate(token)
		if err != nil {
			t.Fatalf("Authenticate call %d error: %v", i, err)
		}
		if resolved.ID != user.ID {
			t.Fatalf("Authenticate call %d resolved wrong user", i)
		}
	}
}

func TestEditStatus(t *testing.T) {
	t.Parallel()

	svc, store := newTestAuth(t)
	user := signupTestUser(t, svc, "status@example.com")

	got, err := svc.EditStatus(user.ID, "  Writing again  ")
	if err != nil {
		t.Fatalf("EditStatus error: %v", err)
	}
	if got != "Writing again" {
		t.Fatalf("status = %q, want trimmed value", got)
	}
	stored, _ := store.FindUserByID(user.ID)
	if stored.Status != "Writing again" {
		t.Fatalf("stored status = %q", stored.Status)
	}

	if _, err := svc.EditStatus(user.ID, "   "); err == nil {
		t.Fatal("expected validation error for blank status")
	}
}

// mintToken signs a session token for user with an arbitrary secret and TTL.
func mintToken(t *testing.T, user *models.User, secret string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: user.ID,
		Email:  user.Email,
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}
