package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/mahmoudev/blog-service/internal/apperrors"
	"github.com/mahmoudev/blog-service/internal/models"
)

const minFieldLength = 5

// UserStore is the persistence surface the auth service needs.
type UserStore interface {
	CreateUser(user *models.User) error
	FindUserByEmail(email string) (*models.User, error)
	FindUserByID(id string) (*models.User, error)
	UpdateUserStatus(id, status string) error
}

// Mailer sends account emails. May be nil when SMTP is not configured.
type Mailer interface {
	SendWelcome(to, name string) error
}

// SessionClaims is the token payload: the claimed identity plus standard
// expiry. Tokens are signed with the claimed identity's own secret, never
// with a process-wide key.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// AuthService handles signup, login and session token validation.
type AuthService struct {
	users    UserStore
	mail     Mailer
	tokenTTL time.Duration
	log      *logrus.Logger
}

// NewAuthService initializes the auth service. mail may be nil.
func NewAuthService(users UserStore, mail Mailer, tokenTTL time.Duration, log *logrus.Logger) *AuthService {
	return &AuthService{users: users, mail: mail, tokenTTL: tokenTTL, log: log}
}

// Signup registers a new user with a hashed password and a freshly generated
// signing secret. The secret is minted exactly once and never rotated.
func (s *AuthService) Signup(name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	password = strings.TrimSpace(password)

	ve := &apperrors.ValidationError{}
	if len(name) < minFieldLength {
		ve.Add("name", "name must be at least %d characters", minFieldLength)
	}
	if _, err := mail.ParseAddress(email); email == "" || err != nil {
		ve.Add("email", "please provide a valid email")
	}
	if len(password) < minFieldLength || strings.ContainsAny(password, " \t\r\n") {
		ve.Add("password", "password must be at least %d characters and contain no whitespace", minFieldLength)
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	secret, err := newSecret()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		Status:       models.DefaultStatus,
		Secret:       secret,
	}
	if err := s.users.CreateUser(user); err != nil {
		return nil, err
	}

	if s.mail != nil {
		go func() {
			if err := s.mail.SendWelcome(user.Email, user.Name); err != nil {
				s.log.Warnf("failed to send welcome email to %s: %v", user.Email, err)
			}
		}()
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login verifies credentials and mints a session token signed with the
// user's own secret. Wrong email and wrong password are indistinguishable.
func (s *AuthService) Login(email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindUserByEmail(email)
	if errors.Is(err, apperrors.ErrNotFound) {
		return "", nil, apperrors.NewValidation("credentials", "invalid email or password")
	}
	if err != nil {
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperrors.NewValidation("credentials", "invalid email or password")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		UserID: user.ID,
		Email:  user.Email,
	})
	signed, err := token.SignedString([]byte(user.Secret))
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return signed, user, nil
}

// Authenticate resolves the caller behind a raw session token. The claims
// are decoded first without verification to learn which identity the token
// claims to be; the signature is then checked against that identity's stored
// secret. Pure lookup and verify, safe to call many times per request.
func (s *AuthService) Authenticate(rawToken string) (*models.User, error) {
	if rawToken == "" {
		return nil, apperrors.ErrUnauthenticated
	}

	claims := &SessionClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawToken, claims); err != nil {
		return nil, apperrors.ErrUnauthenticated
	}

	user, err := s.users.FindUserByID(claims.UserID)
	if err != nil || !strings.EqualFold(user.Email, claims.Email) {
		return nil, apperrors.ErrUnauthenticated
	}

	verified := &SessionClaims{}
	_, err = jwt.ParseWithClaims(rawToken, verified, func(t *jwt.Token) (any, error) {
		return []byte(user.Secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}

	return user, nil
}

// EditStatus replaces the user's status text.
func (s *AuthService) EditStatus(userID, status string) (string, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return "", apperrors.NewValidation("status", "status must not be empty")
	}
	if err := s.users.UpdateUserStatus(userID, status); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return "", apperrors.ErrUnauthenticated
		}
		return "", err
	}
	return status, nil
}

func newSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
