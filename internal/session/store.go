package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"flightbook/pkg/cache"
	"flightbook/pkg/logger"
	"flightbook/pkg/validate"
)

var (
	ErrUserExists         = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSessionNotFound    = errors.New("session not found or expired")
)

const (
	userKeyPrefix    = "user:"
	sessionKeyPrefix = "session:"
)

type user struct {
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Credentials is the signup/login payload.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name,omitempty"`
}

// Service manages accounts and bearer-token sessions. Sessions are opaque
// UUID tokens with a TTL; accounts and sessions both live in the cache.
type Service struct {
	cache    cache.Cache
	ttl      time.Duration
	validate *validator.Validate
	logger   logger.Client
	now      func() time.Time
}

func NewService(c cache.Cache, ttl time.Duration, log logger.Client) *Service {
	return &Service{
		cache:    c,
		ttl:      ttl,
		validate: validator.New(),
		logger:   log,
		now:      time.Now,
	}
}

func (s *Service) Signup(ctx context.Context, creds Credentials) error {
	if err := validate.Struct(s.validate, creds); err != nil {
		return err
	}

	key := userKeyPrefix + creds.Email
	existing, err := s.cache.Get(ctx, key)
	if err != nil && !errors.Is(err, cache.ErrKeyNotFound) {
		// A backend outage must not read as "no such account": the Set
		// below would overwrite the existing record.
		return fmt.Errorf("failed to check account: %w", err)
	}
	if existing != "" {
		return ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	record := user{
		Email:        creds.Email,
		Name:         creds.Name,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := s.cache.Set(ctx, key, string(data), 0); err != nil {
		return err
	}

	s.logger.Info("account created", logger.Field{Key: "email", Value: creds.Email})
	return nil
}

// Login verifies the credentials and mints a session token. Unknown
// accounts and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	raw, err := s.cache.Get(ctx, userKeyPrefix+email)
	if errors.Is(err, cache.ErrKeyNotFound) || (err == nil && raw == "") {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to read account: %w", err)
	}

	var record user
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return "", fmt.Errorf("failed to decode user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := s.cache.Set(ctx, sessionKeyPrefix+token, email, s.ttl); err != nil {
		return "", err
	}

	s.logger.Info("session created", logger.Field{Key: "email", Value: email})
	return token, nil
}

// Validate resolves a session token to the account email.
func (s *Service) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrSessionNotFound
	}
	email, err := s.cache.Get(ctx, sessionKeyPrefix+token)
	if errors.Is(err, cache.ErrKeyNotFound) || (err == nil && email == "") {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	return email, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.cache.Del(ctx, sessionKeyPrefix+token)
}
