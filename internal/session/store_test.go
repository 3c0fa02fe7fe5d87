package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightbook/pkg/cache"
	"flightbook/pkg/logger"
	"flightbook/pkg/validate"
)

// outageCache fails reads while writes keep working.
type outageCache struct {
	cache.Cache
	getErr error
}

func (o *outageCache) Get(ctx context.Context, key string) (string, error) {
	if o.getErr != nil {
		return "", o.getErr
	}
	return o.Cache.Get(ctx, key)
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(cache.NewMemoryCache(), 30*time.Minute, logger.NewZeroLog("production"))
}

func validCreds() Credentials {
	return Credentials{Email: "asha.iyer@example.com", Password: "s3cret-pass", Name: "Asha Iyer"}
}

func TestSignupThenLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, validCreds()))

	token, err := svc.Login(ctx, "asha.iyer@example.com", "s3cret-pass")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	email, err := svc.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "asha.iyer@example.com", email)
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, validCreds()))
	assert.ErrorIs(t, svc.Signup(ctx, validCreds()), ErrUserExists)
}

func TestSignupValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		creds Credentials
	}{
		{"missing email", Credentials{Password: "s3cret-pass"}},
		{"malformed email", Credentials{Email: "not-an-email", Password: "s3cret-pass"}},
		{"short password", Credentials{Email: "asha.iyer@example.com", Password: "abc"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.Signup(ctx, tc.creds)
			var validationErrs validate.ValidationErrors
			assert.ErrorAs(t, err, &validationErrs)
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, validCreds()))

	_, err := svc.Login(ctx, "asha.iyer@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "s3cret-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown account reads the same as a bad password")
}

func TestValidateRejectsBogusToken(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Validate(context.Background(), "not-a-session")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Validate(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestBackendOutageDoesNotOverwriteAccount(t *testing.T) {
	backing := &outageCache{Cache: cache.NewMemoryCache()}
	svc := NewService(backing, 30*time.Minute, logger.NewZeroLog("production"))
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, validCreds()))

	backing.getErr = errors.New("connection refused")

	// Re-signup during the outage must fail without touching the record;
	// reading "no such account" here would let the Set replace the
	// existing password hash.
	attacker := Credentials{Email: "asha.iyer@example.com", Password: "attacker-pass"}
	err := svc.Signup(ctx, attacker)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserExists)

	backing.getErr = nil

	// Original password still works; the attacker's does not.
	_, err = svc.Login(ctx, "asha.iyer@example.com", "s3cret-pass")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "asha.iyer@example.com", "attacker-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestBackendOutageIsNotAnAuthFailure(t *testing.T) {
	backing := &outageCache{Cache: cache.NewMemoryCache()}
	svc := NewService(backing, 30*time.Minute, logger.NewZeroLog("production"))
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, validCreds()))
	token, err := svc.Login(ctx, "asha.iyer@example.com", "s3cret-pass")
	require.NoError(t, err)

	backing.getErr = errors.New("connection refused")

	_, err = svc.Login(ctx, "asha.iyer@example.com", "s3cret-pass")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Validate(ctx, token)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSessionNotFound)
}

func TestLogoutEndsSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Signup(ctx, validCreds()))
	token, err := svc.Login(ctx, "asha.iyer@example.com", "s3cret-pass")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
