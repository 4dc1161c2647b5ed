package auth_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	auth "github.com/goliatone/go-login"
	"github.com/stretchr/testify/assert"
)

func TestThrottleErrorUnwrap(t *testing.T) {
	err := &auth.ThrottleError{Identity: "alice", RetryAfter: 90 * time.Second}

	assert.True(t, errors.Is(err, auth.ErrTooManyLoginAttempts))
	assert.Contains(t, err.Error(), "1m30s")

	wrapped := fmt.Errorf("login: %w", err)
	retry, ok := auth.IsThrottleError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, 90*time.Second, retry)

	_, ok = auth.IsThrottleError(errors.New("other"))
	assert.False(t, ok)
}

func TestWrapStoreError(t *testing.T) {
	assert.NoError(t, auth.WrapStoreError(nil, "noop"))

	cause := errors.New("disk full")
	err := auth.WrapStoreError(cause, "session write")

	assert.True(t, auth.IsStoreError(err))
	assert.False(t, auth.IsValidationError(err))
	assert.False(t, auth.IsConfigurationError(err))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "session write failed")
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		check  func(error) bool
		expect bool
	}{
		{"password required", auth.ErrPasswordRequired, auth.IsValidationError, true},
		{"principal required", auth.ErrPrincipalRequired, auth.IsValidationError, true},
		{"signing key", auth.ErrSigningKeyMissing, auth.IsConfigurationError, true},
		{"signing key is not a hash key", auth.ErrSigningKeyMissing, func(err error) bool {
			return errors.Is(err, auth.ErrHashKeyMissing)
		}, false},
		{"config", auth.ErrInvalidConfig, auth.IsConfigurationError, true},
		{"hash key", auth.ErrHashKeyMissing, auth.IsConfigurationError, true},
		{"unknown driver", auth.ErrUnknownDriver, auth.IsConfigurationError, true},
		{"unknown hash", auth.ErrUnknownHashMethod, auth.IsConfigurationError, true},
		{"not found", auth.ErrCredentialNotFound, auth.IsCredentialNotFound, true},
		{"provider", auth.ErrProviderNotFound, auth.IsProviderNotFound, true},
		{"token", auth.ErrInvalidAutologinToken, auth.IsInvalidAutologinToken, true},
		{"wrapped", fmt.Errorf("ctx: %w", auth.ErrCredentialNotFound), auth.IsCredentialNotFound, true},
		{"plain", errors.New("boom"), auth.IsStoreError, false},
		{"nil", nil, auth.IsValidationError, false},
		{"credentials are not validation", auth.ErrInvalidCredentials, auth.IsValidationError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, tt.check(tt.err))
		})
	}
}

func TestInvalidField(t *testing.T) {
	assert.Equal(t, "password", auth.InvalidField(auth.ErrPasswordRequired))
	assert.Equal(t, "principal", auth.InvalidField(fmt.Errorf("oauth: %w", auth.ErrPrincipalRequired)))
	assert.Empty(t, auth.InvalidField(auth.ErrInvalidCredentials))
	assert.Empty(t, auth.InvalidField(nil))
}
