package auth

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeEmptyPassword     = "EMPTY_PASSWORD"
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeTooManyAttempts   = "TOO_MANY_ATTEMPTS"
	TextCodeCredentialMissing = "CREDENTIAL_NOT_FOUND"
	TextCodeHashKeyMissing    = "HASH_KEY_MISSING"
	TextCodeUnknownHash       = "UNKNOWN_HASH_METHOD"
	TextCodeUnknownDriver     = "UNKNOWN_DRIVER"
	TextCodeInvalidConfig     = "INVALID_CONFIGURATION"
	TextCodeStoreFailure      = "STORE_FAILURE"
	TextCodeProviderNotFound  = "PROVIDER_NOT_FOUND"
	TextCodeTokenInvalid      = "AUTOLOGIN_TOKEN_INVALID"
	TextCodeSigningKeyMissing = "SIGNING_KEY_MISSING"
	TextCodeEmptyPrincipal    = "EMPTY_PRINCIPAL"
)

// ErrPasswordRequired is returned by Login when the password is empty.
// Its metadata names the offending field.
var ErrPasswordRequired = errors.New("password", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrInvalidCredentials describes a failed verification. Login reports it
// as a LoginResult value, never as a returned error.
var ErrInvalidCredentials = errors.New("the credentials provided are invalid", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(errors.CodeUnauthorized)

// ErrTooManyLoginAttempts is wrapped by ThrottleError
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit).
	WithTextCode(TextCodeTooManyAttempts).
	WithCode(errors.CodeTooManyRequests)

// ErrCredentialNotFound is returned by Driver.Credential and Driver.ForceLogin
var ErrCredentialNotFound = errors.New("credential not found", errors.CategoryNotFound).
	WithTextCode(TextCodeCredentialMissing).
	WithCode(errors.CodeNotFound)

// ErrHashKeyMissing is returned when hashing is attempted without a key
var ErrHashKeyMissing = errors.New("a valid hash key must be set in your auth config", errors.CategoryInternal).
	WithTextCode(TextCodeHashKeyMissing)

// ErrSigningKeyMissing is returned when autologin tokens are built without
// a signing key
var ErrSigningKeyMissing = errors.New("an autologin signing key must be set in your auth config", errors.CategoryInternal).
	WithTextCode(TextCodeSigningKeyMissing)

// ErrPrincipalRequired is returned when a login path is handed a principal
// without an id or username
var ErrPrincipalRequired = errors.New("principal", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPrincipal).
	WithCode(errors.CodeBadRequest)

// ErrUnknownHashMethod is returned for unsupported hash algorithms
var ErrUnknownHashMethod = errors.New("unsupported hash method", errors.CategoryInternal).
	WithTextCode(TextCodeUnknownHash)

// ErrUnknownDriver is returned when no factory is registered for a driver name
var ErrUnknownDriver = errors.New("unknown auth driver", errors.CategoryInternal).
	WithTextCode(TextCodeUnknownDriver)

// ErrInvalidConfig wraps configuration validation failures
var ErrInvalidConfig = errors.New("invalid auth configuration", errors.CategoryInternal).
	WithTextCode(TextCodeInvalidConfig)

// ErrProviderNotFound is returned when a provider is unknown or disabled
var ErrProviderNotFound = errors.New("oauth provider not found", errors.CategoryNotFound).
	WithTextCode(TextCodeProviderNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidAutologinToken is returned for expired, tampered or revoked tokens
var ErrInvalidAutologinToken = errors.New("invalid autologin token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(errors.CodeUnauthorized)

// ThrottleError reports an active lockout for an identity
type ThrottleError struct {
	Identity   string
	RetryAfter time.Duration
}

func (e *ThrottleError) Error() string {
	if e == nil {
		return ErrTooManyLoginAttempts.Message
	}
	return fmt.Sprintf("%s, retry after %s", ErrTooManyLoginAttempts.Message, e.RetryAfter.Round(time.Second))
}

func (e *ThrottleError) Unwrap() error {
	return ErrTooManyLoginAttempts
}

// annotate clones a sentinel and attaches metadata to the copy.
func annotate(base *errors.Error, meta map[string]any) error {
	clone := base.Clone()
	if clone == nil {
		clone = base
	}
	if len(meta) > 0 {
		clone.WithMetadata(meta)
	}
	return clone
}

// WrapStoreError marks a backend failure so it is never mistaken for an
// authentication failure.
func WrapStoreError(err error, operation string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, errors.CategoryInternal, operation+" failed").
		WithTextCode(TextCodeStoreFailure).
		WithMetadata(map[string]any{"operation": operation})
}

// IsValidationError reports malformed login input
func IsValidationError(err error) bool {
	return hasTextCode(err, TextCodeEmptyPassword, TextCodeEmptyPrincipal)
}

// InvalidField names the input rejected by a validation error
func InvalidField(err error) string {
	var richErr *errors.Error
	if !IsValidationError(err) || !stderrors.As(err, &richErr) {
		return ""
	}
	return richErr.Message
}

// IsThrottleError reports an active lockout and returns the retry hint
func IsThrottleError(err error) (time.Duration, bool) {
	var te *ThrottleError
	if stderrors.As(err, &te) && te != nil {
		return te.RetryAfter, true
	}
	return 0, false
}

// IsConfigurationError reports errors that are fatal at startup or first use
func IsConfigurationError(err error) bool {
	return hasTextCode(err,
		TextCodeHashKeyMissing,
		TextCodeSigningKeyMissing,
		TextCodeUnknownHash,
		TextCodeUnknownDriver,
		TextCodeInvalidConfig,
	)
}

// IsStoreError reports session store or driver backend failures
func IsStoreError(err error) bool {
	return hasTextCode(err, TextCodeStoreFailure)
}

// IsCredentialNotFound reports a missing credential lookup
func IsCredentialNotFound(err error) bool {
	return hasTextCode(err, TextCodeCredentialMissing)
}

// IsProviderNotFound reports an unknown or disabled OAuth provider
func IsProviderNotFound(err error) bool {
	return hasTextCode(err, TextCodeProviderNotFound)
}

func hasTextCode(err error, codes ...string) bool {
	if err == nil {
		return false
	}

	var richErr *errors.Error
	if !stderrors.As(err, &richErr) || richErr == nil {
		return false
	}

	for _, code := range codes {
		if richErr.TextCode == code {
			return true
		}
	}
	return false
}
