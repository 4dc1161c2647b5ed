package auth

import (
	"context"
	"fmt"
	"strings"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// SessionStore is the per client key/value store a Session persists its
// state into. Implementations own the session identifier and are expected
// to make Regenerate and Delete atomic for a single client.
type SessionStore interface {
	ID() string
	Get(key string) (any, bool)
	Set(key string, value any) error
	Delete(key string) error
	Destroy() error
	Regenerate() error
}

// Driver verifies credentials against a backing credential source
type Driver interface {
	// Verify hashes password and compares it with the stored digest for
	// username. A mismatch or an unknown username both return ok=false with
	// a nil error; err is reserved for backend and configuration failures.
	Verify(ctx context.Context, username, password string) (principal Principal, ok bool, err error)
	// Credential returns the stored digest for username or ErrCredentialNotFound.
	Credential(ctx context.Context, username string) (string, error)
	// ForceLogin resolves a principal without checking a password.
	ForceLogin(ctx context.Context, username string) (Principal, error)
}

// RoleChecker is implemented by drivers that can answer role scoped
// LoggedIn checks.
type RoleChecker interface {
	HasRole(ctx context.Context, principal Principal, role string) (bool, error)
}

// AutologinTokens issues and revokes long lived "remember me" tokens
type AutologinTokens interface {
	Issue(ctx context.Context, principal Principal) (string, error)
	// Validate returns the username the token was issued for.
	Validate(ctx context.Context, token string) (string, error)
	RevokeAll(ctx context.Context, principalID string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	d.print("ERR", format, args...)
}

func (d defLogger) Warn(format string, args ...any) {
	d.print("WRN", format, args...)
}

func (d defLogger) Info(format string, args ...any) {
	d.print("INF", format, args...)
}

func (d defLogger) Debug(format string, args ...any) {
	d.print("DBG", format, args...)
}

// print accepts both printf style calls and message plus key/value pairs.
func (defLogger) print(level, format string, args ...any) {
	prefix := "[" + level + "] AUTH "
	if strings.Contains(format, "%") || len(args) == 0 {
		fmt.Printf(prefix+newline(format), args...)
		return
	}

	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(format)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	fmt.Print(newline(b.String()))
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
