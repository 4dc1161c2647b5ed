package auth

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess  ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure  ActivityEventType = "auth.login.failure"
	ActivityEventLoginLocked   ActivityEventType = "auth.login.locked"
	ActivityEventLogout        ActivityEventType = "auth.logout"
	ActivityEventForceLogin    ActivityEventType = "auth.login.forced"
	ActivityEventAutologin     ActivityEventType = "auth.login.autologin"
	ActivityEventProviderLogin ActivityEventType = "auth.login.provider"
)

// ActivityEvent captures audit friendly information about a session transition.
type ActivityEvent struct {
	EventType  ActivityEventType
	Username   string
	UserID     string
	SessionID  string
	Source     string
	Provider   string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}
