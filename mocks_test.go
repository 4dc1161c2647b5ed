package auth_test

import (
	"context"

	auth "github.com/goliatone/go-login"
	"github.com/stretchr/testify/mock"
)

// MockDriver implements auth.Driver
type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) Verify(ctx context.Context, username, password string) (auth.Principal, bool, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(auth.Principal), args.Bool(1), args.Error(2)
}

func (m *MockDriver) Credential(ctx context.Context, username string) (string, error) {
	args := m.Called(ctx, username)
	return args.String(0), args.Error(1)
}

func (m *MockDriver) ForceLogin(ctx context.Context, username string) (auth.Principal, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(auth.Principal), args.Error(1)
}

// MockRoleDriver adds auth.RoleChecker to MockDriver
type MockRoleDriver struct {
	MockDriver
}

func (m *MockRoleDriver) HasRole(ctx context.Context, p auth.Principal, role string) (bool, error) {
	args := m.Called(ctx, p, role)
	return args.Bool(0), args.Error(1)
}

// MockThrottle implements auth.Throttle
type MockThrottle struct {
	mock.Mock
}

func (m *MockThrottle) Check(ctx context.Context, identity string) (auth.Decision, error) {
	args := m.Called(ctx, identity)
	return args.Get(0).(auth.Decision), args.Error(1)
}

func (m *MockThrottle) RecordFailure(ctx context.Context, identity string) (int, error) {
	args := m.Called(ctx, identity)
	return args.Int(0), args.Error(1)
}

func (m *MockThrottle) RecordSuccess(ctx context.Context, identity string) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

// MockSessionStore implements auth.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSessionStore) Get(key string) (any, bool) {
	args := m.Called(key)
	return args.Get(0), args.Bool(1)
}

func (m *MockSessionStore) Set(key string, value any) error {
	args := m.Called(key, value)
	return args.Error(0)
}

func (m *MockSessionStore) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockSessionStore) Destroy() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSessionStore) Regenerate() error {
	args := m.Called()
	return args.Error(0)
}

// recordingStore wraps a MemorySessionStore and records call order
type recordingStore struct {
	*auth.MemorySessionStore
	calls []string
}

func newRecordingStore() *recordingStore {
	return &recordingStore{MemorySessionStore: auth.NewMemorySessionStore()}
}

func (r *recordingStore) Set(key string, value any) error {
	r.calls = append(r.calls, "set:"+key)
	return r.MemorySessionStore.Set(key, value)
}

func (r *recordingStore) Delete(key string) error {
	r.calls = append(r.calls, "delete:"+key)
	return r.MemorySessionStore.Delete(key)
}

func (r *recordingStore) Regenerate() error {
	r.calls = append(r.calls, "regenerate")
	return r.MemorySessionStore.Regenerate()
}

func (r *recordingStore) Destroy() error {
	r.calls = append(r.calls, "destroy")
	return r.MemorySessionStore.Destroy()
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
