package auth

import (
	"context"
	"fmt"
)

// LoginResult is the outcome of a credential check. A failed verification
// is reported with Valid=false and a generic Message, never as an error.
type LoginResult struct {
	Valid     bool
	Message   string
	Principal Principal
	Remember  bool
	// Token is the autologin token issued when Remember was requested
	Token string
}

// Session is the request scoped view over one client's SessionStore.
// It is not safe for concurrent use; the store is the synchronization
// point between requests of the same client.
type Session struct {
	auther        *Auther
	store         SessionStore
	routeUsername string
	source        string
}

func (s *Session) principalKey() string {
	return s.auther.cfg.Session.Key
}

func (s *Session) providerKey() string {
	return s.auther.cfg.Session.ProviderKey()
}

func (s *Session) driverName() string {
	name := normalizeDriverName(s.auther.cfg.Driver)
	if name == "" {
		return DriverFile
	}
	return name
}

// Store returns the underlying SessionStore
func (s *Session) Store() SessionStore {
	return s.store
}

// Login verifies username and password and, on success, regenerates the
// session identifier before storing the principal.
func (s *Session) Login(ctx context.Context, username, password string, remember bool) (LoginResult, error) {
	a := s.auther

	if password == "" {
		a.metrics.login(s.driverName(), LoginResultInvalid)
		return LoginResult{}, annotate(ErrPasswordRequired, map[string]any{"field": "password"})
	}

	identity := a.throttleKey(username, s.source)

	decision, err := a.throttle.Check(ctx, identity)
	if err != nil {
		a.logger.Error("login throttle check failed", "identity", identity, "error", err)
		a.metrics.login(s.driverName(), LoginResultError)
		return LoginResult{}, err
	}

	if decision.Locked() {
		a.logger.Warn("login rejected, identity jailed", "identity", identity, "retry_after", decision.RetryAfter)
		a.metrics.login(s.driverName(), LoginResultLocked)
		s.emit(ctx, ActivityEventLoginLocked, Principal{}, username, map[string]any{
			"failures":    decision.Failures,
			"retry_after": decision.RetryAfter.String(),
		})
		return LoginResult{}, &ThrottleError{Identity: identity, RetryAfter: decision.RetryAfter}
	}

	principal, ok, err := a.driver.Verify(ctx, username, password)
	if err != nil {
		a.logger.Error("login verify failed", "username", username, "error", err)
		a.metrics.login(s.driverName(), LoginResultError)
		if IsConfigurationError(err) || IsStoreError(err) {
			return LoginResult{}, err
		}
		return LoginResult{}, WrapStoreError(err, "verify")
	}

	if !ok {
		failures, err := a.throttle.RecordFailure(ctx, identity)
		if err != nil {
			a.logger.Error("login record failure failed", "identity", identity, "error", err)
			return LoginResult{}, err
		}

		a.metrics.login(s.driverName(), LoginResultFailure)
		if limit := a.cfg.MaxFailedLogins; limit > 0 && failures == limit {
			a.metrics.lockout()
			a.logger.Warn("identity jailed", "identity", identity, "failures", failures, "jail", a.cfg.LoginJailTime)
		}

		s.emit(ctx, ActivityEventLoginFailure, Principal{}, username, map[string]any{
			"failures": failures,
		})

		return LoginResult{
			Valid:   false,
			Message: ErrInvalidCredentials.Message,
		}, nil
	}

	if err := a.throttle.RecordSuccess(ctx, identity); err != nil {
		a.logger.Error("login record success failed", "identity", identity, "error", err)
		return LoginResult{}, err
	}

	if err := s.complete(principal, ""); err != nil {
		a.metrics.login(s.driverName(), LoginResultError)
		return LoginResult{}, err
	}

	result := LoginResult{
		Valid:     true,
		Principal: principal,
		Remember:  remember,
	}

	if remember && a.autologin != nil {
		token, err := a.autologin.Issue(ctx, principal)
		if err != nil {
			a.logger.Error("autologin token issue failed", "username", username, "error", err)
		} else {
			result.Token = token
		}
	}

	a.metrics.login(s.driverName(), LoginResultSuccess)
	s.emit(ctx, ActivityEventLoginSuccess, principal, username, map[string]any{
		"remember": remember,
	})

	return result, nil
}

// complete transitions to the authenticated state. The identifier is
// regenerated before the principal is written.
func (s *Session) complete(principal Principal, provider string) error {
	if err := s.store.Regenerate(); err != nil {
		s.auther.logger.Error("session regenerate failed", "error", err)
		return WrapStoreError(err, "session regenerate")
	}

	if err := s.store.Set(s.principalKey(), principal); err != nil {
		s.auther.logger.Error("session write failed", "error", err)
		return WrapStoreError(err, "session write")
	}

	if provider == "" {
		if err := s.store.Delete(s.providerKey()); err != nil {
			return WrapStoreError(err, "session write")
		}
		return nil
	}

	if err := s.store.Set(s.providerKey(), provider); err != nil {
		return WrapStoreError(err, "session write")
	}
	return nil
}

// Logout ends the authenticated state. With destroy the whole store is torn
// down, otherwise only the auth keys are removed and the identifier is
// regenerated. logoutAll revokes every autologin token of the principal.
// The returned bool is the checked postcondition !LoggedIn.
func (s *Session) Logout(ctx context.Context, destroy, logoutAll bool) (bool, error) {
	a := s.auther
	principal, had := s.User()

	var storeErr error
	if destroy {
		if err := s.store.Destroy(); err != nil {
			storeErr = WrapStoreError(err, "session destroy")
		}
	} else {
		if err := s.store.Delete(s.principalKey()); err != nil {
			storeErr = WrapStoreError(err, "session delete")
		} else if err := s.store.Delete(s.providerKey()); err != nil {
			storeErr = WrapStoreError(err, "session delete")
		} else if err := s.store.Regenerate(); err != nil {
			storeErr = WrapStoreError(err, "session regenerate")
		}
	}

	if storeErr != nil {
		a.logger.Error("logout store failure", "destroy", destroy, "error", storeErr)
	}

	if logoutAll && had && a.autologin != nil {
		if err := a.autologin.RevokeAll(ctx, principal.ID); err != nil {
			a.logger.Error("autologin revoke failed", "principal", principal.ID, "error", err)
			if storeErr == nil {
				storeErr = err
			}
		}
	}

	loggedOut := !s.LoggedIn(ctx)
	if !loggedOut {
		a.logger.Warn("logout postcondition not met", "session", s.store.ID())
	}

	a.metrics.logout(destroy)
	if had {
		s.emit(ctx, ActivityEventLogout, principal, principal.Username, map[string]any{
			"destroy":    destroy,
			"logout_all": logoutAll,
			"logged_out": loggedOut,
		})
	}

	return loggedOut, storeErr
}

// LoggedIn reports whether a principal is stored. A role is checked only
// when the driver implements RoleChecker, other drivers ignore it.
func (s *Session) LoggedIn(ctx context.Context, role ...string) bool {
	principal, ok := s.User()
	if !ok {
		return false
	}

	if len(role) == 0 || role[0] == "" {
		return true
	}

	checker, ok := s.auther.driver.(RoleChecker)
	if !ok {
		return true
	}

	for _, r := range role {
		has, err := checker.HasRole(ctx, principal, r)
		if err != nil {
			s.auther.logger.Error("role check failed", "role", r, "error", err)
			return false
		}
		if !has {
			return false
		}
	}
	return true
}

// User returns the stored principal
func (s *Session) User() (Principal, bool) {
	raw, ok := s.store.Get(s.principalKey())
	if !ok || raw == nil {
		return Principal{}, false
	}

	switch v := raw.(type) {
	case Principal:
		return v, !v.IsZero()
	case *Principal:
		if v == nil {
			return Principal{}, false
		}
		return *v, !v.IsZero()
	default:
		s.auther.logger.Warn("unexpected principal type in session", "type", fmt.Sprintf("%T", raw))
		return Principal{}, false
	}
}

// UserOr returns the stored principal or def
func (s *Session) UserOr(def Principal) Principal {
	if p, ok := s.User(); ok {
		return p
	}
	return def
}

// ID is the principal id, empty when anonymous
func (s *Session) ID() string {
	if p, ok := s.User(); ok {
		return p.ID
	}
	return ""
}

// Username returns the logged in username. When useRoute is set, or
// nobody is logged in, the route vanity username is returned instead.
func (s *Session) Username(useRoute bool) string {
	if !useRoute {
		if p, ok := s.User(); ok {
			return p.Username
		}
	}
	return s.routeUsername
}

func (s *Session) Name(kind NameKind, divider string) string {
	p, ok := s.User()
	if !ok {
		return ""
	}
	return p.Name(kind, divider)
}

func (s *Session) FullName(divider string) string {
	return s.Name(NameFull, divider)
}

// NameConfirm reports whether name equals the principal's "first last" name
func (s *Session) NameConfirm(name string) bool {
	if name == "" {
		return false
	}
	p, ok := s.User()
	if !ok || p.Profile == nil {
		return false
	}
	return p.Name(NameFull, " ") == name
}

// Provider is the OAuth provider used at login. It is ignored when no
// principal is stored.
func (s *Session) Provider() (string, bool) {
	if _, ok := s.User(); !ok {
		return "", false
	}
	raw, ok := s.store.Get(s.providerKey())
	if !ok {
		return "", false
	}
	provider, _ := raw.(string)
	return provider, provider != ""
}

// ForceLogin authenticates username without a password check. Callers must
// gate it outside of normal login paths.
func (s *Session) ForceLogin(ctx context.Context, username string) (Principal, error) {
	principal, err := s.auther.driver.ForceLogin(ctx, username)
	if err != nil {
		return Principal{}, err
	}

	if err := s.complete(principal, ""); err != nil {
		return Principal{}, err
	}

	s.auther.logger.Info("forced login", "username", username)
	s.emit(ctx, ActivityEventForceLogin, principal, username, nil)
	return principal, nil
}

// ProviderLogin stores a principal resolved by an OAuth exchange. The
// provider must be enabled in the registry and the principal must carry an
// identity.
func (s *Session) ProviderLogin(ctx context.Context, principal Principal, provider string) error {
	if principal.IsZero() {
		return annotate(ErrPrincipalRequired, map[string]any{"provider": provider})
	}

	if _, ok := s.auther.providers.Lookup(provider); !ok {
		return providerNotFound(provider)
	}

	if err := s.complete(principal, provider); err != nil {
		return err
	}

	s.emit(ctx, ActivityEventProviderLogin, principal, principal.Username, map[string]any{
		"provider": provider,
	})
	return nil
}

// CheckPassword compares password with the stored credential of the
// logged in principal.
func (s *Session) CheckPassword(ctx context.Context, password string) (bool, error) {
	p, ok := s.User()
	if !ok || password == "" {
		return false, nil
	}

	digest, err := s.auther.driver.Credential(ctx, p.Username)
	if err != nil {
		if IsCredentialNotFound(err) {
			return false, nil
		}
		return false, err
	}

	return s.auther.hasher.Compare(password, digest)
}

// AutoLogin restores a session from an autologin token. Invalid, expired
// or revoked tokens return false with a nil error.
func (s *Session) AutoLogin(ctx context.Context, token string) (bool, error) {
	a := s.auther
	if a.autologin == nil || token == "" {
		return false, nil
	}

	username, err := a.autologin.Validate(ctx, token)
	if err != nil {
		if IsInvalidAutologinToken(err) {
			a.metrics.autologin(LoginResultFailure)
			return false, nil
		}
		return false, err
	}

	principal, err := a.driver.ForceLogin(ctx, username)
	if err != nil {
		if IsCredentialNotFound(err) {
			a.metrics.autologin(LoginResultFailure)
			return false, nil
		}
		return false, err
	}

	if err := s.complete(principal, ""); err != nil {
		return false, err
	}

	a.metrics.autologin(LoginResultSuccess)
	s.emit(ctx, ActivityEventAutologin, principal, username, nil)
	return true, nil
}

func (s *Session) emit(ctx context.Context, eventType ActivityEventType, principal Principal, username string, meta map[string]any) {
	event := ActivityEvent{
		EventType:  eventType,
		Username:   username,
		UserID:     principal.ID,
		SessionID:  s.store.ID(),
		Source:     s.source,
		Metadata:   meta,
		OccurredAt: s.auther.now().UTC(),
	}
	if provider, ok := meta["provider"].(string); ok {
		event.Provider = provider
	}

	if err := s.auther.activity.Record(ctx, event); err != nil {
		s.auther.logger.Warn("activity sink error", "event", eventType, "error", err)
	}
}
