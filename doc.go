// Package auth provides a pluggable authentication core: keyed password
// hashing, credential drivers, a login throttle and a request scoped
// Session that stores the authenticated Principal in a SessionStore.
//
// Setup:
//   - Build an Auther once from a Config (LoadConfig reads YAML, dotenv files
//     and AUTH_* overrides). Unknown drivers, hash methods or a missing hash
//     key fail here rather than on the first login.
//   - Drivers are resolved by name from a registry. "file" and "static" verify
//     against the users table in the configuration; the repository package
//     registers a bun backed "database" driver.
//
// Per request:
//   - Auther.Session wraps the client's SessionStore. Login verifies a
//     credential, regenerates the session identifier and stores the
//     Principal. A failed verification is a LoginResult value, a lockout is
//     a *ThrottleError and backend failures are store errors.
//   - Logout either destroys the store or removes the auth keys and
//     regenerates the identifier. Its bool result is the checked
//     postcondition, never a guess.
//
// Extension points:
//   - ActivitySink receives login, logout and lockout events best effort.
//   - AutologinTokens backs "remember me"; JWTAutologin signs HS256 tokens
//     that RevokeAll invalidates per principal.
//   - Metrics exposes Prometheus counters when passed via WithMetrics.
//
// HTTP:
//   - fiberauth mounts the Session on a fiber app; routerauth does the same
//     over go-router with a server side session registry.
package auth
