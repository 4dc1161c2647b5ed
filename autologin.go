package auth

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

const autologinIssuer = "go-login"

// AutologinClaims are carried by remember me tokens. Epoch must match the
// principal's current epoch, RevokeAll bumps it.
type AutologinClaims struct {
	Username string `json:"usr"`
	Epoch    int64  `json:"epc"`
	jwt.RegisteredClaims
}

// JWTAutologin issues HS256 signed autologin tokens. Revocation epochs live
// in process memory and are lost on restart.
type JWTAutologin struct {
	signingKey []byte
	lifetime   time.Duration
	epochs     *gocache.Cache
	now        func() time.Time
}

var _ AutologinTokens = (*JWTAutologin)(nil)

// NewJWTAutologin returns a token service signing with key
func NewJWTAutologin(key []byte, lifetime time.Duration) *JWTAutologin {
	if lifetime <= 0 {
		lifetime = DefaultLifetimeSeconds * time.Second
	}
	return &JWTAutologin{
		signingKey: key,
		lifetime:   lifetime,
		epochs:     gocache.New(gocache.NoExpiration, 0),
		now:        time.Now,
	}
}

// WithClock overrides the time source for issuing and validating
func (a *JWTAutologin) WithClock(now func() time.Time) *JWTAutologin {
	if now != nil {
		a.now = now
	}
	return a
}

func (a *JWTAutologin) epoch(principalID string) int64 {
	raw, ok := a.epochs.Get(principalID)
	if !ok {
		return 0
	}
	n, _ := raw.(int64)
	return n
}

func (a *JWTAutologin) Issue(_ context.Context, principal Principal) (string, error) {
	if len(a.signingKey) == 0 {
		return "", ErrSigningKeyMissing
	}

	now := a.now()
	claims := AutologinClaims{
		Username: principal.Username,
		Epoch:    a.epoch(principal.ID),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    autologinIssuer,
			Subject:   principal.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

func (a *JWTAutologin) Validate(_ context.Context, tokenString string) (string, error) {
	claims := &AutologinClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, stderrors.New("unexpected signing method")
		}
		return a.signingKey, nil
	},
		jwt.WithIssuer(autologinIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		reason := "malformed"
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			reason = "expired"
		} else if stderrors.Is(err, jwt.ErrTokenSignatureInvalid) {
			reason = "signature"
		}
		return "", annotate(ErrInvalidAutologinToken, map[string]any{"reason": reason})
	}

	if claims.Username == "" || claims.Epoch < a.epoch(claims.Subject) {
		return "", annotate(ErrInvalidAutologinToken, map[string]any{"reason": "revoked"})
	}

	return claims.Username, nil
}

// RevokeAll invalidates every token issued to principalID so far
func (a *JWTAutologin) RevokeAll(_ context.Context, principalID string) error {
	_ = a.epochs.Add(principalID, int64(0), gocache.NoExpiration)
	if _, err := a.epochs.IncrementInt64(principalID, 1); err != nil {
		return WrapStoreError(err, "autologin revoke")
	}
	return nil
}

// IsInvalidAutologinToken reports a token rejected by Validate
func IsInvalidAutologinToken(err error) bool {
	return hasTextCode(err, TextCodeTokenInvalid)
}
