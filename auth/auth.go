// Package auth implements the single-user session authenticator.
//
// The session credential is derived deterministically from the configured
// shared secret: the same secret always mints the same token, and a token is
// valid exactly while it matches the derivation of the current secret. There
// is no server-side session table and no revocation list; rotating the
// secret implicitly invalidates every outstanding credential.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/panpapadopoulos/subtrack/internal/util"
)

// ErrInvalidSecret is returned by Issue when the candidate secret does not
// match the configured one.
var ErrInvalidSecret = errors.New("invalid secret")

var (
	tokenSalt = []byte("subtrack-session-v1")
	tokenInfo = []byte("session-token")
)

// Authenticator verifies the shared secret and mints session credentials.
// The secret is injected at construction so the component carries no
// ambient state.
type Authenticator struct {
	secret string
	token  string
}

// New creates an Authenticator for the given shared secret.
func New(secret string) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("shared secret must not be empty")
	}
	normalized := util.Normalize(secret)
	key, err := util.HKDF([]byte(normalized), tokenSalt, tokenInfo)
	if err != nil {
		return nil, fmt.Errorf("deriving session token: %w", err)
	}
	return &Authenticator{
		secret: normalized,
		token:  util.HexEncode(key),
	}, nil
}

// Token returns the deterministic credential for the configured secret.
func (a *Authenticator) Token() string {
	return a.token
}

// Issue mints a credential iff candidate equals the configured secret.
// Both sides are compared after NFKD normalization, the same form the
// token derives from, so equivalent Unicode spellings of the secret
// authenticate interchangeably. The returned token is the same value
// every time, not a nonce.
func (a *Authenticator) Issue(candidate string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(util.Normalize(candidate)), []byte(a.secret)) != 1 {
		return "", ErrInvalidSecret
	}
	return a.token, nil
}

// Validate reports whether presented is the credential for the current
// secret. Comparison is constant-time.
func (a *Authenticator) Validate(presented string) bool {
	return subtle.ConstantTimeCompare([]byte(presented), []byte(a.token)) == 1
}
