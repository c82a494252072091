// Package credentials owns the artifact that proves the client's identity to
// the backend: either a CSRF token riding along a session cookie, or an
// access/refresh token pair.
//
// Reads are served from memory and never fail. Writes go through to the
// local metadata repository so a session survives a restart; Load restores
// it once at startup.
package credentials

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Kind tags which strategy a Credential belongs to.
type Kind string

const (
	KindCSRF   Kind = "csrf-token"
	KindBearer Kind = "bearer-pair"
)

// Credential is a tagged value; only the fields of its Kind are meaningful.
type Credential struct {
	Kind Kind

	// KindCSRF
	CSRFToken string
	Session   []*http.Cookie

	// KindBearer
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// OAuth2 returns the bearer pair as an oauth2.Token. Expiry is zero when the
// access token carries no exp claim, which oauth2 treats as never expiring.
func (c Credential) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  c.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: c.RefreshToken,
		Expiry:       c.Expiry,
	}
}

// Equal reports whether c and o are the same credential. Expiry is derived
// from the access token and is not compared.
func (c Credential) Equal(o Credential) bool {
	if c.Kind != o.Kind || c.CSRFToken != o.CSRFToken ||
		c.AccessToken != o.AccessToken || c.RefreshToken != o.RefreshToken ||
		len(c.Session) != len(o.Session) {
		return false
	}
	for i := range c.Session {
		if c.Session[i].Name != o.Session[i].Name || c.Session[i].Value != o.Session[i].Value {
			return false
		}
	}
	return true
}

// Store is the credential store contract shared by both strategies.
type Store interface {
	Kind() Kind
	// Token returns the current credential, or false when there is none.
	Token() (Credential, bool)
	SetToken(ctx context.Context, c Credential) error
	// Clear erases the credential. It succeeds when there is nothing to erase.
	Clear(ctx context.Context) error
	// HasSessionMarker is the cheap pre-flight check done before an identity
	// lookup: the session cookie for KindCSRF, an access token for KindBearer.
	HasSessionMarker() bool
	// Load restores the persisted credential into memory.
	Load(ctx context.Context) error
}
