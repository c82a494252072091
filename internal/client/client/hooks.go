package client

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/cloudkeeper/internal/client/credentials"
)

// RequestHook mutates an outgoing request just before it is sent.
type RequestHook func(req *http.Request)

// TokenSource is the read side of a credentials.Store.
type TokenSource interface {
	Token() (credentials.Credential, bool)
}

// IsStateChanging reports whether method has create/update/delete semantics.
func IsStateChanging(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func exempt(req *http.Request, paths []string) bool {
	for _, p := range paths {
		if p != "" && strings.Contains(req.URL.Path, p) {
			return true
		}
	}
	return false
}

// CSRFHook copies the CSRF token from src into header on state-changing
// requests, except for paths containing one of exemptPaths. Read-only
// requests are left alone.
func CSRFHook(src TokenSource, header string, exemptPaths ...string) RequestHook {
	return func(req *http.Request) {
		if !IsStateChanging(req.Method) || exempt(req, exemptPaths) {
			return
		}
		if c, ok := src.Token(); ok && c.CSRFToken != "" {
			req.Header.Set(header, c.CSRFToken)
		}
	}
}

// BearerHook sets "Authorization: Bearer <access>" on every request except
// those whose path contains one of exemptPaths.
func BearerHook(src TokenSource, exemptPaths ...string) RequestHook {
	return func(req *http.Request) {
		if exempt(req, exemptPaths) {
			return
		}
		if c, ok := src.Token(); ok && c.AccessToken != "" {
			c.OAuth2().SetAuthHeader(req)
		}
	}
}
