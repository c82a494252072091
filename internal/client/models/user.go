// Package models contains the client-side data shapes exchanged with the
// storage backend.
package models

// User is the authenticated identity as reported by the backend.
// Values are treated as immutable snapshots: a change means a re-fetch.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

// Credentials is the body of the credential exchange endpoints.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration is the body of the account creation endpoint.
type Registration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// TokenPair is returned by the token endpoints of the bearer strategy.
// Refresh may be empty when the backend does not rotate refresh tokens.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
