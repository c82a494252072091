package client

import (
	"context"

	"github.com/dmitrijs2005/cloudkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/cloudkeeper/internal/client/models"
)

// Client is the auth API of the backend.
type Client interface {
	// FetchCSRF asks the backend to set the anti-forgery cookie.
	FetchCSRF(ctx context.Context) error
	// Login establishes a cookie session. The returned user may be zero-valued
	// when the backend answers without a body.
	Login(ctx context.Context, creds models.Credentials) (models.User, error)
	ObtainToken(ctx context.Context, creds models.Credentials) (models.TokenPair, error)
	RefreshToken(ctx context.Context, refresh string) (models.TokenPair, error)
	Register(ctx context.Context, reg models.Registration) (models.User, error)
	Me(ctx context.Context) (models.User, error)
	// Logout terminates the server-side session described by session. The
	// credential is passed explicitly because the store is already empty by
	// the time the notification goes out.
	Logout(ctx context.Context, session credentials.Credential) error
}

// Endpoints are the paths of the auth API, relative to the base URL.
type Endpoints struct {
	CSRF         string
	Login        string
	Token        string
	TokenRefresh string
	Register     string
	Me           string
	Logout       string
	LogoutMethod string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		CSRF:         "/users/csrf/",
		Login:        "/users/login/",
		Token:        "/users/token/",
		TokenRefresh: "/users/token/refresh/",
		Register:     "/users/register/",
		Me:           "/users/me/",
		Logout:       "/users/logout/",
		LogoutMethod: "GET",
	}
}
