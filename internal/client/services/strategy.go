package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/cloudkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/cloudkeeper/internal/client/models"
)

// strategy holds the parts of the session protocol that differ between
// cookie sessions and bearer pairs.
type strategy interface {
	// login exchanges creds for a stored credential and resolves the user.
	// It must leave the store empty when it fails after writing to it.
	login(ctx context.Context, creds models.Credentials) (models.User, error)
	// afterRegister turns a freshly created account into a session.
	afterRegister(ctx context.Context, creds models.Credentials, created models.User) (models.User, error)
	notifyLogout(ctx context.Context, session credentials.Credential) error
	needsRefresh(cred credentials.Credential) bool
	refresh(ctx context.Context) error
	// clearOnFailure reports whether a failed revalidation must also erase
	// the stored credential.
	clearOnFailure(err error) bool
}

type cookieStrategy struct {
	svc    *authService
	settle time.Duration
}

func (c *cookieStrategy) login(ctx context.Context, creds models.Credentials) (models.User, error) {
	s := c.svc

	if err := s.api.FetchCSRF(ctx); err != nil {
		return models.User{}, &AuthError{Kind: kindOf(err), Message: "could not obtain an anti-forgery token", Err: err}
	}
	if cred, ok := s.store.Token(); !ok || cred.CSRFToken == "" {
		return models.User{}, &AuthError{Kind: ErrServerRejected, Message: "server did not issue an anti-forgery token"}
	}
	if err := sleepCtx(ctx, c.settle); err != nil {
		return models.User{}, &AuthError{Kind: ErrAuthFailure, Message: "login cancelled", Err: err}
	}

	u, err := s.api.Login(ctx, creds)
	if err != nil {
		return models.User{}, loginError(err)
	}
	if u.ID == 0 {
		if u, err = s.api.Me(ctx); err != nil {
			s.abandonLogin(ctx)
			return models.User{}, &AuthError{Kind: kindOf(err), Message: "logged in, but the profile could not be loaded", Err: err}
		}
	}

	if err := s.storeCredential(ctx, credentials.Credential{Kind: credentials.KindCSRF}); err != nil {
		s.abandonLogin(ctx)
		return models.User{}, &AuthError{Kind: ErrAuthFailure, Message: "could not save the session", Err: err}
	}
	return u, nil
}

func (c *cookieStrategy) afterRegister(ctx context.Context, _ models.Credentials, created models.User) (models.User, error) {
	if err := c.svc.storeCredential(ctx, credentials.Credential{Kind: credentials.KindCSRF}); err != nil {
		return models.User{}, &AuthError{Kind: ErrAuthFailure, Message: "could not save the session", Err: err}
	}
	return created, nil
}

func (c *cookieStrategy) notifyLogout(ctx context.Context, session credentials.Credential) error {
	return c.svc.api.Logout(ctx, session)
}

// Sessions are renewed by the server on use.
func (c *cookieStrategy) needsRefresh(credentials.Credential) bool { return false }

func (c *cookieStrategy) refresh(context.Context) error { return nil }

func (c *cookieStrategy) clearOnFailure(err error) bool { return isRejected(err) }

type bearerStrategy struct {
	svc *authService
}

func (b *bearerStrategy) login(ctx context.Context, creds models.Credentials) (models.User, error) {
	s := b.svc

	pair, err := s.api.ObtainToken(ctx, creds)
	if err != nil {
		return models.User{}, loginError(err)
	}
	if pair.Access == "" {
		return models.User{}, &AuthError{Kind: ErrServerRejected, Message: "server returned no access token"}
	}

	cred := credentials.Credential{Kind: credentials.KindBearer, AccessToken: pair.Access, RefreshToken: pair.Refresh}
	if err := s.storeCredential(ctx, cred); err != nil {
		return models.User{}, &AuthError{Kind: ErrAuthFailure, Message: "could not save the session", Err: err}
	}

	u, err := s.api.Me(ctx)
	if err != nil {
		s.abandonLogin(ctx)
		return models.User{}, &AuthError{Kind: kindOf(err), Message: "logged in, but the profile could not be loaded", Err: err}
	}
	return u, nil
}

// afterRegister exchanges the new account's credentials for a token pair so
// the committed user is backed by a stored credential.
func (b *bearerStrategy) afterRegister(ctx context.Context, creds models.Credentials, _ models.User) (models.User, error) {
	return b.login(ctx, creds)
}

// Bearer sessions end purely client-side.
func (b *bearerStrategy) notifyLogout(context.Context, credentials.Credential) error { return nil }

func (b *bearerStrategy) needsRefresh(cred credentials.Credential) bool {
	return cred.RefreshToken != "" && !cred.Expiry.IsZero() && !cred.OAuth2().Valid()
}

func (b *bearerStrategy) refresh(ctx context.Context) error {
	s := b.svc
	epoch := s.state.State().Epoch()

	cred, ok := s.store.Token()
	if !ok || cred.RefreshToken == "" {
		return &AuthError{Kind: ErrSessionExpired, Message: "session expired, log in again"}
	}

	pair, err := s.api.RefreshToken(ctx, cred.RefreshToken)
	if err != nil {
		return &AuthError{Kind: sessionKind(err), Message: "could not refresh the session", Err: err}
	}
	if pair.Access == "" {
		return &AuthError{Kind: ErrSessionExpired, Message: "server returned no access token"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if current, _ := s.store.Token(); s.state.State().Epoch() != epoch || !current.Equal(cred) {
		return &AuthError{Kind: ErrSessionExpired, Message: "session changed during refresh"}
	}
	next := credentials.Credential{Kind: credentials.KindBearer, AccessToken: pair.Access, RefreshToken: pair.Refresh}
	if err := s.store.SetToken(ctx, next); err != nil {
		return &AuthError{Kind: ErrAuthFailure, Message: "could not save the refreshed session", Err: err}
	}
	s.log.Debug(ctx, "access token refreshed")
	return nil
}

func (b *bearerStrategy) clearOnFailure(error) bool { return true }
