// Package services contains application services for the CloudKeeper client.
// This file defines the session service: login, register, logout and
// revalidation of the current user against the backend.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/cloudkeeper/internal/client/authstate"
	"github.com/dmitrijs2005/cloudkeeper/internal/client/client"
	"github.com/dmitrijs2005/cloudkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/cloudkeeper/internal/client/models"
	"github.com/dmitrijs2005/cloudkeeper/internal/logging"
)

// Strategy selects how the client proves its identity. One is chosen per
// process.
type Strategy string

const (
	StrategyCookie Strategy = "cookie"
	StrategyBearer Strategy = "bearer"
)

// ParseStrategy accepts "cookie" or "bearer", case-insensitively.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case StrategyCookie, StrategyBearer:
		return st, nil
	}
	return "", fmt.Errorf("unknown auth strategy %q", s)
}

// DefaultSettleDelay is how long the cookie strategy waits between receiving
// the anti-forgery cookie and sending the login request.
const DefaultSettleDelay = 100 * time.Millisecond

// AuthService defines the session operations.
//
// Contract:
//   - Login, Register: on success the user is committed to the auth state;
//     on failure an *AuthError or *ValidationError is returned and the state
//     is left untouched, unless the stored credential was already replaced,
//     in which case the client ends logged out.
//   - Logout: always ends logged out locally; the returned error only reports
//     a failed server notification or a failed local erase.
//   - FetchCurrentUser: never fails; any problem reads as "no user" and
//     resets the state.
//   - Refresh: rotates the bearer access token.
//   - Snapshot: synchronous read of the auth state.
type AuthService interface {
	Login(ctx context.Context, username, password string) (models.User, error)
	Register(ctx context.Context, reg models.Registration) (models.User, error)
	Logout(ctx context.Context) error
	FetchCurrentUser(ctx context.Context) (*models.User, bool)
	Refresh(ctx context.Context) error
	Snapshot() authstate.Snapshot
}

// Options wire an AuthService.
type Options struct {
	Strategy Strategy
	Client   client.Client
	Store    credentials.Store
	State    *authstate.Writer
	// SettleDelay overrides DefaultSettleDelay; negative disables it.
	SettleDelay time.Duration
	Logger      logging.Logger
}

type authService struct {
	api      client.Client
	store    credentials.Store
	state    *authstate.Writer
	strategy strategy
	log      logging.Logger

	// mu pairs every auth state transition with the matching credential
	// store change so the two cannot interleave.
	mu    sync.Mutex
	group singleflight.Group
}

// NewAuthService checks that the store matches the strategy and builds the
// service.
func NewAuthService(opts Options) (AuthService, error) {
	if opts.Client == nil || opts.Store == nil || opts.State == nil {
		return nil, errors.New("auth service: client, store and state are required")
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}

	s := &authService{
		api:   opts.Client,
		store: opts.Store,
		state: opts.State,
		log:   log.With("component", "auth", "strategy", string(opts.Strategy)),
	}

	switch opts.Strategy {
	case StrategyCookie:
		if opts.Store.Kind() != credentials.KindCSRF {
			return nil, fmt.Errorf("cookie strategy needs a %s store, got %s", credentials.KindCSRF, opts.Store.Kind())
		}
		delay := opts.SettleDelay
		if delay == 0 {
			delay = DefaultSettleDelay
		}
		s.strategy = &cookieStrategy{svc: s, settle: max(delay, 0)}
	case StrategyBearer:
		if opts.Store.Kind() != credentials.KindBearer {
			return nil, fmt.Errorf("bearer strategy needs a %s store, got %s", credentials.KindBearer, opts.Store.Kind())
		}
		s.strategy = &bearerStrategy{svc: s}
	default:
		return nil, fmt.Errorf("unknown auth strategy %q", opts.Strategy)
	}
	return s, nil
}

func (s *authService) Snapshot() authstate.Snapshot {
	return s.state.State().Snapshot()
}

// Login authenticates with the backend and commits the resolved user.
func (s *authService) Login(ctx context.Context, username, password string) (models.User, error) {
	creds := models.Credentials{Username: username, Password: password}

	u, err := s.strategy.login(ctx, creds)
	if err != nil {
		s.log.Info(ctx, "login failed", "user", username, "err", err)
		return models.User{}, err
	}

	s.commit(u)
	s.log.Info(ctx, "logged in", "user", u.Username)
	return u, nil
}

// Register validates reg locally, creates the account and commits the new
// user as logged in.
func (s *authService) Register(ctx context.Context, reg models.Registration) (models.User, error) {
	if err := ValidateRegistration(reg); err != nil {
		return models.User{}, err
	}

	created, err := s.api.Register(ctx, reg)
	if err != nil {
		s.log.Info(ctx, "registration rejected", "user", reg.Username, "err", err)
		return models.User{}, registerError(err)
	}

	u, err := s.strategy.afterRegister(ctx, models.Credentials{Username: reg.Username, Password: reg.Password}, created)
	if err != nil {
		s.log.Warn(ctx, "account created but session not established", "user", reg.Username, "err", err)
		return models.User{}, err
	}

	s.commit(u)
	s.log.Info(ctx, "registered", "user", u.Username)
	return u, nil
}

// storeCredential writes a freshly issued credential. It holds mu so a
// failing revalidation cannot compare against the store halfway through.
func (s *authService) storeCredential(ctx context.Context, cred credentials.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.SetToken(ctx, cred)
}

// abandonLogin undoes a login that failed after its credential replaced the
// stored one. Whoever was logged in before no longer has a credential, so
// the state is reset together with the store.
func (s *authService) abandonLogin(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Reset()
	if err := s.store.Clear(ctx); err != nil {
		s.log.Error(ctx, "failed to discard half-established session", "err", err)
	}
}

func (s *authService) commit(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Commit(u)
}

// Logout clears local state first and only then tells the server.
func (s *authService) Logout(ctx context.Context) error {
	s.mu.Lock()
	session, hasToken := s.store.Token()
	active := hasToken || s.store.HasSessionMarker() || s.state.State().Snapshot().IsAuthenticated
	s.state.Reset()
	clearErr := s.store.Clear(ctx)
	s.mu.Unlock()

	if clearErr != nil {
		s.log.Error(ctx, "failed to erase stored credential", "err", clearErr)
	}
	if !active {
		return clearErr
	}

	notifyErr := s.strategy.notifyLogout(ctx, session)
	if notifyErr != nil {
		s.log.Warn(ctx, "server logout failed", "err", notifyErr)
		notifyErr = &AuthError{Kind: kindOf(notifyErr), Message: "logged out locally, but the server could not be notified", Err: notifyErr}
	} else {
		s.log.Info(ctx, "logged out")
	}
	return errors.Join(notifyErr, clearErr)
}

// FetchCurrentUser asks the backend who the stored credential belongs to.
// Concurrent callers share one lookup.
func (s *authService) FetchCurrentUser(ctx context.Context) (*models.User, bool) {
	v, _, _ := s.group.Do("me", func() (any, error) {
		return s.fetchCurrentUser(ctx), nil
	})
	u, _ := v.(*models.User)
	if u == nil {
		return nil, false
	}
	cp := *u
	return &cp, true
}

func (s *authService) fetchCurrentUser(ctx context.Context) *models.User {
	epoch := s.state.State().Epoch()

	if !s.store.HasSessionMarker() {
		s.state.ResetIf(epoch)
		return nil
	}

	if cred, ok := s.store.Token(); ok && s.strategy.needsRefresh(cred) {
		if err := s.Refresh(ctx); err != nil {
			s.revalidationFailed(ctx, epoch, cred, err)
			return nil
		}
	}

	used, _ := s.store.Token()
	u, err := s.api.Me(ctx)
	if err != nil {
		s.revalidationFailed(ctx, epoch, used, err)
		return nil
	}

	s.mu.Lock()
	committed := s.state.CommitIf(epoch, u)
	s.mu.Unlock()
	if !committed {
		// Someone logged in or out while the lookup was in flight; their
		// outcome stands.
		s.log.Debug(ctx, "revalidation result discarded", "user", u.Username)
		return s.Snapshot().User
	}
	return &u
}

// revalidationFailed resets the state and, where the strategy asks for it,
// erases used. A credential stored after used was read belongs to a newer
// login and is kept.
func (s *authService) revalidationFailed(ctx context.Context, epoch uint64, used credentials.Credential, err error) {
	s.log.Info(ctx, "session revalidation failed", "err", &AuthError{Kind: sessionKind(err), Err: err})

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.ResetIf(epoch) {
		return
	}
	if !s.strategy.clearOnFailure(err) {
		return
	}
	if current, _ := s.store.Token(); !current.Equal(used) {
		s.log.Debug(ctx, "credential replaced during revalidation, keeping it")
		return
	}
	if cerr := s.store.Clear(ctx); cerr != nil {
		s.log.Error(ctx, "failed to erase rejected credential", "err", cerr)
	}
}

// Refresh trades the refresh token for a new access token. Concurrent
// callers share one exchange.
func (s *authService) Refresh(ctx context.Context) error {
	_, err, _ := s.group.Do("refresh", func() (any, error) {
		return nil, s.strategy.refresh(ctx)
	})
	return err
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func kindOf(err error) error {
	if errors.Is(err, client.ErrUnavailable) {
		return ErrTransport
	}
	return ErrServerRejected
}

func sessionKind(err error) error {
	if errors.Is(err, client.ErrUnavailable) {
		return ErrTransport
	}
	return ErrSessionExpired
}

func isRejected(err error) bool {
	return errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrForbidden)
}

func detailOf(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

func loginError(err error) error {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return &AuthError{Kind: ErrInvalidCredentials, Message: ErrInvalidCredentials.Error(), Err: err}
	case errors.Is(err, client.ErrUnavailable):
		return &AuthError{Kind: ErrTransport, Message: "could not reach the server, try again later", Err: err}
	}
	if d := detailOf(err); d != "" {
		return &AuthError{Kind: ErrServerRejected, Message: d, Err: err}
	}
	return &AuthError{Kind: ErrServerRejected, Message: "login failed", Err: err}
}

func registerError(err error) error {
	if errors.Is(err, client.ErrUnavailable) {
		return &AuthError{Kind: ErrTransport, Message: "could not reach the server, try again later", Err: err}
	}
	if d := detailOf(err); d != "" {
		return &AuthError{Kind: ErrServerRejected, Message: d, Err: err}
	}
	return &AuthError{Kind: ErrServerRejected, Message: "registration failed, check your details", Err: err}
}
