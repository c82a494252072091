package services

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/cloudkeeper/internal/client/authstate"
	"github.com/dmitrijs2005/cloudkeeper/internal/client/credentials"
	"github.com/dmitrijs2005/cloudkeeper/internal/logging"
)

// Bootstrapper resolves a stored session into a live user once per process,
// before anything branches on the auth state.
type Bootstrapper struct {
	auth  AuthService
	store credentials.Store
	log   logging.Logger

	once   sync.Once
	ready  chan struct{}
	result authstate.Snapshot
}

func NewBootstrapper(auth AuthService, store credentials.Store, log logging.Logger) *Bootstrapper {
	if log == nil {
		log = logging.Nop()
	}
	return &Bootstrapper{
		auth:  auth,
		store: store,
		log:   log.With("component", "bootstrap"),
		ready: make(chan struct{}),
	}
}

// Run restores the persisted credential and revalidates it. Only the first
// call does any work; later and concurrent calls wait for it and return the
// same snapshot. Failures are logged and leave the client logged out.
func (b *Bootstrapper) Run(ctx context.Context) authstate.Snapshot {
	b.once.Do(func() {
		defer close(b.ready)
		b.result = b.run(ctx)
	})
	<-b.ready
	return b.result
}

func (b *Bootstrapper) run(ctx context.Context) authstate.Snapshot {
	if err := b.store.Load(ctx); err != nil {
		b.log.Warn(ctx, "could not load stored credential", "err", err)
		return b.auth.Snapshot()
	}

	if !b.store.HasSessionMarker() {
		b.log.Debug(ctx, "no stored session")
		return b.auth.Snapshot()
	}

	if u, ok := b.auth.FetchCurrentUser(ctx); ok {
		b.log.Info(ctx, "session restored", "user", u.Username)
	} else {
		b.log.Info(ctx, "stored session is no longer valid")
	}
	return b.auth.Snapshot()
}

// Ready is closed once Run has finished.
func (b *Bootstrapper) Ready() <-chan struct{} { return b.ready }

// Result returns the snapshot Run produced, and false while Run has not
// finished.
func (b *Bootstrapper) Result() (authstate.Snapshot, bool) {
	select {
	case <-b.ready:
		return b.result, true
	default:
		return authstate.Snapshot{}, false
	}
}
