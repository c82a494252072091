// Package authstate holds the process-wide record of who is logged in.
//
// The record is split into a read side (State) that any component may hold,
// and a write side (Writer) handed to exactly one owner, the session
// service. All transitions go through Writer, so IsAuthenticated can never
// disagree with the presence of a user.
package authstate

import (
	"sync"

	"github.com/dmitrijs2005/cloudkeeper/internal/client/models"
)

// Snapshot is a consistent view of the auth state at one instant.
type Snapshot struct {
	IsAuthenticated bool
	User            *models.User
}

// State is the read side.
type State struct {
	mu    sync.RWMutex
	user  *models.User
	epoch uint64
	subs  map[chan Snapshot]struct{}
}

// Writer is the single-writer handle for a State.
type Writer struct {
	s *State
}

// New returns an unauthenticated State together with its only Writer.
func New() (*State, *Writer) {
	s := &State{subs: make(map[chan Snapshot]struct{})}
	return s, &Writer{s: s}
}

// Snapshot returns the latest committed state. The returned user is a copy.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Epoch is bumped by every transition. Callers capture it before a slow
// operation and hand it to CommitIf/ResetIf to detect interleaved changes.
func (s *State) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Subscribe returns a channel that receives the state after every
// transition. Only the latest value is kept for slow readers. The returned
// func unsubscribes and closes the channel.
func (s *State) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, ch)
			s.mu.Unlock()
			close(ch)
		})
	}
}

func (s *State) snapshotLocked() Snapshot {
	if s.user == nil {
		return Snapshot{}
	}
	u := *s.user
	return Snapshot{IsAuthenticated: true, User: &u}
}

// publishLocked must run with s.mu held for writing.
func (s *State) publishLocked() {
	snap := s.snapshotLocked()
	for ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

func (s *State) setLocked(u *models.User) uint64 {
	s.user = u
	s.epoch++
	s.publishLocked()
	return s.epoch
}

// Commit stores u as the authenticated user and returns the new epoch.
func (w *Writer) Commit(u models.User) uint64 {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	return w.s.setLocked(&u)
}

// Reset returns the state to unauthenticated. The epoch always advances, so
// a revalidation started before a logout cannot commit after it; subscribers
// are only notified when a user was actually removed.
func (w *Writer) Reset() {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	if w.s.user == nil {
		w.s.epoch++
		return
	}
	w.s.setLocked(nil)
}

// CommitIf commits u only if no transition happened since epoch.
func (w *Writer) CommitIf(epoch uint64, u models.User) bool {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	if w.s.epoch != epoch {
		return false
	}
	w.s.setLocked(&u)
	return true
}

// ResetIf resets only if no transition happened since epoch.
func (w *Writer) ResetIf(epoch uint64) bool {
	w.s.mu.Lock()
	defer w.s.mu.Unlock()
	if w.s.epoch != epoch {
		return false
	}
	if w.s.user != nil {
		w.s.setLocked(nil)
	}
	return true
}

// State exposes the read side of the state this Writer mutates.
func (w *Writer) State() *State {
	return w.s
}
