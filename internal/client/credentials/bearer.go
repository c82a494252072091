package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/cloudkeeper/internal/client/repositories/metadata"
)

// Persisted entry names of the bearer pair.
const (
	AccessKey  = "access"
	RefreshKey = "refresh"
)

var ErrEmptyAccessToken = errors.New("empty access token")

// BearerStore keeps an access/refresh pair.
type BearerStore struct {
	mu   sync.RWMutex
	cred Credential
	has  bool
	repo metadata.Repository
}

func NewBearerStore(repo metadata.Repository) *BearerStore {
	return &BearerStore{repo: repo}
}

func (s *BearerStore) Kind() Kind { return KindBearer }

func (s *BearerStore) Token() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred, s.has
}

func (s *BearerStore) HasSessionMarker() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.has
}

// SetToken persists the pair and then makes it current. An empty refresh
// token keeps the one already stored, for backends that rotate only the
// access token.
func (s *BearerStore) SetToken(ctx context.Context, c Credential) error {
	if c.AccessToken == "" {
		return ErrEmptyAccessToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := Credential{Kind: KindBearer, AccessToken: c.AccessToken, RefreshToken: c.RefreshToken, Expiry: c.Expiry}
	if next.RefreshToken == "" && s.has {
		next.RefreshToken = s.cred.RefreshToken
	}
	if next.Expiry.IsZero() {
		next.Expiry, _ = AccessTokenExpiry(next.AccessToken)
	}

	err := s.repo.InTx(ctx, func(ctx context.Context, r metadata.Repository) error {
		if err := r.Set(ctx, AccessKey, []byte(next.AccessToken)); err != nil {
			return err
		}
		if next.RefreshToken == "" {
			return r.Delete(ctx, RefreshKey)
		}
		return r.Set(ctx, RefreshKey, []byte(next.RefreshToken))
	})
	if err != nil {
		return fmt.Errorf("persist bearer pair: %w", err)
	}

	s.cred, s.has = next, true
	return nil
}

// Clear drops the in-memory pair first, so the store reads as empty even if
// the persisted copy cannot be removed.
func (s *BearerStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cred, s.has = Credential{}, false

	err := s.repo.InTx(ctx, func(ctx context.Context, r metadata.Repository) error {
		if err := r.Delete(ctx, AccessKey); err != nil {
			return err
		}
		return r.Delete(ctx, RefreshKey)
	})
	if err != nil {
		return fmt.Errorf("erase bearer pair: %w", err)
	}
	return nil
}

func (s *BearerStore) Load(ctx context.Context) error {
	access, err := s.repo.Get(ctx, AccessKey)
	if err != nil {
		return fmt.Errorf("load access token: %w", err)
	}
	refresh, err := s.repo.Get(ctx, RefreshKey)
	if err != nil {
		return fmt.Errorf("load refresh token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(access) == 0 {
		s.cred, s.has = Credential{}, false
		return nil
	}
	expiry, _ := AccessTokenExpiry(string(access))
	s.cred = Credential{Kind: KindBearer, AccessToken: string(access), RefreshToken: string(refresh), Expiry: expiry}
	s.has = true
	return nil
}
