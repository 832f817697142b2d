package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/keyrotor/internal/store/core"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// RefreshTokenStore guarda los tokens en go-cache; la entrada expira junto con el token
// y el janitor la purga.
type RefreshTokenStore struct {
	mu  sync.Mutex
	c   *gocache.Cache
	now func() time.Time
}

func NewRefreshTokenStore(cleanup time.Duration) *RefreshTokenStore {
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &RefreshTokenStore{c: gocache.New(gocache.NoExpiration, cleanup), now: time.Now}
}

// WithClock reemplaza el reloj con el que se evalúa la expiración.
func (s *RefreshTokenStore) WithClock(fn func() time.Time) *RefreshTokenStore {
	s.now = fn
	return s
}

func (s *RefreshTokenStore) Create(_ context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*core.RefreshToken, error) {
	now := s.now().UTC()
	rt := &core.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: now,
	}
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return nil, core.ErrInvalid
	}
	if err := s.c.Add(tokenHash, rt, ttl); err != nil {
		return nil, core.ErrConflict
	}
	cp := *rt
	return &cp, nil
}

func (s *RefreshTokenStore) GetActive(_ context.Context, tokenHash string) (*core.RefreshToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.c.Get(tokenHash)
	if !ok {
		return nil, core.ErrNotFound
	}
	rt := v.(*core.RefreshToken)
	if !rt.Active(s.now()) {
		return nil, core.ErrNotFound
	}
	cp := *rt
	return &cp, nil
}

func (s *RefreshTokenStore) Revoke(_ context.Context, tokenHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.c.Get(tokenHash)
	if !ok {
		return false, nil
	}
	rt := v.(*core.RefreshToken)
	if rt.RevokedAt != nil {
		return false, nil
	}
	now := s.now().UTC()
	rt.RevokedAt = &now
	return true, nil
}

func (s *RefreshTokenStore) RevokeAllForUser(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	n := 0
	for _, it := range s.c.Items() {
		rt := it.Object.(*core.RefreshToken)
		if rt.UserID == userID && rt.RevokedAt == nil {
			rt.RevokedAt = &now
			n++
		}
	}
	return n, nil
}
