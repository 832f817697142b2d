// Package redis guarda refresh tokens en Redis con TTL igual a su expiración.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dropDatabas3/keyrotor/internal/store/core"
	"github.com/google/uuid"
	rdb "github.com/redis/go-redis/v9"
)

// Layout de claves:
//
//	{prefix}rt:{hash}        JSON del token
//	{prefix}rt:user:{uuid}   set de hashes del usuario (para revocación masiva)
type RefreshTokenStore struct {
	c      rdb.UniversalClient
	prefix string
	now    func() time.Time
}

func NewRefreshTokenStore(c rdb.UniversalClient, prefix string) *RefreshTokenStore {
	return &RefreshTokenStore{c: c, prefix: prefix, now: time.Now}
}

func (s *RefreshTokenStore) tokenKey(hash string) string { return s.prefix + "rt:" + hash }
func (s *RefreshTokenStore) userKey(id uuid.UUID) string  { return s.prefix + "rt:user:" + id.String() }

func (s *RefreshTokenStore) Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*core.RefreshToken, error) {
	now := s.now().UTC()
	ttl := expiresAt.Sub(now)
	if ttl <= 0 {
		return nil, core.ErrInvalid
	}
	rt := core.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: now,
	}
	b, err := json.Marshal(rt)
	if err != nil {
		return nil, err
	}
	ok, err := s.c.SetNX(ctx, s.tokenKey(tokenHash), b, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.ErrConflict
	}
	uk := s.userKey(userID)
	if _, err := s.c.TxPipelined(ctx, func(p rdb.Pipeliner) error {
		p.SAdd(ctx, uk, tokenHash)
		p.Expire(ctx, uk, ttl)
		return nil
	}); err != nil {
		return nil, err
	}
	return &rt, nil
}

func (s *RefreshTokenStore) load(ctx context.Context, c rdb.Cmdable, hash string) (*core.RefreshToken, error) {
	b, err := c.Get(ctx, s.tokenKey(hash)).Bytes()
	if errors.Is(err, rdb.Nil) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var rt core.RefreshToken
	if err := json.Unmarshal(b, &rt); err != nil {
		return nil, err
	}
	return &rt, nil
}

func (s *RefreshTokenStore) GetActive(ctx context.Context, tokenHash string) (*core.RefreshToken, error) {
	rt, err := s.load(ctx, s.c, tokenHash)
	if err != nil {
		return nil, err
	}
	if !rt.Active(s.now()) {
		return nil, core.ErrNotFound
	}
	return rt, nil
}

// Revoke marca revoked_at conservando el TTL. WATCH evita carreras entre dos
// revocaciones: si otra escritura gana la carrera (TxFailedErr) este llamado no
// revocó nada.
func (s *RefreshTokenStore) Revoke(ctx context.Context, tokenHash string) (bool, error) {
	key := s.tokenKey(tokenHash)
	revoked := false
	err := s.c.Watch(ctx, func(tx *rdb.Tx) error {
		rt, err := s.load(ctx, tx, tokenHash)
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if rt.RevokedAt != nil {
			return nil
		}
		now := s.now().UTC()
		rt.RevokedAt = &now
		b, err := json.Marshal(rt)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(p rdb.Pipeliner) error {
			p.Set(ctx, key, b, rdb.KeepTTL)
			p.SRem(ctx, s.userKey(rt.UserID), tokenHash)
			return nil
		})
		if err == nil {
			revoked = true
		}
		return err
	}, key)
	if errors.Is(err, rdb.TxFailedErr) {
		return false, nil
	}
	return revoked, err
}

func (s *RefreshTokenStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	hashes, err := s.c.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, h := range hashes {
		ok, err := s.Revoke(ctx, h)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}
