package pg

import (
	"context"
	"time"

	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
	"github.com/dropDatabas3/keyrotor/internal/store/core"
	"github.com/google/uuid"
)

type RefreshTokenRepo struct{ s *Store }

func (r *RefreshTokenRepo) Create(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) (*core.RefreshToken, error) {
	const q = `
INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at)
VALUES (gen_random_uuid(), $1, $2, $3)
RETURNING id, created_at`
	rt := core.RefreshToken{UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt.UTC()}
	if err := r.s.pool.QueryRow(ctx, q, userID, tokenHash, expiresAt).Scan(&rt.ID, &rt.CreatedAt); err != nil {
		r.s.log.Error("pg create refresh failed", logger.UserID(userID.String()), logger.Err(err))
		return nil, mapErr(err)
	}
	return &rt, nil
}

func (r *RefreshTokenRepo) GetActive(ctx context.Context, tokenHash string) (*core.RefreshToken, error) {
	const q = `
SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
FROM refresh_tokens
WHERE token_hash = $1 AND revoked_at IS NULL AND expires_at > now()
LIMIT 1`
	var rt core.RefreshToken
	err := r.s.pool.QueryRow(ctx, q, tokenHash).
		Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.RevokedAt, &rt.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &rt, nil
}

func (r *RefreshTokenRepo) Revoke(ctx context.Context, tokenHash string) (bool, error) {
	tag, err := r.s.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = now() WHERE token_hash = $1 AND revoked_at IS NULL`, tokenHash)
	if err != nil {
		return false, mapErr(err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	tag, err := r.s.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL`, userID)
	if err != nil {
		return 0, mapErr(err)
	}
	return int(tag.RowsAffected()), nil
}
