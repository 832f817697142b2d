package pg

import (
	"context"

	"github.com/dropDatabas3/keyrotor/internal/observability/logger"
	"github.com/dropDatabas3/keyrotor/internal/store/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepo struct{ s *Store }

const userCols = `id, last_name, first_name, middle_name, login, password_hash, role, gender,
class_name, graduation_year, created_at, updated_at`

func scanUser(row pgx.Row) (*core.User, error) {
	var (
		u            core.User
		role, gender string
	)
	if err := row.Scan(&u.ID, &u.LastName, &u.FirstName, &u.MiddleName, &u.Login, &u.PasswordHash,
		&role, &gender, &u.ClassName, &u.GraduationYear, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role, u.Gender = core.Role(role), core.Gender(gender)
	return &u, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*core.User, error) {
	u, err := scanUser(r.s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	return u, mapErr(err)
}

func (r *UserRepo) GetByLogin(ctx context.Context, login string) (*core.User, error) {
	u, err := scanUser(r.s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE lower(login) = lower($1)`, login))
	return u, mapErr(err)
}

func (r *UserRepo) Create(ctx context.Context, u *core.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	const q = `
INSERT INTO users (id, last_name, first_name, middle_name, login, password_hash, role, gender, class_name, graduation_year)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING created_at, updated_at`
	err := r.s.pool.QueryRow(ctx, q, u.ID, u.LastName, u.FirstName, u.MiddleName, u.Login, u.PasswordHash,
		string(u.Role), string(u.Gender), u.ClassName, u.GraduationYear).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		r.s.log.Error("pg create user failed", logger.Login(u.Login), logger.Err(err))
	}
	return mapErr(err)
}

func (r *UserRepo) Update(ctx context.Context, u *core.User) error {
	const q = `
UPDATE users SET last_name = $2, first_name = $3, middle_name = $4, login = $5, password_hash = $6,
	role = $7, gender = $8, class_name = $9, graduation_year = $10, updated_at = now()
WHERE id = $1
RETURNING created_at, updated_at`
	err := r.s.pool.QueryRow(ctx, q, u.ID, u.LastName, u.FirstName, u.MiddleName, u.Login, u.PasswordHash,
		string(u.Role), string(u.Gender), u.ClassName, u.GraduationYear).Scan(&u.CreatedAt, &u.UpdatedAt)
	return mapErr(err)
}

func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]core.User, error) {
	rows, err := r.s.pool.Query(ctx,
		`SELECT `+userCols+` FROM users ORDER BY created_at DESC, login ASC OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := make([]core.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.s.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n)
	return n, mapErr(err)
}
