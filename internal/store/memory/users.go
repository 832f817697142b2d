// Package memory implementa los repositorios en memoria (dev y tests).
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/keyrotor/internal/store/core"
	"github.com/google/uuid"
)

type UserStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*core.User
	byLogin map[string]uuid.UUID
	now     func() time.Time
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[uuid.UUID]*core.User),
		byLogin: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

// WithClock reemplaza el reloj usado para CreatedAt/UpdatedAt.
func (s *UserStore) WithClock(fn func() time.Time) *UserStore {
	s.now = fn
	return s
}

func loginKey(login string) string { return strings.ToLower(strings.TrimSpace(login)) }

func cloneUser(u *core.User) *core.User {
	c := *u
	if u.MiddleName != nil {
		v := *u.MiddleName
		c.MiddleName = &v
	}
	if u.ClassName != nil {
		v := *u.ClassName
		c.ClassName = &v
	}
	if u.GraduationYear != nil {
		v := *u.GraduationYear
		c.GraduationYear = &v
	}
	return &c
}

func (s *UserStore) GetByID(_ context.Context, id uuid.UUID) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return cloneUser(u), nil
}

func (s *UserStore) GetByLogin(_ context.Context, login string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byLogin[loginKey(login)]
	if !ok {
		return nil, core.ErrNotFound
	}
	return cloneUser(s.byID[id]), nil
}

func (s *UserStore) Create(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := loginKey(u.Login)
	if _, dup := s.byLogin[key]; dup {
		return core.ErrConflict
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if _, dup := s.byID[u.ID]; dup {
		return core.ErrConflict
	}
	now := s.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.byID[u.ID] = cloneUser(u)
	s.byLogin[key] = u.ID
	return nil
}

func (s *UserStore) Update(_ context.Context, u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.byID[u.ID]
	if !ok {
		return core.ErrNotFound
	}
	oldKey, newKey := loginKey(prev.Login), loginKey(u.Login)
	if newKey != oldKey {
		if _, dup := s.byLogin[newKey]; dup {
			return core.ErrConflict
		}
		delete(s.byLogin, oldKey)
		s.byLogin[newKey] = u.ID
	}
	u.CreatedAt = prev.CreatedAt
	u.UpdatedAt = s.now().UTC()
	s.byID[u.ID] = cloneUser(u)
	return nil
}

func (s *UserStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return core.ErrNotFound
	}
	delete(s.byLogin, loginKey(u.Login))
	delete(s.byID, id)
	return nil
}

func (s *UserStore) List(_ context.Context, offset, limit int) ([]core.User, error) {
	s.mu.RLock()
	all := make([]core.User, 0, len(s.byID))
	for _, u := range s.byID {
		all = append(all, *cloneUser(u))
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Login < all[j].Login
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if offset < 0 {
		offset = 0
	}
	if offset >= len(all) {
		return []core.User{}, nil
	}
	end := len(all)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return all[offset:end], nil
}

func (s *UserStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}
