// Package memory provides the process-local user registry. Its contents are lost on restart.
package memory

import (
	"context"
	"sync"

	"qiblaapi/internal/model"
	"qiblaapi/internal/repository"
)

// Users is a repository.UserRepository held in a mutex-guarded map.
type Users struct {
	mu    sync.RWMutex
	users map[string]model.User
}

var _ repository.UserRepository = (*Users)(nil)

// NewUsers returns an empty registry.
func NewUsers() *Users {
	return &Users{users: make(map[string]model.User)}
}

// Add inserts user unless its email is already registered.
func (r *Users) Add(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key := repository.NormalizeEmail(user.Email)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[key]; ok {
		return repository.ErrAlreadyExists
	}
	stored := *user
	stored.Email = key
	stored.PassHash = append([]byte(nil), user.PassHash...)
	r.users[key] = stored
	return nil
}

// FindByEmail returns a copy of the stored user.
func (r *Users) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	u, ok := r.users[repository.NormalizeEmail(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}
	u.PassHash = append([]byte(nil), u.PassHash...)
	return &u, nil
}

// Len reports the number of registered users.
func (r *Users) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}
