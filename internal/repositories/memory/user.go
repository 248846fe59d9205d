package memory

import (
	"context"
	"strings"
	. "vmtracker/internal/models"

	"github.com/juju/errors"
	"gorm.io/gorm"
)

type userRepository struct {
	store *Store
}

func (r *userRepository) GetByID(_ context.Context, _ *gorm.DB, id int) (*User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.tables.users[id]
	if !ok {
		return nil, errors.NotFoundf("user %d", id)
	}
	return &user, nil
}

func (r *userRepository) GetBySubject(_ context.Context, _ *gorm.DB, subject string) (*User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if user := r.findBySubject(subject); user != nil {
		return user, nil
	}
	return nil, errors.NotFoundf("user with subject %q", subject)
}

func (r *userRepository) FindOrCreateBySubject(
	ctx context.Context,
	_ *gorm.DB,
	claims *User,
) (*User, error) {
	unlock := r.store.lockForWrite(ctx)
	defer unlock()

	user := r.findBySubject(claims.Subject)
	if user == nil {
		user = &User{
			Subject:  claims.Subject,
			Username: claims.Username,
			Email:    strings.ToLower(strings.TrimSpace(claims.Email)),
			Role:     claims.Role,
		}
		if err := user.BeforeCreate(nil); err != nil {
			return nil, err
		}
	} else if !user.UpdateFromClaims(claims.Username, claims.Email, claims.Role) {
		return user, nil
	}

	r.store.stamp(&user.BaseModel)
	r.store.tables.users[user.ID] = *user
	return user, nil
}

// findBySubject must be called with mu held.
func (r *userRepository) findBySubject(subject string) *User {
	for _, user := range r.store.tables.users {
		if user.Subject == subject {
			return &user
		}
	}
	return nil
}
