package repositories

import (
	"context"
	"vmtracker/internal/constants"
	"vmtracker/internal/database"
	. "vmtracker/internal/models"

	logger "github.com/Bparsons0904/goLogger"
	"github.com/juju/errors"
	"github.com/valkey-io/valkey-go"
	"gorm.io/gorm"
)

type UserRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id int) (*User, error)
	GetBySubject(ctx context.Context, tx *gorm.DB, subject string) (*User, error)
	FindOrCreateBySubject(ctx context.Context, tx *gorm.DB, claims *User) (*User, error)
}

type userRepository struct {
	cache valkey.Client
	log   logger.Logger
}

func NewUserRepository(cache valkey.Client) UserRepository {
	return &userRepository{
		cache: cache,
		log:   logger.New("userRepository"),
	}
}

// cachedUser exists because User hides its subject from JSON.
type cachedUser struct {
	User
	Subject string `json:"subject"`
}

func (r *userRepository) GetByID(ctx context.Context, tx *gorm.DB, id int) (*User, error) {
	log := r.log.Function("GetByID")

	var user User
	if err := tx.WithContext(ctx).First(&user, id).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, errors.NotFoundf("user %d", id)
		}
		return nil, log.Err("failed to get user by id", err, "id", id)
	}

	return &user, nil
}

func (r *userRepository) GetBySubject(
	ctx context.Context,
	tx *gorm.DB,
	subject string,
) (*User, error) {
	log := r.log.Function("GetBySubject")

	var cached cachedUser
	found, err := r.userCache(ctx, subject).Get(&cached)
	if err != nil {
		log.Warn("failed to get user from cache", "subject", subject, "error", err)
	}
	if found {
		user := cached.User
		user.Subject = cached.Subject
		return &user, nil
	}

	var user User
	if err := tx.WithContext(ctx).Where("subject = ?", subject).First(&user).Error; err != nil {
		if isRecordNotFound(err) {
			return nil, errors.NotFoundf("user with subject %q", subject)
		}
		return nil, log.Err("failed to get user by subject", err, "subject", subject)
	}

	r.addUserToCache(ctx, &user)

	return &user, nil
}

// FindOrCreateBySubject returns the stored user for claims.Subject, creating
// it on first sight and refreshing username, email and role when the token
// disagrees with what is stored.
func (r *userRepository) FindOrCreateBySubject(
	ctx context.Context,
	tx *gorm.DB,
	claims *User,
) (*User, error) {
	log := r.log.Function("FindOrCreateBySubject")

	user, err := r.GetBySubject(ctx, tx, claims.Subject)
	if err != nil && !errors.Is(err, errors.NotFound) {
		return nil, err
	}

	if user == nil {
		user = &User{
			Subject:  claims.Subject,
			Username: claims.Username,
			Email:    claims.Email,
			Role:     claims.Role,
		}

		if err := tx.WithContext(ctx).Create(user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Another request created the user first.
				return r.GetBySubject(ctx, tx, claims.Subject)
			}
			return nil, log.Err("failed to create user", err, "subject", claims.Subject)
		}

		log.Info("Created user from token", "userID", user.ID, "role", user.Role)
		r.addUserToCache(ctx, user)
		return user, nil
	}

	if !user.UpdateFromClaims(claims.Username, claims.Email, claims.Role) {
		return user, nil
	}

	if err := tx.WithContext(ctx).
		Model(&User{BaseModel: BaseModel{ID: user.ID}}).
		Updates(map[string]any{
			"username": user.Username,
			"email":    user.Email,
			"role":     user.Role,
		}).Error; err != nil {
		return nil, log.Err("failed to update user from claims", err, "userID", user.ID)
	}

	r.clearUserCache(ctx, user.Subject)
	return user, nil
}

func (r *userRepository) userCache(ctx context.Context, subject string) *database.CacheBuilder {
	return database.NewCacheBuilder(r.cache, subject).
		WithContext(ctx).
		WithHash(constants.UserCachePrefix)
}

func (r *userRepository) addUserToCache(ctx context.Context, user *User) {
	err := r.userCache(ctx, user.Subject).
		WithStruct(cachedUser{User: *user, Subject: user.Subject}).
		WithTTL(constants.UserCacheExpiry).
		Set()
	if err != nil {
		r.log.Function("addUserToCache").
			Warn("failed to add user to cache", "userID", user.ID, "error", err)
	}
}

func (r *userRepository) clearUserCache(ctx context.Context, subject string) {
	if err := r.userCache(ctx, subject).Delete(); err != nil {
		r.log.Function("clearUserCache").
			Warn("failed to clear user cache", "subject", subject, "error", err)
	}
}
