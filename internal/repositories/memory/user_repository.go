package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
}

func NewUserRepository() interfaces.UserRepository {
	return &userRepository{users: make(map[primitive.ObjectID]*models.User)}
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.Roles = append([]models.Role(nil), u.Roles...)
	c.DeviceTokens = append([]models.DeviceToken(nil), u.DeviceTokens...)
	c.LastLoginAt = cloneTime(u.LastLoginAt)
	return &c
}

func (r *userRepository) conflicts(user *models.User) bool {
	for _, existing := range r.users {
		if existing.ID == user.ID {
			continue
		}
		if strings.EqualFold(existing.BannerID, user.BannerID) || strings.EqualFold(existing.SchoolEmail, user.SchoolEmail) {
			return true
		}
	}
	return false
}

func (r *userRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if r.conflicts(user) {
		return interfaces.ErrDuplicate
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *userRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *userRepository) GetByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if user, ok := r.users[id]; ok {
			users = append(users, cloneUser(user))
		}
	}
	return users, nil
}

func (r *userRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if match(user) {
			return cloneUser(user), nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *userRepository) GetByBannerID(_ context.Context, bannerID string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.BannerID, bannerID) })
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.SchoolEmail, email) })
}

func (r *userRepository) mutate(id primitive.ObjectID, fn func(*models.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	updated := cloneUser(user)
	if err := fn(updated); err != nil {
		return err
	}
	updated.UpdatedAt = time.Now().UTC()
	r.users[id] = updated
	return nil
}

func (r *userRepository) UpdateProfile(_ context.Context, id primitive.ObjectID, update interfaces.UserProfileUpdate) (*models.User, error) {
	var result *models.User
	err := r.mutate(id, func(u *models.User) error {
		if update.FullName != nil {
			u.FullName = *update.FullName
		}
		if update.SchoolEmail != nil {
			u.SchoolEmail = *update.SchoolEmail
		}
		if update.PhoneNumber != nil {
			u.PhoneNumber = *update.PhoneNumber
		}
		if r.conflicts(u) {
			return interfaces.ErrDuplicate
		}
		result = cloneUser(u)
		return nil
	})
	return result, err
}

func (r *userRepository) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	return r.mutate(id, func(u *models.User) error {
		u.PasswordHash = passwordHash
		return nil
	})
}

func (r *userRepository) SetEmailVerified(_ context.Context, id primitive.ObjectID) error {
	return r.mutate(id, func(u *models.User) error {
		u.EmailVerified = true
		return nil
	})
}

func (r *userRepository) UpdateLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	return r.mutate(id, func(u *models.User) error {
		u.LastLoginAt = &at
		return nil
	})
}

func (r *userRepository) UpdateRoles(_ context.Context, id primitive.ObjectID, roles []models.Role, activeRole models.Role) error {
	return r.mutate(id, func(u *models.User) error {
		u.Roles = append([]models.Role(nil), roles...)
		u.ActiveRole = activeRole
		return nil
	})
}

func (r *userRepository) AddDeviceToken(_ context.Context, id primitive.ObjectID, token models.DeviceToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return interfaces.ErrNotFound
	}
	// A device token belongs to whoever registered it last.
	for uid, user := range r.users {
		kept := user.DeviceTokens[:0:0]
		for _, t := range user.DeviceTokens {
			if t.Token != token.Token {
				kept = append(kept, t)
			}
		}
		if uid == id {
			kept = append(kept, token)
		}
		updated := cloneUser(user)
		updated.DeviceTokens = kept
		r.users[uid] = updated
	}
	return nil
}

func (r *userRepository) RemoveDeviceToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for uid, user := range r.users {
		kept := user.DeviceTokens[:0:0]
		for _, t := range user.DeviceTokens {
			if t.Token != token {
				kept = append(kept, t)
			}
		}
		if len(kept) != len(user.DeviceTokens) {
			updated := cloneUser(user)
			updated.DeviceTokens = kept
			r.users[uid] = updated
		}
	}
	return nil
}
