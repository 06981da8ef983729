package interfaces

import (
	"context"
	"time"

	"unicarpool/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserProfileUpdate carries the profile fields a user may edit. Nil fields
// are left unchanged.
type UserProfileUpdate struct {
	FullName    *string
	SchoolEmail *string
	PhoneNumber *string
}

type UserRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update UserProfileUpdate) (*models.User, error)

	// Authentication operations
	GetByBannerID(ctx context.Context, bannerID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
	SetEmailVerified(ctx context.Context, id primitive.ObjectID) error
	UpdateLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error

	// Roles
	UpdateRoles(ctx context.Context, id primitive.ObjectID, roles []models.Role, activeRole models.Role) error

	// Devices
	AddDeviceToken(ctx context.Context, id primitive.ObjectID, token models.DeviceToken) error
	RemoveDeviceToken(ctx context.Context, token string) error
}
