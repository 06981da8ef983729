package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"
	"unicarpool/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) interfaces.UserRepository {
	return &userRepository{
		collection: db.Collection(database.UsersCollection),
	}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if user.DeviceTokens == nil {
		user.DeviceTokens = []models.DeviceToken{}
	}

	_, err := r.collection.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return interfaces.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, r.collection, bson.M{"_id": id}, "user")
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find users: %w", err)
	}
	return decodeAll[models.User](ctx, cursor, "users")
}

func (r *userRepository) GetByBannerID(ctx context.Context, bannerID string) (*models.User, error) {
	return findOne[models.User](ctx, r.collection, bson.M{"banner_id": strings.ToUpper(bannerID)}, "user by banner id")
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, r.collection, bson.M{"school_email": strings.ToLower(email)}, "user by email")
}

func (r *userRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, update interfaces.UserProfileUpdate) (*models.User, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if update.FullName != nil {
		set["full_name"] = *update.FullName
	}
	if update.SchoolEmail != nil {
		set["school_email"] = *update.SchoolEmail
	}
	if update.PhoneNumber != nil {
		set["phone_number"] = *update.PhoneNumber
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var user models.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	switch {
	case mongo.IsDuplicateKeyError(err):
		return nil, interfaces.ErrDuplicate
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, interfaces.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to update user profile: %w", err)
	}
	return &user, nil
}

func (r *userRepository) set(ctx context.Context, id primitive.ObjectID, fields bson.M, what string) error {
	fields["updated_at"] = time.Now().UTC()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", what, err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	return r.set(ctx, id, bson.M{"password_hash": passwordHash}, "password")
}

func (r *userRepository) SetEmailVerified(ctx context.Context, id primitive.ObjectID) error {
	return r.set(ctx, id, bson.M{"email_verified": true}, "email verification")
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return r.set(ctx, id, bson.M{"last_login_at": at}, "last login")
}

func (r *userRepository) UpdateRoles(ctx context.Context, id primitive.ObjectID, roles []models.Role, activeRole models.Role) error {
	return r.set(ctx, id, bson.M{"roles": roles, "active_role": activeRole}, "roles")
}

func (r *userRepository) AddDeviceToken(ctx context.Context, id primitive.ObjectID, token models.DeviceToken) error {
	// A device token belongs to whoever registered it last.
	if err := r.RemoveDeviceToken(ctx, token.Token); err != nil {
		return err
	}

	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"device_tokens": token},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to add device token: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *userRepository) RemoveDeviceToken(ctx context.Context, token string) error {
	_, err := r.collection.UpdateMany(ctx,
		bson.M{"device_tokens.token": token},
		bson.M{"$pull": bson.M{"device_tokens": bson.M{"token": token}}},
	)
	if err != nil {
		return fmt.Errorf("failed to remove device token: %w", err)
	}
	return nil
}
