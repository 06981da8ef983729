package services

import (
	"context"
	"errors"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"
	"unicarpool/internal/validators"
	apperrors "unicarpool/pkg/errors"
	"unicarpool/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserService interface {
	// Profile
	GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID primitive.ObjectID, request *validators.UpdateProfileRequest) (*models.User, error)

	// Roles
	AddRole(ctx context.Context, userID primitive.ObjectID, request *validators.RoleRequest) (*models.User, error)
	SetActiveRole(ctx context.Context, userID primitive.ObjectID, request *validators.RoleRequest) (*models.User, error)
	MissingRoles(ctx context.Context, userID primitive.ObjectID) ([]models.Role, error)

	// Devices
	RegisterDevice(ctx context.Context, userID primitive.ObjectID, request *validators.DeviceRequest) error
}

type userService struct {
	userRepo          interfaces.UserRepository
	schoolEmailDomain string
	logger            *logger.Logger
	now               Clock
}

func NewUserService(userRepo interfaces.UserRepository, schoolEmailDomain string, logger *logger.Logger) UserService {
	return &userService{
		userRepo:          userRepo,
		schoolEmailDomain: schoolEmailDomain,
		logger:            logger,
		now:               systemClock,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storeError("user", "profile", err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, request *validators.UpdateProfileRequest) (*models.User, error) {
	if err := validationError(validators.ValidateUpdateProfile(request, s.schoolEmailDomain)); err != nil {
		return nil, err
	}

	if request.SchoolEmail != nil {
		existing, err := s.userRepo.GetByEmail(ctx, *request.SchoolEmail)
		if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			return nil, storeError("user", "profile update", err)
		}
		if existing != nil && existing.ID != userID {
			return nil, apperrors.Conflict("this school email is used by another account")
		}
	}

	user, err := s.userRepo.UpdateProfile(ctx, userID, interfaces.UserProfileUpdate{
		FullName:    request.FullName,
		SchoolEmail: request.SchoolEmail,
		PhoneNumber: request.PhoneNumber,
	})
	if errors.Is(err, interfaces.ErrDuplicate) {
		return nil, apperrors.Conflict("this school email is used by another account")
	}
	if err != nil {
		return nil, storeError("user", "profile update", err)
	}

	s.logger.LogUserAction(userID, "update_profile", nil)
	return user, nil
}

// AddRole is idempotent. Adding a held role returns the user unchanged and an
// existing active role is never replaced.
func (s *userService) AddRole(ctx context.Context, userID primitive.ObjectID, request *validators.RoleRequest) (*models.User, error) {
	role, err := s.parseRole(request)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storeError("user", "role update", err)
	}
	if !user.AddRole(role) {
		return user, nil
	}

	if err := s.userRepo.UpdateRoles(ctx, user.ID, user.Roles, user.ActiveRole); err != nil {
		return nil, storeError("user", "role update", err)
	}

	s.logger.LogUserAction(userID, "add_role", map[string]interface{}{"role": role})
	return user, nil
}

func (s *userService) SetActiveRole(ctx context.Context, userID primitive.ObjectID, request *validators.RoleRequest) (*models.User, error) {
	role, err := s.parseRole(request)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storeError("user", "role update", err)
	}
	if err := user.SetActiveRole(role); err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateRoles(ctx, user.ID, user.Roles, user.ActiveRole); err != nil {
		return nil, storeError("user", "role update", err)
	}

	s.logger.LogUserAction(userID, "set_active_role", map[string]interface{}{"role": role})
	return user, nil
}

func (s *userService) MissingRoles(ctx context.Context, userID primitive.ObjectID) ([]models.Role, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, storeError("user", "roles", err)
	}
	return user.MissingRoles(), nil
}

func (s *userService) RegisterDevice(ctx context.Context, userID primitive.ObjectID, request *validators.DeviceRequest) error {
	if err := validationError(validators.ValidateStruct(request)); err != nil {
		return err
	}

	token := models.DeviceToken{
		Token:        request.Token,
		Platform:     models.DevicePlatform(request.Platform),
		RegisteredAt: s.now(),
	}
	if err := s.userRepo.AddDeviceToken(ctx, userID, token); err != nil {
		return storeError("user", "device registration", err)
	}

	s.logger.LogUserAction(userID, "register_device", map[string]interface{}{"platform": request.Platform})
	return nil
}

func (s *userService) parseRole(request *validators.RoleRequest) (models.Role, error) {
	if err := validationError(validators.ValidateStruct(request)); err != nil {
		return "", err
	}
	role, err := models.ParseRole(request.Role)
	if err != nil {
		return "", apperrors.ValidationField("role", err.Error())
	}
	return role, nil
}
