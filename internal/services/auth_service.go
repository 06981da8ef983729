package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"
	"unicarpool/internal/utils"
	"unicarpool/internal/validators"
	"unicarpool/pkg/cache"
	apperrors "unicarpool/pkg/errors"
	"unicarpool/pkg/logger"
	"unicarpool/pkg/mailer"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type AuthService interface {
	// Registration and email verification
	Register(ctx context.Context, request *validators.RegisterRequest) (*models.User, error)
	VerifyEmail(ctx context.Context, request *validators.VerificationRequest) (*models.User, error)
	ResendVerificationCode(ctx context.Context, request *validators.BannerIDRequest) error

	// Authentication
	Login(ctx context.Context, request *validators.LoginRequest) (*LoginResponse, error)

	// Password management
	RequestPasswordRecovery(ctx context.Context, request *validators.BannerIDRequest) error
	RecoverPassword(ctx context.Context, request *validators.RecoverPasswordRequest) error
	ChangePassword(ctx context.Context, userID primitive.ObjectID, request *validators.ChangePasswordRequest) error
}

type AuthConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	OTPExpiry         time.Duration
	MaxLoginAttempts  int
	LoginLockoutTime  time.Duration
	SchoolEmailDomain string
}

type LoginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int64        `json:"expires_in"`
	User      *models.User `json:"user"`
}

type authService struct {
	userRepo interfaces.UserRepository
	cache    cache.Cache
	mailer   mailer.Mailer
	config   AuthConfig
	logger   *logger.Logger
	now      Clock
}

func NewAuthService(
	userRepo interfaces.UserRepository,
	cache cache.Cache,
	mailer mailer.Mailer,
	config AuthConfig,
	logger *logger.Logger,
) AuthService {
	return &authService{
		userRepo: userRepo,
		cache:    cache,
		mailer:   mailer,
		config:   config,
		logger:   logger,
		now:      systemClock,
	}
}

func (s *authService) Register(ctx context.Context, request *validators.RegisterRequest) (*models.User, error) {
	if err := validationError(validators.ValidateRegister(request, s.config.SchoolEmailDomain)); err != nil {
		return nil, err
	}
	role, err := models.ParseRole(request.SelectedRole)
	if err != nil {
		return nil, apperrors.ValidationField("selected_role", err.Error())
	}

	if existing, err := s.userRepo.GetByBannerID(ctx, request.BannerID); err == nil && existing != nil {
		return nil, apperrors.Conflict("an account with this banner ID already exists")
	} else if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, storeError("user", "registration", err)
	}
	if existing, err := s.userRepo.GetByEmail(ctx, request.SchoolEmail); err == nil && existing != nil {
		return nil, apperrors.Conflict("an account with this school email already exists")
	} else if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, storeError("user", "registration", err)
	}

	hashedPassword, err := hashPassword(request.Password)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	now := s.now()
	user := &models.User{
		BannerID:     request.BannerID,
		FullName:     request.FullName,
		SchoolEmail:  request.SchoolEmail,
		PhoneNumber:  request.PhoneNumber,
		PasswordHash: hashedPassword,
		Roles:        []models.Role{role},
		ActiveRole:   role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, apperrors.Conflict("an account with this banner ID or school email already exists")
		}
		s.logger.WithError(err).Error("Failed to create user")
		return nil, storeError("user", "registration", err)
	}

	if err := s.issueCode(ctx, utils.CacheVerifyCodePrefix, user, "Verify your UniCarpool account",
		"Your UniCarpool verification code is %s. It expires in %s."); err != nil {
		// The account exists; the client can ask for a new code.
		s.logger.WithUserID(user.ID).WithError(err).Warn("Failed to send verification code")
	}

	s.logger.LogUserAction(user.ID, "register", map[string]interface{}{"role": role})
	return user, nil
}

func (s *authService) VerifyEmail(ctx context.Context, request *validators.VerificationRequest) (*models.User, error) {
	request.BannerID = validators.NormalizeBannerID(request.BannerID)
	if err := validationError(validators.ValidateStruct(request)); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByBannerID(ctx, request.BannerID)
	if err != nil {
		return nil, storeError("user", "email verification", err)
	}
	if user.EmailVerified {
		return user, nil
	}

	if err := s.checkCode(ctx, utils.CacheVerifyCodePrefix, user, request.VerificationCode, "verification_code"); err != nil {
		s.logger.LogAuthEvent("verify_email", &user.ID, false, nil)
		return nil, err
	}

	if err := s.userRepo.SetEmailVerified(ctx, user.ID); err != nil {
		return nil, storeError("user", "email verification", err)
	}
	_ = s.cache.Delete(ctx, utils.CacheVerifyCodePrefix+user.ID.Hex())

	user.EmailVerified = true
	s.logger.LogAuthEvent("verify_email", &user.ID, true, nil)
	return user, nil
}

func (s *authService) ResendVerificationCode(ctx context.Context, request *validators.BannerIDRequest) error {
	request.BannerID = validators.NormalizeBannerID(request.BannerID)
	if err := validationError(validators.ValidateStruct(request)); err != nil {
		return err
	}

	user, err := s.userRepo.GetByBannerID(ctx, request.BannerID)
	if err != nil {
		return storeError("user", "verification", err)
	}
	if user.EmailVerified {
		return apperrors.Conflict("email is already verified")
	}

	if err := s.issueCode(ctx, utils.CacheVerifyCodePrefix, user, "Verify your UniCarpool account",
		"Your UniCarpool verification code is %s. It expires in %s."); err != nil {
		return apperrors.Transport("verification email", err)
	}
	return nil
}

func (s *authService) Login(ctx context.Context, request *validators.LoginRequest) (*LoginResponse, error) {
	request.BannerID = validators.NormalizeBannerID(request.BannerID)
	if err := validationError(validators.ValidateStruct(request)); err != nil {
		return nil, err
	}

	attemptsKey := utils.CacheLoginAttemptPrefix + request.BannerID
	if s.lockedOut(ctx, attemptsKey) {
		s.logger.LogSecurityEvent("login_locked", "medium", map[string]interface{}{"banner_id": request.BannerID})
		return nil, apperrors.TooManyRequests("too many failed sign-in attempts, try again later")
	}

	user, err := s.userRepo.GetByBannerID(ctx, request.BannerID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, storeError("user", "sign-in", err)
	}
	if user == nil || !checkPassword(request.Password, user.PasswordHash) {
		var userID *primitive.ObjectID
		if user != nil {
			userID = &user.ID
		}
		s.logger.LogAuthEvent("login", userID, false, map[string]interface{}{"banner_id": request.BannerID})
		if s.recordFailedAttempt(ctx, attemptsKey, s.config.LoginLockoutTime) {
			return nil, apperrors.TooManyRequests("too many failed sign-in attempts, try again later")
		}
		return nil, apperrors.Unauthorized(utils.ErrInvalidCredentials, nil)
	}

	if !user.EmailVerified {
		return nil, apperrors.EmailNotVerified()
	}

	_ = s.cache.Delete(ctx, attemptsKey)

	now := s.now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.WithUserID(user.ID).WithError(err).Warn("Failed to update last login")
	} else {
		user.LastLoginAt = &now
	}

	token, err := utils.GenerateAccessToken(user.ID, user.BannerID, s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return nil, apperrors.Internal("failed to generate access token", err)
	}

	s.logger.LogAuthEvent("login", &user.ID, true, nil)
	return &LoginResponse{
		Token:     token.Token,
		TokenType: token.TokenType,
		ExpiresIn: token.ExpiresIn,
		User:      user,
	}, nil
}

func (s *authService) RequestPasswordRecovery(ctx context.Context, request *validators.BannerIDRequest) error {
	request.BannerID = validators.NormalizeBannerID(request.BannerID)
	if err := validationError(validators.ValidateStruct(request)); err != nil {
		return err
	}

	user, err := s.userRepo.GetByBannerID(ctx, request.BannerID)
	if errors.Is(err, interfaces.ErrNotFound) {
		// Do not reveal which banner IDs are registered.
		s.logger.WithField("banner_id", request.BannerID).Info("Password recovery requested for unknown banner ID")
		return nil
	}
	if err != nil {
		return storeError("user", "password recovery", err)
	}

	if err := s.issueCode(ctx, utils.CacheRecoverCodePrefix, user, "Reset your UniCarpool password",
		"Your UniCarpool password reset code is %s. It expires in %s."); err != nil {
		return apperrors.Transport("password recovery email", err)
	}
	s.logger.LogAuthEvent("password_recovery_requested", &user.ID, true, nil)
	return nil
}

func (s *authService) RecoverPassword(ctx context.Context, request *validators.RecoverPasswordRequest) error {
	request.BannerID = validators.NormalizeBannerID(request.BannerID)
	if err := validationError(validators.ValidateStruct(request)); err != nil {
		return err
	}

	user, err := s.userRepo.GetByBannerID(ctx, request.BannerID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return apperrors.ValidationField("code", "code is invalid or has expired")
	}
	if err != nil {
		return storeError("user", "password recovery", err)
	}

	if err := s.checkCode(ctx, utils.CacheRecoverCodePrefix, user, request.Code, "code"); err != nil {
		s.logger.LogAuthEvent("password_recovered", &user.ID, false, nil)
		return err
	}

	hashedPassword, err := hashPassword(request.NewPassword)
	if err != nil {
		return apperrors.Internal("failed to hash password", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return storeError("user", "password recovery", err)
	}

	_ = s.cache.Delete(ctx,
		utils.CacheRecoverCodePrefix+user.ID.Hex(),
		utils.CacheLoginAttemptPrefix+user.BannerID,
	)
	s.logger.LogAuthEvent("password_recovered", &user.ID, true, nil)
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, userID primitive.ObjectID, request *validators.ChangePasswordRequest) error {
	if err := validationError(validators.ValidateStruct(request)); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return storeError("user", "password change", err)
	}
	if !checkPassword(request.CurrentPassword, user.PasswordHash) {
		s.logger.LogAuthEvent("password_changed", &user.ID, false, nil)
		return apperrors.ValidationField("current_password", "current password is incorrect")
	}

	hashedPassword, err := hashPassword(request.NewPassword)
	if err != nil {
		return apperrors.Internal("failed to hash password", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return storeError("user", "password change", err)
	}

	s.logger.LogAuthEvent("password_changed", &user.ID, true, nil)
	return nil
}

// issueCode stores a fresh one-time code for user under prefix and mails it.
func (s *authService) issueCode(ctx context.Context, prefix string, user *models.User, subject, bodyFormat string) error {
	code := utils.GenerateOTP()
	if err := s.cache.Set(ctx, prefix+user.ID.Hex(), code, s.config.OTPExpiry); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	if err := s.cache.Delete(ctx, utils.CacheCodeAttemptPrefix+prefix+user.ID.Hex()); err != nil {
		s.logger.WithUserID(user.ID).WithError(err).Warn("Failed to reset code attempts")
	}

	if err := s.mailer.Send(ctx, &mailer.Message{
		To:      user.SchoolEmail,
		Subject: subject,
		Body:    fmt.Sprintf(bodyFormat, code, s.config.OTPExpiry.Round(time.Minute)),
	}); err != nil {
		return err
	}
	s.logger.WithUserID(user.ID).WithField("to", utils.MaskEmail(user.SchoolEmail)).Info("One-time code sent")
	return nil
}

func (s *authService) checkCode(ctx context.Context, prefix string, user *models.User, code, field string) error {
	var stored string
	err := s.cache.Get(ctx, prefix+user.ID.Hex(), &stored)
	if errors.Is(err, cache.ErrCacheMiss) {
		return apperrors.ValidationField(field, "code is invalid or has expired")
	}
	if err != nil {
		return apperrors.Transport("verification", err)
	}
	attemptKey := utils.CacheCodeAttemptPrefix + prefix + user.ID.Hex()
	if subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		if s.recordFailedAttempt(ctx, attemptKey, s.config.OTPExpiry) {
			if err := s.cache.Delete(ctx, prefix+user.ID.Hex(), attemptKey); err != nil {
				s.logger.WithUserID(user.ID).WithError(err).Warn("Failed to discard guessed code")
			}
			s.logger.LogSecurityEvent("one_time_code_locked", "warning", map[string]interface{}{
				"user_id": user.ID.Hex(),
				"field":   field,
			})
			return apperrors.TooManyRequests("too many wrong codes, request a new one")
		}
		return apperrors.ValidationField(field, "code is invalid or has expired")
	}
	if err := s.cache.Delete(ctx, attemptKey); err != nil {
		s.logger.WithUserID(user.ID).WithError(err).Warn("Failed to reset code attempts")
	}
	return nil
}

func (s *authService) lockedOut(ctx context.Context, key string) bool {
	if s.config.MaxLoginAttempts <= 0 {
		return false
	}
	var attempts int64
	if err := s.cache.Get(ctx, key, &attempts); err != nil {
		return false
	}
	return attempts >= int64(s.config.MaxLoginAttempts)
}

// recordFailedAttempt counts a failed sign-in or code guess under key and
// reports whether the limit is now reached.
func (s *authService) recordFailedAttempt(ctx context.Context, key string, window time.Duration) bool {
	if s.config.MaxLoginAttempts <= 0 {
		return false
	}
	attempts, err := s.cache.IncrementWithExpire(ctx, key, window)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to record failed attempt")
		return false
	}
	return attempts >= int64(s.config.MaxLoginAttempts)
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
