package utils

import "time"

// Application Constants
const (
	AppName    = "UniCarpool"
	AppVersion = "1.0.0"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Authentication
	TokenTypeBearer   = "Bearer"
	PasswordMinLength = 8
	OTPLength         = 6

	// Polling
	ActiveRidePollInterval = 30 * time.Second
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidCredentials = "invalid banner ID or password"
	ErrInvalidToken       = "invalid token"
	ErrInternalServer     = "internal server error"
	ErrUnauthorized       = "unauthorized"
	ErrForbidden          = "forbidden"
	ErrValidationFailed   = "validation failed"
	ErrInvalidID          = "invalid id"
	ErrInvalidBody        = "request body is not valid JSON"
)

// Cache Keys
const (
	CacheUserPrefix         = "user:"
	CacheRatingStatsPrefix  = "rating_stats:"
	CacheVerifyCodePrefix   = "otp:verify:"
	CacheRecoverCodePrefix  = "otp:recover:"
	CacheLoginAttemptPrefix = "login_attempts:"
	CacheCodeAttemptPrefix  = "code_attempts:"
)

// Context keys set by the auth middleware
const (
	ContextUserID    = "user_id"
	ContextUser      = "user"
	ContextRequestID = "request_id"
)
