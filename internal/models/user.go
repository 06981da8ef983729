package models

import (
	"fmt"
	"strings"
	"time"

	apperrors "unicarpool/pkg/errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string
type DevicePlatform string

const (
	RoleRider  Role = "RIDER"
	RoleDriver Role = "DRIVER"

	PlatformAndroid DevicePlatform = "android"
	PlatformIOS     DevicePlatform = "ios"
)

// AllRoles is the fixed enumeration order used when listing roles.
var AllRoles = []Role{RoleRider, RoleDriver}

func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleRider:
		return RoleRider, nil
	case RoleDriver:
		return RoleDriver, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) IsValid() bool {
	return r == RoleRider || r == RoleDriver
}

func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

type DeviceToken struct {
	Token        string         `json:"token" bson:"token"`
	Platform     DevicePlatform `json:"platform" bson:"platform"`
	RegisteredAt time.Time      `json:"registered_at" bson:"registered_at"`
}

type User struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	BannerID      string             `json:"banner_id" bson:"banner_id"`
	FullName      string             `json:"full_name" bson:"full_name"`
	SchoolEmail   string             `json:"school_email" bson:"school_email"`
	PhoneNumber   string             `json:"phone_number" bson:"phone_number"`
	PasswordHash  string             `json:"-" bson:"password_hash"`
	Roles         []Role             `json:"roles" bson:"roles"`
	ActiveRole    Role               `json:"active_role" bson:"active_role"`
	EmailVerified bool               `json:"email_verified" bson:"email_verified"`
	DeviceTokens  []DeviceToken      `json:"-" bson:"device_tokens,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
	LastLoginAt   *time.Time         `json:"last_login_at,omitempty" bson:"last_login_at,omitempty"`
}

func (u *User) HasRole(role Role) bool {
	for _, held := range u.Roles {
		if held == role {
			return true
		}
	}
	return false
}

// AddRole appends role when it is not held yet and reports whether anything changed.
// A user without an active role gets the first held role as active.
func (u *User) AddRole(role Role) bool {
	if u.HasRole(role) {
		return false
	}
	u.Roles = append(u.Roles, role)
	if u.ActiveRole == "" {
		u.ActiveRole = u.Roles[0]
	}
	return true
}

func (u *User) SetActiveRole(role Role) error {
	if !u.HasRole(role) {
		return apperrors.RoleNotHeld(string(role))
	}
	u.ActiveRole = role
	return nil
}

// MissingRoles lists the roles the user could still add, in AllRoles order.
func (u *User) MissingRoles() []Role {
	missing := make([]Role, 0, len(AllRoles))
	for _, role := range AllRoles {
		if !u.HasRole(role) {
			missing = append(missing, role)
		}
	}
	return missing
}

// IsActing reports whether the user currently acts in role.
func (u *User) IsActing(role Role) bool {
	return u.ActiveRole == role && u.HasRole(role)
}

func (u *User) TokensFor(platform DevicePlatform) []string {
	var tokens []string
	for _, device := range u.DeviceTokens {
		if device.Platform == platform {
			tokens = append(tokens, device.Token)
		}
	}
	return tokens
}
