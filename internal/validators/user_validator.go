package validators

import (
	"strings"
	"unicode"
)

type RegisterRequest struct {
	BannerID     string `json:"banner_id" validate:"required,banner_id"`
	FullName     string `json:"full_name" validate:"notblank,min=2,max=100"`
	SchoolEmail  string `json:"school_email" validate:"required,email"`
	PhoneNumber  string `json:"phone_number" validate:"required,phone_number"`
	Password     string `json:"password" validate:"required,min=8,max=128"`
	SelectedRole string `json:"selected_role" validate:"required,role"`
}

type VerificationRequest struct {
	BannerID         string `json:"banner_id" validate:"required,banner_id"`
	VerificationCode string `json:"verification_code" validate:"required,verification_code"`
}

type BannerIDRequest struct {
	BannerID string `json:"banner_id" validate:"required,banner_id"`
}

type LoginRequest struct {
	BannerID string `json:"banner_id" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RecoverPasswordRequest struct {
	BannerID    string `json:"banner_id" validate:"required,banner_id"`
	Code        string `json:"code" validate:"required,verification_code"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=128"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128,nefield=CurrentPassword"`
}

type UpdateProfileRequest struct {
	FullName    *string `json:"full_name" validate:"omitempty,notblank,min=2,max=100"`
	SchoolEmail *string `json:"school_email" validate:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" validate:"omitempty,phone_number"`
}

type RoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

type DeviceRequest struct {
	Token    string `json:"token" validate:"required,max=4096"`
	Platform string `json:"platform" validate:"required,oneof=android ios"`
}

// Normalize trims identifiers and lower-cases the email in place.
func (r *RegisterRequest) Normalize() {
	r.BannerID = NormalizeBannerID(r.BannerID)
	r.FullName = strings.TrimSpace(r.FullName)
	r.SchoolEmail = strings.ToLower(strings.TrimSpace(r.SchoolEmail))
	r.PhoneNumber = strings.TrimSpace(r.PhoneNumber)
	r.SelectedRole = strings.ToUpper(strings.TrimSpace(r.SelectedRole))
}

func ValidateRegister(req *RegisterRequest, emailDomain string) ValidationErrors {
	req.Normalize()
	errors := ValidateStruct(req)

	if emailDomain != "" && req.SchoolEmail != "" && !strings.HasSuffix(req.SchoolEmail, "@"+strings.ToLower(emailDomain)) {
		errors = append(errors, ValidationError{
			Field:   "school_email",
			Tag:     "school_domain",
			Value:   req.SchoolEmail,
			Message: "Please use your @" + emailDomain + " email",
		})
	}

	if req.Password != "" && !hasLetterAndDigit(req.Password) {
		errors = append(errors, ValidationError{
			Field:   "password",
			Tag:     "password_strength",
			Message: "Password must contain a letter and a number",
		})
	}

	return errors
}

func ValidateUpdateProfile(req *UpdateProfileRequest, emailDomain string) ValidationErrors {
	if req.FullName != nil {
		trimmed := strings.TrimSpace(*req.FullName)
		req.FullName = &trimmed
	}
	if req.SchoolEmail != nil {
		email := strings.ToLower(strings.TrimSpace(*req.SchoolEmail))
		req.SchoolEmail = &email
	}
	errors := ValidateStruct(req)

	if req.FullName != nil && *req.FullName == "" {
		errors = append(errors, ValidationError{
			Field:   "full_name",
			Tag:     "notblank",
			Message: "full_name is required",
		})
	}

	if req.SchoolEmail != nil && emailDomain != "" && !strings.HasSuffix(*req.SchoolEmail, "@"+strings.ToLower(emailDomain)) {
		errors = append(errors, ValidationError{
			Field:   "school_email",
			Tag:     "school_domain",
			Value:   *req.SchoolEmail,
			Message: "Please use your @" + emailDomain + " email",
		})
	}

	return errors
}

func NormalizeBannerID(bannerID string) string {
	return strings.ToUpper(strings.TrimSpace(bannerID))
}

func hasLetterAndDigit(password string) bool {
	var hasLetter, hasDigit bool
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}
