package handlers

import (
	"unicarpool/internal/services"
	"unicarpool/internal/utils"
	"unicarpool/internal/validators"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates an unverified account and emails a verification code.
func (h *AuthHandler) Register(c *gin.Context) {
	var request validators.RegisterRequest
	if err := utils.BindJSON(c, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Registration successful, check your school email for a verification code", user)
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var request validators.VerificationRequest
	if err := utils.BindJSON(c, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	user, err := h.authService.VerifyEmail(c.Request.Context(), &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Email verified successfully", user)
}

func (h *AuthHandler) ResendVerificationCode(c *gin.Context) {
	var request validators.BannerIDRequest
	if err := utils.BindJSON(c, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	if err := h.authService.ResendVerificationCode(c.Request.Context(), &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Verification code sent", nil)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var request validators.LoginRequest
	if err := utils.BindJSON(c, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	response, err := h.authService.Login(c.Request.Context(), &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Login successful", response)
}

// RequestPasswordRecovery always answers the same way so banner ids cannot be probed.
func (h *AuthHandler) RequestPasswordRecovery(c *gin.Context) {
	var request validators.BannerIDRequest
	if err := utils.BindJSON(c, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	if err := h.authService.RequestPasswordRecovery(c.Request.Context(), &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "If the account exists, a recovery code has been sent", nil)
}

func (h *AuthHandler) RecoverPassword(c *gin.Context) {
	var request validators.RecoverPasswordRequest
	if err := utils.BindJSON(c, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	if err := h.authService.RecoverPassword(c.Request.Context(), &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Password reset successfully", nil)
}
