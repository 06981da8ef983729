package handlers

import (
	"unicarpool/internal/services"
	"unicarpool/internal/utils"
	"unicarpool/internal/validators"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService services.UserService
	authService services.AuthService
	rideService services.RideService
}

func NewUserHandler(userService services.UserService, authService services.AuthService, rideService services.RideService) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
		rideService: rideService,
	}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved successfully", user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var request validators.UpdateProfileRequest
	if err := utils.BindJSON(c, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile updated successfully", user)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var request validators.ChangePasswordRequest
	if err := utils.BindJSON(c, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), userID, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Password changed successfully", nil)
}

// AddRole grants a role. The active role stays as it was.
func (h *UserHandler) AddRole(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var request validators.RoleRequest
	if err := utils.BindJSON(c, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	user, err := h.userService.AddRole(c.Request.Context(), userID, &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Role added successfully", user)
}

func (h *UserHandler) SetActiveRole(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var request validators.RoleRequest
	if err := utils.BindJSON(c, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	user, err := h.userService.SetActiveRole(c.Request.Context(), userID, &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Active role switched successfully", user)
}

func (h *UserHandler) MissingRoles(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	roles, err := h.userService.MissingRoles(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Missing roles retrieved successfully", gin.H{"roles": roles})
}

func (h *UserHandler) RegisterDevice(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var request validators.DeviceRequest
	if err := utils.BindJSON(c, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	if err := h.userService.RegisterDevice(c.Request.Context(), userID, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Device registered successfully", nil)
}

// ActiveRide is polled by clients. Data is null when the caller is not on a started ride.
func (h *UserHandler) ActiveRide(c *gin.Context) {
	userID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	active, err := h.rideService.ActiveRide(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	c.Header("X-Poll-Interval", utils.ActiveRidePollInterval.String())
	if active == nil {
		utils.SuccessResponse(c, "No active ride", nil)
		return
	}
	utils.SuccessResponse(c, "Active ride retrieved successfully", active)
}
