package driver

import (
	"context"

	"unicarpool/internal/models"
	"unicarpool/internal/services"
	"unicarpool/internal/utils"
	"unicarpool/internal/validators"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RideHandler serves the driver's own rides.
type RideHandler struct {
	rideService services.RideService
}

func NewRideHandler(rideService services.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

func (h *RideHandler) CreateRide(c *gin.Context) {
	driverID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var request validators.CreateRideRequest
	if err := utils.BindJSON(c, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), driverID, &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Ride created successfully", ride)
}

// ListRides accepts an optional ?status= filter in any spelling the status parser knows.
func (h *RideHandler) ListRides(c *gin.Context) {
	driverID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	params := utils.GetPaginationParams(c)
	rides, total, err := h.rideService.ListDriverRides(c.Request.Context(), driverID, c.Query("status"), params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, "Rides retrieved successfully", rides, params, total)
}

func (h *RideHandler) StartRide(c *gin.Context) {
	h.transition(c, h.rideService.StartRide, "Ride started")
}

func (h *RideHandler) CompleteRide(c *gin.Context) {
	h.transition(c, h.rideService.CompleteRide, "Ride completed")
}

func (h *RideHandler) CancelRide(c *gin.Context) {
	h.transition(c, h.rideService.CancelRide, "Ride cancelled")
}

type rideTransition func(ctx context.Context, driverID, rideID primitive.ObjectID) (*models.Ride, error)

func (h *RideHandler) transition(c *gin.Context, apply rideTransition, message string) {
	driverID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	rideID, err := utils.ObjectIDParam(c, "id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	ride, err := apply(c.Request.Context(), driverID, rideID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, message, ride)
}
