package rider

import (
	"strings"

	"unicarpool/internal/services"
	"unicarpool/internal/utils"

	"github.com/gin-gonic/gin"
)

// RideHandler lets riders browse open rides.
type RideHandler struct {
	rideService services.RideService
}

func NewRideHandler(rideService services.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// ListOpenRides returns waiting rides with free seats, soonest first.
func (h *RideHandler) ListOpenRides(c *gin.Context) {
	riderID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	params := utils.GetPaginationParams(c)
	destination := strings.TrimSpace(c.Query("destination"))
	rides, total, err := h.rideService.ListOpenRides(c.Request.Context(), riderID, destination, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, "Open rides retrieved successfully", rides, params, total)
}

func (h *RideHandler) GetRide(c *gin.Context) {
	rideID, err := utils.ObjectIDParam(c, "id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	ride, err := h.rideService.GetRide(c.Request.Context(), rideID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride retrieved successfully", ride)
}
