package driver

import (
	"context"

	"unicarpool/internal/models"
	"unicarpool/internal/services"
	"unicarpool/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RideRequestHandler lets a driver review and decide requests on their rides.
type RideRequestHandler struct {
	requestService services.RideRequestService
}

func NewRideRequestHandler(requestService services.RideRequestService) *RideRequestHandler {
	return &RideRequestHandler{requestService: requestService}
}

// ListRequests supports ?status= and ?ride_id= filters.
func (h *RideRequestHandler) ListRequests(c *gin.Context) {
	driverID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	params := utils.GetPaginationParams(c)
	requests, total, err := h.requestService.ListDriverRequests(c.Request.Context(), driverID, c.Query("status"), c.Query("ride_id"), params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, "Ride requests retrieved successfully", requests, params, total)
}

func (h *RideRequestHandler) Accept(c *gin.Context) {
	h.decide(c, h.requestService.Accept, "Ride request accepted")
}

func (h *RideRequestHandler) Decline(c *gin.Context) {
	h.decide(c, h.requestService.Decline, "Ride request declined")
}

type requestDecision func(ctx context.Context, driverID, requestID primitive.ObjectID) (*models.RideRequest, error)

func (h *RideRequestHandler) decide(c *gin.Context, apply requestDecision, message string) {
	driverID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	requestID, err := utils.ObjectIDParam(c, "id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	request, err := apply(c.Request.Context(), driverID, requestID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, message, request)
}
