package rider

import (
	"unicarpool/internal/services"
	"unicarpool/internal/utils"
	"unicarpool/internal/validators"

	"github.com/gin-gonic/gin"
)

type RideRequestHandler struct {
	requestService services.RideRequestService
	bookingService services.BookingService
}

func NewRideRequestHandler(requestService services.RideRequestService, bookingService services.BookingService) *RideRequestHandler {
	return &RideRequestHandler{
		requestService: requestService,
		bookingService: bookingService,
	}
}

func (h *RideRequestHandler) Submit(c *gin.Context) {
	riderID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var request validators.SubmitRideRequestRequest
	if err := utils.BindJSON(c, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	rideRequest, err := h.requestService.Submit(c.Request.Context(), riderID, &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Ride request submitted successfully", rideRequest)
}

func (h *RideRequestHandler) ListRequests(c *gin.Context) {
	riderID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	requests, err := h.requestService.ListRiderRequests(c.Request.Context(), riderID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Ride requests retrieved successfully", requests, &utils.Meta{Count: len(requests)})
}

func (h *RideRequestHandler) Withdraw(c *gin.Context) {
	riderID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	requestID, err := utils.ObjectIDParam(c, "id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	rideRequest, err := h.requestService.Withdraw(c.Request.Context(), riderID, requestID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride request withdrawn", rideRequest)
}

// Bookings returns the rider's requests split into current and completed.
func (h *RideRequestHandler) Bookings(c *gin.Context) {
	riderID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	bookings, err := h.bookingService.GetBookings(c.Request.Context(), riderID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Bookings retrieved successfully", bookings)
}
