package driver

import (
	"unicarpool/internal/services"
	"unicarpool/internal/utils"
	"unicarpool/internal/validators"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	reviewService services.ReviewService
}

func NewReviewHandler(reviewService services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) ReviewPassenger(c *gin.Context) {
	driverID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var request validators.PassengerReviewRequest
	if err := utils.BindJSON(c, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	review, err := h.reviewService.SubmitPassengerReview(c.Request.Context(), driverID, &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Passenger review submitted successfully", review)
}
