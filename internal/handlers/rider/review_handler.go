package rider

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

// SubmitReview rates the driver of a completed ride the rider was accepted on.
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	riderID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var request validators.ReviewRequest
	if err := utils.BindJSON(c, &request); err != nil {
		utils.HandleError(c, err)
		return
	}

	review, err := h.reviewService.SubmitReview(c.Request.Context(), riderID, &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Review submitted successfully", review)
}
