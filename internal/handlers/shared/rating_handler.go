package handlers

import (
	"unicarpool/internal/services"
	"unicarpool/internal/utils"

	"github.com/gin-gonic/gin"
)

type RatingHandler struct {
	reviewService services.ReviewService
}

func NewRatingHandler(reviewService services.ReviewService) *RatingHandler {
	return &RatingHandler{reviewService: reviewService}
}

func (h *RatingHandler) ReviewsForUser(c *gin.Context) {
	userID, err := utils.ObjectIDParam(c, "id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	params := utils.GetPaginationParams(c)
	reviews, total, err := h.reviewService.ReviewsForUser(c.Request.Context(), userID, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.ListResponse(c, "Reviews retrieved successfully", reviews, params, total)
}

func (h *RatingHandler) RatingStats(c *gin.Context) {
	userID, err := utils.ObjectIDParam(c, "id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	stats, err := h.reviewService.RatingStats(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Rating stats retrieved successfully", stats)
}

// ReviewStatus tells the caller whether they reviewed the ride and whether they still can.
func (h *RatingHandler) ReviewStatus(c *gin.Context) {
	reviewerID, err := utils.CurrentUserID(c)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	rideID, err := utils.ObjectIDParam(c, "id")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	status, err := h.reviewService.ReviewStatus(c.Request.Context(), rideID, reviewerID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Review status retrieved successfully", status)
}
