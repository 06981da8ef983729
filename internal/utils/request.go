package utils

import (
	apperrors "unicarpool/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BindJSON decodes the request body into dst. Field rules are checked later
// by the validators so every failure can be reported at once.
func BindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperrors.BadRequest(ErrInvalidBody, err)
	}
	return nil
}

// ObjectIDParam parses the named path parameter as an ObjectID.
func ObjectIDParam(c *gin.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, apperrors.ValidationField(name, ErrInvalidID)
	}
	return id, nil
}

// CurrentUserID returns the caller's id set by the auth middleware.
func CurrentUserID(c *gin.Context) (primitive.ObjectID, error) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return primitive.NilObjectID, apperrors.Unauthorized(ErrUnauthorized, nil)
	}
	userID, ok := value.(primitive.ObjectID)
	if !ok || userID.IsZero() {
		return primitive.NilObjectID, apperrors.Unauthorized(ErrUnauthorized, nil)
	}
	return userID, nil
}

// ListResponse renders a page of items with pagination meta.
func ListResponse(c *gin.Context, message string, items interface{}, params *PaginationParams, total int64) {
	SuccessResponseWithMeta(c, message, items, &Meta{
		Pagination: CreatePaginationMeta(params, total),
		Total:      total,
	})
}
