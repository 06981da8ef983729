package middleware

import (
	"errors"
	"strings"

	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"
	"unicarpool/internal/utils"
	apperrors "unicarpool/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthRequired validates the bearer token and sets the caller's id in the context.
// Browsers cannot set headers on a websocket upgrade, so a "token" query
// parameter is accepted when the header is absent.
func AuthRequired(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c)
		if err != nil {
			utils.AbortWithError(c, apperrors.Unauthorized(err.Error(), nil))
			return
		}

		claims, err := utils.ValidateToken(tokenString, secret)
		if err != nil {
			utils.AbortWithError(c, apperrors.Unauthorized(utils.ErrInvalidToken, err))
			return
		}

		c.Set(utils.ContextUserID, claims.UserID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, nil
		}
		return "", errors.New("authorization header required")
	}

	tokenString := strings.TrimPrefix(authHeader, utils.TokenTypeBearer+" ")
	if tokenString == authHeader || strings.TrimSpace(tokenString) == "" {
		return "", errors.New("bearer token required")
	}
	return tokenString, nil
}

// RoleRequired admits the caller only while role is held and currently active.
// The user is loaded from the store so a role switch applies to the next request.
func RoleRequired(role models.Role, userRepo interfaces.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			utils.AbortWithError(c, apperrors.Unauthorized(utils.ErrUnauthorized, nil))
			return
		}

		user, err := userRepo.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				utils.AbortWithError(c, apperrors.Unauthorized("user no longer exists", err))
				return
			}
			utils.AbortWithError(c, apperrors.Transport("load user", err))
			return
		}

		if !user.HasRole(role) {
			utils.AbortWithError(c, apperrors.RoleNotHeld(string(role)))
			return
		}
		if !user.IsActing(role) {
			utils.AbortWithError(c, apperrors.RoleNotActive(string(role)))
			return
		}

		c.Set(utils.ContextUser, user)
		c.Next()
	}
}

// GetUserID returns the id set by AuthRequired.
func GetUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, err := utils.CurrentUserID(c)
	return userID, err == nil
}
