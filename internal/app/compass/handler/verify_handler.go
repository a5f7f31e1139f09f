package handler

import (
	"context"
	"errors"
	"net/http"

	"aicompass/internal/app/compass/entity"
	"aicompass/internal/app/compass/service"

	"github.com/gin-gonic/gin"
)

type UserServiceInterface interface {
	GetProfile(ctx context.Context, userID string) (*entity.UserProfile, error)
	AutoVerify(ctx context.Context, userID, email string) (*entity.UserProfile, error)
}

type VerifyHandler struct {
	userService UserServiceInterface
}

func NewVerifyHandler(userService UserServiceInterface) *VerifyHandler {
	return &VerifyHandler{
		userService: userService,
	}
}

// GetVerification возвращает текущее состояние edu-верификации профиля
func (h *VerifyHandler) GetVerification(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNotVerified) {
			c.JSON(http.StatusOK, entity.VerifyResponse{EduVerified: false, Verified: false})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch profile"})
		return
	}

	c.JSON(http.StatusOK, entity.VerifyResponse{
		EduVerified: profile.EduVerified,
		Verified:    profile.Verified,
		Role:        profile.Role,
	})
}

// Verify пробует авто-верификацию по email из токена
func (h *VerifyHandler) Verify(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	email := c.GetString("email")

	profile, err := h.userService.AutoVerify(c.Request.Context(), userID, email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify profile"})
		return
	}

	c.JSON(http.StatusOK, entity.VerifyResponse{
		EduVerified: profile.EduVerified,
		Verified:    profile.Verified,
		Role:        profile.Role,
	})
}
