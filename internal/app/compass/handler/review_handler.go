package handler

import (
	"context"
	"errors"
	"net/http"

	"aicompass/internal/app/compass/entity"
	"aicompass/internal/app/compass/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type SubmissionServiceInterface interface {
	SubmitReview(ctx context.Context, productID, userID string, req *entity.SubmitReviewRequest) (*entity.Review, bool, error)
}

type ReviewHandler struct {
	submissionService SubmissionServiceInterface
	validator         *validator.Validate
}

func NewReviewHandler(submissionService SubmissionServiceInterface) *ReviewHandler {
	return &ReviewHandler{
		submissionService: submissionService,
		validator:         validator.New(),
	}
}

// SubmitReview прогоняет отзыв через пайплайн и маппит исходы на статусы:
// 200 опубликован, 202 задержан модерацией, 400/403/429 отказы, 500 остальное
func (h *ReviewHandler) SubmitReview(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userIDStr, ok := userID.(string)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user ID"})
		return
	}

	toolID := c.Param("tool_id")
	if toolID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tool ID is required"})
		return
	}

	var req entity.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": formatValidationError(err)})
		return
	}

	review, published, err := h.submissionService.SubmitReview(c.Request.Context(), toolID, userIDStr, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSubmission):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNotVerified):
			c.JSON(http.StatusForbidden, gin.H{"error": "Edu verification required to submit reviews"})
		case errors.Is(err, service.ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many submissions, try again later"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit review"})
		}
		return
	}

	if !published {
		c.JSON(http.StatusAccepted, entity.HeldReviewResponse{
			Message:   "Review held for moderation",
			ReviewID:  review.ID,
			Published: false,
		})
		return
	}

	c.JSON(http.StatusOK, entity.SubmitReviewResponse{
		Review:    *review,
		Published: true,
	})
}

func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
