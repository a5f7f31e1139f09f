package handler

import (
	"context"
	"net/http"

	"aicompass/internal/app/compass/entity"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type SummaryServiceInterface interface {
	GetOrGenerate(ctx context.Context, req *entity.SummaryRequest) (*entity.SummaryResponse, error)
}

type SummaryHandler struct {
	summaryService SummaryServiceInterface
	validator      *validator.Validate
}

func NewSummaryHandler(summaryService SummaryServiceInterface) *SummaryHandler {
	return &SummaryHandler{
		summaryService: summaryService,
		validator:      validator.New(),
	}
}

// GenerateSummary отдает сохраненную сводку при совпадении счетчика отзывов,
// иначе генерирует новую
func (h *SummaryHandler) GenerateSummary(c *gin.Context) {
	var req entity.SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Product.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product ID is required"})
		return
	}

	if len(req.Reviews) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No reviews provided"})
		return
	}

	response, err := h.summaryService.GetOrGenerate(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate summary"})
		return
	}

	c.JSON(http.StatusOK, response)
}
