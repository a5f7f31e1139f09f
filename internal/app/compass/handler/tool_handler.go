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

type CatalogServiceInterface interface {
	ListTools(ctx context.Context) ([]entity.ToolListItem, error)
	CreateTool(ctx context.Context, name string) (*entity.Product, error)
	GetTool(ctx context.Context, id string) (*entity.Product, error)
	GetToolReviews(ctx context.Context, toolID string, includeUnsafe bool) ([]entity.Review, error)
}

type ToolHandler struct {
	catalogService CatalogServiceInterface
	validator      *validator.Validate
}

func NewToolHandler(catalogService CatalogServiceInterface) *ToolHandler {
	return &ToolHandler{
		catalogService: catalogService,
		validator:      validator.New(),
	}
}

func (h *ToolHandler) ListTools(c *gin.Context) {
	tools, err := h.catalogService.ListTools(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tools"})
		return
	}

	c.JSON(http.StatusOK, tools)
}

func (h *ToolHandler) CreateTool(c *gin.Context) {
	var req entity.CreateToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tool name is required"})
		return
	}

	product, err := h.catalogService.CreateTool(c.Request.Context(), req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tool"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": product.ID, "name": product.Name})
}

func (h *ToolHandler) GetTool(c *gin.Context) {
	toolID := c.Param("tool_id")
	if toolID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tool ID is required"})
		return
	}

	product, err := h.catalogService.GetTool(c.Request.Context(), toolID)
	if err != nil {
		if errors.Is(err, service.ErrToolNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tool not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tool"})
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ToolHandler) GetToolReviews(c *gin.Context) {
	toolID := c.Param("tool_id")
	if toolID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tool ID is required"})
		return
	}

	includeUnsafe := c.Query("includeUnsafe") == "true"

	reviews, err := h.catalogService.GetToolReviews(c.Request.Context(), toolID, includeUnsafe)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
		return
	}

	if reviews == nil {
		reviews = []entity.Review{}
	}

	c.JSON(http.StatusOK, reviews)
}
