package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/zybooks/basket-backend/internal/models"
	"github.com/zybooks/basket-backend/internal/service"
	"github.com/zybooks/basket-backend/internal/types"
)

type GroceryHandler struct {
	basket *service.BasketService
}

func NewGroceryHandler(basket *service.BasketService) *GroceryHandler {
	return &GroceryHandler{basket: basket}
}

func (h *GroceryHandler) RegisterRoutes(router *gin.RouterGroup) {
	items := router.Group("/grocery-items")
	{
		items.GET("", h.ListItems)
		items.POST("", h.AddItem)
		items.PUT("/:id", h.UpdateItem)
		items.DELETE("/:id", h.DeleteItem)
		items.DELETE("", h.ClearItems)
	}
}

func (h *GroceryHandler) ListItems(c *gin.Context) {
	items, err := h.basket.ListGroceryItems(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch grocery items"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *GroceryHandler) AddItem(c *gin.Context) {
	var req types.GroceryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := &models.GroceryItem{
		Name:     req.Name,
		Quantity: req.Quantity,
		Category: req.Category,
	}
	if err := h.basket.AddGroceryItem(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add grocery item"})
		return
	}

	c.JSON(http.StatusCreated, item)
}

func (h *GroceryHandler) UpdateItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	var req types.GroceryItemUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Quantity != nil {
		updates["quantity"] = *req.Quantity
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.IsChecked != nil {
		updates["is_checked"] = *req.IsChecked
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	if err := h.basket.UpdateGroceryItem(c.Request.Context(), uint(id), updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "grocery item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update grocery item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "grocery item updated successfully", "id": id})
}

func (h *GroceryHandler) DeleteItem(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	if err := h.basket.DeleteGroceryItem(c.Request.Context(), uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete grocery item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "grocery item deleted successfully", "id": id})
}

// ClearItems empties the list, or only its checked entries when
// ?checked=true is set.
func (h *GroceryHandler) ClearItems(c *gin.Context) {
	var err error
	if c.Query("checked") == "true" {
		err = h.basket.ClearCheckedGroceryItems(c.Request.Context())
	} else {
		err = h.basket.ClearGroceryItems(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear grocery items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "grocery items cleared"})
}
