package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zybooks/basket-backend/internal/middleware"
	"github.com/zybooks/basket-backend/internal/models"
	"github.com/zybooks/basket-backend/internal/service"
	"github.com/zybooks/basket-backend/internal/types"
)

// maxPhotoBytes caps meal photo uploads at 5 MiB.
const maxPhotoBytes = 5 << 20

type MealHandler struct {
	basket         *service.BasketService
	community      *service.CommunityService
	images         *service.ImageService
	authService    *service.AuthService
	publishLimiter *middleware.RateLimiter
	log            *zap.Logger
}

func NewMealHandler(
	basket *service.BasketService,
	community *service.CommunityService,
	images *service.ImageService,
	authService *service.AuthService,
	publishLimiter *middleware.RateLimiter,
	log *zap.Logger,
) *MealHandler {
	return &MealHandler{
		basket:         basket,
		community:      community,
		images:         images,
		authService:    authService,
		publishLimiter: publishLimiter,
		log:            log.Named("meal-handler"),
	}
}

func (h *MealHandler) RegisterRoutes(router *gin.RouterGroup) {
	meals := router.Group("/meals")
	{
		meals.GET("", h.ListMeals)
		meals.GET("/:id", h.GetMeal)
		meals.POST("", h.CreateMeal)
		meals.PUT("/:id", h.UpdateMeal)
		meals.DELETE("/:id", h.DeleteMeal)
		meals.GET("/:id/ingredients", h.GetIngredients)
		meals.POST("/:id/grocery-list", h.AddToGroceryList)
		meals.POST("/:id/image", h.UploadImage)

		publish := meals.Group("")
		publish.Use(middleware.AuthMiddleware(h.authService))
		if h.publishLimiter != nil {
			publish.Use(h.publishLimiter.RateLimitMiddleware())
		}
		publish.POST("/:id/publish", h.PublishMeal)
	}
}

func mealID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid meal id"})
		return 0, false
	}
	return uint(id), true
}

func (h *MealHandler) ListMeals(c *gin.Context) {
	meals, err := h.basket.ListMeals(c.Request.Context(), c.Query("creator_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch meals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

func (h *MealHandler) GetMeal(c *gin.Context) {
	id, ok := mealID(c)
	if !ok {
		return
	}

	meal, err := h.basket.GetMeal(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch meal"})
		return
	}
	if meal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "meal not found"})
		return
	}

	ingredients, err := h.basket.GetIngredients(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch ingredients"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"meal": meal, "ingredients": ingredients})
}

func (h *MealHandler) CreateMeal(c *gin.Context) {
	var req types.MealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meal := &models.Meal{
		Name:         req.Name,
		CookTime:     req.CookTime,
		Servings:     req.Servings,
		Instructions: req.Instructions,
	}
	if meal.Servings == 0 {
		meal.Servings = 4
	}

	meal, err := h.basket.CreateMeal(c.Request.Context(), meal, ingredientRows(req.Ingredients))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create meal"})
		return
	}

	c.JSON(http.StatusCreated, meal)
}

func (h *MealHandler) UpdateMeal(c *gin.Context) {
	id, ok := mealID(c)
	if !ok {
		return
	}

	var req types.MealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meal := &models.Meal{
		Name:         req.Name,
		CookTime:     req.CookTime,
		Servings:     req.Servings,
		Instructions: req.Instructions,
	}
	err := h.basket.UpdateMeal(c.Request.Context(), id, meal, ingredientRows(req.Ingredients))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "meal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update meal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "meal updated successfully", "id": id})
}

func (h *MealHandler) DeleteMeal(c *gin.Context) {
	id, ok := mealID(c)
	if !ok {
		return
	}

	if err := h.basket.DeleteMeal(c.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "meal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete meal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "meal deleted successfully", "id": id})
}

func (h *MealHandler) GetIngredients(c *gin.Context) {
	id, ok := mealID(c)
	if !ok {
		return
	}

	ingredients, err := h.basket.GetIngredients(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch ingredients"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": ingredients})
}

// AddToGroceryList copies the meal's ingredients onto the grocery list.
// If the meal was already added, the request is rejected with a duplicate
// flag unless ?confirm=true is set; insertion itself never deduplicates.
func (h *MealHandler) AddToGroceryList(c *gin.Context) {
	id, ok := mealID(c)
	if !ok {
		return
	}

	if c.Query("confirm") != "true" {
		duplicate, err := h.basket.IsMealInGroceryList(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check grocery list"})
			return
		}
		if duplicate {
			c.JSON(http.StatusConflict, gin.H{
				"duplicate": true,
				"message":   "meal already on the grocery list; repeat with confirm=true to add again",
			})
			return
		}
	}

	inserted, err := h.basket.AddMealToGroceryList(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add meal to grocery list"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}

// PublishMeal copies a local meal into the community feed. The local row is
// then marked public; the published document stays even if that mark fails.
func (h *MealHandler) PublishMeal(c *gin.Context) {
	id, ok := mealID(c)
	if !ok {
		return
	}
	userID := c.GetString("user_id")
	username := c.GetString("username")

	meal, err := h.basket.GetMeal(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch meal"})
		return
	}
	if meal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "meal not found"})
		return
	}

	ingredients, err := h.basket.GetIngredients(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch ingredients"})
		return
	}

	public := &models.PublicMeal{
		Name:            meal.Name,
		CookTime:        meal.CookTime,
		Servings:        meal.Servings,
		Instructions:    meal.Instructions,
		ImageURL:        meal.ImageURL,
		CreatorID:       userID,
		CreatorUsername: username,
		Ingredients:     make([]models.PublicIngredient, len(ingredients)),
	}
	for i, ing := range ingredients {
		public.Ingredients[i] = models.PublicIngredient{Name: ing.Name, Quantity: ing.Quantity}
	}

	publicID, err := h.community.PublishMeal(c.Request.Context(), public)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to publish meal"})
		return
	}

	if err := h.basket.MarkMealPublic(c.Request.Context(), id, userID, username); err != nil {
		h.log.Warn("published meal but failed to mark local row public",
			zap.Uint("meal_id", id), zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{"public_meal_id": publicID})
}

func (h *MealHandler) UploadImage(c *gin.Context) {
	id, ok := mealID(c)
	if !ok {
		return
	}
	if h.images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage not configured"})
		return
	}

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
		return
	}
	if len(data) > maxPhotoBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds 5MB limit"})
		return
	}

	url, err := h.images.UploadMealPhoto(c.Request.Context(), data, header.Header.Get("Content-Type"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload image"})
		return
	}

	if err := h.basket.SetMealImage(c.Request.Context(), id, url); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "meal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save image url"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"image_url": url})
}

func ingredientRows(inputs []types.IngredientInput) []models.Ingredient {
	rows := make([]models.Ingredient, len(inputs))
	for i, in := range inputs {
		category := in.Category
		if category == "" {
			category = "Other"
		}
		rows[i] = models.Ingredient{Name: in.Name, Quantity: in.Quantity, Category: category}
	}
	return rows
}
