package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/zybooks/basket-backend/internal/middleware"
	"github.com/zybooks/basket-backend/internal/models"
	"github.com/zybooks/basket-backend/internal/service"
	"github.com/zybooks/basket-backend/internal/types"
)

type CommunityHandler struct {
	community     *service.CommunityService
	basket        *service.BasketService
	authService   *service.AuthService
	ratingLimiter *middleware.RateLimiter
	log           *zap.Logger
}

func NewCommunityHandler(
	community *service.CommunityService,
	basket *service.BasketService,
	authService *service.AuthService,
	ratingLimiter *middleware.RateLimiter,
	log *zap.Logger,
) *CommunityHandler {
	return &CommunityHandler{
		community:     community,
		basket:        basket,
		authService:   authService,
		ratingLimiter: ratingLimiter,
		log:           log.Named("community-handler"),
	}
}

func (h *CommunityHandler) RegisterRoutes(router *gin.RouterGroup) {
	community := router.Group("/community")
	{
		community.GET("/meals", h.ListFeed)
		community.GET("/meals/:id", h.GetMeal)
		community.GET("/meals/:id/ratings", h.ListRatings)
		community.GET("/users/:id/meals", h.MealsByCreator)

		authed := community.Group("")
		authed.Use(middleware.AuthMiddleware(h.authService))
		{
			authed.POST("/meals/:id/save", h.SaveToLocal)
			authed.POST("/meals/:id/like", h.Like)
			authed.DELETE("/meals/:id/like", h.Unlike)
			authed.GET("/meals/:id/like", h.LikeStatus)
			authed.POST("/users/:id/follow", h.Follow)
			authed.DELETE("/users/:id/follow", h.Unfollow)
			authed.GET("/users/:id/follow", h.FollowStatus)

			rate := authed.Group("")
			if h.ratingLimiter != nil {
				rate.Use(h.ratingLimiter.RateLimitMiddleware())
			}
			rate.POST("/meals/:id/rating", h.Rate)
		}
	}
}

// ListFeed serves the community feeds. The following feed requires a
// token; the rest are public.
func (h *CommunityHandler) ListFeed(c *gin.Context) {
	feed := service.Feed(c.DefaultQuery("feed", string(service.FeedRecent)))

	var userID string
	if feed == service.FeedFollowing {
		claims, err := h.claimsFromHeader(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "following feed requires authentication"})
			return
		}
		userID = claims.UserID
	}

	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	meals, err := h.community.ListFeed(c.Request.Context(), feed, userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch feed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

func (h *CommunityHandler) claimsFromHeader(c *gin.Context) (*types.TokenClaims, error) {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) {
		return nil, service.ErrInvalidToken
	}
	return h.authService.ValidateToken(header[len(prefix):])
}

func (h *CommunityHandler) GetMeal(c *gin.Context) {
	meal, err := h.community.GetPublicMeal(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch meal"})
		return
	}
	if meal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "meal not found"})
		return
	}
	c.JSON(http.StatusOK, meal)
}

func (h *CommunityHandler) MealsByCreator(c *gin.Context) {
	meals, err := h.community.MealsByCreator(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch meals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"meals": meals})
}

// SaveToLocal copies a public meal into the local store as a private meal.
// Ingredient categories reset to "Other"; the source document's saveCount
// is then bumped by an independent write.
func (h *CommunityHandler) SaveToLocal(c *gin.Context) {
	mealID := c.Param("id")
	userID := c.GetString("user_id")

	public, err := h.community.GetPublicMeal(c.Request.Context(), mealID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch meal"})
		return
	}
	if public == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "meal not found"})
		return
	}

	meal := &models.Meal{
		Name:         public.Name,
		CookTime:     public.CookTime,
		Servings:     public.Servings,
		Instructions: public.Instructions,
		ImageURL:     public.ImageURL,
		IsPublic:     false,
	}
	ingredients := make([]models.Ingredient, len(public.Ingredients))
	for i, ing := range public.Ingredients {
		ingredients[i] = models.Ingredient{Name: ing.Name, Quantity: ing.Quantity, Category: "Other"}
	}

	meal, err = h.basket.CreateMeal(c.Request.Context(), meal, ingredients)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save meal"})
		return
	}

	if err := h.community.RecordSave(c.Request.Context(), mealID, userID); err != nil {
		h.log.Warn("saved meal locally but failed to record save",
			zap.String("public_meal_id", mealID), zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{"meal_id": meal.ID})
}

func (h *CommunityHandler) Like(c *gin.Context) {
	if err := h.community.LikeMeal(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "meal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to like meal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "meal liked"})
}

func (h *CommunityHandler) Unlike(c *gin.Context) {
	if err := h.community.UnlikeMeal(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unlike meal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "meal unliked"})
}

func (h *CommunityHandler) LikeStatus(c *gin.Context) {
	liked, err := h.community.HasLiked(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check like"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

func (h *CommunityHandler) Rate(c *gin.Context) {
	var req types.RatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rating := &models.RecipeRating{
		UserID:   c.GetString("user_id"),
		Username: c.GetString("username"),
		MealID:   c.Param("id"),
		Rating:   req.Rating,
		Review:   req.Review,
	}
	if err := h.community.RateMeal(c.Request.Context(), rating); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "meal not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to rate meal"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "rating submitted"})
}

func (h *CommunityHandler) ListRatings(c *gin.Context) {
	ratings, err := h.community.ListRatings(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch ratings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ratings": ratings})
}

func (h *CommunityHandler) Follow(c *gin.Context) {
	followerID := c.GetString("user_id")
	followedID := c.Param("id")
	if followerID == followedID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot follow yourself"})
		return
	}

	if err := h.community.FollowUser(c.Request.Context(), followerID, followedID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to follow user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user followed"})
}

func (h *CommunityHandler) Unfollow(c *gin.Context) {
	if err := h.community.UnfollowUser(c.Request.Context(), c.GetString("user_id"), c.Param("id")); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unfollow user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user unfollowed"})
}

func (h *CommunityHandler) FollowStatus(c *gin.Context) {
	following, err := h.community.IsFollowing(c.Request.Context(), c.GetString("user_id"), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check follow"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": following})
}
