package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/zybooks/basket-backend/internal/middleware"
	"github.com/zybooks/basket-backend/internal/service"
)

// HealthCheck returns the health status of the API
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "Basket API is running",
	})
}

// RegisterRoutes registers all API routes. redisClient may be nil, in which
// case publish and rating endpoints run without rate limiting.
func RegisterRoutes(
	router *gin.Engine,
	basket *service.BasketService,
	community *service.CommunityService,
	auth *service.AuthService,
	images *service.ImageService,
	redisClient *redis.Client,
	log *zap.Logger,
) {
	router.GET("/health", HealthCheck)

	var publishLimiter, ratingLimiter *middleware.RateLimiter
	if redisClient != nil {
		publishLimiter = middleware.NewPublishRateLimiter(redisClient)
		ratingLimiter = middleware.NewRatingRateLimiter(redisClient)
	} else {
		log.Warn("redis unavailable, rate limiting disabled")
	}

	authHandler := NewAuthHandler(auth)
	profileHandler := NewProfileHandler(auth)
	mealHandler := NewMealHandler(basket, community, images, auth, publishLimiter, log)
	groceryHandler := NewGroceryHandler(basket)
	communityHandler := NewCommunityHandler(community, basket, auth, ratingLimiter, log)

	v1 := router.Group("/api/v1")
	authHandler.RegisterRoutes(v1)
	profileHandler.RegisterRoutes(v1)
	mealHandler.RegisterRoutes(v1)
	groceryHandler.RegisterRoutes(v1)
	communityHandler.RegisterRoutes(v1)
}
