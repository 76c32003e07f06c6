package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/zybooks/basket-backend/internal/database"
	"github.com/zybooks/basket-backend/internal/models"
	"github.com/zybooks/basket-backend/internal/testhelpers"
)

func newTestCommunity(t *testing.T) *CommunityService {
	t.Helper()
	return NewCommunityService(testhelpers.SetupTestMongo(t), zap.NewNop())
}

// seedUser inserts a bare user document so counter updates have a target.
// Emails must be distinct; the users collection enforces uniqueness.
func seedUser(t *testing.T, svc *CommunityService, id string) {
	t.Helper()
	_, err := svc.db.Collection(database.UsersCollection).InsertOne(context.Background(), &models.UserDoc{
		ID:       id,
		Username: id,
		Email:    id + "@example.com",
	})
	require.NoError(t, err)
}

func getUser(t *testing.T, svc *CommunityService, id string) *models.UserDoc {
	t.Helper()
	var user models.UserDoc
	err := svc.db.Collection(database.UsersCollection).
		FindOne(context.Background(), bson.M{"_id": id}).Decode(&user)
	require.NoError(t, err)
	return &user
}

func publishTestMeal(t *testing.T, svc *CommunityService, name, creatorID string) string {
	t.Helper()
	id, err := svc.PublishMeal(context.Background(), &models.PublicMeal{
		Name:            name,
		CookTime:        15,
		Servings:        2,
		Instructions:    "test instructions",
		CreatorID:       creatorID,
		CreatorUsername: "tester",
		Ingredients: []models.PublicIngredient{
			{Name: "Lettuce", Quantity: "1 head"},
		},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)
	return id
}

func TestPublishAndGetPublicMeal(t *testing.T) {
	svc := newTestCommunity(t)
	ctx := context.Background()

	id := publishTestMeal(t, svc, "Caesar Salad", "user-1")

	meal, err := svc.GetPublicMeal(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, meal)
	assert.Equal(t, "Caesar Salad", meal.Name)
	assert.Equal(t, 15, meal.CookTime)
	assert.Equal(t, 2, meal.Servings)
	// Counters start at zero regardless of the input document.
	assert.Zero(t, meal.SaveCount)
	assert.Zero(t, meal.LikeCount)
	assert.Zero(t, meal.Rating)
	assert.Zero(t, meal.RatingCount)
}

func TestPublishCopiesIngredientSnapshot(t *testing.T) {
	svc := newTestCommunity(t)
	ctx := context.Background()

	id, err := svc.PublishMeal(ctx, &models.PublicMeal{
		Name:            "Caesar Salad",
		CookTime:        15,
		Servings:        2,
		CreatorID:       "user-1",
		CreatorUsername: "alice",
		Ingredients: []models.PublicIngredient{
			{Name: "Romaine Lettuce", Quantity: "1 head"},
			{Name: "Caesar Dressing", Quantity: "1/2 cup"},
		},
	})
	require.NoError(t, err)

	meal, err := svc.GetPublicMeal(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, meal)
	require.Len(t, meal.Ingredients, 2)
	assert.Equal(t, "Romaine Lettuce", meal.Ingredients[0].Name)
	assert.Equal(t, "1 head", meal.Ingredients[0].Quantity)
	assert.Equal(t, "Caesar Dressing", meal.Ingredients[1].Name)
	assert.Equal(t, "1/2 cup", meal.Ingredients[1].Quantity)
}

func TestGetPublicMealNotFound(t *testing.T) {
	svc := newTestCommunity(t)

	meal, err := svc.GetPublicMeal(context.Background(), "no-such-meal")
	require.NoError(t, err)
	assert.Nil(t, meal)
}

func TestRateMealRecomputesAverage(t *testing.T) {
	svc := newTestCommunity(t)
	ctx := context.Background()

	id := publishTestMeal(t, svc, "Carbonara", "user-1")

	ratings := []struct {
		user  string
		value int
	}{
		{"user-a", 5},
		{"user-b", 3},
		{"user-c", 4},
	}
	for _, r := range ratings {
		err := svc.RateMeal(ctx, &models.RecipeRating{
			UserID: r.user,
			MealID: id,
			Rating: r.value,
		})
		require.NoError(t, err)
	}

	meal, err := svc.GetPublicMeal(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, meal)
	assert.InDelta(t, 4.0, meal.Rating, 0.001)
	assert.Equal(t, 3, meal.RatingCount)
}

func TestRateMealReplacesPriorRating(t *testing.T) {
	svc := newTestCommunity(t)
	ctx := context.Background()

	id := publishTestMeal(t, svc, "Tacos", "user-1")

	require.NoError(t, svc.RateMeal(ctx, &models.RecipeRating{UserID: "user-a", MealID: id, Rating: 2}))
	require.NoError(t, svc.RateMeal(ctx, &models.RecipeRating{UserID: "user-a", MealID: id, Rating: 5}))

	meal, err := svc.GetPublicMeal(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, meal)
	assert.InDelta(t, 5.0, meal.Rating, 0.001)
	assert.Equal(t, 1, meal.RatingCount)

	all, err := svc.ListRatings(ctx, id)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 5, all[0].Rating)
}

func TestLikeMealIsIdempotent(t *testing.T) {
	svc := newTestCommunity(t)
	ctx := context.Background()

	id := publishTestMeal(t, svc, "Stir Fry", "user-1")

	require.NoError(t, svc.LikeMeal(ctx, "user-a", id))
	require.NoError(t, svc.LikeMeal(ctx, "user-a", id))

	meal, err := svc.GetPublicMeal(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, meal)
	assert.Equal(t, 1, meal.LikeCount)

	liked, err := svc.HasLiked(ctx, "user-a", id)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestLikeUnknownMealRollsBackMarker(t *testing.T) {
	svc := newTestCommunity(t)
	ctx := context.Background()

	err := svc.LikeMeal(ctx, "user-a", "no-such-meal")
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)

	// The aborted transaction must not leave the like marker behind.
	liked, err := svc.HasLiked(ctx, "user-a", "no-such-meal")
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestRateUnknownMealRollsBackRating(t *testing.T) {
	svc := newTestCommunity(t)
	ctx := context.Background()

	err := svc.RateMeal(ctx, &models.RecipeRating{
		UserID: "user-a",
		MealID: "no-such-meal",
		Rating: 4,
	})
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)

	ratings, err := svc.ListRatings(ctx, "no-such-meal")
	require.NoError(t, err)
	assert.Empty(t, ratings)
}

func TestFollowUnknownUserRollsBackEdge(t *testing.T) {
	svc := newTestCommunity(t)
	ctx := context.Background()

	seedUser(t, svc, "alice")

	err := svc.FollowUser(ctx, "alice", "no-such-user")
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)

	following, err := svc.IsFollowing(ctx, "alice", "no-such-user")
	require.NoError(t, err)
	assert.False(t, following)

	alice := getUser(t, svc, "alice")
	assert.Zero(t, alice.FollowingCount)
}

func TestUnlikeMealIsIdempotent(t *testing.T) {
	svc := newTestCommunity(t)
	ctx := context.Background()

	id := publishTestMeal(t, svc, "Soup", "user-1")

	require.NoError(t, svc.LikeMeal(ctx, "user-a", id))
	require.NoError(t, svc.UnlikeMeal(ctx, "user-a", id))
	// A second unlike must not drive the counter negative.
	require.NoError(t, svc.UnlikeMeal(ctx, "user-a", id))

	meal, err := svc.GetPublicMeal(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, meal)
	assert.Zero(t, meal.LikeCount)

	liked, err := svc.HasLiked(ctx, "user-a", id)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestFollowMaintainsBothCounters(t *testing.T) {
	svc := newTestCommunity(t)
	ctx := context.Background()

	seedUser(t, svc, "alice")
	seedUser(t, svc, "bob")

	require.NoError(t, svc.FollowUser(ctx, "alice", "bob"))
	// Repeats are no-ops.
	require.NoError(t, svc.FollowUser(ctx, "alice", "bob"))

	alice := getUser(t, svc, "alice")
	bob := getUser(t, svc, "bob")
	assert.Equal(t, 1, alice.FollowingCount)
	assert.Zero(t, alice.FollowersCount)
	assert.Equal(t, 1, bob.FollowersCount)
	assert.Zero(t, bob.FollowingCount)

	following, err := svc.IsFollowing(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, following)

	require.NoError(t, svc.UnfollowUser(ctx, "alice", "bob"))
	require.NoError(t, svc.UnfollowUser(ctx, "alice", "bob"))

	alice = getUser(t, svc, "alice")
	bob = getUser(t, svc, "bob")
	assert.Zero(t, alice.FollowingCount)
	assert.Zero(t, bob.FollowersCount)
}

func TestFollowSelfRejected(t *testing.T) {
	svc := newTestCommunity(t)

	err := svc.FollowUser(context.Background(), "alice", "alice")
	assert.Error(t, err)
}

func TestFollowingFeedFiltersToFollowedCreators(t *testing.T) {
	svc := newTestCommunity(t)
	ctx := context.Background()

	publishTestMeal(t, svc, "Bob's Tacos", "bob")
	publishTestMeal(t, svc, "Carol's Soup", "carol")

	seedUser(t, svc, "alice")
	seedUser(t, svc, "bob")
	require.NoError(t, svc.FollowUser(ctx, "alice", "bob"))

	meals, err := svc.ListFeed(ctx, FeedFollowing, "alice", 0)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, "Bob's Tacos", meals[0].Name)
}

func TestFollowingFeedEmptyWithoutFollows(t *testing.T) {
	svc := newTestCommunity(t)
	ctx := context.Background()

	publishTestMeal(t, svc, "Bob's Tacos", "bob")

	meals, err := svc.ListFeed(ctx, FeedFollowing, "alice", 0)
	require.NoError(t, err)
	assert.Empty(t, meals)
}

func TestPopularFeedOrdersByLikes(t *testing.T) {
	svc := newTestCommunity(t)
	ctx := context.Background()

	first := publishTestMeal(t, svc, "First", "user-1")
	second := publishTestMeal(t, svc, "Second", "user-1")

	require.NoError(t, svc.LikeMeal(ctx, "user-a", second))
	require.NoError(t, svc.LikeMeal(ctx, "user-b", second))
	require.NoError(t, svc.LikeMeal(ctx, "user-a", first))

	meals, err := svc.ListFeed(ctx, FeedPopular, "", 10)
	require.NoError(t, err)
	require.Len(t, meals, 2)
	assert.Equal(t, "Second", meals[0].Name)
	assert.Equal(t, 2, meals[0].LikeCount)
}

func TestRecordSave(t *testing.T) {
	svc := newTestCommunity(t)
	ctx := context.Background()

	seedUser(t, svc, "alice")
	id := publishTestMeal(t, svc, "Curry", "bob")

	require.NoError(t, svc.RecordSave(ctx, id, "alice"))
	require.NoError(t, svc.RecordSave(ctx, id, "alice"))

	meal, err := svc.GetPublicMeal(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, meal)
	assert.Equal(t, 2, meal.SaveCount)

	alice := getUser(t, svc, "alice")
	assert.Equal(t, 2, alice.RecipesSaved)

	assert.Error(t, svc.RecordSave(ctx, "no-such-meal", "alice"))
}

func TestPublishBumpsRecipesCreated(t *testing.T) {
	svc := newTestCommunity(t)

	seedUser(t, svc, "alice")
	publishTestMeal(t, svc, "Salad", "alice")
	publishTestMeal(t, svc, "Soup", "alice")

	alice := getUser(t, svc, "alice")
	assert.Equal(t, 2, alice.RecipesCreated)
}

func TestMealsByCreator(t *testing.T) {
	svc := newTestCommunity(t)
	ctx := context.Background()

	publishTestMeal(t, svc, "Mine", "alice")
	publishTestMeal(t, svc, "Theirs", "bob")

	meals, err := svc.MealsByCreator(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, "Mine", meals[0].Name)
}
