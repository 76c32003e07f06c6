package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/zybooks/basket-backend/internal/database"
	"github.com/zybooks/basket-backend/internal/models"
)

// Feed identifies a community feed ordering.
type Feed string

const (
	FeedPopular   Feed = "popular"
	FeedRecent    Feed = "recent"
	FeedTrending  Feed = "trending"
	FeedFollowing Feed = "following"
)

// DefaultFeedLimit bounds feed queries when the caller does not specify one.
const DefaultFeedLimit = 20

// followingFeedCreatorCap bounds the $in clause of the following feed.
const followingFeedCreatorCap = 10

// CommunityService handles the shared document store: public meals, the
// social graph, and their denormalized counters.
type CommunityService struct {
	db  *database.Mongo
	log *zap.Logger
}

// NewCommunityService creates a new CommunityService instance
func NewCommunityService(db *database.Mongo, log *zap.Logger) *CommunityService {
	return &CommunityService{
		db:  db,
		log: log.Named("community-service"),
	}
}

// withTransaction runs fn inside a single MongoDB transaction so paired
// marker/counter writes apply all-or-nothing.
func (s *CommunityService) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// PublishMeal inserts a new public meal document and returns its
// server-assigned id. The creator's recipesCreated counter is bumped as a
// best-effort secondary write; its failure does not undo the publish.
func (s *CommunityService) PublishMeal(ctx context.Context, meal *models.PublicMeal) (string, error) {
	meal.ID = primitive.NewObjectID().Hex()
	meal.CreatedAt = time.Now().UTC()
	meal.SaveCount = 0
	meal.LikeCount = 0
	meal.Rating = 0
	meal.RatingCount = 0
	if meal.Ingredients == nil {
		meal.Ingredients = []models.PublicIngredient{}
	}

	if _, err := s.db.Collection(database.PublicMealsCollection).InsertOne(ctx, meal); err != nil {
		return "", fmt.Errorf("failed to publish meal: %w", err)
	}

	_, err := s.db.Collection(database.UsersCollection).UpdateOne(ctx,
		bson.M{"_id": meal.CreatorID},
		bson.M{"$inc": bson.M{"recipes_created": 1}},
	)
	if err != nil {
		s.log.Warn("failed to increment recipesCreated after publish",
			zap.String("creator_id", meal.CreatorID),
			zap.Error(err))
	}

	return meal.ID, nil
}

// GetPublicMeal retrieves one public meal; absent documents return (nil, nil).
func (s *CommunityService) GetPublicMeal(ctx context.Context, mealID string) (*models.PublicMeal, error) {
	var meal models.PublicMeal
	err := s.db.Collection(database.PublicMealsCollection).
		FindOne(ctx, bson.M{"_id": mealID}).Decode(&meal)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch public meal: %w", err)
	}
	return &meal, nil
}

// ListFeed returns public meals for the requested feed ordering.
func (s *CommunityService) ListFeed(ctx context.Context, feed Feed, userID string, limit int64) ([]models.PublicMeal, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	var sort bson.D
	filter := bson.M{}
	switch feed {
	case FeedPopular:
		sort = bson.D{{Key: "like_count", Value: -1}}
	case FeedTrending:
		sort = bson.D{{Key: "rating", Value: -1}}
	case FeedFollowing:
		creatorIDs, err := s.followedIDs(ctx, userID)
		if err != nil {
			return nil, err
		}
		if len(creatorIDs) == 0 {
			return []models.PublicMeal{}, nil
		}
		if len(creatorIDs) > followingFeedCreatorCap {
			creatorIDs = creatorIDs[:followingFeedCreatorCap]
		}
		filter["creator_id"] = bson.M{"$in": creatorIDs}
		sort = bson.D{{Key: "created_at", Value: -1}}
	default: // FeedRecent
		sort = bson.D{{Key: "created_at", Value: -1}}
	}

	return s.findMeals(ctx, filter, sort, limit)
}

// MealsByCreator returns a creator's published meals, newest first.
func (s *CommunityService) MealsByCreator(ctx context.Context, creatorID string) ([]models.PublicMeal, error) {
	return s.findMeals(ctx,
		bson.M{"creator_id": creatorID},
		bson.D{{Key: "created_at", Value: -1}},
		0)
}

func (s *CommunityService) findMeals(ctx context.Context, filter bson.M, sort bson.D, limit int64) ([]models.PublicMeal, error) {
	opts := options.Find().SetSort(sort)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := s.db.Collection(database.PublicMealsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query public meals: %w", err)
	}
	defer cursor.Close(ctx)

	meals := []models.PublicMeal{}
	if err := cursor.All(ctx, &meals); err != nil {
		return nil, fmt.Errorf("failed to decode public meals: %w", err)
	}
	return meals, nil
}

func (s *CommunityService) followedIDs(ctx context.Context, followerID string) ([]string, error) {
	cursor, err := s.db.Collection(database.FollowsCollection).
		Find(ctx, bson.M{"follower_id": followerID})
	if err != nil {
		return nil, fmt.Errorf("failed to query follows: %w", err)
	}
	defer cursor.Close(ctx)

	var edges []models.Follow
	if err := cursor.All(ctx, &edges); err != nil {
		return nil, fmt.Errorf("failed to decode follows: %w", err)
	}
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.FollowedID
	}
	return ids, nil
}

// RecordSave bumps the public meal's saveCount and the saving user's
// recipesSaved counter after a save-to-local. Both are independent
// best-effort aggregates, not tied to the local insert.
func (s *CommunityService) RecordSave(ctx context.Context, mealID, userID string) error {
	res, err := s.db.Collection(database.PublicMealsCollection).UpdateOne(ctx,
		bson.M{"_id": mealID},
		bson.M{"$inc": bson.M{"save_count": 1}},
	)
	if err != nil {
		return fmt.Errorf("failed to increment saveCount: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	if userID != "" {
		_, err = s.db.Collection(database.UsersCollection).UpdateOne(ctx,
			bson.M{"_id": userID},
			bson.M{"$inc": bson.M{"recipes_saved": 1}},
		)
		if err != nil {
			s.log.Warn("failed to increment recipesSaved",
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}
	return nil
}

// RateMeal upserts the caller's rating for a meal and recomputes the meal's
// stored average. The upsert, the re-read, and the aggregate write run in
// one transaction, so concurrent ratings cannot undercount each other.
// A second rating by the same user replaces the first.
func (s *CommunityService) RateMeal(ctx context.Context, rating *models.RecipeRating) error {
	rating.CreatedAt = time.Now().UTC()

	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		_, err := s.db.Collection(database.RatingsCollection).ReplaceOne(sc,
			bson.M{"meal_id": rating.MealID, "user_id": rating.UserID},
			rating,
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert rating: %w", err)
		}
		return s.recomputeRating(sc, rating.MealID)
	})
}

// recomputeRating rewrites the meal's rating aggregate from all of its
// rating documents: rating = mean, ratingCount = count.
func (s *CommunityService) recomputeRating(ctx context.Context, mealID string) error {
	cursor, err := s.db.Collection(database.RatingsCollection).
		Find(ctx, bson.M{"meal_id": mealID})
	if err != nil {
		return fmt.Errorf("failed to read ratings: %w", err)
	}
	defer cursor.Close(ctx)

	var ratings []models.RecipeRating
	if err := cursor.All(ctx, &ratings); err != nil {
		return fmt.Errorf("failed to decode ratings: %w", err)
	}
	if len(ratings) == 0 {
		return nil
	}

	sum := 0
	for _, r := range ratings {
		sum += r.Rating
	}
	average := float64(sum) / float64(len(ratings))

	res, err := s.db.Collection(database.PublicMealsCollection).UpdateOne(ctx,
		bson.M{"_id": mealID},
		bson.M{"$set": bson.M{"rating": average, "rating_count": len(ratings)}},
	)
	if err != nil {
		return fmt.Errorf("failed to update rating aggregate: %w", err)
	}
	if res.MatchedCount == 0 {
		// Aborting rolls the rating upsert back with it.
		return mongo.ErrNoDocuments
	}
	return nil
}

// ListRatings returns all rating documents for a meal, newest first.
func (s *CommunityService) ListRatings(ctx context.Context, mealID string) ([]models.RecipeRating, error) {
	cursor, err := s.db.Collection(database.RatingsCollection).Find(ctx,
		bson.M{"meal_id": mealID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer cursor.Close(ctx)

	ratings := []models.RecipeRating{}
	if err := cursor.All(ctx, &ratings); err != nil {
		return nil, fmt.Errorf("failed to decode ratings: %w", err)
	}
	return ratings, nil
}

// LikeMeal records a like and bumps the meal's likeCount in one
// transaction. The counter moves only when the marker document is actually
// created, so repeated likes by the same user are no-ops. Liking a meal
// that was never published fails and leaves no marker.
func (s *CommunityService) LikeMeal(ctx context.Context, userID, mealID string) error {
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := s.db.Collection(database.LikesCollection).UpdateOne(sc,
			bson.M{"meal_id": mealID, "user_id": userID},
			bson.M{"$setOnInsert": bson.M{
				"meal_id":  mealID,
				"user_id":  userID,
				"liked_at": time.Now().UTC(),
			}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("failed to record like: %w", err)
		}
		if res.UpsertedCount == 0 {
			return nil // already liked
		}

		inc, err := s.db.Collection(database.PublicMealsCollection).UpdateOne(sc,
			bson.M{"_id": mealID},
			bson.M{"$inc": bson.M{"like_count": 1}},
		)
		if err != nil {
			return fmt.Errorf("failed to increment likeCount: %w", err)
		}
		if inc.MatchedCount == 0 {
			// No such meal; aborting rolls the marker back too.
			return mongo.ErrNoDocuments
		}
		return nil
	})
}

// UnlikeMeal removes the like marker and decrements likeCount, again only
// when the marker actually existed.
func (s *CommunityService) UnlikeMeal(ctx context.Context, userID, mealID string) error {
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := s.db.Collection(database.LikesCollection).DeleteOne(sc,
			bson.M{"meal_id": mealID, "user_id": userID})
		if err != nil {
			return fmt.Errorf("failed to remove like: %w", err)
		}
		if res.DeletedCount == 0 {
			return nil
		}

		_, err = s.db.Collection(database.PublicMealsCollection).UpdateOne(sc,
			bson.M{"_id": mealID},
			bson.M{"$inc": bson.M{"like_count": -1}},
		)
		if err != nil {
			return fmt.Errorf("failed to decrement likeCount: %w", err)
		}
		return nil
	})
}

// HasLiked reports whether the user has liked the meal.
func (s *CommunityService) HasLiked(ctx context.Context, userID, mealID string) (bool, error) {
	err := s.db.Collection(database.LikesCollection).
		FindOne(ctx, bson.M{"meal_id": mealID, "user_id": userID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return true, nil
}

// FollowUser creates the follow edge and bumps followingCount(follower) and
// followersCount(followed) in one transaction. All writes apply only when
// the edge did not already exist.
func (s *CommunityService) FollowUser(ctx context.Context, followerID, followedID string) error {
	if followerID == followedID {
		return fmt.Errorf("cannot follow yourself")
	}

	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := s.db.Collection(database.FollowsCollection).UpdateOne(sc,
			bson.M{"follower_id": followerID, "followed_id": followedID},
			bson.M{"$setOnInsert": bson.M{
				"follower_id": followerID,
				"followed_id": followedID,
				"followed_at": time.Now().UTC(),
			}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("failed to create follow edge: %w", err)
		}
		if res.UpsertedCount == 0 {
			return nil // already following
		}

		return s.adjustFollowCounters(sc, followerID, followedID, 1)
	})
}

// UnfollowUser removes the edge and reverses both counters.
func (s *CommunityService) UnfollowUser(ctx context.Context, followerID, followedID string) error {
	return s.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := s.db.Collection(database.FollowsCollection).DeleteOne(sc,
			bson.M{"follower_id": followerID, "followed_id": followedID})
		if err != nil {
			return fmt.Errorf("failed to remove follow edge: %w", err)
		}
		if res.DeletedCount == 0 {
			return nil
		}

		return s.adjustFollowCounters(sc, followerID, followedID, -1)
	})
}

// adjustFollowCounters moves both users' counters. A missing user document
// returns mongo.ErrNoDocuments, aborting the caller's transaction so the
// edge write never lands without its counters.
func (s *CommunityService) adjustFollowCounters(ctx context.Context, followerID, followedID string, delta int) error {
	users := s.db.Collection(database.UsersCollection)
	res, err := users.UpdateOne(ctx,
		bson.M{"_id": followerID},
		bson.M{"$inc": bson.M{"following_count": delta}},
	)
	if err != nil {
		return fmt.Errorf("failed to adjust followingCount: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}

	res, err = users.UpdateOne(ctx,
		bson.M{"_id": followedID},
		bson.M{"$inc": bson.M{"followers_count": delta}},
	)
	if err != nil {
		return fmt.Errorf("failed to adjust followersCount: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// IsFollowing reports whether follower already follows followed.
func (s *CommunityService) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	err := s.db.Collection(database.FollowsCollection).
		FindOne(ctx, bson.M{"follower_id": followerID, "followed_id": followedID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return true, nil
}
