package models

import "time"

// UserDoc is the per-user profile document in the community store. The
// counter fields are denormalized aggregates maintained by $inc updates.
type UserDoc struct {
	ID             string    `bson:"_id" json:"id"`
	Username       string    `bson:"username" json:"username"`
	Email          string    `bson:"email" json:"email"`
	PasswordHash   string    `bson:"password_hash" json:"-"`
	Bio            string    `bson:"bio" json:"bio"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	RecipesCreated int       `bson:"recipes_created" json:"recipes_created"`
	RecipesSaved   int       `bson:"recipes_saved" json:"recipes_saved"`
	FollowersCount int       `bson:"followers_count" json:"followers_count"`
	FollowingCount int       `bson:"following_count" json:"following_count"`
	TotalLikes     int       `bson:"total_likes" json:"total_likes"`
}

// PublicMeal is a denormalized copy of a Meal shared to the community feed.
// It has no referential link back to the local meal it was published from.
type PublicMeal struct {
	ID              string             `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	CookTime        int                `bson:"cook_time" json:"cook_time"`
	Servings        int                `bson:"servings" json:"servings"`
	Instructions    string             `bson:"instructions" json:"instructions"`
	ImageURL        string             `bson:"image_url" json:"image_url"`
	CreatorID       string             `bson:"creator_id" json:"creator_id"`
	CreatorUsername string             `bson:"creator_username" json:"creator_username"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	SaveCount       int                `bson:"save_count" json:"save_count"`
	LikeCount       int                `bson:"like_count" json:"like_count"`
	Rating          float64            `bson:"rating" json:"rating"`
	RatingCount     int                `bson:"rating_count" json:"rating_count"`
	Ingredients     []PublicIngredient `bson:"ingredients" json:"ingredients"`
}

// PublicIngredient carries only name and quantity; the category column of
// the local store is dropped on publish.
type PublicIngredient struct {
	Name     string `bson:"name" json:"name"`
	Quantity string `bson:"quantity" json:"quantity"`
}

// RecipeRating is one user's rating of one public meal. At most one
// document exists per (meal, user) pair; re-rating overwrites.
type RecipeRating struct {
	UserID    string    `bson:"user_id" json:"user_id"`
	Username  string    `bson:"username" json:"username"`
	MealID    string    `bson:"meal_id" json:"meal_id"`
	Rating    int       `bson:"rating" json:"rating"`
	Review    string    `bson:"review" json:"review"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// RecipeLike marks that a user has liked a public meal.
type RecipeLike struct {
	UserID  string    `bson:"user_id" json:"user_id"`
	MealID  string    `bson:"meal_id" json:"meal_id"`
	LikedAt time.Time `bson:"liked_at" json:"liked_at"`
}

// Follow is a directed edge in the social graph, queried from both sides.
type Follow struct {
	FollowerID string    `bson:"follower_id" json:"follower_id"`
	FollowedID string    `bson:"followed_id" json:"followed_id"`
	FollowedAt time.Time `bson:"followed_at" json:"followed_at"`
}
