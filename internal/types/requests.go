package types

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Username string `json:"username" binding:"required,min=3,max=50"`
}

// LoginRequest is the payload for signing in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the issued token and the user's id.
type AuthResponse struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}

// IngredientInput is one ingredient line on a meal create/update.
type IngredientInput struct {
	Name     string `json:"name" binding:"required"`
	Quantity string `json:"quantity"`
	Category string `json:"category"`
}

// MealRequest is the payload for creating or updating a local meal.
type MealRequest struct {
	Name         string            `json:"name" binding:"required"`
	CookTime     int               `json:"cook_time"`
	Servings     int               `json:"servings"`
	Instructions string            `json:"instructions"`
	Ingredients  []IngredientInput `json:"ingredients"`
}

// GroceryItemRequest is the payload for a manually added grocery item.
type GroceryItemRequest struct {
	Name     string `json:"name" binding:"required"`
	Quantity string `json:"quantity"`
	Category string `json:"category"`
}

// GroceryItemUpdate toggles or edits an existing grocery item.
type GroceryItemUpdate struct {
	Name      *string `json:"name"`
	Quantity  *string `json:"quantity"`
	Category  *string `json:"category"`
	IsChecked *bool   `json:"is_checked"`
}

// RatingRequest is the payload for rating a public meal.
type RatingRequest struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Review string `json:"review"`
}

// ProfileUpdateRequest edits the caller's profile document.
type ProfileUpdateRequest struct {
	Username string `json:"username"`
	Bio      string `json:"bio"`
}
