package service

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zybooks/basket-backend/internal/models"
)

// BasketService handles the local store: private meals, their ingredients,
// and the shared grocery list.
type BasketService struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewBasketService creates a new BasketService instance
func NewBasketService(db *gorm.DB, log *zap.Logger) *BasketService {
	return &BasketService{
		db:  db,
		log: log.Named("basket-service"),
	}
}

// ListMeals returns all meals, newest first. When creatorID is non-empty,
// only that creator's public meals are returned.
func (s *BasketService) ListMeals(ctx context.Context, creatorID string) ([]models.Meal, error) {
	var meals []models.Meal
	query := s.db.WithContext(ctx).Order("timestamp DESC")
	if creatorID != "" {
		query = query.Where("creator_id = ? AND is_public = ?", creatorID, true)
	}
	if err := query.Find(&meals).Error; err != nil {
		return nil, err
	}
	return meals, nil
}

// GetMeal retrieves a meal by id. A missing meal returns (nil, nil).
func (s *BasketService) GetMeal(ctx context.Context, mealID uint) (*models.Meal, error) {
	var meal models.Meal
	if err := s.db.WithContext(ctx).First(&meal, "id = ?", mealID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meal, nil
}

// CreateMeal inserts a meal and its ingredient rows in one transaction.
func (s *BasketService) CreateMeal(ctx context.Context, meal *models.Meal, ingredients []models.Ingredient) (*models.Meal, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(meal).Error; err != nil {
			return err
		}
		for i := range ingredients {
			ingredients[i].MealID = meal.ID
			if ingredients[i].Category == "" {
				ingredients[i].Category = "Other"
			}
		}
		if len(ingredients) > 0 {
			if err := tx.Create(&ingredients).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return meal, nil
}

// UpdateMeal updates meal fields and replaces its ingredient set. The
// publish flag is left untouched; editing a published meal does not
// unpublish it.
func (s *BasketService) UpdateMeal(ctx context.Context, mealID uint, meal *models.Meal, ingredients []models.Ingredient) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Meal{}).Where("id = ?", mealID).Updates(map[string]interface{}{
			"name":         meal.Name,
			"cook_time":    meal.CookTime,
			"servings":     meal.Servings,
			"instructions": meal.Instructions,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("meal_id = ?", mealID).Delete(&models.Ingredient{}).Error; err != nil {
			return err
		}
		for i := range ingredients {
			ingredients[i].ID = 0
			ingredients[i].MealID = mealID
			if ingredients[i].Category == "" {
				ingredients[i].Category = "Other"
			}
		}
		if len(ingredients) > 0 {
			if err := tx.Create(&ingredients).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteMeal removes a meal and its ingredients.
func (s *BasketService) DeleteMeal(ctx context.Context, mealID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&models.Meal{}, "id = ?", mealID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("meal_id = ?", mealID).Delete(&models.Ingredient{}).Error
	})
}

// GetIngredients returns a point-in-time snapshot of a meal's ingredients.
func (s *BasketService) GetIngredients(ctx context.Context, mealID uint) ([]models.Ingredient, error) {
	var ingredients []models.Ingredient
	if err := s.db.WithContext(ctx).Where("meal_id = ?", mealID).Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

// MarkMealPublic flips the local IsPublic flag after a successful publish.
func (s *BasketService) MarkMealPublic(ctx context.Context, mealID uint, creatorID, creatorName string) error {
	return s.db.WithContext(ctx).Model(&models.Meal{}).Where("id = ?", mealID).Updates(map[string]interface{}{
		"is_public":    true,
		"creator_id":   creatorID,
		"creator_name": creatorName,
	}).Error
}

// SetMealImage records the uploaded photo URL on a meal.
func (s *BasketService) SetMealImage(ctx context.Context, mealID uint, url string) error {
	res := s.db.WithContext(ctx).Model(&models.Meal{}).Where("id = ?", mealID).Update("image_url", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListGroceryItems returns the grocery list, unchecked items first, then by
// category.
func (s *BasketService) ListGroceryItems(ctx context.Context) ([]models.GroceryItem, error) {
	var items []models.GroceryItem
	if err := s.db.WithContext(ctx).Order("is_checked ASC, category ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddGroceryItem inserts a manually entered grocery item.
func (s *BasketService) AddGroceryItem(ctx context.Context, item *models.GroceryItem) error {
	if item.Category == "" {
		item.Category = "Other"
	}
	return s.db.WithContext(ctx).Create(item).Error
}

// UpdateGroceryItem applies field updates, typically the checked toggle.
func (s *BasketService) UpdateGroceryItem(ctx context.Context, itemID uint, updates map[string]interface{}) error {
	res := s.db.WithContext(ctx).Model(&models.GroceryItem{}).Where("id = ?", itemID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteGroceryItem removes a single grocery item.
func (s *BasketService) DeleteGroceryItem(ctx context.Context, itemID uint) error {
	return s.db.WithContext(ctx).Delete(&models.GroceryItem{}, "id = ?", itemID).Error
}

// ClearGroceryItems empties the grocery list.
func (s *BasketService) ClearGroceryItems(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&models.GroceryItem{}).Error
}

// ClearCheckedGroceryItems removes only the checked entries.
func (s *BasketService) ClearCheckedGroceryItems(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("is_checked = ?", true).Delete(&models.GroceryItem{}).Error
}

// AddMealToGroceryList copies a meal's ingredient snapshot onto the grocery
// list. Every ingredient becomes its own unchecked item tagged with the
// source meal id; items are never merged with same-named entries already on
// the list, so adding a meal twice doubles its rows. Returns the number of
// items inserted; an absent meal inserts nothing.
func (s *BasketService) AddMealToGroceryList(ctx context.Context, mealID uint) (int, error) {
	ingredients, err := s.GetIngredients(ctx, mealID)
	if err != nil {
		return 0, err
	}
	if len(ingredients) == 0 {
		return 0, nil
	}

	items := make([]models.GroceryItem, len(ingredients))
	for i, ing := range ingredients {
		items[i] = models.GroceryItem{
			Name:        ing.Name,
			Quantity:    ing.Quantity,
			Category:    ing.Category,
			IsChecked:   false,
			FromMealIDs: strconv.FormatUint(uint64(mealID), 10),
		}
	}

	if err := s.db.WithContext(ctx).Create(&items).Error; err != nil {
		return 0, err
	}
	s.log.Debug("added meal to grocery list",
		zap.Uint("meal_id", mealID),
		zap.Int("items", len(items)))
	return len(items), nil
}

// IsMealInGroceryList reports whether any grocery item was already derived
// from the given meal. Callers use this to confirm duplicate additions
// before calling AddMealToGroceryList; the add itself never deduplicates.
func (s *BasketService) IsMealInGroceryList(ctx context.Context, mealID uint) (bool, error) {
	var items []models.GroceryItem
	if err := s.db.WithContext(ctx).Where("from_meal_ids <> ''").Find(&items).Error; err != nil {
		return false, err
	}
	for _, item := range items {
		if item.FromMeal(mealID) {
			return true, nil
		}
	}
	return false, nil
}

// SeedSampleMeals inserts the starter meals on an empty store.
func (s *BasketService) SeedSampleMeals(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Meal{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	samples := []models.Meal{
		{Name: "Spaghetti Carbonara", CookTime: 30, Servings: 4, Instructions: "Cook pasta, fry bacon, mix with eggs"},
		{Name: "Chicken Stir Fry", CookTime: 25, Servings: 4, Instructions: "Stir fry chicken and vegetables"},
		{Name: "Beef Tacos", CookTime: 20, Servings: 4, Instructions: "Brown beef, warm tortillas, assemble"},
		{Name: "Caesar Salad", CookTime: 15, Servings: 2, Instructions: "Chop lettuce, make dressing, toss"},
	}
	if err := s.db.WithContext(ctx).Create(&samples).Error; err != nil {
		return err
	}
	s.log.Info("seeded sample meals", zap.Int("count", len(samples)))
	return nil
}
