package models

import (
	"strconv"
	"strings"
)

// GroceryItem is a shopping-list entry derived from one meal's ingredients.
// FromMealIDs holds the comma-joined ids of the meals it came from; it is
// only used to warn about adding the same meal twice, never to merge rows.
type GroceryItem struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	Name        string `gorm:"size:255;not null" json:"name"`
	Quantity    string `gorm:"size:100" json:"quantity"`
	Category    string `gorm:"size:50;not null;default:'Other'" json:"category"`
	IsChecked   bool   `gorm:"not null;default:false" json:"is_checked"`
	FromMealIDs string `gorm:"size:255" json:"from_meal_ids"`
}

func (GroceryItem) TableName() string {
	return "grocery_items"
}

// FromMeal reports whether the item was derived from the given meal.
// Entries are compared whole; meal id 1 does not match an item from meal 12.
func (g GroceryItem) FromMeal(mealID uint) bool {
	want := strconv.FormatUint(uint64(mealID), 10)
	for _, entry := range strings.Split(g.FromMealIDs, ",") {
		if strings.TrimSpace(entry) == want {
			return true
		}
	}
	return false
}
