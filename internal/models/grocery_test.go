package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroceryItemFromMeal(t *testing.T) {
	tests := []struct {
		name        string
		fromMealIDs string
		mealID      uint
		want        bool
	}{
		{"empty", "", 1, false},
		{"single match", "1", 1, true},
		{"single mismatch", "2", 1, false},
		{"prefix does not match", "12", 1, false},
		{"suffix does not match", "21", 1, false},
		{"match within list", "3,1,7", 1, true},
		{"no match within list", "3,12,7", 1, false},
		{"whitespace tolerated", "3, 1 ,7", 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := GroceryItem{FromMealIDs: tt.fromMealIDs}
			assert.Equal(t, tt.want, item.FromMeal(tt.mealID))
		})
	}
}
