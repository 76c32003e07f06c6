package models

import (
	"time"
)

// Meal is a privately-owned recipe stored in the local relational store.
type Meal struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	CookTime     int       `gorm:"not null;default:0" json:"cook_time"`
	Servings     int       `gorm:"not null;default:4" json:"servings"`
	Instructions string    `gorm:"type:text" json:"instructions"`
	ImageURL     string    `gorm:"size:255" json:"image_url"`
	IsPublic     bool      `gorm:"not null;default:false" json:"is_public"`
	CreatorID    string    `gorm:"size:36;index" json:"creator_id"`
	CreatorName  string    `gorm:"size:50" json:"creator_name"`
	Timestamp    time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (Meal) TableName() string {
	return "meals"
}

// Ingredient belongs to exactly one Meal. Rows are replaced wholesale when
// the meal is edited and removed when the meal is deleted.
type Ingredient struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	MealID   uint   `gorm:"not null;index" json:"meal_id"`
	Name     string `gorm:"size:255;not null" json:"name"`
	Quantity string `gorm:"size:100" json:"quantity"`
	Category string `gorm:"size:50;not null;default:'Other'" json:"category"`
}

func (Ingredient) TableName() string {
	return "ingredients"
}
