package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// ImportantCategoryTitle is the category pinned posts are forced into.
// Matching is case-insensitive; the category is created on demand.
const ImportantCategoryTitle = "Important"

// Category groups posts. Inactive categories stay attached to their posts but
// are hidden from public listings.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:128;uniqueIndex;not null" json:"title"`
	IsActive  bool      `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeSave trims the title so uniqueness is not defeated by whitespace.
func (c *Category) BeforeSave(tx *gorm.DB) error {
	c.Title = strings.TrimSpace(c.Title)
	return nil
}

// FindOrCreateImportantCategory resolves the "Important" category, creating an
// active one when it does not exist yet.
func FindOrCreateImportantCategory(tx *gorm.DB) (*Category, error) {
	var cat Category
	err := tx.Where("LOWER(title) = ?", strings.ToLower(ImportantCategoryTitle)).First(&cat).Error
	if err == nil {
		return &cat, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	cat = Category{Title: ImportantCategoryTitle, IsActive: true}
	if err := tx.Create(&cat).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}
