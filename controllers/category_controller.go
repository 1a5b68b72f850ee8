package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/plumeblog/plume/models"
	"github.com/plumeblog/plume/utils"
)

// CategoryController manages categories and the guard that keeps referenced
// categories alive.
type CategoryController struct {
	db *gorm.DB
}

// NewCategoryController creates a CategoryController.
func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{db: db}
}

// ListActive returns active categories for public consumption, cached.
func (c *CategoryController) ListActive(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes(utils.CacheKeyCategories); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	var categories []models.Category
	if err := c.db.Where("is_active = ?", true).Order("title ASC").Find(&categories).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to list categories")
		return
	}
	utils.CacheSetJSON(utils.CacheKeyCategories, categories, time.Hour)
	ctx.JSON(http.StatusOK, categories)
}

// ListAll returns every category, active or not.
func (c *CategoryController) ListAll(ctx *gin.Context) {
	var categories []models.Category
	if err := c.db.Order("title ASC").Find(&categories).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to list categories")
		return
	}
	ctx.JSON(http.StatusOK, categories)
}

type categoryRequest struct {
	Title    string `json:"title" binding:"required"`
	IsActive *bool  `json:"isActive"`
}

// Create adds a category. Titles are unique case-insensitively.
func (c *CategoryController) Create(ctx *gin.Context) {
	var req categoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "Title is required")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		utils.Fail(ctx, http.StatusBadRequest, "Title is required")
		return
	}
	if c.titleTaken(title, 0) {
		utils.Fail(ctx, http.StatusBadRequest, "Category already exists")
		return
	}

	category := models.Category{Title: title, IsActive: true}
	if req.IsActive != nil {
		category.IsActive = *req.IsActive
	}
	if err := c.db.Create(&category).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to create category")
		return
	}

	utils.InvalidateCategoryCache()
	ctx.JSON(http.StatusCreated, gin.H{"message": "Category created successfully", "category": category})
}

// Update renames a category or changes its active flag. Deactivation is
// refused while posts still reference the category.
func (c *CategoryController) Update(ctx *gin.Context) {
	var req categoryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "Title is required")
		return
	}

	var category models.Category
	if err := c.db.First(&category, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Fail(ctx, http.StatusNotFound, "Category not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load category")
		return
	}

	if title := strings.TrimSpace(req.Title); title != "" {
		if c.titleTaken(title, category.ID) {
			utils.Fail(ctx, http.StatusBadRequest, "Category already exists")
			return
		}
		category.Title = title
	}
	if req.IsActive != nil {
		if !*req.IsActive {
			if n := c.postCount(category.ID); n > 0 {
				utils.Fail(ctx, http.StatusBadRequest,
					fmt.Sprintf("Cannot deactivate category: %d post(s) still use it", n))
				return
			}
		}
		category.IsActive = *req.IsActive
	}

	if err := c.db.Save(&category).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to update category")
		return
	}

	utils.InvalidateCategoryCache()
	utils.InvalidatePostCaches()
	ctx.JSON(http.StatusOK, gin.H{"message": "Category updated successfully", "category": category})
}

// ToggleStatus flips the active flag. Deactivation is refused while posts
// still reference the category.
func (c *CategoryController) ToggleStatus(ctx *gin.Context) {
	var category models.Category
	if err := c.db.First(&category, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Fail(ctx, http.StatusNotFound, "Category not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load category")
		return
	}

	if category.IsActive {
		if n := c.postCount(category.ID); n > 0 {
			utils.Fail(ctx, http.StatusBadRequest,
				fmt.Sprintf("Cannot deactivate category: %d post(s) still use it", n))
			return
		}
	}

	category.IsActive = !category.IsActive
	if err := c.db.Model(&category).Update("is_active", category.IsActive).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to update category")
		return
	}

	utils.InvalidateCategoryCache()
	message := "Category deactivated successfully"
	if category.IsActive {
		message = "Category activated successfully"
	}
	ctx.JSON(http.StatusOK, gin.H{"message": message, "category": category})
}

// Delete removes a category that no post references.
func (c *CategoryController) Delete(ctx *gin.Context) {
	var category models.Category
	if err := c.db.First(&category, ctx.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Fail(ctx, http.StatusNotFound, "Category not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load category")
		return
	}

	if n := c.postCount(category.ID); n > 0 {
		utils.Fail(ctx, http.StatusBadRequest,
			fmt.Sprintf("Cannot delete category: %d post(s) still use it", n))
		return
	}

	if err := c.db.Delete(&category).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to delete category")
		return
	}

	utils.InvalidateCategoryCache()
	ctx.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

func (c *CategoryController) titleTaken(title string, excludeID uint) bool {
	var count int64
	query := c.db.Model(&models.Category{}).Where("LOWER(title) = ?", strings.ToLower(title))
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	query.Count(&count)
	return count > 0
}

func (c *CategoryController) postCount(categoryID uint) int64 {
	var count int64
	c.db.Model(&models.Post{}).Where("category_id = ?", categoryID).Count(&count)
	return count
}
