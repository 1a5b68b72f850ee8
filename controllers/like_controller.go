package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/plumeblog/plume/middleware"
	"github.com/plumeblog/plume/models"
	"github.com/plumeblog/plume/utils"
)

// LikeController manages post likes.
type LikeController struct {
	db *gorm.DB
}

// NewLikeController creates a LikeController.
func NewLikeController(db *gorm.DB) *LikeController {
	return &LikeController{db: db}
}

// TogglePostLike likes the post if the viewer has not liked it yet, otherwise
// removes the like. The unique (user, post) index keeps concurrent toggles
// from double-counting.
func (l *LikeController) TogglePostLike(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var post models.Post
	if err := l.db.First(&post, ctx.Param("postId")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Fail(ctx, http.StatusNotFound, "Post not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load post")
		return
	}

	var existing models.Like
	err := l.db.Where("user_id = ? AND post_id = ?", user.ID, post.ID).First(&existing).Error
	liked := false
	switch err {
	case nil:
		if err := l.db.Delete(&existing).Error; err != nil {
			utils.Fail(ctx, http.StatusInternalServerError, "Failed to update like")
			return
		}
	case gorm.ErrRecordNotFound:
		like := models.Like{UserID: user.ID, PostID: post.ID}
		if err := l.db.Create(&like).Error; err != nil {
			utils.Fail(ctx, http.StatusInternalServerError, "Failed to update like")
			return
		}
		liked = true
	default:
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to update like")
		return
	}

	var count int64
	l.db.Model(&models.Like{}).Where("post_id = ?", post.ID).Count(&count)

	utils.InvalidatePostCaches()

	message := "Post unliked"
	if liked {
		message = "Post liked"
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":    message,
		"isLiked":    liked,
		"likesCount": count,
	})
}

// ListPostLikes returns the users who liked a post, newest first.
func (l *LikeController) ListPostLikes(ctx *gin.Context) {
	w := parsePagination(ctx.Query("page"), ctx.Query("limit"), 20)

	var post models.Post
	if err := l.db.First(&post, ctx.Param("postId")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Fail(ctx, http.StatusNotFound, "Post not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load post")
		return
	}

	base := l.db.Model(&models.Like{}).Where("post_id = ?", post.ID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to list likes")
		return
	}

	var likes []models.Like
	if err := base.Session(&gorm.Session{}).
		Preload("User").
		Order("created_at DESC").
		Offset(w.Offset).Limit(w.Limit).
		Find(&likes).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to list likes")
		return
	}

	users := make([]models.PublicUser, 0, len(likes))
	for _, like := range likes {
		pub := like.User.Public()
		pub.Role = ""
		users = append(users, pub)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"users":      users,
		"pagination": newListPagination(w, total),
	})
}

// CheckPostLike reports whether the authenticated user liked the post.
func (l *LikeController) CheckPostLike(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var count int64
	if err := l.db.Model(&models.Like{}).
		Where("user_id = ? AND post_id = ?", user.ID, ctx.Param("postId")).
		Count(&count).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to check like")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"isLiked": count > 0})
}
