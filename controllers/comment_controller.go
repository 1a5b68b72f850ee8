package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/plumeblog/plume/middleware"
	"github.com/plumeblog/plume/models"
	"github.com/plumeblog/plume/utils"
)

// CommentController manages the nested comment tree under posts.
type CommentController struct {
	db *gorm.DB
}

// NewCommentController creates a CommentController.
func NewCommentController(db *gorm.DB) *CommentController {
	return &CommentController{db: db}
}

// commentView is the response shape for one comment, replies nested one
// level deep.
type commentView struct {
	models.Comment
	User       *models.PublicUser `json:"user,omitempty"`
	LikesCount int                `json:"likesCount"`
	IsLiked    bool               `json:"isLiked"`
	Replies    []commentView      `json:"replies,omitempty"`
}

func newCommentView(comment models.Comment, viewer uint) commentView {
	view := commentView{
		Comment:    comment,
		LikesCount: len(comment.Likes),
		IsLiked:    comment.LikedBy(viewer),
	}
	pub := comment.User.Public()
	pub.Role = ""
	if pub.ID != 0 {
		view.User = &pub
	}
	return view
}

// CreateComment adds a comment or reply to an active post. Replying requires
// the parent to exist on the same post. The post author is notified unless
// they commented themselves.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var req struct {
		PostID          uint   `json:"postId" binding:"required"`
		Content         string `json:"content" binding:"required"`
		ParentCommentID *uint  `json:"parentCommentId"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "Post id and comment content are required")
		return
	}
	content := strings.TrimSpace(utils.Sanitize(req.Content))
	if content == "" {
		utils.Fail(ctx, http.StatusBadRequest, "Comment content is required")
		return
	}
	if len(content) > 500 {
		utils.Fail(ctx, http.StatusBadRequest, "Comment cannot exceed 500 characters")
		return
	}

	var post models.Post
	if err := c.db.Preload("User").First(&post, req.PostID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Fail(ctx, http.StatusNotFound, "Post not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load post")
		return
	}
	if !post.IsActive && post.UserID != user.ID && !user.IsAdmin() {
		utils.Fail(ctx, http.StatusNotFound, "Post not found")
		return
	}

	if req.ParentCommentID != nil {
		var parent models.Comment
		if err := c.db.First(&parent, *req.ParentCommentID).Error; err != nil {
			utils.Fail(ctx, http.StatusBadRequest, "Parent comment not found")
			return
		}
		if parent.PostID != post.ID {
			utils.Fail(ctx, http.StatusBadRequest, "Parent comment does not belong to this post")
			return
		}
	}

	comment := models.Comment{
		Content:         content,
		UserID:          user.ID,
		PostID:          post.ID,
		ParentCommentID: req.ParentCommentID,
	}
	if err := c.db.Create(&comment).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to create comment")
		return
	}

	if post.UserID != user.ID {
		commenter := user.FirstName + " " + user.LastName
		logMailError("new comment", sendNewCommentEmail(post.User.Email, post.User.FirstName, commenter, post.Title, content))
	}

	comment.User = *user
	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Comment added successfully",
		"comment": newCommentView(comment, user.ID),
	})
}

// ListPostComments returns top-level comments newest first with their replies
// oldest first, plus the viewer's like flags.
func (c *CommentController) ListPostComments(ctx *gin.Context) {
	w := parsePagination(ctx.Query("page"), ctx.Query("limit"), 10)
	viewer := viewerID(ctx)
	postID := ctx.Param("postId")

	var post models.Post
	if err := c.db.First(&post, postID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Fail(ctx, http.StatusNotFound, "Post not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load post")
		return
	}

	base := c.db.Model(&models.Comment{}).
		Where("post_id = ? AND parent_comment_id IS NULL", post.ID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to list comments")
		return
	}

	var parents []models.Comment
	if err := base.Session(&gorm.Session{}).
		Preload("User").
		Order("created_at DESC").
		Offset(w.Offset).Limit(w.Limit).
		Find(&parents).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to list comments")
		return
	}

	parentIDs := make([]uint, len(parents))
	for i := range parents {
		parentIDs[i] = parents[i].ID
	}
	replies := map[uint][]models.Comment{}
	if len(parentIDs) > 0 {
		var all []models.Comment
		if err := c.db.
			Preload("User").
			Where("parent_comment_id IN ?", parentIDs).
			Order("created_at ASC").
			Find(&all).Error; err != nil {
			utils.Fail(ctx, http.StatusInternalServerError, "Failed to list comments")
			return
		}
		for _, r := range all {
			replies[*r.ParentCommentID] = append(replies[*r.ParentCommentID], r)
		}
	}

	views := make([]commentView, len(parents))
	for i, parent := range parents {
		view := newCommentView(parent, viewer)
		for _, r := range replies[parent.ID] {
			view.Replies = append(view.Replies, newCommentView(r, viewer))
		}
		views[i] = view
	}

	ctx.JSON(http.StatusOK, gin.H{
		"comments":   views,
		"pagination": newListPagination(w, total),
	})
}

// UpdateComment lets the author edit their comment; the edit is flagged with
// a timestamp.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "Comment content is required")
		return
	}
	content := strings.TrimSpace(utils.Sanitize(req.Content))
	if content == "" {
		utils.Fail(ctx, http.StatusBadRequest, "Comment content is required")
		return
	}
	if len(content) > 500 {
		utils.Fail(ctx, http.StatusBadRequest, "Comment cannot exceed 500 characters")
		return
	}

	var comment models.Comment
	if err := c.db.Preload("User").First(&comment, ctx.Param("commentId")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Fail(ctx, http.StatusNotFound, "Comment not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load comment")
		return
	}
	if comment.UserID != user.ID {
		utils.Fail(ctx, http.StatusForbidden, "Not authorized to edit this comment")
		return
	}

	now := time.Now()
	comment.Content = content
	comment.IsEdited = true
	comment.EditedAt = &now
	if err := c.db.Save(&comment).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to update comment")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Comment updated successfully",
		"comment": newCommentView(comment, user.ID),
	})
}

// DeleteComment removes a comment and its replies in one transaction. Only
// the author may delete.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var comment models.Comment
	if err := c.db.First(&comment, ctx.Param("commentId")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Fail(ctx, http.StatusNotFound, "Comment not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load comment")
		return
	}
	if comment.UserID != user.ID {
		utils.Fail(ctx, http.StatusForbidden, "Not authorized to delete this comment")
		return
	}

	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parent_comment_id = ?", comment.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&comment).Error
	})
	if err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to delete comment")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// ToggleCommentLike flips the viewer's like on a comment.
func (c *CommentController) ToggleCommentLike(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	var comment models.Comment
	if err := c.db.Preload("User").First(&comment, ctx.Param("commentId")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Fail(ctx, http.StatusNotFound, "Comment not found")
			return
		}
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to load comment")
		return
	}

	liked := comment.ToggleLike(user.ID)
	if err := c.db.Model(&comment).Update("likes", comment.Likes).Error; err != nil {
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to update comment")
		return
	}

	message := "Comment unliked"
	if liked {
		message = "Comment liked"
	}
	ctx.JSON(http.StatusOK, gin.H{
		"message":    message,
		"isLiked":    liked,
		"likesCount": len(comment.Likes),
	})
}
