package controllers

import (
	"gorm.io/gorm"

	"github.com/plumeblog/plume/models"
)

// Engagement enrichment for post payloads. Counts and viewer flags are read
// with batched GROUP BY queries over the page of post ids rather than one
// round-trip per post; the result is eventually consistent with concurrent
// writes, which is acceptable for like/comment counters.

// categoryView is the category projection embedded in post payloads. Inactive
// categories are hidden (null) from post responses but stay attached in
// storage.
type categoryView struct {
	ID       uint   `json:"id"`
	Title    string `json:"title"`
	IsActive bool   `json:"isActive"`
}

// postView is the response shape for a single post: the stored fields plus
// author, category, and engagement data.
type postView struct {
	models.Post
	User          *models.PublicUser `json:"user,omitempty"`
	Category      *categoryView      `json:"category"`
	LikesCount    int64              `json:"likesCount"`
	CommentsCount int64              `json:"commentsCount"`
	IsLiked       bool               `json:"isLiked"`
	HasCommented  bool               `json:"hasCommented"`
}

type postStats struct {
	likes        int64
	comments     int64
	isLiked      bool
	hasCommented bool
}

type countRow struct {
	PostID uint
	N      int64
}

// loadPostStats aggregates like/comment counts and viewer flags for a page of
// posts. viewerID zero means anonymous: flags stay false.
func loadPostStats(db *gorm.DB, postIDs []uint, viewerID uint) (map[uint]postStats, error) {
	stats := make(map[uint]postStats, len(postIDs))
	if len(postIDs) == 0 {
		return stats, nil
	}

	var likeCounts []countRow
	if err := db.Model(&models.Like{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&likeCounts).Error; err != nil {
		return nil, err
	}
	for _, row := range likeCounts {
		s := stats[row.PostID]
		s.likes = row.N
		stats[row.PostID] = s
	}

	var commentCounts []countRow
	if err := db.Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&commentCounts).Error; err != nil {
		return nil, err
	}
	for _, row := range commentCounts {
		s := stats[row.PostID]
		s.comments = row.N
		stats[row.PostID] = s
	}

	if viewerID == 0 {
		return stats, nil
	}

	var likedIDs []uint
	if err := db.Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", viewerID, postIDs).
		Pluck("post_id", &likedIDs).Error; err != nil {
		return nil, err
	}
	for _, id := range likedIDs {
		s := stats[id]
		s.isLiked = true
		stats[id] = s
	}

	var commentedIDs []uint
	if err := db.Model(&models.Comment{}).
		Distinct("post_id").
		Where("user_id = ? AND post_id IN ?", viewerID, postIDs).
		Pluck("post_id", &commentedIDs).Error; err != nil {
		return nil, err
	}
	for _, id := range commentedIDs {
		s := stats[id]
		s.hasCommented = true
		stats[id] = s
	}

	return stats, nil
}

// buildPostViews enriches preloaded posts with engagement data for the viewer.
func buildPostViews(db *gorm.DB, posts []models.Post, viewerID uint) ([]postView, error) {
	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	stats, err := loadPostStats(db, ids, viewerID)
	if err != nil {
		return nil, err
	}

	views := make([]postView, len(posts))
	for i := range posts {
		views[i] = newPostView(posts[i], stats[posts[i].ID])
	}
	return views, nil
}

func newPostView(post models.Post, s postStats) postView {
	view := postView{
		Post:          post,
		LikesCount:    s.likes,
		CommentsCount: s.comments,
		IsLiked:       s.isLiked,
		HasCommented:  s.hasCommented,
	}
	pub := post.User.Public()
	pub.Role = ""
	if pub.ID != 0 {
		view.User = &pub
	}
	if post.Category != nil && post.Category.IsActive {
		view.Category = &categoryView{
			ID:       post.Category.ID,
			Title:    post.Category.Title,
			IsActive: post.Category.IsActive,
		}
	}
	return view
}
