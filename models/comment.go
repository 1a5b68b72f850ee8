package models

import "time"

// Comment is attached to a post, optionally as a reply to a top-level comment.
// Nesting is one level deep: a reply's ParentCommentID always references a
// top-level comment. Likes are an embedded set of user ids, mirroring the
// toggle semantics (present = liked).
type Comment struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Content         string     `gorm:"size:500;not null" json:"content"`
	UserID          uint       `gorm:"index;not null" json:"userId"`
	PostID          uint       `gorm:"index;not null" json:"postId"`
	ParentCommentID *uint      `gorm:"index" json:"parentCommentId"`
	Likes           []uint     `gorm:"serializer:json" json:"-"`
	IsEdited        bool       `gorm:"default:false" json:"isEdited"`
	EditedAt        *time.Time `json:"editedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`

	User User `json:"-"`
}

// LikedBy reports membership of userID in the comment's like set.
func (c *Comment) LikedBy(userID uint) bool {
	for _, id := range c.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// ToggleLike flips the user's membership in the like set and reports the new
// state. The caller persists the comment afterwards.
func (c *Comment) ToggleLike(userID uint) (liked bool) {
	for i, id := range c.Likes {
		if id == userID {
			c.Likes = append(c.Likes[:i], c.Likes[i+1:]...)
			return false
		}
	}
	c.Likes = append(c.Likes, userID)
	return true
}
