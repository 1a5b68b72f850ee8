package models

import "time"

// Like marks that a user liked a post. Row existence is the liked signal;
// the composite unique index keeps one row per (user, post) pair even when
// concurrent toggles race.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_likes_user_post;not null" json:"userId"`
	PostID    uint      `gorm:"uniqueIndex:idx_likes_user_post;index;not null" json:"postId"`
	CreatedAt time.Time `json:"createdAt"`

	User User `json:"-"`
}
