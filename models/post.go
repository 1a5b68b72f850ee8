package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is a blog entry. IsActive gates public visibility: posts by non-admin
// authors start inactive and become visible after moderation.
type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Slug       string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Body       string    `gorm:"type:text;not null" json:"body"`
	Img        string    `gorm:"size:512" json:"img"`
	Images     []string  `gorm:"serializer:json" json:"images"`
	UserID     uint      `gorm:"index;not null" json:"userId"`
	CategoryID uint      `gorm:"index;not null" json:"categoryId"`
	IsPinned   bool      `gorm:"default:false" json:"isPinned"`
	IsActive   bool      `gorm:"default:false" json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`

	User     User      `json:"-"`
	Category *Category `json:"-"`
}

var slugStrip = regexp.MustCompile(`[^a-z0-9\s-]`)
var slugSpaces = regexp.MustCompile(`\s+`)
var slugHyphens = regexp.MustCompile(`-+`)

// Slugify derives the base slug for a title: lowercase, strip everything
// outside [a-z0-9\s-], whitespace runs become a single hyphen, repeated
// hyphens collapse, leading/trailing hyphens are trimmed.
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// EnsureSlug computes a collision-free slug for the post and assigns it.
// Collisions resolve with -1, -2, ... suffixes in creation order; the post's
// own row is excluded so a title-preserving update keeps its slug. A title
// that strips down to nothing falls back to a uuid-derived slug. The unique
// index on posts.slug backs this up under concurrent creation.
func (p *Post) EnsureSlug(tx *gorm.DB) error {
	base := Slugify(p.Title)
	if base == "" {
		base = "post-" + uuid.NewString()[:8]
	}
	slug := base
	for counter := 1; ; counter++ {
		var count int64
		q := tx.Model(&Post{}).Where("slug = ?", slug)
		if p.ID != 0 {
			q = q.Where("id <> ?", p.ID)
		}
		if err := q.Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			break
		}
		slug = base + "-" + strconv.Itoa(counter)
	}
	p.Slug = slug
	return nil
}
