package domain

import "time"

const (
	BlogStatusDraft     = "draft"
	BlogStatusPublished = "published"
	BlogStatusArchived  = "archived"
)

type Blog struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	Title            string     `gorm:"size:200;not null" json:"title"`
	Slug             string     `gorm:"size:220;not null;uniqueIndex" json:"slug"`
	Excerpt          string     `gorm:"size:500" json:"excerpt"`
	Content          string     `gorm:"type:text;not null" json:"content"`
	AuthorID         uint       `gorm:"not null;index" json:"author_id"`
	FeaturedImage    string     `gorm:"size:1024" json:"featured_image,omitempty"`
	FeaturedImageKey string     `gorm:"size:512" json:"featured_image_key,omitempty"`
	Tags             StringList `gorm:"type:text" json:"tags"`
	Status           string     `gorm:"size:16;not null;default:draft;index" json:"status"`
	PublishedAt      *time.Time `gorm:"index" json:"published_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// BlogView is the public read model with the author's display name resolved.
type BlogView struct {
	Blog
	AuthorName string `json:"author_name"`
}

func IsValidBlogStatus(status string) bool {
	switch status {
	case BlogStatusDraft, BlogStatusPublished, BlogStatusArchived:
		return true
	default:
		return false
	}
}
