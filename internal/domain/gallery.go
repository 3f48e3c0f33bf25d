package domain

import "time"

type GalleryCollection struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Description string         `gorm:"size:1000" json:"description,omitempty"`
	Category    string         `gorm:"size:64;not null;index" json:"category"`
	Featured    bool           `gorm:"not null;default:false" json:"featured"`
	CreatedBy   uint           `gorm:"not null;index" json:"created_by"`
	Images      []GalleryImage `gorm:"foreignKey:CollectionID;constraint:OnDelete:CASCADE" json:"images"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type GalleryImage struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	CollectionID uint   `gorm:"not null;index" json:"-"`
	URL          string `gorm:"size:1024;not null" json:"url"`
	ObjectKey    string `gorm:"size:512" json:"object_key,omitempty"`
	AltText      string `gorm:"size:255;not null" json:"alt_text"`
	Position     int    `gorm:"not null;default:0" json:"position"`
}
