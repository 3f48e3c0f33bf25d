package domain

import "time"

const (
	EventStatusUpcoming  = "upcoming"
	EventStatusOngoing   = "ongoing"
	EventStatusCompleted = "completed"
	EventStatusCancelled = "cancelled"
)

type Event struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Title         string     `gorm:"size:200;not null" json:"title"`
	Slug          string     `gorm:"size:220;not null;uniqueIndex" json:"slug"`
	Description   string     `gorm:"type:text;not null" json:"description"`
	StartDate     time.Time  `gorm:"not null;index" json:"start_date"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Location      string     `gorm:"size:255;not null" json:"location"`
	Image         string     `gorm:"size:1024" json:"image,omitempty"`
	ImageKey      string     `gorm:"size:512" json:"image_key,omitempty"`
	Capacity      *int       `json:"capacity,omitempty"`
	Registrations int        `gorm:"not null;default:0" json:"registrations"`
	Status        string     `gorm:"size:16;not null;default:upcoming;index" json:"status"`
	OrganizerID   uint       `gorm:"not null;index" json:"organizer_id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (e *Event) AcceptsRegistrations() bool {
	return e.Status == EventStatusUpcoming || e.Status == EventStatusOngoing
}

func (e *Event) IsFull() bool {
	return e.Capacity != nil && e.Registrations >= *e.Capacity
}

type EventRegistration struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	EventID      uint      `gorm:"not null;uniqueIndex:idx_event_registrations_event_email,priority:1" json:"event_id"`
	UserEmail    string    `gorm:"size:255;not null;uniqueIndex:idx_event_registrations_event_email,priority:2;index" json:"user_email"`
	UserName     string    `gorm:"size:100;not null" json:"user_name"`
	Phone        string    `gorm:"size:32" json:"phone,omitempty"`
	RegisteredAt time.Time `gorm:"not null" json:"registered_at"`
}

func IsValidEventStatus(status string) bool {
	switch status {
	case EventStatusUpcoming, EventStatusOngoing, EventStatusCompleted, EventStatusCancelled:
		return true
	default:
		return false
	}
}
