package guide

import (
	"time"
)

// Guide represents a tour guide that can be assigned to bookings.
type Guide struct {
	ID        uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	FullName  string  `gorm:"type:varchar(255);not null" json:"full_name"`
	Phone     string  `gorm:"type:varchar(20);not null" json:"phone"`
	Email     *string `gorm:"type:varchar(255)" json:"email,omitempty"`
	Languages string  `gorm:"type:varchar(255)" json:"languages"`
	// No column default: with one, GORM omits the zero value on insert and a
	// guide could never be stored inactive.
	IsActive bool `json:"is_active"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}
