package booking

import (
	"time"
)

// BookingGuest is one traveller on a booking. A guest row belongs to exactly
// one booking.
type BookingGuest struct {
	ID        uint `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID uint `gorm:"not null;index" json:"booking_id"`

	FullName       string     `gorm:"type:varchar(255);not null" json:"full_name"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	Gender         string     `gorm:"type:varchar(20)" json:"gender"`
	PassportNumber *string    `gorm:"type:varchar(50)" json:"passport_number,omitempty"`
	Nationality    *string    `gorm:"type:varchar(100)" json:"nationality,omitempty"`
	Notes          *string    `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName sets the table name for the BookingGuest model
func (BookingGuest) TableName() string {
	return "booking_guests"
}
