package tour

import (
	"time"

	guideModel "tour-booking/models/guide"
)

// Tour represents a sellable tour product. Catalog CRUD lives outside this
// engine; the orchestrator only reads price, duration and capacity from it.
type Tour struct {
	ID           uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string  `gorm:"type:varchar(255);not null" json:"name"`
	Description  string  `gorm:"type:text" json:"description"`
	Price        float64 `gorm:"type:decimal(14,2);not null" json:"price"`
	DurationDays int     `gorm:"not null;default:1" json:"duration_days"`
	MaxGuests    int     `gorm:"not null" json:"max_guests"`
	IsActive     bool    `json:"is_active"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// TourGuide links a guide to a tour roster. At most one row per tour should
// carry IsDefault.
type TourGuide struct {
	ID      uint `gorm:"primaryKey;autoIncrement" json:"id"`
	TourID  uint `gorm:"not null;index;uniqueIndex:idx_tour_guides_tour_guide" json:"tour_id"`
	GuideID uint `gorm:"not null;index;uniqueIndex:idx_tour_guides_tour_guide" json:"guide_id"`

	Guide guideModel.Guide `gorm:"foreignKey:GuideID" json:"guide"`

	IsDefault bool      `gorm:"default:false" json:"is_default"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the TourGuide model
func (TourGuide) TableName() string {
	return "tour_guides"
}
