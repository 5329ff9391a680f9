package tour

import (
	"time"
)

// DepartureStatus is the read-side status of a departure. Full and Completed
// are derived on read; only Closed is an authoritative stored flag.
type DepartureStatus string

const (
	DepartureStatusAvailable DepartureStatus = "available"
	DepartureStatusFull      DepartureStatus = "full"
	DepartureStatusClosed    DepartureStatus = "closed"
	DepartureStatusCompleted DepartureStatus = "completed"
)

func (ds DepartureStatus) String() string {
	return string(ds)
}

func (ds DepartureStatus) IsValid() bool {
	switch ds {
	case DepartureStatusAvailable, DepartureStatusFull, DepartureStatusClosed, DepartureStatusCompleted:
		return true
	default:
		return false
	}
}

// RecurrencePattern drives bulk departure generation.
type RecurrencePattern string

const (
	PatternDaily    RecurrencePattern = "daily"
	PatternWeekly   RecurrencePattern = "weekly"
	PatternBiWeekly RecurrencePattern = "biweekly"
	PatternMonthly  RecurrencePattern = "monthly"
)

func (p RecurrencePattern) IsValid() bool {
	switch p {
	case PatternDaily, PatternWeekly, PatternBiWeekly, PatternMonthly:
		return true
	default:
		return false
	}
}

// TourDeparture is one scheduled occurrence of a tour with its own capacity.
// BookedGuests is mutated only by the capacity service, always through a
// guarded conditional update so bookedGuests <= maxGuests holds under
// concurrent writers.
type TourDeparture struct {
	ID   uint `gorm:"primaryKey;autoIncrement" json:"id"`
	Tour Tour `gorm:"foreignKey:TourID" json:"tour"`

	TourID        uint      `gorm:"not null;index;uniqueIndex:idx_departures_tour_date" json:"tour_id"`
	DepartureDate time.Time `gorm:"not null;uniqueIndex:idx_departures_tour_date" json:"departure_date"`
	EndDate       time.Time `gorm:"not null" json:"end_date"`

	MaxGuests    int      `gorm:"not null" json:"max_guests"`
	BookedGuests int      `gorm:"not null;default:0" json:"booked_guests"`
	SpecialPrice *float64 `gorm:"type:decimal(14,2)" json:"special_price,omitempty"`
	IsClosed     bool     `gorm:"default:false" json:"is_closed"`

	DefaultGuideID *uint `gorm:"index" json:"default_guide_id,omitempty"`

	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName sets the table name for the TourDeparture model
func (TourDeparture) TableName() string {
	return "tour_departures"
}

// UnitPrice returns the per-guest price for this departure, preferring the
// special price over the tour's base price.
func (d *TourDeparture) UnitPrice() float64 {
	if d.SpecialPrice != nil {
		return *d.SpecialPrice
	}
	return d.Tour.Price
}

// RemainingSlots returns how many guests can still be booked.
func (d *TourDeparture) RemainingSlots() int {
	remaining := d.MaxGuests - d.BookedGuests
	if remaining < 0 {
		return 0
	}
	return remaining
}
