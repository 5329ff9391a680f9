package departure

import (
	"time"

	tourModel "tour-booking/models/tour"
)

// BulkGenerateRequest produces the departure sequence implied by the pattern
// within [StartDate, EndDate].
type BulkGenerateRequest struct {
	TourID            uint                        `json:"tour_id"`
	StartDate         time.Time                   `json:"start_date"`
	EndDate           time.Time                   `json:"end_date"`
	Pattern           tourModel.RecurrencePattern `json:"pattern"`
	DaysOfWeek        []time.Weekday              `json:"days_of_week,omitempty"`
	MaxGuestsOverride *int                        `json:"max_guests_override,omitempty"`
	SpecialPrice      *float64                    `json:"special_price,omitempty"`
	DefaultGuideID    *uint                       `json:"default_guide_id,omitempty"`
}

// DepartureView is the availability listing row with the derived status.
type DepartureView struct {
	ID             uint                      `json:"id"`
	TourID         uint                      `json:"tour_id"`
	DepartureDate  time.Time                 `json:"departure_date"`
	EndDate        time.Time                 `json:"end_date"`
	MaxGuests      int                       `json:"max_guests"`
	BookedGuests   int                       `json:"booked_guests"`
	RemainingSlots int                       `json:"remaining_slots"`
	UnitPrice      float64                   `json:"unit_price"`
	Status         tourModel.DepartureStatus `json:"status"`
}
