package booking

import (
	"time"

	bookingModel "tour-booking/models/booking"
)

// GuestInput is one traveller supplied on booking creation.
type GuestInput struct {
	FullName       string     `json:"full_name"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty"`
	Gender         string     `json:"gender"`
	PassportNumber string     `json:"passport_number,omitempty"`
	Nationality    string     `json:"nationality,omitempty"`
	Notes          string     `json:"notes,omitempty"`
}

// BookingCreateRequest creates a booking either against an explicit departure
// or against a tour + date pair resolved by the orchestrator.
type BookingCreateRequest struct {
	TourID        uint         `json:"tour_id"`
	DepartureID   *uint        `json:"departure_id,omitempty"`
	TourDate      *time.Time   `json:"tour_date,omitempty"`
	GuestCount    int          `json:"guest_count"`
	Guests        []GuestInput `json:"guests"`
	GuideID       *uint        `json:"guide_id,omitempty"`
	PointsToUse   int          `json:"points_to_use"`
	PaymentMethod string       `json:"payment_method"`
	ContactName   string       `json:"contact_name"`
	ContactPhone  string       `json:"contact_phone"`
	ContactEmail  string       `json:"contact_email,omitempty"`
}

// UpdateStatusRequest drives a booking status transition.
type UpdateStatusRequest struct {
	Status bookingModel.BookingStatus `json:"status"`
}

// CancelRequest cancels a pending or confirmed booking.
type CancelRequest struct {
	Reason string `json:"reason"`
}

// BookingSummary is the list-view projection of a booking.
type BookingSummary struct {
	ID            uint                       `json:"id"`
	Code          string                     `json:"code"`
	TourID        uint                       `json:"tour_id"`
	TourDate      time.Time                  `json:"tour_date"`
	GuestCount    int                        `json:"guest_count"`
	TotalAmount   float64                    `json:"total_amount"`
	Status        bookingModel.BookingStatus `json:"status"`
	PaymentStatus bookingModel.PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time                  `json:"created_at"`
}

// BookingDetail embeds the summary and adds the rest; composition, not
// inheritance.
type BookingDetail struct {
	BookingSummary
	DepartureID        *uint                       `json:"departure_id,omitempty"`
	GuideID            *uint                       `json:"guide_id,omitempty"`
	PaymentMethod      string                      `json:"payment_method"`
	TransactionID      *string                     `json:"transaction_id,omitempty"`
	PaidAt             *time.Time                  `json:"paid_at,omitempty"`
	ContactName        string                      `json:"contact_name"`
	ContactPhone       string                      `json:"contact_phone"`
	ContactEmail       *string                     `json:"contact_email,omitempty"`
	Guests             []bookingModel.BookingGuest `json:"guests"`
	PointsRedeemed     int                         `json:"points_redeemed"`
	CancellationReason *string                     `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time                  `json:"cancelled_at,omitempty"`
	RefundAmount       *float64                    `json:"refund_amount,omitempty"`
}

// NewBookingSummary builds the summary projection from a model row.
func NewBookingSummary(b *bookingModel.Booking) BookingSummary {
	return BookingSummary{
		ID:            b.ID,
		Code:          b.Code,
		TourID:        b.TourID,
		TourDate:      b.TourDate,
		GuestCount:    b.GuestCount,
		TotalAmount:   b.TotalAmount,
		Status:        b.Status,
		PaymentStatus: b.PaymentStatus,
		CreatedAt:     b.CreatedAt,
	}
}

// NewBookingDetail builds the detail projection from a model row.
func NewBookingDetail(b *bookingModel.Booking) BookingDetail {
	return BookingDetail{
		BookingSummary:     NewBookingSummary(b),
		DepartureID:        b.DepartureID,
		GuideID:            b.GuideID,
		PaymentMethod:      b.PaymentMethod,
		TransactionID:      b.TransactionID,
		PaidAt:             b.PaidAt,
		ContactName:        b.ContactName,
		ContactPhone:       b.ContactPhone,
		ContactEmail:       b.ContactEmail,
		Guests:             b.Guests,
		PointsRedeemed:     b.PointsRedeemed,
		CancellationReason: b.CancellationReason,
		CancelledAt:        b.CancelledAt,
		RefundAmount:       b.RefundAmount,
	}
}
