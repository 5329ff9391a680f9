package booking

import (
	"time"

	"tour-booking/models/user"
)

// Booking represents a confirmed-or-pending reservation of seats on a tour
// departure. Bookings are never hard-deleted; cancellation keeps the row for
// audit.
type Booking struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	// Code is the globally unique, immutable booking reference used as the
	// gateway order reference (vnp_TxnRef).
	Code string `gorm:"type:varchar(32);not null;unique" json:"code"`

	UserID uint      `gorm:"not null;index" json:"user_id"`
	User   user.User `gorm:"foreignKey:UserID" json:"user"`

	TourID      uint  `gorm:"not null;index" json:"tour_id"`
	DepartureID *uint `gorm:"index" json:"departure_id,omitempty"`
	GuideID     *uint `gorm:"index" json:"guide_id,omitempty"`

	TourDate    time.Time `gorm:"not null;index" json:"tour_date"`
	GuestCount  int       `gorm:"not null" json:"guest_count"`
	TotalAmount float64   `gorm:"type:decimal(14,2);not null" json:"total_amount"`

	Status        BookingStatus `gorm:"type:varchar(20);not null;default:pending;index" json:"status"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);not null;default:pending" json:"payment_status"`
	PaymentMethod string        `gorm:"type:varchar(50)" json:"payment_method"`
	TransactionID *string       `gorm:"type:varchar(100);index" json:"transaction_id,omitempty"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`

	// Customer contact snapshot taken at booking time; later profile edits do
	// not rewrite history.
	ContactName  string  `gorm:"type:varchar(255);not null" json:"contact_name"`
	ContactPhone string  `gorm:"type:varchar(20);not null" json:"contact_phone"`
	ContactEmail *string `gorm:"type:varchar(255)" json:"contact_email,omitempty"`

	Guests []BookingGuest `gorm:"foreignKey:BookingID" json:"guests"`

	// PointsRedeemed is kept so cancellation can write the compensating
	// ledger entry.
	PointsRedeemed int `gorm:"not null;default:0" json:"points_redeemed"`

	CancellationReason *string    `gorm:"type:text" json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	RefundAmount       *float64   `gorm:"type:decimal(14,2)" json:"refund_amount,omitempty"`

	CreatedBy string     `gorm:"type:varchar(255);not null" json:"created_by"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedBy string     `gorm:"type:varchar(255)" json:"updated_by,omitempty"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt *time.Time `gorm:"index" json:"deleted_at,omitempty"`
}
