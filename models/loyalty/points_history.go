package loyalty

import (
	"time"
)

// TransactionType classifies a points ledger entry.
type TransactionType string

const (
	TransactionEarned        TransactionType = "earned"
	TransactionRedeemed      TransactionType = "redeemed"
	TransactionExpired       TransactionType = "expired"
	TransactionAdminAdjusted TransactionType = "admin_adjusted"
)

func (tt TransactionType) String() string {
	return string(tt)
}

func (tt TransactionType) IsValid() bool {
	switch tt {
	case TransactionEarned, TransactionRedeemed, TransactionExpired, TransactionAdminAdjusted:
		return true
	default:
		return false
	}
}

// PointsHistory is one append-only ledger entry. Rows are immutable once
// written; a user's balance is the sum of their Points column. Earned entries
// are positive, redeemed and expired entries negative, admin adjustments may
// be either.
type PointsHistory struct {
	ID     uint `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID uint `gorm:"not null;index" json:"user_id"`

	TransactionType TransactionType `gorm:"type:varchar(20);not null" json:"transaction_type"`
	Points          int             `gorm:"not null" json:"points"`
	Description     string          `gorm:"type:varchar(500);not null" json:"description"`
	BookingCode     *string         `gorm:"type:varchar(32);index" json:"booking_code,omitempty"`

	// Actor and reason are retained on admin adjustments for audit.
	AdminEmail *string `gorm:"type:varchar(255)" json:"admin_email,omitempty"`
	Reason     *string `gorm:"type:text" json:"reason,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName sets the table name for the PointsHistory model
func (PointsHistory) TableName() string {
	return "points_histories"
}
