package loyalty

import (
	"fmt"
	"math"
	"time"

	"tour-booking/apperrors"
	"tour-booking/config"
	"tour-booking/logger"
	loyaltyModel "tour-booking/models/loyalty"
	userModel "tour-booking/models/user"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TierChangedFunc is invoked after a ledger write moves a user to a new tier.
// Notification delivery happens outside this engine.
type TierChangedFunc func(userID uint, from, to userModel.LoyaltyTier)

// Service is the append-only points ledger and tier engine. Every write
// locks the user row, appends a ledger entry, recomputes the balance as the
// sum over the ledger and re-derives the tier. User.PointsBalance is a cache
// of that fold, never independently mutated.
type Service struct {
	DB          *gorm.DB
	Config      *config.LoyaltyConfig
	TierChanged TierChangedFunc
}

// NewLoyaltyService creates a new loyalty service
func NewLoyaltyService(db *gorm.DB, cfg *config.LoyaltyConfig) *Service {
	return &Service{
		DB:     db,
		Config: cfg,
		TierChanged: func(userID uint, from, to userModel.LoyaltyTier) {
			logger.Info(fmt.Sprintf("User %d tier changed: %s -> %s", userID, from, to))
		},
	}
}

// AddPoints appends an earned entry for an amount actually paid and
// recomputes the tier. Returns the points added.
func (s *Service) AddPoints(tx *gorm.DB, userID uint, amountPaid float64, description string, bookingCode *string) (int, error) {
	if amountPaid < 0 {
		return 0, errors.Wrap(apperrors.ErrValidation, "amount paid cannot be negative")
	}
	points := int(math.Floor(amountPaid * s.Config.EarnRate))
	if points == 0 {
		return 0, nil
	}

	entry := loyaltyModel.PointsHistory{
		UserID:          userID,
		TransactionType: loyaltyModel.TransactionEarned,
		Points:          points,
		Description:     description,
		BookingCode:     bookingCode,
	}
	if err := s.appendEntry(tx, &entry); err != nil {
		return 0, err
	}
	return points, nil
}

// RedeemPoints appends a negative redeemed entry, failing if the user's
// balance cannot cover it. The ledger is left untouched on failure.
func (s *Service) RedeemPoints(tx *gorm.DB, userID uint, points int, description string, bookingCode *string) error {
	if points <= 0 {
		return errors.Wrap(apperrors.ErrValidation, "points to redeem must be positive")
	}
	entry := loyaltyModel.PointsHistory{
		UserID:          userID,
		TransactionType: loyaltyModel.TransactionRedeemed,
		Points:          -points,
		Description:     description,
		BookingCode:     bookingCode,
	}
	return s.appendEntry(tx, &entry)
}

// RestorePoints writes the compensating entry that reverses a redemption
// when its booking is cancelled.
func (s *Service) RestorePoints(tx *gorm.DB, userID uint, points int, bookingCode string) error {
	if points <= 0 {
		return errors.Wrap(apperrors.ErrValidation, "points to restore must be positive")
	}
	entry := loyaltyModel.PointsHistory{
		UserID:          userID,
		TransactionType: loyaltyModel.TransactionAdminAdjusted,
		Points:          points,
		Description:     fmt.Sprintf("Points restored from cancelled booking %s", bookingCode),
		BookingCode:     &bookingCode,
	}
	return s.appendEntry(tx, &entry)
}

// AdminAdjustPoints appends a signed manual adjustment with the actor and
// reason retained for audit. Points may be negative.
func (s *Service) AdminAdjustPoints(userID uint, points int, reason, adminEmail string) error {
	if points == 0 {
		return errors.Wrap(apperrors.ErrValidation, "adjustment cannot be zero")
	}
	if reason == "" || adminEmail == "" {
		return errors.Wrap(apperrors.ErrValidation, "reason and admin email are required")
	}
	entry := loyaltyModel.PointsHistory{
		UserID:          userID,
		TransactionType: loyaltyModel.TransactionAdminAdjusted,
		Points:          points,
		Description:     fmt.Sprintf("Manual adjustment by %s", adminEmail),
		AdminEmail:      &adminEmail,
		Reason:          &reason,
	}
	return s.appendEntry(nil, &entry)
}

// CalculateMaxRedeemablePoints caps redemption so the points discount never
// exceeds the configured fraction of the booking amount.
func (s *Service) CalculateMaxRedeemablePoints(bookingAmount float64) int {
	if bookingAmount <= 0 {
		return 0
	}
	return int(math.Floor(bookingAmount * s.Config.MaxRedeemPercent / s.Config.PointValue))
}

// ConvertPointsToMoney validates a redemption against both the user's
// balance and the per-booking ceiling, returning the discount amount.
// Passing a transaction reads the balance inside it.
func (s *Service) ConvertPointsToMoney(tx *gorm.DB, userID uint, pointsToRedeem int, bookingAmount float64) (float64, error) {
	if pointsToRedeem <= 0 {
		return 0, errors.Wrap(apperrors.ErrValidation, "points to redeem must be positive")
	}

	balance, err := s.Balance(tx, userID)
	if err != nil {
		return 0, err
	}
	if pointsToRedeem > balance {
		return 0, errors.Wrapf(apperrors.ErrInsufficientPoints, "requested %d, balance %d", pointsToRedeem, balance)
	}

	maxRedeemable := s.CalculateMaxRedeemablePoints(bookingAmount)
	if pointsToRedeem > maxRedeemable {
		return 0, errors.Wrapf(apperrors.ErrValidation,
			"requested %d points exceeds redemption ceiling %d for this booking", pointsToRedeem, maxRedeemable)
	}

	return float64(pointsToRedeem) * s.Config.PointValue, nil
}

// CalculateDiscount applies the tier discount table to an amount.
func (s *Service) CalculateDiscount(amount float64, tier userModel.LoyaltyTier) float64 {
	return amount * s.DiscountPercent(tier)
}

// DiscountPercent returns the configured discount fraction for a tier.
func (s *Service) DiscountPercent(tier userModel.LoyaltyTier) float64 {
	switch tier {
	case userModel.TierGold:
		return s.Config.GoldDiscount
	case userModel.TierSilver:
		return s.Config.SilverDiscount
	default:
		return s.Config.BronzeDiscount
	}
}

// TierForBalance derives the tier from the ascending threshold table: the
// highest threshold not exceeding the balance wins.
func (s *Service) TierForBalance(balance int) userModel.LoyaltyTier {
	switch {
	case balance >= s.Config.GoldThreshold:
		return userModel.TierGold
	case balance >= s.Config.SilverThreshold:
		return userModel.TierSilver
	default:
		return userModel.TierBronze
	}
}

// Balance folds the ledger for a user. Passing a transaction reads inside it.
func (s *Service) Balance(tx *gorm.DB, userID uint) (int, error) {
	if tx == nil {
		tx = s.DB
	}
	var sum *int
	err := tx.Model(&loyaltyModel.PointsHistory{}).
		Select("SUM(points)").
		Where("user_id = ?", userID).
		Scan(&sum).Error
	if err != nil {
		return 0, errors.Wrap(err, "sum points ledger")
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}

// History returns a user's ledger entries, newest first.
func (s *Service) History(userID uint, limit int) ([]loyaltyModel.PointsHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []loyaltyModel.PointsHistory
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, errors.Wrap(err, "load points history")
	}
	return entries, nil
}

// ExpirePoints writes expired entries zeroing out the balances of users with
// no ledger activity since the cutoff. Admin sweep, chunk-committed per user.
func (s *Service) ExpirePoints(cutoff time.Time, adminEmail string) (int, error) {
	var userIDs []uint
	err := s.DB.Model(&loyaltyModel.PointsHistory{}).
		Select("user_id").
		Group("user_id").
		Having("MAX(created_at) < ? AND SUM(points) > 0", cutoff).
		Scan(&userIDs).Error
	if err != nil {
		return 0, errors.Wrap(err, "find stale balances")
	}

	expired := 0
	for _, uid := range userIDs {
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			balance, err := s.lockedBalance(tx, uid)
			if err != nil {
				return err
			}
			if balance <= 0 {
				return nil
			}
			entry := loyaltyModel.PointsHistory{
				UserID:          uid,
				TransactionType: loyaltyModel.TransactionExpired,
				Points:          -balance,
				Description:     fmt.Sprintf("Points expired (no activity since %s)", cutoff.Format("2006-01-02")),
				AdminEmail:      &adminEmail,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return errors.Wrap(err, "write expiry entry")
			}
			return s.refreshUserState(tx, uid)
		})
		if err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// lockUserRow applies SELECT ... FOR UPDATE where the dialect supports it.
// SQLite serializes writers at the database level, so the clause is skipped
// there.
func lockUserRow(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// appendEntry runs the ledger write critical section: lock the user row,
// re-check the balance for debits, append, recompute balance and tier.
func (s *Service) appendEntry(tx *gorm.DB, entry *loyaltyModel.PointsHistory) error {
	write := func(tx *gorm.DB) error {
		var usr userModel.User
		err := lockUserRow(tx).First(&usr, entry.UserID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrapf(apperrors.ErrNotFound, "user %d", entry.UserID)
			}
			return errors.Wrap(err, "lock user row")
		}

		if entry.Points < 0 {
			balance, err := s.Balance(tx, entry.UserID)
			if err != nil {
				return err
			}
			if balance+entry.Points < 0 {
				return errors.Wrapf(apperrors.ErrInsufficientPoints,
					"debit of %d exceeds balance %d", -entry.Points, balance)
			}
		}

		if err := tx.Create(entry).Error; err != nil {
			return errors.Wrap(err, "append ledger entry")
		}
		return s.refreshUserState(tx, entry.UserID)
	}

	if tx != nil {
		return write(tx)
	}
	return s.DB.Transaction(write)
}

// refreshUserState folds the ledger into the user's cached balance and tier
// and fires the tier-change hook when the tier moved.
func (s *Service) refreshUserState(tx *gorm.DB, userID uint) error {
	balance, err := s.Balance(tx, userID)
	if err != nil {
		return err
	}

	var usr userModel.User
	if err := tx.First(&usr, userID).Error; err != nil {
		return errors.Wrap(err, "reload user")
	}

	newTier := s.TierForBalance(balance)
	updates := map[string]interface{}{
		"points_balance": balance,
		"updated_at":     time.Now(),
	}
	tierChanged := newTier != usr.Tier
	if tierChanged {
		nowTs := time.Now()
		updates["tier"] = newTier
		updates["last_tier_update_at"] = &nowTs
	}

	if err := tx.Model(&userModel.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return errors.Wrap(err, "update user loyalty state")
	}

	if tierChanged && s.TierChanged != nil {
		s.TierChanged(userID, usr.Tier, newTier)
	}
	return nil
}

// lockedBalance reads the balance under the user row lock.
func (s *Service) lockedBalance(tx *gorm.DB, userID uint) (int, error) {
	var usr userModel.User
	err := lockUserRow(tx).First(&usr, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, errors.Wrapf(apperrors.ErrNotFound, "user %d", userID)
		}
		return 0, errors.Wrap(err, "lock user row")
	}
	return s.Balance(tx, userID)
}
