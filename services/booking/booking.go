package booking

import (
	"fmt"
	"strings"
	"time"

	"tour-booking/apperrors"
	"tour-booking/config"
	"tour-booking/logger"
	bookingModel "tour-booking/models/booking"
	tourModel "tour-booking/models/tour"
	userModel "tour-booking/models/user"
	capacityService "tour-booking/services/capacity"
	guideService "tour-booking/services/guide"
	loyaltyService "tour-booking/services/loyalty"
	paymentService "tour-booking/services/payment"
	bookingTypes "tour-booking/types/booking"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const codeGenerationAttempts = 5

// Service is the booking orchestrator. It composes the capacity ledger, the
// loyalty engine, the guide resolver and the payment adapter, and owns the
// booking status and payment state machines. Every multi-step write runs in
// one transaction; either all of it commits or none of it does.
type Service struct {
	DB       *gorm.DB
	Capacity *capacityService.Service
	Loyalty  *loyaltyService.Service
	Guides   *guideService.Service
	Payments *paymentService.Service
	Config   *config.BookingConfig
}

// NewBookingService creates a new booking orchestrator
func NewBookingService(db *gorm.DB, cap *capacityService.Service, loy *loyaltyService.Service,
	gd *guideService.Service, pay *paymentService.Service, cfg *config.BookingConfig) *Service {
	return &Service{
		DB:       db,
		Capacity: cap,
		Loyalty:  loy,
		Guides:   gd,
		Payments: pay,
		Config:   cfg,
	}
}

// CreateBooking reserves capacity, prices the booking, applies tier and
// points discounts, resolves a guide and persists booking + guests + the
// redemption ledger entry as one logical unit.
func (s *Service) CreateBooking(userID uint, actor string, req *bookingTypes.BookingCreateRequest) (*bookingModel.Booking, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	var created *bookingModel.Booking
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var usr userModel.User
		if err := tx.First(&usr, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrapf(apperrors.ErrNotFound, "user %d", userID)
			}
			return errors.Wrap(err, "load user")
		}

		dep, err := s.resolveDeparture(tx, req)
		if err != nil {
			return err
		}

		// Capacity gate first; nothing is persisted if the reservation loses.
		dep, err = s.Capacity.ReserveSlots(tx, dep.ID, req.GuestCount)
		if err != nil {
			return err
		}

		total := dep.UnitPrice() * float64(req.GuestCount)
		total -= s.Loyalty.CalculateDiscount(total, usr.Tier)

		code, err := s.generateCode(tx)
		if err != nil {
			return err
		}

		pointsDiscount := 0.0
		if req.PointsToUse > 0 {
			pointsDiscount, err = s.Loyalty.ConvertPointsToMoney(tx, userID, req.PointsToUse, total)
			if err != nil {
				return err
			}
		}

		guideID := req.GuideID
		if guideID != nil {
			if err := s.Guides.RequireAvailable(tx, dep.TourID, *guideID, dep.DepartureDate); err != nil {
				return err
			}
		} else {
			guideID, err = s.Guides.DefaultGuide(tx, dep.TourID, dep, dep.DepartureDate)
			if err != nil {
				return err
			}
		}

		b := bookingModel.Booking{
			Code:           code,
			UserID:         userID,
			TourID:         dep.TourID,
			DepartureID:    &dep.ID,
			GuideID:        guideID,
			TourDate:       dep.DepartureDate,
			GuestCount:     req.GuestCount,
			TotalAmount:    total - pointsDiscount,
			Status:         bookingModel.BookingStatusPending,
			PaymentStatus:  bookingModel.PaymentStatusPending,
			PaymentMethod:  req.PaymentMethod,
			ContactName:    req.ContactName,
			ContactPhone:   req.ContactPhone,
			PointsRedeemed: req.PointsToUse,
			CreatedBy:      actor,
		}
		if req.ContactEmail != "" {
			email := req.ContactEmail
			b.ContactEmail = &email
		}
		for _, g := range req.Guests {
			guest := bookingModel.BookingGuest{
				FullName:    g.FullName,
				DateOfBirth: g.DateOfBirth,
				Gender:      g.Gender,
			}
			if g.PassportNumber != "" {
				v := g.PassportNumber
				guest.PassportNumber = &v
			}
			if g.Nationality != "" {
				v := g.Nationality
				guest.Nationality = &v
			}
			if g.Notes != "" {
				v := g.Notes
				guest.Notes = &v
			}
			b.Guests = append(b.Guests, guest)
		}

		if err := tx.Create(&b).Error; err != nil {
			return errors.Wrap(err, "persist booking")
		}

		if req.PointsToUse > 0 {
			desc := fmt.Sprintf("Points redeemed on booking %s", code)
			if err := s.Loyalty.RedeemPoints(tx, userID, req.PointsToUse, desc, &code); err != nil {
				return err
			}
		}

		if err := s.appendStatusEvent(tx, b.ID, "", bookingModel.BookingStatusPending, actor); err != nil {
			return err
		}

		created = &b
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Success(fmt.Sprintf("Booking %s created for user %d (%d guests)", created.Code, userID, created.GuestCount))
	return created, nil
}

// UpdateStatus enforces the transition table. Entering Completed awards
// loyalty points for the amount actually paid.
func (s *Service) UpdateStatus(bookingID uint, next bookingModel.BookingStatus, actor string) (*bookingModel.Booking, error) {
	if !next.IsValid() {
		return nil, errors.Wrapf(apperrors.ErrValidation, "unknown status %q", next)
	}
	if next == bookingModel.BookingStatusCancelled {
		return nil, errors.Wrap(apperrors.ErrValidation, "use Cancel for cancellations")
	}

	var updated *bookingModel.Booking
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		b, err := s.lockBooking(tx, bookingID)
		if err != nil {
			return err
		}

		if !b.Status.CanTransitionTo(next) {
			return errors.Wrapf(apperrors.ErrInvalidStateTransition, "%s -> %s", b.Status, next)
		}

		prev := b.Status
		b.Status = next
		b.UpdatedBy = actor
		b.UpdatedAt = time.Now()
		if err := tx.Save(b).Error; err != nil {
			return errors.Wrap(err, "persist status")
		}

		if err := s.appendStatusEvent(tx, b.ID, prev, next, actor); err != nil {
			return err
		}

		// Points are tied to completion, not payment, so a later cancellation
		// cannot double-award.
		if next == bookingModel.BookingStatusCompleted && b.PaymentStatus == bookingModel.PaymentStatusPaid {
			desc := fmt.Sprintf("Points earned on completed booking %s", b.Code)
			if _, err := s.Loyalty.AddPoints(tx, b.UserID, b.TotalAmount, desc, &b.Code); err != nil {
				return err
			}
		}

		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdatePayment applies a payment state change. Paid moves a pending booking
// to confirmed; refund amounts are capped at the amount paid. Points are not
// awarded here.
func (s *Service) UpdatePayment(bookingID uint, status bookingModel.PaymentStatus, txnID string, paidAt *time.Time, refundAmount *float64, actor string) (*bookingModel.Booking, error) {
	if !status.IsValid() {
		return nil, errors.Wrapf(apperrors.ErrValidation, "unknown payment status %q", status)
	}

	var updated *bookingModel.Booking
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		b, err := s.lockBooking(tx, bookingID)
		if err != nil {
			return err
		}

		b.PaymentStatus = status
		if txnID != "" {
			b.TransactionID = &txnID
		}
		b.UpdatedBy = actor
		b.UpdatedAt = time.Now()

		switch status {
		case bookingModel.PaymentStatusPaid:
			if paidAt != nil {
				b.PaidAt = paidAt
			} else {
				nowTs := time.Now()
				b.PaidAt = &nowTs
			}
		case bookingModel.PaymentStatusRefunded:
			if refundAmount != nil {
				capped := *refundAmount
				if capped > b.TotalAmount {
					capped = b.TotalAmount
				}
				b.RefundAmount = &capped
			}
		}

		if err := tx.Save(b).Error; err != nil {
			return errors.Wrap(err, "persist payment state")
		}

		if status == bookingModel.PaymentStatusPaid && b.Status == bookingModel.BookingStatusPending {
			prev := b.Status
			b.Status = bookingModel.BookingStatusConfirmed
			if err := tx.Save(b).Error; err != nil {
				return errors.Wrap(err, "confirm booking")
			}
			if err := s.appendStatusEvent(tx, b.ID, prev, b.Status, actor); err != nil {
				return err
			}
		}

		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ApplyPaymentCallback applies a verified gateway callback idempotently,
// keyed by booking code and gateway transaction id. A repeat callback for a
// settled booking is a logged no-op.
func (s *Service) ApplyPaymentCallback(result *paymentService.CallbackResult) (*bookingModel.Booking, error) {
	b, err := s.GetByCode(result.BookingCode)
	if err != nil {
		return nil, err
	}

	if b.PaymentStatus == bookingModel.PaymentStatusPaid {
		if b.TransactionID != nil && *b.TransactionID == result.TransactionID {
			logger.Info(fmt.Sprintf("Duplicate payment callback for booking %s (txn %s), ignoring", b.Code, result.TransactionID))
			return b, nil
		}
		logger.Warning(fmt.Sprintf("Callback for already-paid booking %s with different txn %s, ignoring", b.Code, result.TransactionID))
		return b, nil
	}

	if !result.Success {
		logger.Info(fmt.Sprintf("Payment failed for booking %s (gateway code %s)", b.Code, result.ResponseCode))
		return s.UpdatePayment(b.ID, bookingModel.PaymentStatusFailed, result.TransactionID, nil, nil, "payment-gateway")
	}

	nowTs := time.Now()
	return s.UpdatePayment(b.ID, bookingModel.PaymentStatusPaid, result.TransactionID, &nowTs, nil, "payment-gateway")
}

// Cancel cancels a pending or confirmed booking: releases the reserved
// slots, restores any redeemed points and records the refund amount per the
// notice-period policy.
func (s *Service) Cancel(bookingID uint, reason, actor string) (*bookingModel.Booking, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errors.Wrap(apperrors.ErrValidation, "cancellation reason is required")
	}

	var cancelled *bookingModel.Booking
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		b, err := s.lockBooking(tx, bookingID)
		if err != nil {
			return err
		}

		if !b.Status.CanBeCancelled() {
			return errors.Wrapf(apperrors.ErrInvalidStateTransition, "%s -> %s", b.Status, bookingModel.BookingStatusCancelled)
		}

		if b.DepartureID != nil {
			if err := s.Capacity.ReleaseSlots(tx, *b.DepartureID, b.GuestCount); err != nil {
				return err
			}
		}

		nowTs := time.Now()
		prev := b.Status
		b.Status = bookingModel.BookingStatusCancelled
		b.CancellationReason = &reason
		b.CancelledAt = &nowTs
		b.UpdatedBy = actor
		b.UpdatedAt = nowTs

		if b.PaymentStatus == bookingModel.PaymentStatusPaid {
			refund := s.refundAmount(b, nowTs)
			b.RefundAmount = &refund
			b.PaymentStatus = bookingModel.PaymentStatusRefunded
		}

		if err := tx.Save(b).Error; err != nil {
			return errors.Wrap(err, "persist cancellation")
		}

		if err := s.appendStatusEvent(tx, b.ID, prev, bookingModel.BookingStatusCancelled, actor); err != nil {
			return err
		}

		if b.PointsRedeemed > 0 {
			if err := s.Loyalty.RestorePoints(tx, b.UserID, b.PointsRedeemed, b.Code); err != nil {
				return err
			}
		}

		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Success(fmt.Sprintf("Booking %s cancelled (%s)", cancelled.Code, reason))
	return cancelled, nil
}

// CreatePaymentURL builds the signed gateway redirect URL for a booking.
func (s *Service) CreatePaymentURL(bookingID uint, clientIP string) (string, error) {
	var b bookingModel.Booking
	if err := s.DB.First(&b, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errors.Wrapf(apperrors.ErrNotFound, "booking %d", bookingID)
		}
		return "", errors.Wrap(err, "load booking")
	}

	if b.Status.IsTerminal() {
		return "", errors.Wrapf(apperrors.ErrInvalidStateTransition, "booking %s is %s", b.Code, b.Status)
	}
	if b.PaymentStatus == bookingModel.PaymentStatusPaid {
		return "", errors.Wrapf(apperrors.ErrValidation, "booking %s is already paid", b.Code)
	}

	return s.Payments.CreatePaymentURL(paymentService.PaymentURLRequest{
		BookingID:   b.ID,
		BookingCode: b.Code,
		Amount:      b.TotalAmount,
		Description: fmt.Sprintf("Payment for tour booking %s", b.Code),
		CreatedAt:   time.Now(),
		ClientIP:    clientIP,
	})
}

// GetByCode loads a booking with its guests by unique code.
func (s *Service) GetByCode(code string) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	err := s.DB.Preload("Guests").Where("code = ?", code).First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(apperrors.ErrNotFound, "booking %s", code)
		}
		return nil, errors.Wrap(err, "load booking by code")
	}
	return &b, nil
}

// ListByUser returns a user's bookings, newest first.
func (s *Service) ListByUser(userID uint, limit int) ([]bookingModel.Booking, error) {
	if limit <= 0 {
		limit = 50
	}
	var bookings []bookingModel.Booking
	err := s.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&bookings).Error
	if err != nil {
		return nil, errors.Wrap(err, "list bookings")
	}
	return bookings, nil
}

// resolveDeparture picks the target departure from the explicit id or the
// tour + date pair.
func (s *Service) resolveDeparture(tx *gorm.DB, req *bookingTypes.BookingCreateRequest) (*tourModel.TourDeparture, error) {
	if req.DepartureID != nil {
		var dep tourModel.TourDeparture
		if err := tx.Preload("Tour").First(&dep, *req.DepartureID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.Wrapf(apperrors.ErrNotFound, "departure %d", *req.DepartureID)
			}
			return nil, errors.Wrap(err, "load departure")
		}
		if dep.TourID != req.TourID {
			return nil, errors.Wrapf(apperrors.ErrValidation, "departure %d does not belong to tour %d", dep.ID, req.TourID)
		}
		return &dep, nil
	}
	return s.Capacity.FindByTourAndDate(tx, req.TourID, *req.TourDate)
}

// generateCode produces a unique booking code (prefix + timestamp + random
// suffix), regenerating on collision. The unique index on bookings.code is
// the backstop for a race between the check and the insert.
func (s *Service) generateCode(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < codeGenerationAttempts; attempt++ {
		suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
		code := fmt.Sprintf("%s%s%s", s.Config.CodePrefix, time.Now().Format("060102150405"), suffix)

		var count int64
		if err := tx.Model(&bookingModel.Booking{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", errors.Wrap(err, "check code uniqueness")
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.Wrap(apperrors.ErrDuplicateBookingCode, "exhausted generation attempts")
}

// refundAmount applies the notice-period policy: full refund with enough
// notice, otherwise the configured late-cancellation fraction.
func (s *Service) refundAmount(b *bookingModel.Booking, at time.Time) float64 {
	noticeDays := int(b.TourDate.Sub(at).Hours() / 24)
	if noticeDays >= s.Config.FullRefundDays {
		return b.TotalAmount
	}
	return b.TotalAmount * s.Config.LateRefundFraction
}

// lockForUpdate applies SELECT ... FOR UPDATE where the dialect supports it.
// SQLite serializes writers at the database level, so the clause is skipped
// there.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockBooking loads a booking for update inside a transaction.
func (s *Service) lockBooking(tx *gorm.DB, bookingID uint) (*bookingModel.Booking, error) {
	var b bookingModel.Booking
	if err := lockForUpdate(tx).First(&b, bookingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(apperrors.ErrNotFound, "booking %d", bookingID)
		}
		return nil, errors.Wrap(err, "load booking")
	}
	return &b, nil
}

// appendStatusEvent writes one status history row per transition.
func (s *Service) appendStatusEvent(tx *gorm.DB, bookingID uint, from, to bookingModel.BookingStatus, actor string) error {
	event := bookingModel.BookingStatusEvent{
		BookingID:  bookingID,
		FromStatus: from,
		ToStatus:   to,
		CreatedBy:  actor,
	}
	if err := tx.Create(&event).Error; err != nil {
		return errors.Wrap(err, "append status event")
	}
	return nil
}

func validateCreateRequest(req *bookingTypes.BookingCreateRequest) error {
	if req.TourID == 0 {
		return errors.Wrap(apperrors.ErrValidation, "tour id is required")
	}
	if req.GuestCount <= 0 {
		return errors.Wrap(apperrors.ErrValidation, "guest count must be positive")
	}
	if req.DepartureID == nil && req.TourDate == nil {
		return errors.Wrap(apperrors.ErrValidation, "either departure id or tour date is required")
	}
	if len(req.Guests) > 0 && len(req.Guests) != req.GuestCount {
		return errors.Wrap(apperrors.ErrValidation, "guest list does not match guest count")
	}
	if req.PointsToUse < 0 {
		return errors.Wrap(apperrors.ErrValidation, "points to use cannot be negative")
	}
	if strings.TrimSpace(req.ContactName) == "" || strings.TrimSpace(req.ContactPhone) == "" {
		return errors.Wrap(apperrors.ErrValidation, "contact name and phone are required")
	}
	return nil
}
