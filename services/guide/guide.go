package guide

import (
	"time"

	"tour-booking/apperrors"
	bookingModel "tour-booking/models/booking"
	guideModel "tour-booking/models/guide"
	tourModel "tour-booking/models/tour"

	"github.com/jinzhu/now"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// GuideAvailability flags one roster guide as free or busy on a date.
type GuideAvailability struct {
	Guide     guideModel.Guide `json:"guide"`
	Available bool             `json:"available"`
}

// Service resolves which guides can serve a tour on a date. A guide is busy
// when any non-cancelled booking assigns them on that date.
type Service struct {
	DB *gorm.DB
}

// NewGuideService creates a new guide service
func NewGuideService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// AvailableGuides returns the tour's roster with each guide flagged
// available or unavailable for the date.
func (s *Service) AvailableGuides(tourID uint, date time.Time) ([]GuideAvailability, error) {
	var roster []tourModel.TourGuide
	err := s.DB.Preload("Guide").
		Where("tour_id = ?", tourID).
		Find(&roster).Error
	if err != nil {
		return nil, errors.Wrap(err, "load tour guide roster")
	}

	result := make([]GuideAvailability, 0, len(roster))
	for _, tg := range roster {
		if !tg.Guide.IsActive {
			continue
		}
		free, err := s.IsGuideAvailable(nil, tg.GuideID, date)
		if err != nil {
			return nil, err
		}
		result = append(result, GuideAvailability{Guide: tg.Guide, Available: free})
	}
	return result, nil
}

// IsGuideAvailable is true iff no active booking assigns the guide on that
// date. Passing a transaction reads inside it.
func (s *Service) IsGuideAvailable(tx *gorm.DB, guideID uint, date time.Time) (bool, error) {
	if tx == nil {
		tx = s.DB
	}
	dayStart := now.With(date).BeginningOfDay()
	dayEnd := now.With(date).EndOfDay()

	var count int64
	err := tx.Model(&bookingModel.Booking{}).
		Where("guide_id = ? AND status <> ? AND tour_date BETWEEN ? AND ?",
			guideID, bookingModel.BookingStatusCancelled, dayStart, dayEnd).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "count guide bookings")
	}
	return count == 0, nil
}

// DefaultGuide resolves the guide for a new booking: the departure's explicit
// default first, else the tour guide marked default, else none. A busy
// default yields none rather than an error; the booking proceeds unassigned.
func (s *Service) DefaultGuide(tx *gorm.DB, tourID uint, departure *tourModel.TourDeparture, date time.Time) (*uint, error) {
	if tx == nil {
		tx = s.DB
	}
	if departure != nil && departure.DefaultGuideID != nil {
		free, err := s.IsGuideAvailable(tx, *departure.DefaultGuideID, date)
		if err != nil {
			return nil, err
		}
		if free {
			return departure.DefaultGuideID, nil
		}
	}

	var tg tourModel.TourGuide
	err := tx.Where("tour_id = ? AND is_default = true", tourID).First(&tg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "load default tour guide")
	}

	free, err := s.IsGuideAvailable(tx, tg.GuideID, date)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, nil
	}
	return &tg.GuideID, nil
}

// RequireAvailable validates an explicitly requested guide: they must be on
// the tour roster and free on the date.
func (s *Service) RequireAvailable(tx *gorm.DB, tourID, guideID uint, date time.Time) error {
	if tx == nil {
		tx = s.DB
	}
	var tg tourModel.TourGuide
	err := tx.Where("tour_id = ? AND guide_id = ?", tourID, guideID).First(&tg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.Wrapf(apperrors.ErrValidation, "guide %d is not on tour %d roster", guideID, tourID)
		}
		return errors.Wrap(err, "check guide roster")
	}

	free, err := s.IsGuideAvailable(tx, guideID, date)
	if err != nil {
		return err
	}
	if !free {
		return errors.Wrapf(apperrors.ErrConflict, "guide %d already has a booking on %s", guideID, date.Format("2006-01-02"))
	}
	return nil
}
