package capacity

import (
	"fmt"
	"time"

	"tour-booking/apperrors"
	"tour-booking/logger"
	tourModel "tour-booking/models/tour"

	"github.com/jinzhu/now"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// bulkInsertBatchSize bounds the transaction size of bulk generation.
const bulkInsertBatchSize = 100

// Service owns the booked-guest counters of tour departures. All counter
// mutations go through guarded conditional updates so a losing concurrent
// writer observes a structured failure instead of overwriting the winner.
type Service struct {
	DB *gorm.DB
}

// NewCapacityService creates a new capacity service
func NewCapacityService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// ReserveSlots atomically increments the booked counter of a departure,
// gated by its maximum. The conditional UPDATE performs check and increment
// in one statement; zero rows affected on an existing departure means the
// capacity gate rejected the reservation.
func (s *Service) ReserveSlots(tx *gorm.DB, departureID uint, count int) (*tourModel.TourDeparture, error) {
	if count <= 0 {
		return nil, errors.Wrap(apperrors.ErrValidation, "guest count must be positive")
	}
	if tx == nil {
		tx = s.DB
	}

	res := tx.Model(&tourModel.TourDeparture{}).
		Where("id = ? AND is_closed = false AND booked_guests + ? <= max_guests", departureID, count).
		UpdateColumn("booked_guests", gorm.Expr("booked_guests + ?", count))
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "reserve slots")
	}

	if res.RowsAffected == 0 {
		// Distinguish a missing departure from a full or closed one.
		var dep tourModel.TourDeparture
		if err := tx.First(&dep, departureID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.Wrapf(apperrors.ErrNotFound, "departure %d", departureID)
			}
			return nil, errors.Wrap(err, "reserve slots lookup")
		}
		return nil, errors.Wrapf(apperrors.ErrCapacityExceeded,
			"departure %d: %d booked of %d, requested %d", departureID, dep.BookedGuests, dep.MaxGuests, count)
	}

	var dep tourModel.TourDeparture
	if err := tx.Preload("Tour").First(&dep, departureID).Error; err != nil {
		return nil, errors.Wrap(err, "reload departure")
	}
	return &dep, nil
}

// ReleaseSlots decrements the booked counter. A release that would take the
// counter negative is a double release and is rejected rather than silently
// floored into corruption.
func (s *Service) ReleaseSlots(tx *gorm.DB, departureID uint, count int) error {
	if count <= 0 {
		return errors.Wrap(apperrors.ErrValidation, "guest count must be positive")
	}
	if tx == nil {
		tx = s.DB
	}

	res := tx.Model(&tourModel.TourDeparture{}).
		Where("id = ? AND booked_guests - ? >= 0", departureID, count).
		UpdateColumn("booked_guests", gorm.Expr("booked_guests - ?", count))
	if res.Error != nil {
		return errors.Wrap(res.Error, "release slots")
	}

	if res.RowsAffected == 0 {
		var dep tourModel.TourDeparture
		if err := tx.First(&dep, departureID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.Wrapf(apperrors.ErrNotFound, "departure %d", departureID)
			}
			return errors.Wrap(err, "release slots lookup")
		}
		return errors.Wrapf(apperrors.ErrConflict,
			"departure %d: releasing %d would take booked below zero (booked %d)", departureID, count, dep.BookedGuests)
	}
	return nil
}

// DeriveStatus computes the read-side status of a departure. Full and
// Completed are never stored; only the closed flag is authoritative.
func (s *Service) DeriveStatus(dep *tourModel.TourDeparture, at time.Time) tourModel.DepartureStatus {
	if dep.DepartureDate.Before(at) {
		return tourModel.DepartureStatusCompleted
	}
	if dep.IsClosed {
		return tourModel.DepartureStatusClosed
	}
	if dep.BookedGuests >= dep.MaxGuests {
		return tourModel.DepartureStatusFull
	}
	return tourModel.DepartureStatusAvailable
}

// CloseDeparture manually closes a departure for sale.
func (s *Service) CloseDeparture(departureID uint) error {
	res := s.DB.Model(&tourModel.TourDeparture{}).
		Where("id = ?", departureID).
		Update("is_closed", true)
	if res.Error != nil {
		return errors.Wrap(res.Error, "close departure")
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(apperrors.ErrNotFound, "departure %d", departureID)
	}
	return nil
}

// GetDeparture loads a departure with its tour.
func (s *Service) GetDeparture(departureID uint) (*tourModel.TourDeparture, error) {
	var dep tourModel.TourDeparture
	if err := s.DB.Preload("Tour").First(&dep, departureID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(apperrors.ErrNotFound, "departure %d", departureID)
		}
		return nil, errors.Wrap(err, "get departure")
	}
	return &dep, nil
}

// FindByTourAndDate resolves a departure from the tour + date pair used when
// a booking request names no explicit departure.
func (s *Service) FindByTourAndDate(tx *gorm.DB, tourID uint, date time.Time) (*tourModel.TourDeparture, error) {
	if tx == nil {
		tx = s.DB
	}
	dayStart := now.With(date).BeginningOfDay()
	dayEnd := now.With(date).EndOfDay()

	var dep tourModel.TourDeparture
	err := tx.Preload("Tour").
		Where("tour_id = ? AND departure_date BETWEEN ? AND ?", tourID, dayStart, dayEnd).
		First(&dep).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(apperrors.ErrNotFound, "no departure of tour %d on %s", tourID, date.Format("2006-01-02"))
		}
		return nil, errors.Wrap(err, "find departure by tour and date")
	}
	return &dep, nil
}

// ListForTour returns all upcoming departures of a tour.
func (s *Service) ListForTour(tourID uint, from time.Time) ([]tourModel.TourDeparture, error) {
	var deps []tourModel.TourDeparture
	err := s.DB.Preload("Tour").
		Where("tour_id = ? AND departure_date >= ?", tourID, from).
		Order("departure_date ASC").
		Find(&deps).Error
	if err != nil {
		return nil, errors.Wrap(err, "list departures")
	}
	return deps, nil
}

// BulkGenerate creates the departure sequence implied by the recurrence
// pattern within [start, end]. Weekly and biweekly patterns filter to the
// supplied weekday set; inserts are chunked to bound transaction size.
func (s *Service) BulkGenerate(req BulkGenerateParams) ([]tourModel.TourDeparture, error) {
	if !req.Pattern.IsValid() {
		return nil, errors.Wrapf(apperrors.ErrValidation, "unknown recurrence pattern %q", req.Pattern)
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, errors.Wrap(apperrors.ErrValidation, "end date before start date")
	}

	var tr tourModel.Tour
	if err := s.DB.First(&tr, req.TourID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrapf(apperrors.ErrNotFound, "tour %d", req.TourID)
		}
		return nil, errors.Wrap(err, "bulk generate tour lookup")
	}

	maxGuests := tr.MaxGuests
	if req.MaxGuestsOverride != nil {
		maxGuests = *req.MaxGuestsOverride
	}
	if maxGuests <= 0 {
		return nil, errors.Wrap(apperrors.ErrValidation, "max guests must be positive")
	}

	dates := generateDates(req.StartDate, req.EndDate, req.Pattern, req.DaysOfWeek)
	if len(dates) == 0 {
		return nil, errors.Wrap(apperrors.ErrValidation, "pattern yields no departure dates in range")
	}

	departures := make([]tourModel.TourDeparture, 0, len(dates))
	for _, d := range dates {
		departures = append(departures, tourModel.TourDeparture{
			TourID:         req.TourID,
			DepartureDate:  d,
			EndDate:        d.AddDate(0, 0, tr.DurationDays),
			MaxGuests:      maxGuests,
			SpecialPrice:   req.SpecialPrice,
			DefaultGuideID: req.DefaultGuideID,
		})
	}

	if err := s.DB.CreateInBatches(&departures, bulkInsertBatchSize).Error; err != nil {
		return nil, errors.Wrap(err, "bulk insert departures")
	}

	logger.Success(fmt.Sprintf("Generated %d departures for tour %d (%s)", len(departures), req.TourID, req.Pattern))
	return departures, nil
}

// BulkGenerateParams are the inputs to BulkGenerate.
type BulkGenerateParams struct {
	TourID            uint
	StartDate         time.Time
	EndDate           time.Time
	Pattern           tourModel.RecurrencePattern
	DaysOfWeek        []time.Weekday
	MaxGuestsOverride *int
	SpecialPrice      *float64
	DefaultGuideID    *uint
}

// generateDates walks the [start, end] range producing departure dates for
// the pattern. Daily emits every day; weekly and biweekly emit days matching
// the weekday set (defaulting to the start date's weekday) with biweekly
// skipping alternate weeks; monthly emits the start day-of-month each month,
// clamped to the last day of shorter months.
func generateDates(start, end time.Time, pattern tourModel.RecurrencePattern, weekdays []time.Weekday) []time.Time {
	start = now.With(start).BeginningOfDay()
	end = now.With(end).BeginningOfDay()

	var dates []time.Time
	switch pattern {
	case tourModel.PatternDaily:
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			dates = append(dates, d)
		}

	case tourModel.PatternWeekly, tourModel.PatternBiWeekly:
		wanted := make(map[time.Weekday]bool)
		for _, wd := range weekdays {
			wanted[wd] = true
		}
		if len(wanted) == 0 {
			wanted[start.Weekday()] = true
		}

		weekStart := now.With(start).BeginningOfWeek()
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if !wanted[d.Weekday()] {
				continue
			}
			if pattern == tourModel.PatternBiWeekly {
				weeks := int(now.With(d).BeginningOfWeek().Sub(weekStart).Hours()) / (24 * 7)
				if weeks%2 != 0 {
					continue
				}
			}
			dates = append(dates, d)
		}

	case tourModel.PatternMonthly:
		// AddDate normalizes Jan 31 + 1 month into Mar 3; anchor each month
		// explicitly and clamp the day to shorter months instead.
		day := start.Day()
		for m := 0; ; m++ {
			monthStart := time.Date(start.Year(), start.Month()+time.Month(m), 1, 0, 0, 0, 0, start.Location())
			d := day
			if lastDay := monthStart.AddDate(0, 1, -1).Day(); d > lastDay {
				d = lastDay
			}
			cur := time.Date(monthStart.Year(), monthStart.Month(), d, 0, 0, 0, 0, start.Location())
			if cur.After(end) {
				break
			}
			dates = append(dates, cur)
		}
	}
	return dates
}
