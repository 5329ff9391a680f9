package guide

import (
	"testing"
	"time"

	"tour-booking/apperrors"
	bookingModel "tour-booking/models/booking"
	guideModel "tour-booking/models/guide"
	tourModel "tour-booking/models/tour"
	userModel "tour-booking/models/user"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: glogger.Default.LogMode(glogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&userModel.User{},
		&guideModel.Guide{},
		&tourModel.Tour{},
		&tourModel.TourGuide{},
		&bookingModel.Booking{},
		&bookingModel.BookingGuest{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	db   *gorm.DB
	svc  *Service
	tour *tourModel.Tour
	g1   *guideModel.Guide // roster default
	g2   *guideModel.Guide // roster
	g3   *guideModel.Guide // roster, inactive
	date time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	tr := tourModel.Tour{Name: "Sapa Trek", Price: 900000, DurationDays: 3, MaxGuests: 12, IsActive: true}
	if err := db.Create(&tr).Error; err != nil {
		t.Fatalf("seed tour: %v", err)
	}

	mk := func(name string, active bool) *guideModel.Guide {
		g := guideModel.Guide{FullName: name, Phone: "09" + uuid.NewString()[:8], Languages: "vi,en", IsActive: active}
		if err := db.Create(&g).Error; err != nil {
			t.Fatalf("seed guide: %v", err)
		}
		return &g
	}
	g1 := mk("Nguyen Van An", true)
	g2 := mk("Le Thi Hoa", true)
	g3 := mk("Pham Minh Tuan", false)

	roster := []tourModel.TourGuide{
		{TourID: tr.ID, GuideID: g1.ID, IsDefault: true},
		{TourID: tr.ID, GuideID: g2.ID},
		{TourID: tr.ID, GuideID: g3.ID},
	}
	if err := db.Create(&roster).Error; err != nil {
		t.Fatalf("seed roster: %v", err)
	}

	return &fixture{
		db:   db,
		svc:  NewGuideService(db),
		tour: &tr,
		g1:   g1,
		g2:   g2,
		g3:   g3,
		date: time.Date(2025, 8, 20, 0, 0, 0, 0, time.Local),
	}
}

func (f *fixture) addBooking(t *testing.T, guideID uint, date time.Time, status bookingModel.BookingStatus) {
	t.Helper()
	usr := userModel.User{
		Uuid:      uuid.NewString(),
		Username:  "u-" + uuid.NewString()[:8],
		LegalName: "Customer",
		Phone:     "08" + uuid.NewString()[:8],
		Tier:      userModel.TierBronze,
	}
	if err := f.db.Create(&usr).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	b := bookingModel.Booking{
		Code:          "TRB" + uuid.NewString()[:12],
		UserID:        usr.ID,
		TourID:        f.tour.ID,
		GuideID:       &guideID,
		TourDate:      date,
		GuestCount:    2,
		TotalAmount:   1800000,
		Status:        status,
		PaymentStatus: bookingModel.PaymentStatusPending,
		ContactName:   "Customer",
		ContactPhone:  usr.Phone,
		CreatedBy:     usr.Username,
	}
	if err := f.db.Create(&b).Error; err != nil {
		t.Fatalf("seed booking: %v", err)
	}
}

func TestAvailableGuides(t *testing.T) {
	f := newFixture(t)

	result, err := f.svc.AvailableGuides(f.tour.ID, f.date)
	if err != nil {
		t.Fatalf("AvailableGuides: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("roster size = %d, want 2 (inactive guide excluded)", len(result))
	}
	for _, ga := range result {
		if ga.Guide.ID == f.g3.ID {
			t.Error("inactive guide returned")
		}
		if !ga.Available {
			t.Errorf("guide %s should be free with no bookings", ga.Guide.FullName)
		}
	}

	// A non-cancelled assignment on the date makes the guide busy; a
	// cancelled one does not.
	f.addBooking(t, f.g1.ID, f.date, bookingModel.BookingStatusConfirmed)
	f.addBooking(t, f.g2.ID, f.date, bookingModel.BookingStatusCancelled)

	result, err = f.svc.AvailableGuides(f.tour.ID, f.date)
	if err != nil {
		t.Fatalf("AvailableGuides: %v", err)
	}
	for _, ga := range result {
		switch ga.Guide.ID {
		case f.g1.ID:
			if ga.Available {
				t.Error("guide with confirmed booking reported free")
			}
		case f.g2.ID:
			if !ga.Available {
				t.Error("cancelled booking should not block a guide")
			}
		}
	}
}

func TestIsGuideAvailableOtherDay(t *testing.T) {
	f := newFixture(t)
	f.addBooking(t, f.g1.ID, f.date, bookingModel.BookingStatusConfirmed)

	free, err := f.svc.IsGuideAvailable(nil, f.g1.ID, f.date.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("IsGuideAvailable: %v", err)
	}
	if !free {
		t.Error("booking on another day should not block the guide")
	}
}

func TestDefaultGuideResolutionOrder(t *testing.T) {
	f := newFixture(t)

	t.Run("departure default wins", func(t *testing.T) {
		dep := &tourModel.TourDeparture{TourID: f.tour.ID, DefaultGuideID: &f.g2.ID}
		got, err := f.svc.DefaultGuide(nil, f.tour.ID, dep, f.date)
		if err != nil {
			t.Fatalf("DefaultGuide: %v", err)
		}
		if got == nil || *got != f.g2.ID {
			t.Errorf("got %v, want departure default %d", got, f.g2.ID)
		}
	})

	t.Run("falls back to tour default", func(t *testing.T) {
		got, err := f.svc.DefaultGuide(nil, f.tour.ID, &tourModel.TourDeparture{TourID: f.tour.ID}, f.date)
		if err != nil {
			t.Fatalf("DefaultGuide: %v", err)
		}
		if got == nil || *got != f.g1.ID {
			t.Errorf("got %v, want tour default %d", got, f.g1.ID)
		}
	})

	t.Run("busy departure default falls through", func(t *testing.T) {
		f.addBooking(t, f.g2.ID, f.date, bookingModel.BookingStatusConfirmed)
		dep := &tourModel.TourDeparture{TourID: f.tour.ID, DefaultGuideID: &f.g2.ID}
		got, err := f.svc.DefaultGuide(nil, f.tour.ID, dep, f.date)
		if err != nil {
			t.Fatalf("DefaultGuide: %v", err)
		}
		if got == nil || *got != f.g1.ID {
			t.Errorf("got %v, want tour default %d", got, f.g1.ID)
		}
	})

	t.Run("all defaults busy yields none", func(t *testing.T) {
		f.addBooking(t, f.g1.ID, f.date, bookingModel.BookingStatusConfirmed)
		dep := &tourModel.TourDeparture{TourID: f.tour.ID, DefaultGuideID: &f.g2.ID}
		got, err := f.svc.DefaultGuide(nil, f.tour.ID, dep, f.date)
		if err != nil {
			t.Fatalf("DefaultGuide: %v", err)
		}
		if got != nil {
			t.Errorf("got guide %d, want none", *got)
		}
	})
}

func TestDefaultGuideNoRosterDefault(t *testing.T) {
	f := newFixture(t)
	if err := f.db.Model(&tourModel.TourGuide{}).Where("tour_id = ?", f.tour.ID).Update("is_default", false).Error; err != nil {
		t.Fatalf("clear defaults: %v", err)
	}

	got, err := f.svc.DefaultGuide(nil, f.tour.ID, &tourModel.TourDeparture{TourID: f.tour.ID}, f.date)
	if err != nil {
		t.Fatalf("DefaultGuide: %v", err)
	}
	if got != nil {
		t.Errorf("got guide %d, want none when no default exists", *got)
	}
}

func TestInactiveGuidePersists(t *testing.T) {
	db := newTestDB(t)

	g := guideModel.Guide{FullName: "Tran Thi Mai", Phone: "0977888999", IsActive: false}
	if err := db.Create(&g).Error; err != nil {
		t.Fatalf("create guide: %v", err)
	}

	var got guideModel.Guide
	if err := db.First(&got, g.ID).Error; err != nil {
		t.Fatalf("reload guide: %v", err)
	}
	if got.IsActive {
		t.Error("guide created inactive came back active")
	}
}

func TestGuideReadsInsideTransaction(t *testing.T) {
	f := newFixture(t)
	f.addBooking(t, f.g2.ID, f.date, bookingModel.BookingStatusConfirmed)

	// The test pool allows a single connection, so a lookup that ignored the
	// running transaction would block forever waiting for it.
	err := f.db.Transaction(func(tx *gorm.DB) error {
		free, err := f.svc.IsGuideAvailable(tx, f.g2.ID, f.date)
		if err != nil {
			return err
		}
		if free {
			t.Error("guide with confirmed booking reported free")
		}
		got, err := f.svc.DefaultGuide(tx, f.tour.ID, &tourModel.TourDeparture{TourID: f.tour.ID}, f.date)
		if err != nil {
			return err
		}
		if got == nil || *got != f.g1.ID {
			t.Errorf("got %v, want tour default %d", got, f.g1.ID)
		}
		return f.svc.RequireAvailable(tx, f.tour.ID, f.g1.ID, f.date)
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
}

func TestRequireAvailable(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.RequireAvailable(nil, f.tour.ID, f.g2.ID, f.date); err != nil {
		t.Fatalf("free roster guide rejected: %v", err)
	}

	offRoster := guideModel.Guide{FullName: "Do Van Khanh", Phone: "0911222333", IsActive: true}
	if err := f.db.Create(&offRoster).Error; err != nil {
		t.Fatalf("seed guide: %v", err)
	}
	if err := f.svc.RequireAvailable(nil, f.tour.ID, offRoster.ID, f.date); !errors.Is(err, apperrors.ErrValidation) {
		t.Errorf("off-roster guide: got %v, want ErrValidation", err)
	}

	f.addBooking(t, f.g2.ID, f.date, bookingModel.BookingStatusPending)
	if err := f.svc.RequireAvailable(nil, f.tour.ID, f.g2.ID, f.date); !errors.Is(err, apperrors.ErrConflict) {
		t.Errorf("busy guide: got %v, want ErrConflict", err)
	}
}
