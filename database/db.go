package database

import (
	"fmt"
	"os"

	"tour-booking/logger"
	bookingModel "tour-booking/models/booking"
	guideModel "tour-booking/models/guide"
	logModel "tour-booking/models/log"
	loyaltyModel "tour-booking/models/loyalty"
	tourModel "tour-booking/models/tour"
	userModel "tour-booking/models/user"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// InitDB initializes the database connection with auto migration and indexing
func InitDB() (*gorm.DB, error) {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Error("Error loading .env file", err)
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	database := os.Getenv("DB_DATABASE")
	user := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	sslmode := os.Getenv("DB_SSLMODE")

	if sslmode == "" {
		sslmode = "disable"
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, database, sslmode)

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Error("Failed to connect to the database", err)
		return nil, err
	}
	logger.Success("Successfully connected to the database")

	if err := autoMigrate(); err != nil {
		logger.Error("Failed to run migrations", err)
		return nil, err
	}
	logger.Success("All migrations completed successfully")

	if err := createForeignKeyConstraints(); err != nil {
		logger.Error("Failed to create foreign key constraints", err)
		return nil, err
	}
	logger.Success("All foreign key constraints created successfully")

	if err := createIndexes(); err != nil {
		logger.Error("Failed to create indexes", err)
		return nil, err
	}
	logger.Success("All indexes created successfully")

	return DB, nil
}

// autoMigrate runs auto migration for all models in dependency stages
func autoMigrate() error {
	// Stage 1: Core foundation models
	stage1Models := []interface{}{
		&userModel.User{},
		&guideModel.Guide{},
		&tourModel.Tour{},
	}

	for _, model := range stage1Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 2: Models with dependencies on Stage 1
	stage2Models := []interface{}{
		&tourModel.TourGuide{},
		&tourModel.TourDeparture{},
		&bookingModel.Booking{},
	}

	for _, model := range stage2Models {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	// Stage 3: Remaining models
	remainingModels := []interface{}{
		&bookingModel.BookingGuest{},
		&bookingModel.BookingStatusEvent{},
		&loyaltyModel.PointsHistory{},
		&logModel.Log{},
	}

	for _, model := range remainingModels {
		if err := DB.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	return nil
}

// createIndexes creates additional indexes for better performance
func createIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_uuid ON users(uuid)",
		"CREATE INDEX IF NOT EXISTS idx_users_phone ON users(phone)",
		"CREATE INDEX IF NOT EXISTS idx_bookings_code ON bookings(code)",
		"CREATE INDEX IF NOT EXISTS idx_bookings_user_id ON bookings(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_bookings_status ON bookings(status)",
		"CREATE INDEX IF NOT EXISTS idx_bookings_tour_date ON bookings(tour_date)",
		"CREATE INDEX IF NOT EXISTS idx_bookings_guide_date ON bookings(guide_id, tour_date)",
		"CREATE INDEX IF NOT EXISTS idx_departures_tour_id ON tour_departures(tour_id)",
		"CREATE INDEX IF NOT EXISTS idx_departures_departure_date ON tour_departures(departure_date)",
		"CREATE INDEX IF NOT EXISTS idx_points_histories_user_id ON points_histories(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_points_histories_booking_code ON points_histories(booking_code)",
		"CREATE INDEX IF NOT EXISTS idx_booking_status_events_booking_id ON booking_status_events(booking_id)",
		"CREATE INDEX IF NOT EXISTS idx_logs_status_code ON logs(status_code)",
		"CREATE INDEX IF NOT EXISTS idx_logs_created_at ON logs(created_at)",
	}

	for _, stmt := range indexes {
		if err := DB.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// createForeignKeyConstraints creates foreign key constraints after auto migration
func createForeignKeyConstraints() error {
	constraints := []struct {
		name string
		sql  string
	}{
		{
			name: "fk_bookings_user",
			sql: `ALTER TABLE bookings ADD CONSTRAINT fk_bookings_user
				  FOREIGN KEY (user_id) REFERENCES users(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
		{
			name: "fk_bookings_departure",
			sql: `ALTER TABLE bookings ADD CONSTRAINT fk_bookings_departure
				  FOREIGN KEY (departure_id) REFERENCES tour_departures(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
		{
			name: "fk_booking_guests_booking",
			sql: `ALTER TABLE booking_guests ADD CONSTRAINT fk_booking_guests_booking
				  FOREIGN KEY (booking_id) REFERENCES bookings(id)
				  ON UPDATE CASCADE ON DELETE CASCADE`,
		},
		{
			name: "fk_points_histories_user",
			sql: `ALTER TABLE points_histories ADD CONSTRAINT fk_points_histories_user
				  FOREIGN KEY (user_id) REFERENCES users(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
		{
			name: "fk_tour_departures_tour",
			sql: `ALTER TABLE tour_departures ADD CONSTRAINT fk_tour_departures_tour
				  FOREIGN KEY (tour_id) REFERENCES tours(id)
				  ON UPDATE CASCADE ON DELETE RESTRICT`,
		},
	}

	for _, constraint := range constraints {
		var exists bool
		checkSQL := `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE constraint_name = $1
			)
		`

		err := DB.Raw(checkSQL, constraint.name).Scan(&exists).Error
		if err != nil {
			logger.Warning(fmt.Sprintf("Failed to check constraint existence: %s - Error: %v", constraint.name, err))
			continue
		}

		if !exists {
			if err := DB.Exec(constraint.sql).Error; err != nil {
				logger.Warning(fmt.Sprintf("Failed to create constraint: %s - Error: %v", constraint.name, err))
			} else {
				logger.Success(fmt.Sprintf("Successfully created constraint: %s", constraint.name))
			}
		}
	}

	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
