package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"tour-booking/database"
	"tour-booking/models/user"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
	"gorm.io/gorm"
)

// GetUserByUUID retrieves a user by their UUID from the database
func GetUserByUUID(uuid string) (*user.User, error) {
	if uuid == "" {
		return nil, errors.New("UUID cannot be empty")
	}

	var userModel user.User
	if err := database.DB.Where("uuid = ?", uuid).First(&userModel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	return &userModel, nil
}

// ClientIP returns the caller's IP, preferring the forwarding header set by
// the reverse proxy.
func ClientIP(c *fiber.Ctx) string {
	if forwarded := c.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	return c.IP()
}

// Function to calculate age in Years, Months, and Days
func CalculateAge(dob time.Time) (int, int, int) {
	currentTime := time.Now()

	years := currentTime.Year() - dob.Year()
	months := int(currentTime.Month()) - int(dob.Month())
	days := currentTime.Day() - dob.Day()

	if months < 0 {
		years--
		months += 12
	}

	if days < 0 {
		previousMonth := now.With(currentTime).BeginningOfMonth().AddDate(0, 0, -1)
		days += previousMonth.Day()
		months--
	}

	return years, months, days
}

// ValidatePhoneNumber validates a phone number: optional +country prefix then
// 9 to 12 digits.
func ValidatePhoneNumber(phone string) bool {
	phone = strings.TrimSpace(phone)

	pattern := `^(?:\+[0-9]{1,3})?0?[0-9]{9,12}$`
	re := regexp.MustCompile(pattern)

	return re.MatchString(phone)
}
