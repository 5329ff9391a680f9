package guide

import (
	"time"

	"tour-booking/logger"
	guideService "tour-booking/services/guide"
	"tour-booking/types"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GuideController handles guide availability reads
type GuideController struct {
	DB      *gorm.DB
	Service *guideService.Service
	Logger  *logger.AsyncLogger
}

// NewGuideController creates a new guide controller
func NewGuideController(db *gorm.DB, svc *guideService.Service, asyncLogger *logger.AsyncLogger) *GuideController {
	return &GuideController{
		DB:      db,
		Service: svc,
		Logger:  asyncLogger,
	}
}

// Availability returns the tour roster flagged available/unavailable for a date
func (gc *GuideController) Availability(c *fiber.Ctx) error {
	tourID, err := c.ParamsInt("id")
	if err != nil || tourID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid tour id",
			Data:    nil,
		})
	}

	dateStr := c.Query("date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid or missing date (expected YYYY-MM-DD)",
			Data:    nil,
		})
	}

	availability, err := gc.Service.AvailableGuides(uint(tourID), date)
	if err != nil {
		logger.Error("Failed to resolve guide availability", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Guide availability retrieved successfully",
		Data:    availability,
	})
}
