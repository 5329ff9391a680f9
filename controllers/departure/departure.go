package departure

import (
	"fmt"
	"time"

	"tour-booking/apperrors"
	"tour-booking/logger"
	capacityService "tour-booking/services/capacity"
	"tour-booking/types"
	departureTypes "tour-booking/types/departure"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// DepartureController handles departure administration and availability reads
type DepartureController struct {
	DB       *gorm.DB
	Capacity *capacityService.Service
	Logger   *logger.AsyncLogger
}

// NewDepartureController creates a new departure controller
func NewDepartureController(db *gorm.DB, cap *capacityService.Service, asyncLogger *logger.AsyncLogger) *DepartureController {
	return &DepartureController{
		DB:       db,
		Capacity: cap,
		Logger:   asyncLogger,
	}
}

// BulkGenerate creates the departure sequence implied by a recurrence pattern
func (dc *DepartureController) BulkGenerate(c *fiber.Ctx) error {
	var req departureTypes.BulkGenerateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	departures, err := dc.Capacity.BulkGenerate(capacityService.BulkGenerateParams{
		TourID:            req.TourID,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		Pattern:           req.Pattern,
		DaysOfWeek:        req.DaysOfWeek,
		MaxGuestsOverride: req.MaxGuestsOverride,
		SpecialPrice:      req.SpecialPrice,
		DefaultGuideID:    req.DefaultGuideID,
	})
	if err != nil {
		logger.Error("Failed to bulk generate departures", err)
		return c.Status(apperrors.HTTPStatus(err)).JSON(types.ApiResponse{
			Status:  apperrors.HTTPStatus(err),
			Message: err.Error(),
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: fmt.Sprintf("%d departures generated successfully", len(departures)),
		Data:    departures,
	})
}

// ListForTour returns upcoming departures of a tour with derived status
func (dc *DepartureController) ListForTour(c *fiber.Ctx) error {
	tourID, err := c.ParamsInt("id")
	if err != nil || tourID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid tour id",
			Data:    nil,
		})
	}

	departures, err := dc.Capacity.ListForTour(uint(tourID), time.Now())
	if err != nil {
		logger.Error("Failed to list departures", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	nowTs := time.Now()
	views := make([]departureTypes.DepartureView, 0, len(departures))
	for i := range departures {
		dep := &departures[i]
		views = append(views, departureTypes.DepartureView{
			ID:             dep.ID,
			TourID:         dep.TourID,
			DepartureDate:  dep.DepartureDate,
			EndDate:        dep.EndDate,
			MaxGuests:      dep.MaxGuests,
			BookedGuests:   dep.BookedGuests,
			RemainingSlots: dep.RemainingSlots(),
			UnitPrice:      dep.UnitPrice(),
			Status:         dc.Capacity.DeriveStatus(dep, nowTs),
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Departures retrieved successfully",
		Data:    views,
	})
}

// Close manually closes a departure for sale
func (dc *DepartureController) Close(c *fiber.Ctx) error {
	departureID, err := c.ParamsInt("id")
	if err != nil || departureID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid departure id",
			Data:    nil,
		})
	}

	if err := dc.Capacity.CloseDeparture(uint(departureID)); err != nil {
		logger.Error("Failed to close departure", err)
		return c.Status(apperrors.HTTPStatus(err)).JSON(types.ApiResponse{
			Status:  apperrors.HTTPStatus(err),
			Message: err.Error(),
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Departure closed successfully",
		Data:    nil,
	})
}
