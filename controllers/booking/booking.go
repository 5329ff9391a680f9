package booking

import (
	"fmt"
	"strconv"

	"tour-booking/apperrors"
	"tour-booking/logger"
	"tour-booking/types"
	bookingTypes "tour-booking/types/booking"
	"tour-booking/utils"

	bookingService "tour-booking/services/booking"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// BookingController handles booking-related HTTP requests
type BookingController struct {
	DB      *gorm.DB
	Service *bookingService.Service
	Logger  *logger.AsyncLogger
}

// NewBookingController creates a new booking controller
func NewBookingController(db *gorm.DB, svc *bookingService.Service, asyncLogger *logger.AsyncLogger) *BookingController {
	return &BookingController{
		DB:      db,
		Service: svc,
		Logger:  asyncLogger,
	}
}

// Store creates a new booking with guests
func (bc *BookingController) Store(c *fiber.Ctx) error {
	var req bookingTypes.BookingCreateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	userInfo, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: err.Error(),
			Data:    nil,
		})
	}

	if !utils.ValidatePhoneNumber(req.ContactPhone) {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid contact phone number",
			Data:    nil,
		})
	}

	actor := strconv.FormatUint(uint64(userInfo.ID), 10)
	created, err := bc.Service.CreateBooking(userInfo.ID, actor, &req)
	if err != nil {
		logger.Error("Failed to create booking", err)
		return c.Status(apperrors.HTTPStatus(err)).JSON(types.ApiResponse{
			Status:  apperrors.HTTPStatus(err),
			Message: err.Error(),
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Booking created successfully with code: %s", created.Code))

	return c.Status(fiber.StatusCreated).JSON(types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Booking created successfully",
		Data:    bookingTypes.NewBookingDetail(created),
	})
}

// Show returns the booking detail by its unique code
func (bc *BookingController) Show(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Booking code is required",
			Data:    nil,
		})
	}

	b, err := bc.Service.GetByCode(code)
	if err != nil {
		return c.Status(apperrors.HTTPStatus(err)).JSON(types.ApiResponse{
			Status:  apperrors.HTTPStatus(err),
			Message: err.Error(),
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Booking retrieved successfully",
		Data:    bookingTypes.NewBookingDetail(b),
	})
}

// Index lists the calling user's bookings as summaries
func (bc *BookingController) Index(c *fiber.Ctx) error {
	userInfo, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: err.Error(),
			Data:    nil,
		})
	}

	bookings, err := bc.Service.ListByUser(userInfo.ID, c.QueryInt("limit", 50))
	if err != nil {
		logger.Error("Failed to list bookings", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	summaries := make([]bookingTypes.BookingSummary, 0, len(bookings))
	for i := range bookings {
		summaries = append(summaries, bookingTypes.NewBookingSummary(&bookings[i]))
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Bookings retrieved successfully",
		Data:    summaries,
	})
}

// UpdateStatus drives a booking status transition
func (bc *BookingController) UpdateStatus(c *fiber.Ctx) error {
	bookingID, err := c.ParamsInt("id")
	if err != nil || bookingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid booking id",
			Data:    nil,
		})
	}

	var req bookingTypes.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	userInfo, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor := strconv.FormatUint(uint64(userInfo.ID), 10)
	updated, err := bc.Service.UpdateStatus(uint(bookingID), req.Status, actor)
	if err != nil {
		logger.Error("Failed to update booking status", err)
		return c.Status(apperrors.HTTPStatus(err)).JSON(types.ApiResponse{
			Status:  apperrors.HTTPStatus(err),
			Message: err.Error(),
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Booking status updated successfully",
		Data:    bookingTypes.NewBookingDetail(updated),
	})
}

// Cancel cancels a pending or confirmed booking
func (bc *BookingController) Cancel(c *fiber.Ctx) error {
	bookingID, err := c.ParamsInt("id")
	if err != nil || bookingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid booking id",
			Data:    nil,
		})
	}

	var req bookingTypes.CancelRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	userInfo, err := currentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: err.Error(),
			Data:    nil,
		})
	}

	actor := strconv.FormatUint(uint64(userInfo.ID), 10)
	cancelled, err := bc.Service.Cancel(uint(bookingID), req.Reason, actor)
	if err != nil {
		logger.Error("Failed to cancel booking", err)
		return c.Status(apperrors.HTTPStatus(err)).JSON(types.ApiResponse{
			Status:  apperrors.HTTPStatus(err),
			Message: err.Error(),
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Booking cancelled successfully",
		Data:    bookingTypes.NewBookingDetail(cancelled),
	})
}

// currentUser resolves the authenticated user from the JWT claims
func currentUser(c *fiber.Ctx) (*userResolved, error) {
	claims, ok := c.Locals("user").(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid user claims")
	}

	userUUID, ok := claims["uuid"].(string)
	if !ok || userUUID == "" {
		return nil, fmt.Errorf("user UUID not found in token")
	}

	userInfo, err := utils.GetUserByUUID(userUUID)
	if err != nil {
		return nil, err
	}
	return &userResolved{ID: userInfo.ID, Email: userInfo.Email}, nil
}

type userResolved struct {
	ID    uint
	Email *string
}
