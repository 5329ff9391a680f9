package payment

import (
	"fmt"

	"tour-booking/apperrors"
	"tour-booking/logger"
	bookingService "tour-booking/services/booking"
	paymentService "tour-booking/services/payment"
	"tour-booking/types"
	"tour-booking/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Gateway acknowledgement codes returned on the IPN endpoint. The gateway
// retries until it receives RspCode 00, so signature failures and unknown
// orders must still answer 200 with the proper code.
const (
	rspConfirmed        = "00"
	rspOrderNotFound    = "01"
	rspInvalidSignature = "97"
	rspUnknownError     = "99"
)

// PaymentController handles payment URL creation and gateway callbacks
type PaymentController struct {
	DB       *gorm.DB
	Bookings *bookingService.Service
	Gateway  *paymentService.Service
	Logger   *logger.AsyncLogger
}

// NewPaymentController creates a new payment controller
func NewPaymentController(db *gorm.DB, bookings *bookingService.Service, gateway *paymentService.Service, asyncLogger *logger.AsyncLogger) *PaymentController {
	return &PaymentController{
		DB:       db,
		Bookings: bookings,
		Gateway:  gateway,
		Logger:   asyncLogger,
	}
}

// CreatePaymentURL builds the signed redirect URL for a booking
func (pc *PaymentController) CreatePaymentURL(c *fiber.Ctx) error {
	bookingID, err := c.ParamsInt("id")
	if err != nil || bookingID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid booking id",
			Data:    nil,
		})
	}

	url, err := pc.Bookings.CreatePaymentURL(uint(bookingID), utils.ClientIP(c))
	if err != nil {
		logger.Error("Failed to create payment URL", err)
		return c.Status(apperrors.HTTPStatus(err)).JSON(types.ApiResponse{
			Status:  apperrors.HTTPStatus(err),
			Message: err.Error(),
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Payment URL created successfully",
		Data:    fiber.Map{"payment_url": url},
	})
}

// Callback is the gateway IPN endpoint. The signature is verified before any
// field is trusted; a bad signature never mutates a booking.
func (pc *PaymentController) Callback(c *fiber.Ctx) error {
	params := make(map[string]string)
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		params[string(key)] = string(value)
	})

	result, err := pc.Gateway.ProcessCallback(params)
	if err != nil {
		if errors.Is(err, apperrors.ErrSignatureInvalid) {
			logger.Warning("Payment callback with invalid signature rejected")
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"RspCode": rspInvalidSignature,
				"Message": "Invalid signature",
			})
		}
		logger.Error("Failed to decode payment callback", err)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"RspCode": rspUnknownError,
			"Message": "Unknown error",
		})
	}

	b, err := pc.Bookings.ApplyPaymentCallback(result)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warning(fmt.Sprintf("Payment callback for unknown booking %s", result.BookingCode))
			return c.Status(fiber.StatusOK).JSON(fiber.Map{
				"RspCode": rspOrderNotFound,
				"Message": "Order not found",
			})
		}
		logger.Error("Failed to apply payment callback", err)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"RspCode": rspUnknownError,
			"Message": "Unknown error",
		})
	}

	logger.Success(fmt.Sprintf("Payment callback applied to booking %s (success=%v)", b.Code, result.Success))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"RspCode": rspConfirmed,
		"Message": "Confirm Success",
	})
}
