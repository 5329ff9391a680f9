package loyalty

import (
	"fmt"
	"time"

	"tour-booking/apperrors"
	"tour-booking/logger"
	loyaltyService "tour-booking/services/loyalty"
	"tour-booking/types"
	loyaltyTypes "tour-booking/types/loyalty"
	"tour-booking/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// LoyaltyController handles loyalty points and tier HTTP requests
type LoyaltyController struct {
	DB      *gorm.DB
	Service *loyaltyService.Service
	Logger  *logger.AsyncLogger
}

// NewLoyaltyController creates a new loyalty controller
func NewLoyaltyController(db *gorm.DB, svc *loyaltyService.Service, asyncLogger *logger.AsyncLogger) *LoyaltyController {
	return &LoyaltyController{
		DB:      db,
		Service: svc,
		Logger:  asyncLogger,
	}
}

// Me returns the calling user's loyalty status snapshot
func (lc *LoyaltyController) Me(c *fiber.Ctx) error {
	userInfo, err := resolveUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: err.Error(),
			Data:    nil,
		})
	}

	balance, err := lc.Service.Balance(nil, userInfo.ID)
	if err != nil {
		logger.Error("Failed to compute balance", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	tier := lc.Service.TierForBalance(balance)
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Loyalty status retrieved successfully",
		Data: loyaltyTypes.LoyaltyStatus{
			PointsBalance:    balance,
			Tier:             tier,
			TierDiscount:     lc.Service.DiscountPercent(tier),
			LastTierUpdateAt: userInfo.LastTierUpdateAt,
		},
	})
}

// History returns the calling user's points ledger entries
func (lc *LoyaltyController) History(c *fiber.Ctx) error {
	userInfo, err := resolveUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: err.Error(),
			Data:    nil,
		})
	}

	entries, err := lc.Service.History(userInfo.ID, c.QueryInt("limit", 50))
	if err != nil {
		logger.Error("Failed to load points history", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Internal server error",
			Data:    nil,
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Points history retrieved successfully",
		Data:    entries,
	})
}

// RedeemPreview reports the redemption ceiling and discount for an amount
func (lc *LoyaltyController) RedeemPreview(c *fiber.Ctx) error {
	var req loyaltyTypes.RedeemPreviewRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	userInfo, err := resolveUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: err.Error(),
			Data:    nil,
		})
	}

	resp := loyaltyTypes.RedeemPreviewResponse{
		MaxRedeemablePoints: lc.Service.CalculateMaxRedeemablePoints(req.BookingAmount),
	}
	if req.PointsToUse > 0 {
		discount, err := lc.Service.ConvertPointsToMoney(nil, userInfo.ID, req.PointsToUse, req.BookingAmount)
		if err != nil {
			return c.Status(apperrors.HTTPStatus(err)).JSON(types.ApiResponse{
				Status:  apperrors.HTTPStatus(err),
				Message: err.Error(),
				Data:    nil,
			})
		}
		resp.DiscountAmount = discount
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Redemption preview computed successfully",
		Data:    resp,
	})
}

// AdjustPoints applies an admin ledger adjustment with the actor retained
func (lc *LoyaltyController) AdjustPoints(c *fiber.Ctx) error {
	var req loyaltyTypes.AdjustPointsRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
			Data:    nil,
		})
	}

	adminInfo, err := resolveUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(types.ApiResponse{
			Status:  fiber.StatusUnauthorized,
			Message: err.Error(),
			Data:    nil,
		})
	}

	adminEmail := adminInfo.Username
	if adminInfo.Email != nil {
		adminEmail = *adminInfo.Email
	}

	if err := lc.Service.AdminAdjustPoints(req.UserID, req.Points, req.Reason, adminEmail); err != nil {
		logger.Error("Failed to adjust points", err)
		return c.Status(apperrors.HTTPStatus(err)).JSON(types.ApiResponse{
			Status:  apperrors.HTTPStatus(err),
			Message: err.Error(),
			Data:    nil,
		})
	}

	logger.Success(fmt.Sprintf("Points adjusted for user %d by %s (%+d)", req.UserID, adminEmail, req.Points))

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Points adjusted successfully",
		Data:    nil,
	})
}

func resolveUser(c *fiber.Ctx) (*resolvedUser, error) {
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
	return &resolvedUser{
		ID:               userInfo.ID,
		Username:         userInfo.Username,
		Email:            userInfo.Email,
		LastTierUpdateAt: userInfo.LastTierUpdateAt,
	}, nil
}

type resolvedUser struct {
	ID               uint
	Username         string
	Email            *string
	LastTierUpdateAt *time.Time
}
