package routes

import (
	"tour-booking/config"
	"tour-booking/constants"
	bookingController "tour-booking/controllers/booking"
	departureController "tour-booking/controllers/departure"
	guideController "tour-booking/controllers/guide"
	loyaltyController "tour-booking/controllers/loyalty"
	paymentController "tour-booking/controllers/payment"
	"tour-booking/logger"
	"tour-booking/middleware"
	bookingService "tour-booking/services/booking"
	capacityService "tour-booking/services/capacity"
	guideService "tour-booking/services/guide"
	loyaltyService "tour-booking/services/loyalty"
	paymentService "tour-booking/services/payment"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB) {
	asyncLogger := logger.NewAsyncLogger(db)

	capacity := capacityService.NewCapacityService(db)
	loyalty := loyaltyService.NewLoyaltyService(db, config.NewLoyaltyConfig())
	guides := guideService.NewGuideService(db)
	gateway := paymentService.NewPaymentService(config.NewPaymentConfig())
	bookings := bookingService.NewBookingService(db, capacity, loyalty, guides, gateway, config.NewBookingConfig())

	bookingCtrl := bookingController.NewBookingController(db, bookings, asyncLogger)
	departureCtrl := departureController.NewDepartureController(db, capacity, asyncLogger)
	guideCtrl := guideController.NewGuideController(db, guides, asyncLogger)
	loyaltyCtrl := loyaltyController.NewLoyaltyController(db, loyalty, asyncLogger)
	paymentCtrl := paymentController.NewPaymentController(db, bookings, gateway, asyncLogger)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	api := app.Group("/api")
	api.Use(middleware.RequestLogger(asyncLogger))

	/*=============================================================================
	| Public Routes
	===============================================================================*/
	api.Get("/payment/vnpay/callback", paymentCtrl.Callback)
	api.Get("/tours/:id/departures", departureCtrl.ListForTour)
	api.Get("/tours/:id/guides/availability", guideCtrl.Availability)

	/*=============================================================================
	| Booking Routes
	===============================================================================*/
	bookingGroup := api.Group("/bookings")

	bookingGroup.Post("/", middleware.RequireAnyPermission(), bookingCtrl.Store)
	bookingGroup.Get("/", middleware.RequireAnyPermission(), bookingCtrl.Index)
	bookingGroup.Get("/:code", middleware.RequireAnyPermission(), bookingCtrl.Show)
	bookingGroup.Post("/:id/cancel", middleware.RequireAnyPermission(), bookingCtrl.Cancel)
	bookingGroup.Post("/:id/payment-url", middleware.RequireAnyPermission(), paymentCtrl.CreatePaymentURL)

	bookingGroup.Patch("/:id/status", middleware.RequirePermissions(
		constants.PermBookingManage,
	), bookingCtrl.UpdateStatus)

	/*=============================================================================
	| Departure Admin Routes
	===============================================================================*/
	departureGroup := api.Group("/departures")

	departureGroup.Post("/bulk-generate", middleware.RequirePermissions(
		constants.PermDepartureAdmin,
	), departureCtrl.BulkGenerate)

	departureGroup.Post("/:id/close", middleware.RequirePermissions(
		constants.PermDepartureAdmin,
	), departureCtrl.Close)

	/*=============================================================================
	| Loyalty Routes
	===============================================================================*/
	loyaltyGroup := api.Group("/loyalty")

	loyaltyGroup.Get("/me", middleware.RequireAnyPermission(), loyaltyCtrl.Me)
	loyaltyGroup.Get("/me/history", middleware.RequireAnyPermission(), loyaltyCtrl.History)
	loyaltyGroup.Post("/redeem-preview", middleware.RequireAnyPermission(), loyaltyCtrl.RedeemPreview)

	loyaltyGroup.Post("/adjust", middleware.RequirePermissions(
		constants.PermLoyaltyAdmin,
	), loyaltyCtrl.AdjustPoints)
}
