package config

import (
	"os"
	"strconv"
)

// LoyaltyConfig holds the externally supplied loyalty parameters. None of
// these are hardcoded in the engine; defaults only apply when the env var is
// absent.
type LoyaltyConfig struct {
	EarnRate         float64 // points earned per currency unit paid
	PointValue       float64 // currency value of one point
	MaxRedeemPercent float64 // max fraction of a booking payable with points
	SilverThreshold  int
	GoldThreshold    int
	BronzeDiscount   float64
	SilverDiscount   float64
	GoldDiscount     float64
}

// PaymentConfig holds the gateway merchant credentials and endpoints.
type PaymentConfig struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
	Version    string
	Locale     string
	CurrCode   string
}

// BookingConfig holds orchestrator policy values.
type BookingConfig struct {
	CodePrefix         string
	FullRefundDays     int     // cancellations at least this many days before the tour date refund in full
	LateRefundFraction float64 // fraction of the paid amount refunded on late cancellation
}

func NewLoyaltyConfig() *LoyaltyConfig {
	return &LoyaltyConfig{
		EarnRate:         getFloat("LOYALTY_EARN_RATE", 0.01),
		PointValue:       getFloat("LOYALTY_POINT_VALUE", 1000),
		MaxRedeemPercent: getFloat("LOYALTY_MAX_REDEEM_PERCENT", 0.5),
		SilverThreshold:  getInt("LOYALTY_SILVER_THRESHOLD", 1000),
		GoldThreshold:    getInt("LOYALTY_GOLD_THRESHOLD", 5000),
		BronzeDiscount:   getFloat("LOYALTY_DISCOUNT_BRONZE", 0),
		SilverDiscount:   getFloat("LOYALTY_DISCOUNT_SILVER", 0.05),
		GoldDiscount:     getFloat("LOYALTY_DISCOUNT_GOLD", 0.10),
	}
}

func NewPaymentConfig() *PaymentConfig {
	return &PaymentConfig{
		TmnCode:    os.Getenv("VNPAY_TMN_CODE"),
		HashSecret: os.Getenv("VNPAY_HASH_SECRET"),
		PayURL:     getString("VNPAY_PAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
		ReturnURL:  os.Getenv("VNPAY_RETURN_URL"),
		Version:    getString("VNPAY_VERSION", "2.1.0"),
		Locale:     getString("VNPAY_LOCALE", "vn"),
		CurrCode:   getString("VNPAY_CURR_CODE", "VND"),
	}
}

func NewBookingConfig() *BookingConfig {
	return &BookingConfig{
		CodePrefix:         getString("BOOKING_CODE_PREFIX", "TRB"),
		FullRefundDays:     getInt("BOOKING_FULL_REFUND_DAYS", 7),
		LateRefundFraction: getFloat("BOOKING_LATE_REFUND_FRACTION", 0.5),
	}
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
