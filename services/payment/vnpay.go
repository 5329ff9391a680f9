package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"tour-booking/apperrors"
	"tour-booking/config"

	"github.com/pkg/errors"
)

// Gateway callback response codes. "00" is the only success code.
const ResponseCodeSuccess = "00"

// Reserved signature fields, excluded from the canonical string.
const (
	fieldSecureHash     = "vnp_SecureHash"
	fieldSecureHashType = "vnp_SecureHashType"
)

const createDateLayout = "20060102150405"

// PaymentURLRequest carries everything needed to build a signed redirect URL.
type PaymentURLRequest struct {
	BookingID   uint
	BookingCode string
	Amount      float64
	Description string
	CreatedAt   time.Time
	ClientIP    string
}

// CallbackResult is the decoded, signature-verified gateway callback for the
// orchestrator to apply.
type CallbackResult struct {
	Success       bool    `json:"success"`
	BookingCode   string  `json:"booking_code"`
	TransactionID string  `json:"transaction_id"`
	Amount        float64 `json:"amount"`
	BankCode      string  `json:"bank_code"`
	ResponseCode  string  `json:"response_code"`
}

// Service builds signed redirect URLs and verifies signed callbacks for the
// VNPay-style gateway. Signatures are HMAC-SHA256 over the canonically
// ordered, URL-encoded field set under the shared merchant secret.
type Service struct {
	Config *config.PaymentConfig
}

// NewPaymentService creates a new payment gateway adapter
func NewPaymentService(cfg *config.PaymentConfig) *Service {
	return &Service{Config: cfg}
}

// CreatePaymentURL assembles the required field set, signs it and returns the
// full redirect URL. Identical inputs always yield an identical signature.
func (s *Service) CreatePaymentURL(req PaymentURLRequest) (string, error) {
	if req.BookingCode == "" {
		return "", errors.Wrap(apperrors.ErrValidation, "booking code is required")
	}
	if req.Amount <= 0 {
		return "", errors.Wrap(apperrors.ErrValidation, "amount must be positive")
	}

	fields := map[string]string{
		"vnp_Version":    s.Config.Version,
		"vnp_Command":    "pay",
		"vnp_TmnCode":    s.Config.TmnCode,
		"vnp_Amount":     strconv.FormatInt(int64(math.Round(req.Amount*100)), 10), // gateway expects minor units
		"vnp_CurrCode":   s.Config.CurrCode,
		"vnp_TxnRef":     req.BookingCode,
		"vnp_OrderInfo":  req.Description,
		"vnp_OrderType":  "other",
		"vnp_Locale":     s.Config.Locale,
		"vnp_ReturnUrl":  s.Config.ReturnURL,
		"vnp_IpAddr":     req.ClientIP,
		"vnp_CreateDate": req.CreatedAt.Format(createDateLayout),
		"vnp_ExpireDate": req.CreatedAt.Add(15 * time.Minute).Format(createDateLayout),
	}

	canonical := canonicalQuery(fields)
	signature := s.sign(canonical)

	return fmt.Sprintf("%s?%s&%s=%s", s.Config.PayURL, canonical, fieldSecureHash, signature), nil
}

// ValidateSignature recomputes the signature over the field set (excluding
// the signature fields themselves) and compares in constant time. Malformed
// input is simply invalid; this never errors.
func (s *Service) ValidateSignature(fields map[string]string, providedSignature string) bool {
	if providedSignature == "" {
		return false
	}

	filtered := make(map[string]string, len(fields))
	for k, v := range fields {
		if k == fieldSecureHash || k == fieldSecureHashType {
			continue
		}
		filtered[k] = v
	}

	expected := s.sign(canonicalQuery(filtered))
	return hmac.Equal([]byte(strings.ToLower(providedSignature)), []byte(expected))
}

// ProcessCallback validates the callback signature first and only then
// decodes the gateway fields. Signature failures are reported uniformly so
// callers cannot distinguish a missing field from a bad hash.
func (s *Service) ProcessCallback(params map[string]string) (*CallbackResult, error) {
	if !s.ValidateSignature(params, params[fieldSecureHash]) {
		return nil, apperrors.ErrSignatureInvalid
	}

	amount := 0.0
	if raw := params["vnp_Amount"]; raw != "" {
		minor, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.Wrap(apperrors.ErrValidation, "malformed callback amount")
		}
		amount = float64(minor) / 100
	}

	code := params["vnp_ResponseCode"]
	return &CallbackResult{
		Success:       code == ResponseCodeSuccess,
		BookingCode:   params["vnp_TxnRef"],
		TransactionID: params["vnp_TransactionNo"],
		Amount:        amount,
		BankCode:      params["vnp_BankCode"],
		ResponseCode:  code,
	}, nil
}

// sign computes the lowercase hex HMAC-SHA256 of the canonical string under
// the merchant secret.
func (s *Service) sign(canonical string) string {
	mac := hmac.New(sha256.New, []byte(s.Config.HashSecret))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalQuery serializes fields as URL-encoded key=value pairs in fixed
// ascending key order, skipping empty values.
func canonicalQuery(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(fields[k]))
	}
	return b.String()
}
