package payment

import (
	"net/url"
	"testing"
	"time"

	"tour-booking/apperrors"
	"tour-booking/config"

	"github.com/pkg/errors"
)

func testService() *Service {
	return NewPaymentService(&config.PaymentConfig{
		TmnCode:    "DEMOTMN1",
		HashSecret: "test-shared-secret",
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "https://example.com/payment/return",
		Version:    "2.1.0",
		Locale:     "vn",
		CurrCode:   "VND",
	})
}

func testFields(svc *Service) map[string]string {
	createdAt := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	fields := map[string]string{
		"vnp_Version":       svc.Config.Version,
		"vnp_Command":       "pay",
		"vnp_TmnCode":       svc.Config.TmnCode,
		"vnp_Amount":        "250000000",
		"vnp_CurrCode":      "VND",
		"vnp_TxnRef":        "TRB250314103000AB12CD",
		"vnp_OrderInfo":     "Payment for tour booking TRB250314103000AB12CD",
		"vnp_ResponseCode":  "00",
		"vnp_TransactionNo": "14226112",
		"vnp_BankCode":      "NCB",
		"vnp_PayDate":       createdAt.Format(createDateLayout),
	}
	fields[fieldSecureHash] = svc.sign(canonicalQuery(fields))
	return fields
}

func TestCreatePaymentURLDeterministic(t *testing.T) {
	svc := testService()
	req := PaymentURLRequest{
		BookingID:   42,
		BookingCode: "TRB250314103000AB12CD",
		Amount:      2500000,
		Description: "Payment for tour booking TRB250314103000AB12CD",
		CreatedAt:   time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
		ClientIP:    "203.0.113.7",
	}

	first, err := svc.CreatePaymentURL(req)
	if err != nil {
		t.Fatalf("CreatePaymentURL: %v", err)
	}
	second, err := svc.CreatePaymentURL(req)
	if err != nil {
		t.Fatalf("CreatePaymentURL: %v", err)
	}
	if first != second {
		t.Fatalf("identical inputs produced different URLs:\n%s\n%s", first, second)
	}

	parsed, err := url.Parse(first)
	if err != nil {
		t.Fatalf("parse URL: %v", err)
	}
	q := parsed.Query()
	if q.Get("vnp_TxnRef") != req.BookingCode {
		t.Errorf("vnp_TxnRef = %q, want %q", q.Get("vnp_TxnRef"), req.BookingCode)
	}
	if q.Get("vnp_Amount") != "250000000" {
		t.Errorf("vnp_Amount = %q, want minor units 250000000", q.Get("vnp_Amount"))
	}
	if q.Get(fieldSecureHash) == "" {
		t.Error("signed URL carries no secure hash")
	}
}

func TestCreatePaymentURLAmountRounding(t *testing.T) {
	svc := testService()

	// Gateway amounts are in minor units; binary float amounts like 19.99
	// must round to the nearest unit, not truncate to 1998.
	tests := []struct {
		amount float64
		want   string
	}{
		{19.99, "1999"},
		{0.29, "29"},
		{8.2, "820"},
		{1500000, "150000000"},
	}
	for _, tt := range tests {
		raw, err := svc.CreatePaymentURL(PaymentURLRequest{
			BookingCode: "TRB250314103000AB12CD",
			Amount:      tt.amount,
			CreatedAt:   time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("CreatePaymentURL(%v): %v", tt.amount, err)
		}
		parsed, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("parse URL: %v", err)
		}
		if got := parsed.Query().Get("vnp_Amount"); got != tt.want {
			t.Errorf("amount %v: vnp_Amount = %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestCreatePaymentURLValidation(t *testing.T) {
	svc := testService()

	tests := []struct {
		name string
		req  PaymentURLRequest
	}{
		{"missing code", PaymentURLRequest{Amount: 100, CreatedAt: time.Now()}},
		{"zero amount", PaymentURLRequest{BookingCode: "TRB1", CreatedAt: time.Now()}},
		{"negative amount", PaymentURLRequest{BookingCode: "TRB1", Amount: -5, CreatedAt: time.Now()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreatePaymentURL(tt.req); !errors.Is(err, apperrors.ErrValidation) {
				t.Fatalf("got %v, want ErrValidation", err)
			}
		})
	}
}

func TestValidateSignatureRoundTrip(t *testing.T) {
	svc := testService()
	fields := testFields(svc)

	if !svc.ValidateSignature(fields, fields[fieldSecureHash]) {
		t.Fatal("signature round trip failed on well-formed field set")
	}
}

func TestValidateSignatureTampering(t *testing.T) {
	svc := testService()

	t.Run("flip field character", func(t *testing.T) {
		for key := range testFields(svc) {
			if key == fieldSecureHash {
				continue
			}
			fields := testFields(svc)
			fields[key] = flipLastChar(fields[key])
			if svc.ValidateSignature(fields, fields[fieldSecureHash]) {
				t.Errorf("tampered field %s still validated", key)
			}
		}
	})

	t.Run("flip signature character", func(t *testing.T) {
		fields := testFields(svc)
		if svc.ValidateSignature(fields, flipLastChar(fields[fieldSecureHash])) {
			t.Error("tampered signature still validated")
		}
	})

	t.Run("empty signature", func(t *testing.T) {
		fields := testFields(svc)
		if svc.ValidateSignature(fields, "") {
			t.Error("empty signature validated")
		}
	})

	t.Run("malformed input does not panic", func(t *testing.T) {
		if svc.ValidateSignature(map[string]string{}, "zz") {
			t.Error("garbage validated")
		}
		if svc.ValidateSignature(nil, "zz") {
			t.Error("nil fields validated")
		}
	})
}

func TestProcessCallback(t *testing.T) {
	svc := testService()

	t.Run("success code", func(t *testing.T) {
		fields := testFields(svc)
		result, err := svc.ProcessCallback(fields)
		if err != nil {
			t.Fatalf("ProcessCallback: %v", err)
		}
		if !result.Success {
			t.Error("response code 00 should map to success")
		}
		if result.BookingCode != "TRB250314103000AB12CD" {
			t.Errorf("BookingCode = %q", result.BookingCode)
		}
		if result.TransactionID != "14226112" {
			t.Errorf("TransactionID = %q", result.TransactionID)
		}
		if result.BankCode != "NCB" {
			t.Errorf("BankCode = %q", result.BankCode)
		}
		if result.Amount != 2500000 {
			t.Errorf("Amount = %v, want 2500000", result.Amount)
		}
	})

	t.Run("failure code", func(t *testing.T) {
		fields := testFields(svc)
		delete(fields, fieldSecureHash)
		fields["vnp_ResponseCode"] = "24" // customer cancelled at the gateway
		fields[fieldSecureHash] = svc.sign(canonicalQuery(fields))

		result, err := svc.ProcessCallback(fields)
		if err != nil {
			t.Fatalf("ProcessCallback: %v", err)
		}
		if result.Success {
			t.Error("non-00 response code mapped to success")
		}
		if result.ResponseCode != "24" {
			t.Errorf("ResponseCode = %q", result.ResponseCode)
		}
	})

	t.Run("invalid signature reported uniformly", func(t *testing.T) {
		missing := testFields(svc)
		delete(missing, "vnp_TxnRef")

		tampered := testFields(svc)
		tampered[fieldSecureHash] = flipLastChar(tampered[fieldSecureHash])

		for name, fields := range map[string]map[string]string{"missing field": missing, "bad hash": tampered} {
			if _, err := svc.ProcessCallback(fields); !errors.Is(err, apperrors.ErrSignatureInvalid) {
				t.Errorf("%s: got %v, want ErrSignatureInvalid", name, err)
			}
		}
	})
}

func TestCanonicalQueryOrdering(t *testing.T) {
	canonical := canonicalQuery(map[string]string{
		"vnp_TxnRef":  "b",
		"vnp_Amount":  "100",
		"vnp_TmnCode": "a",
		"vnp_Empty":   "",
	})

	want := "vnp_Amount=100&vnp_TmnCode=a&vnp_TxnRef=b"
	if canonical != want {
		t.Fatalf("canonicalQuery = %q, want %q", canonical, want)
	}
}

func flipLastChar(s string) string {
	if s == "" {
		return "x"
	}
	replacement := byte('0')
	if s[len(s)-1] == '0' {
		replacement = '1'
	}
	return s[:len(s)-1] + string(replacement)
}
