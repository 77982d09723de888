package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestPaymentCreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("order carries amount in subunits", func(t *testing.T) {
		s := &paymentService{
			cfg:    PaymentConfig{KeyID: "key", KeySecret: "secret"},
			logger: testLogger(),
		}

		resp, err := s.CreateOrder(ctx, &CreatePaymentOrderRequest{Amount: 250}, 1)
		if err != nil {
			t.Fatalf("CreateOrder failed: %v", err)
		}
		if resp.Amount != 25000 {
			t.Errorf("Expected amount 25000, got %d", resp.Amount)
		}
		if resp.Currency != "INR" {
			t.Errorf("Expected currency INR, got %s", resp.Currency)
		}
		if !strings.HasPrefix(resp.OrderID, "order_") {
			t.Errorf("Unexpected order id format: %s", resp.OrderID)
		}
	})

	t.Run("unconfigured provider", func(t *testing.T) {
		s := &paymentService{logger: testLogger()}

		_, err := s.CreateOrder(ctx, &CreatePaymentOrderRequest{Amount: 100}, 1)
		if !errors.Is(err, ErrPaymentNotConfigured) {
			t.Fatalf("Expected ErrPaymentNotConfigured, got %v", err)
		}
	})
}

func TestPaymentVerify(t *testing.T) {
	ctx := context.Background()
	s := &paymentService{
		cfg:    PaymentConfig{KeyID: "key", KeySecret: "secret"},
		logger: testLogger(),
	}

	t.Run("valid signature", func(t *testing.T) {
		resp, err := s.VerifyPayment(ctx, &VerifyPaymentRequest{
			OrderID:   "order_abc",
			PaymentID: "pay_123",
			Signature: signPayment("secret", "order_abc", "pay_123"),
		}, 1)
		if err != nil {
			t.Fatalf("VerifyPayment failed: %v", err)
		}
		if !resp.Verified {
			t.Error("Expected payment to verify")
		}
	})

	t.Run("tampered signature", func(t *testing.T) {
		_, err := s.VerifyPayment(ctx, &VerifyPaymentRequest{
			OrderID:   "order_abc",
			PaymentID: "pay_123",
			Signature: signPayment("secret", "order_abc", "pay_999"),
		}, 1)
		if !errors.Is(err, ErrPaymentInvalidSignature) {
			t.Fatalf("Expected ErrPaymentInvalidSignature, got %v", err)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := s.VerifyPayment(ctx, &VerifyPaymentRequest{
			OrderID:   "order_abc",
			PaymentID: "pay_123",
			Signature: signPayment("other-secret", "order_abc", "pay_123"),
		}, 1)
		if !errors.Is(err, ErrPaymentInvalidSignature) {
			t.Fatalf("Expected ErrPaymentInvalidSignature, got %v", err)
		}
	})
}
