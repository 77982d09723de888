package services

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// PaymentConfig carries the provider credentials. Verification is a pure
// HMAC check so the service works without talking to the provider.
type PaymentConfig struct {
	KeyID     string
	KeySecret string
}

type paymentService struct {
	cfg    PaymentConfig
	logger *slog.Logger
}

func NewPaymentService(cfg PaymentConfig, logger *slog.Logger) PaymentService {
	return &paymentService{
		cfg:    cfg,
		logger: logger,
	}
}

func (s *paymentService) CreateOrder(ctx context.Context, req *CreatePaymentOrderRequest, userID uint) (*PaymentOrderResponse, error) {
	if s.cfg.KeySecret == "" {
		return nil, ErrPaymentNotConfigured
	}

	orderID, err := generateOrderID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate order id: %w", err)
	}

	resp := &PaymentOrderResponse{
		OrderID: orderID,
		// Provider amounts are in the smallest currency unit
		Amount:   req.Amount * 100,
		Currency: "INR",
		Receipt:  fmt.Sprintf("order_%d", time.Now().Unix()),
	}

	s.logger.Info("Payment order created", "order_id", resp.OrderID, "user_id", userID, "amount", resp.Amount)

	return resp, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, req *VerifyPaymentRequest, userID uint) (*PaymentVerificationResponse, error) {
	if s.cfg.KeySecret == "" {
		return nil, ErrPaymentNotConfigured
	}

	expected := signPayment(s.cfg.KeySecret, req.OrderID, req.PaymentID)
	if !hmac.Equal([]byte(expected), []byte(req.Signature)) {
		s.logger.Warn("Payment signature mismatch", "order_id", req.OrderID, "user_id", userID)
		return nil, ErrPaymentInvalidSignature
	}

	s.logger.Info("Payment verified", "order_id", req.OrderID, "payment_id", req.PaymentID, "user_id", userID)

	return &PaymentVerificationResponse{
		Verified:  true,
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
	}, nil
}

// signPayment computes the provider signature over "orderID|paymentID".
func signPayment(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func generateOrderID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "order_" + hex.EncodeToString(buf), nil
}
