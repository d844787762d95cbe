package payments

import (
	"fmt"
	"time"
)

// Order is a settlement order issued before funds are captured
type Order struct {
	ID         string `json:"id"`
	Entity     string `json:"entity"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"created_at"`
}

// Payment is a captured payment against an order
type Payment struct {
	ID        string `json:"id"`
	Entity    string `json:"entity"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	OrderID   string `json:"order_id"`
	Method    string `json:"method"`
	Captured  bool   `json:"captured"`
	CreatedAt int64  `json:"created_at"`
}

// Verification is the result of a payment signature check
type Verification struct {
	Verified  bool   `json:"verified"`
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Signature string `json:"signature"`
}

// Refund is a processed refund against a payment
type Refund struct {
	ID        string `json:"id"`
	Entity    string `json:"entity"`
	Amount    int64  `json:"amount"`
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// Gateway is the settlement processor boundary. The bonus pool ledger only
// talks to this interface; a real processor is a second implementation.
type Gateway interface {
	CreateOrder(amount int64, currency string) Order
	CreatePayment(amount int64, orderID, currency string) Payment
	VerifyPayment(paymentID, orderID string) Verification
	CreateRefund(paymentID string, amount int64) Refund
}

// MockGateway issues synthetic, time-derived identifiers. They carry no
// cryptographic guarantee and are not suitable for real settlement.
type MockGateway struct {
	now func() time.Time
}

// NewMockGateway creates a mock gateway using the wall clock
func NewMockGateway() *MockGateway {
	return &MockGateway{now: time.Now}
}

// NewMockGatewayWithClock creates a mock gateway with an injected clock
func NewMockGatewayWithClock(now func() time.Time) *MockGateway {
	return &MockGateway{now: now}
}

func (g *MockGateway) CreateOrder(amount int64, currency string) Order {
	ts := g.now().UnixMilli()
	return Order{
		ID:         fmt.Sprintf("mock_order_%d", ts),
		Entity:     "order",
		Amount:     amount,
		AmountPaid: 0,
		AmountDue:  amount,
		Currency:   currency,
		Receipt:    fmt.Sprintf("rcpt_%d", ts),
		Status:     "created",
		CreatedAt:  ts,
	}
}

func (g *MockGateway) CreatePayment(amount int64, orderID, currency string) Payment {
	ts := g.now().UnixMilli()
	return Payment{
		ID:        fmt.Sprintf("mock_pay_%d", ts),
		Entity:    "payment",
		Amount:    amount,
		Currency:  currency,
		Status:    "captured",
		OrderID:   orderID,
		Method:    "mock",
		Captured:  true,
		CreatedAt: ts,
	}
}

func (g *MockGateway) VerifyPayment(paymentID, orderID string) Verification {
	return Verification{
		Verified:  true,
		PaymentID: paymentID,
		OrderID:   orderID,
		Signature: fmt.Sprintf("mock_sign_%d", g.now().UnixMilli()),
	}
}

func (g *MockGateway) CreateRefund(paymentID string, amount int64) Refund {
	ts := g.now().UnixMilli()
	return Refund{
		ID:        fmt.Sprintf("mock_refund_%d", ts),
		Entity:    "refund",
		Amount:    amount,
		PaymentID: paymentID,
		Status:    "processed",
		CreatedAt: ts,
	}
}
