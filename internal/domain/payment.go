package domain

import "time"

// PaymentStatus enumerates transaction outcomes reported by the gateway.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentMethod describes how a fine was paid.
type PaymentMethod struct {
	Type  string  `json:"type"`
	Brand *string `json:"brand,omitempty"`
	Last4 *string `json:"last4,omitempty"`
}

// PaymentTransaction records a settled fine.
type PaymentTransaction struct {
	ID             string        `json:"id"`
	ViolationID    string        `json:"violationId"`
	UserID         string        `json:"userId"`
	Amount         float64       `json:"amount"`
	Currency       string        `json:"currency"`
	Status         PaymentStatus `json:"status"`
	Method         PaymentMethod `json:"method"`
	TransactionRef *string       `json:"transactionRef,omitempty"`
	PaidAt         *time.Time    `json:"paidAt,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}
