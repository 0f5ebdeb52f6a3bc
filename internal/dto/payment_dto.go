package dto

import (
	"time"

	"star-booking-be/internal/entity"

	"github.com/google/uuid"
)

// PayerContact is forwarded to the payment gateway for the external part of a payment.
type PayerContact struct {
	Name  string
	Email string
	Phone string
}

type CreateTransactionRequest struct {
	Type        entity.TransactionType
	PayerId     uuid.UUID
	ReceiverId  uuid.UUID
	Amount      float64
	Description string
	Metadata    map[string]interface{}
	Payer       PayerContact
}

type MidtransWebhookRequest struct {
	TransactionStatus string `json:"transaction_status" validate:"required"`
	OrderId           string `json:"order_id" validate:"required"`
	FraudStatus       string `json:"fraud_status"`
	SignatureKey      string `json:"signature_key" validate:"required"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
}

type LockSweepSummary struct {
	Scanned  int       `json:"scanned"`
	Released int       `json:"released"`
	Skipped  int       `json:"skipped"`
	Errors   int       `json:"errors"`
	RanAt    time.Time `json:"ran_at"`
}
