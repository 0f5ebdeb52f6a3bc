package entity

import (
	"time"

	"github.com/google/uuid"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusInitiated TransactionStatus = "initiated"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// Open transactions can still be cancelled.
func (s TransactionStatus) Open() bool {
	return s == TransactionStatusPending || s == TransactionStatusInitiated
}

type PaymentMode string

const (
	PaymentModeCoin   PaymentMode = "coin"
	PaymentModeHybrid PaymentMode = "hybrid"
)

type TransactionType string

const TransactionTypeAppointment TransactionType = "appointment"

type Transaction struct {
	Id                uuid.UUID
	Type              TransactionType
	PayerId           uuid.UUID
	ReceiverId        uuid.UUID
	Amount            float64
	CoinAmount        float64
	ExternalAmount    float64
	Status            TransactionStatus
	PaymentMode       PaymentMode
	ExternalPaymentId *string
	Description       string
	Metadata          map[string]interface{}
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Wallet struct {
	UserId    uuid.UUID
	Coins     float64
	Escrow    float64
	Jackpot   float64
	UpdatedAt time.Time
}

type EscrowStatus string

const (
	EscrowStatusHeld     EscrowStatus = "held"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
)

type EscrowHold struct {
	Id            uuid.UUID
	StarId        uuid.UUID
	FanId         uuid.UUID
	AppointmentId uuid.UUID
	TransactionId uuid.UUID
	Amount        float64
	Status        EscrowStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PaymentOutcome is what the ledger returns when a payment is opened.
// Concrete values are CoinPayment or HybridPayment.
type PaymentOutcome interface {
	TransactionID() uuid.UUID
	Mode() PaymentMode
	Status() TransactionStatus
}

// CoinPayment was settled in full from the payer's coin balance.
type CoinPayment struct {
	TransactionId uuid.UUID
}

func (p CoinPayment) TransactionID() uuid.UUID  { return p.TransactionId }
func (p CoinPayment) Mode() PaymentMode         { return PaymentModeCoin }
func (p CoinPayment) Status() TransactionStatus { return TransactionStatusCompleted }

// HybridPayment still waits for the external part to be paid through the gateway.
type HybridPayment struct {
	TransactionId     uuid.UUID
	ExternalPaymentId string
	ExternalAmount    float64
	CoinAmount        float64
	RedirectURL       string
}

func (p HybridPayment) TransactionID() uuid.UUID  { return p.TransactionId }
func (p HybridPayment) Mode() PaymentMode         { return PaymentModeHybrid }
func (p HybridPayment) Status() TransactionStatus { return TransactionStatusInitiated }

// WalletDelta is applied with atomic increments.
type WalletDelta struct {
	Coins   float64
	Escrow  float64
	Jackpot float64
}
