package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Wallet struct {
	UserId    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Coins     float64   `gorm:"type:decimal(12,2);not null;default:0"`
	Escrow    float64   `gorm:"type:decimal(12,2);not null;default:0"`
	Jackpot   float64   `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Wallet) TableName() string {
	return "wallets"
}

type LedgerTransaction struct {
	Id                uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Type              string         `gorm:"type:varchar(30);not null"`
	PayerId           uuid.UUID      `gorm:"type:uuid;not null;index"`
	ReceiverId        uuid.UUID      `gorm:"type:uuid;not null;index"`
	Amount            float64        `gorm:"type:decimal(12,2);not null"`
	CoinAmount        float64        `gorm:"type:decimal(12,2);not null;default:0"`
	ExternalAmount    float64        `gorm:"type:decimal(12,2);not null;default:0"`
	Status            string         `gorm:"type:varchar(20);not null;index"`
	PaymentMode       string         `gorm:"type:varchar(20);not null"`
	ExternalPaymentId *string        `gorm:"type:varchar(128)"`
	Description       string         `gorm:"type:text"`
	Metadata          datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt         time.Time      `gorm:"autoCreateTime"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime"`
}

func (LedgerTransaction) TableName() string {
	return "ledger_transactions"
}

type EscrowHold struct {
	Id            uuid.UUID `gorm:"type:uuid;primaryKey"`
	StarId        uuid.UUID `gorm:"type:uuid;not null;index"`
	FanId         uuid.UUID `gorm:"type:uuid;not null"`
	AppointmentId uuid.UUID `gorm:"type:uuid;not null;index"`
	TransactionId uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount        float64   `gorm:"type:decimal(12,2);not null"`
	Status        string    `gorm:"type:varchar(20);not null;index"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (EscrowHold) TableName() string {
	return "escrow_holds"
}
