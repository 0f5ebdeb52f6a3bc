package model

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id         uuid.UUID `gorm:"type:uuid;primaryKey"`
	SenderId   uuid.UUID `gorm:"type:uuid;not null;index:idx_message_pair"`
	ReceiverId uuid.UUID `gorm:"type:uuid;not null;index:idx_message_pair"`
	Body       string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (Message) TableName() string {
	return "messages"
}

// All returns every model managed by migrations.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Availability{},
		&TimeSlot{},
		&Appointment{},
		&Wallet{},
		&LedgerTransaction{},
		&EscrowHold{},
		&Message{},
	}
}
