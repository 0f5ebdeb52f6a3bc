package model

import (
	"time"

	"github.com/google/uuid"
)

type Appointment struct {
	Id                  uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StarId              uuid.UUID  `gorm:"type:uuid;not null;index"`
	FanId               uuid.UUID  `gorm:"type:uuid;not null;index"`
	AvailabilityId      uuid.UUID  `gorm:"type:uuid;not null"`
	TimeSlotId          uuid.UUID  `gorm:"type:uuid;not null;index"`
	Date                string     `gorm:"type:varchar(10);not null"`
	Time                string     `gorm:"type:varchar(20);not null"`
	UtcStartTime        *time.Time `gorm:"index"`
	Status              string     `gorm:"type:varchar(20);not null;index"`
	PaymentStatus       string     `gorm:"type:varchar(20);not null;index"`
	Price               float64    `gorm:"type:decimal(12,2);not null"`
	TransactionId       *uuid.UUID `gorm:"type:uuid;index"`
	CallDuration        int64      `gorm:"not null;default:0"`
	CompletedAt         *time.Time
	IsRescheduled       bool       `gorm:"not null;default:false"`
	ParentAppointmentId *uuid.UUID `gorm:"type:uuid"`
	RescheduleReason    string     `gorm:"type:varchar(20)"`
	CreatedAt           time.Time  `gorm:"autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"autoUpdateTime"`
}

func (Appointment) TableName() string {
	return "appointments"
}
