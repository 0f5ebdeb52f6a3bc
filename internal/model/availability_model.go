package model

import (
	"time"

	"github.com/google/uuid"
)

type Availability struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_availability_user_date"`
	Date      string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_availability_user_date;index"`
	IsWeekly  bool      `gorm:"not null;default:false"`
	IsDaily   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	TimeSlots []TimeSlot `gorm:"foreignKey:AvailabilityId;constraint:OnDelete:CASCADE"`
}

func (Availability) TableName() string {
	return "availabilities"
}

type TimeSlot struct {
	Id                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	AvailabilityId     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_time_slot_availability_slot"`
	Slot               string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_time_slot_availability_slot"`
	Status             string    `gorm:"type:varchar(20);not null;index"`
	PaymentReferenceId *string   `gorm:"type:varchar(64);index"`
	LockedAt           *time.Time
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

func (TimeSlot) TableName() string {
	return "time_slots"
}
