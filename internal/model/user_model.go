package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Id               uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName         string    `gorm:"type:varchar(255);not null"`
	Email            string    `gorm:"type:varchar(255);index"`
	Phone            string    `gorm:"type:varchar(50)"`
	Role             string    `gorm:"type:varchar(20);not null;index"`
	Country          string    `gorm:"type:varchar(100)"`
	AppointmentPrice float64   `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
