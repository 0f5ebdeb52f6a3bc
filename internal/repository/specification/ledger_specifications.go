package specification

import (
	"star-booking-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByAppointmentID struct {
	ID uuid.UUID
}

func (s ByAppointmentID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("appointment_id = ?", s.ID)
}

type ByEscrowStatus struct {
	Status entity.EscrowStatus
}

func (s ByEscrowStatus) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", string(s.Status))
}
