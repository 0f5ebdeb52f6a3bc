package specification

import (
	"star-booking-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByStarID struct {
	StarID uuid.UUID
}

func (s ByStarID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("star_id = ?", s.StarID)
}

type ByFanID struct {
	FanID uuid.UUID
}

func (s ByFanID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("fan_id = ?", s.FanID)
}

type ByAppointmentStatuses struct {
	Statuses []entity.AppointmentStatus
}

func (s ByAppointmentStatuses) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", AppointmentStatusStrings(s.Statuses))
}

type ByPaymentStatuses struct {
	Statuses []entity.AppointmentPaymentStatus
}

func (s ByPaymentStatuses) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("payment_status IN ?", PaymentStatusStrings(s.Statuses))
}

// PaymentStatusNot hides appointments whose payment is in the given state.
type PaymentStatusNot struct {
	Status entity.AppointmentPaymentStatus
}

func (s PaymentStatusNot) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("payment_status <> ?", string(s.Status))
}

type ByTimeSlotID struct {
	ID uuid.UUID
}

func (s ByTimeSlotID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("time_slot_id = ?", s.ID)
}

type ByTimeSlotIDs struct {
	IDs []uuid.UUID
}

func (s ByTimeSlotIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("time_slot_id IN ?", s.IDs)
}

type ByTransactionID struct {
	ID uuid.UUID
}

func (s ByTransactionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("transaction_id = ?", s.ID)
}

// AppointmentStatusStrings converts statuses for IN clauses.
func AppointmentStatusStrings(statuses []entity.AppointmentStatus) []string {
	values := make([]string, len(statuses))
	for i, st := range statuses {
		values[i] = string(st)
	}
	return values
}

func PaymentStatusStrings(statuses []entity.AppointmentPaymentStatus) []string {
	values := make([]string, len(statuses))
	for i, st := range statuses {
		values[i] = string(st)
	}
	return values
}
