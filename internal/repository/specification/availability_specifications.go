package specification

import (
	"star-booking-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByDate struct {
	Date string
}

func (s ByDate) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("date = ?", s.Date)
}

type ByDates struct {
	Dates []string
}

func (s ByDates) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("date IN ?", s.Dates)
}

// DateFrom keeps dates on or after Date. YYYY-MM-DD strings compare chronologically.
type DateFrom struct {
	Date string
}

func (s DateFrom) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("date >= ?", s.Date)
}

type ByRecurrence struct {
	Mode entity.RecurrenceMode
}

func (s ByRecurrence) Apply(db *gorm.DB) *gorm.DB {
	weekly, daily := s.Mode.Flags()
	return db.Where("is_weekly = ? AND is_daily = ?", weekly, daily)
}

type NotRecurrence struct {
	Mode entity.RecurrenceMode
}

func (s NotRecurrence) Apply(db *gorm.DB) *gorm.DB {
	weekly, daily := s.Mode.Flags()
	return db.Where("NOT (is_weekly = ? AND is_daily = ?)", weekly, daily)
}

type ByAvailabilityID struct {
	ID uuid.UUID
}

func (s ByAvailabilityID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("availability_id = ?", s.ID)
}

type ByAvailabilityIDs struct {
	IDs []uuid.UUID
}

func (s ByAvailabilityIDs) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("availability_id IN ?", s.IDs)
}

type BySlot struct {
	Slot string
}

func (s BySlot) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("slot = ?", s.Slot)
}

type BySlotStatuses struct {
	Statuses []entity.SlotStatus
}

func (s BySlotStatuses) Apply(db *gorm.DB) *gorm.DB {
	values := make([]string, len(s.Statuses))
	for i, st := range s.Statuses {
		values[i] = string(st)
	}
	return db.Where("status IN ?", values)
}

type ByPaymentReference struct {
	Reference string
}

func (s ByPaymentReference) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("payment_reference_id = ?", s.Reference)
}
