package entity

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusAvailable   SlotStatus = "available"
	SlotStatusUnavailable SlotStatus = "unavailable"
	SlotStatusLocked      SlotStatus = "locked"
)

func (s SlotStatus) Valid() bool {
	switch s {
	case SlotStatusAvailable, SlotStatusUnavailable, SlotStatusLocked:
		return true
	}
	return false
}

type RecurrenceMode string

const (
	RecurrenceSpecific RecurrenceMode = "specific"
	RecurrenceWeekly   RecurrenceMode = "weekly"
	RecurrenceDaily    RecurrenceMode = "daily"
)

// Occurrences is how many dated copies an upsert in this mode produces.
func (m RecurrenceMode) Occurrences() (count int, stepDays int) {
	switch m {
	case RecurrenceWeekly:
		return 6, 7
	case RecurrenceDaily:
		return 7, 1
	default:
		return 1, 0
	}
}

func (m RecurrenceMode) Flags() (isWeekly, isDaily bool) {
	return m == RecurrenceWeekly, m == RecurrenceDaily
}

type TimeSlot struct {
	Id                 uuid.UUID
	AvailabilityId     uuid.UUID
	Slot               string
	Status             SlotStatus
	PaymentReferenceId *string
	LockedAt           *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SlotLock is the metadata stamped on a slot held for an external payment.
type SlotLock struct {
	PaymentReferenceId string
	LockedAt           time.Time
}

type Availability struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Date      string
	IsWeekly  bool
	IsDaily   bool
	TimeSlots []*TimeSlot
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Availability) Mode() RecurrenceMode {
	switch {
	case a.IsWeekly:
		return RecurrenceWeekly
	case a.IsDaily:
		return RecurrenceDaily
	default:
		return RecurrenceSpecific
	}
}

func (a *Availability) SlotByString(slot string) *TimeSlot {
	for _, ts := range a.TimeSlots {
		if ts.Slot == slot {
			return ts
		}
	}
	return nil
}

func (a *Availability) SlotById(id uuid.UUID) *TimeSlot {
	for _, ts := range a.TimeSlots {
		if ts.Id == id {
			return ts
		}
	}
	return nil
}

// SlotTransition is a compare-and-set on a slot's status.
type SlotTransition struct {
	SlotId uuid.UUID
	From   []SlotStatus
	To     SlotStatus
	// Lock is stamped when To is locked. Any other target clears the lock metadata.
	Lock *SlotLock
	// PaymentReferenceId, when set, additionally requires the slot to be held by that payment.
	PaymentReferenceId string
}
