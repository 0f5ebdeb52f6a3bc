package entity

import (
	"time"

	"star-booking-be/pkg/slottime"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusPending     AppointmentStatus = "pending"
	AppointmentStatusApproved    AppointmentStatus = "approved"
	AppointmentStatusInProgress  AppointmentStatus = "in_progress"
	AppointmentStatusCompleted   AppointmentStatus = "completed"
	AppointmentStatusRejected    AppointmentStatus = "rejected"
	AppointmentStatusCancelled   AppointmentStatus = "cancelled"
	AppointmentStatusRescheduled AppointmentStatus = "rescheduled"
)

type AppointmentPaymentStatus string

const (
	AppointmentPaymentInitiated AppointmentPaymentStatus = "initiated"
	AppointmentPaymentPending   AppointmentPaymentStatus = "pending"
	AppointmentPaymentCompleted AppointmentPaymentStatus = "completed"
	AppointmentPaymentRefunded  AppointmentPaymentStatus = "refunded"
)

type RescheduleReason string

const (
	RescheduleReasonNone       RescheduleReason = ""
	RescheduleReasonFanRequest RescheduleReason = "fan_request"
	RescheduleReasonNoShow     RescheduleReason = "no_show"
)

var (
	// ActiveAppointmentStatuses block slot deletion and recurrence switches.
	ActiveAppointmentStatuses = []AppointmentStatus{
		AppointmentStatusPending,
		AppointmentStatusApproved,
		AppointmentStatusInProgress,
	}

	// ReconcilableStatuses are scanned by the reconciliation job.
	ReconcilableStatuses = []AppointmentStatus{
		AppointmentStatusApproved,
		AppointmentStatusInProgress,
	}

	ReconcilablePaymentStatuses = []AppointmentPaymentStatus{
		AppointmentPaymentPending,
		AppointmentPaymentCompleted,
	}

	// DurationStatuses accept call duration reports.
	DurationStatuses = []AppointmentStatus{
		AppointmentStatusApproved,
		AppointmentStatusInProgress,
		AppointmentStatusCompleted,
	}
)

type Appointment struct {
	Id                  uuid.UUID
	StarId              uuid.UUID
	FanId               uuid.UUID
	AvailabilityId      uuid.UUID
	TimeSlotId          uuid.UUID
	Date                string
	Time                string
	UtcStartTime        *time.Time
	Status              AppointmentStatus
	PaymentStatus       AppointmentPaymentStatus
	Price               float64
	TransactionId       *uuid.UUID
	CallDuration        int64
	CompletedAt         *time.Time
	IsRescheduled       bool
	ParentAppointmentId *uuid.UUID
	RescheduleReason    RescheduleReason
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PublicStatus hides the internal in_progress state from API clients.
func (a *Appointment) PublicStatus() AppointmentStatus {
	if a.Status == AppointmentStatusInProgress {
		return AppointmentStatusApproved
	}
	return a.Status
}

// StartInstant resolves the scheduled start, preferring the stored UTC instant and
// falling back to the legacy date and slot strings read as UTC.
func (a *Appointment) StartInstant() (time.Time, bool) {
	if a.UtcStartTime != nil {
		return a.UtcStartTime.UTC(), true
	}
	day, err := time.Parse("2006-01-02", a.Date)
	if err != nil {
		return time.Time{}, false
	}
	start, err := slottime.StartMinutes(a.Time)
	if err != nil {
		return time.Time{}, false
	}
	return day.Add(time.Duration(start) * time.Minute), true
}

// HoldsSlot reports whether the appointment still owns its time slot.
func (a *Appointment) HoldsSlot() bool {
	switch a.Status {
	case AppointmentStatusPending, AppointmentStatusApproved, AppointmentStatusInProgress, AppointmentStatusCompleted:
		return true
	case AppointmentStatusRescheduled:
		return a.RescheduleReason == RescheduleReasonNoShow
	}
	return false
}

// Superseded reports whether a fan reschedule replaced the appointment. The replacement
// carries the transaction and escrow from then on.
func (a *Appointment) Superseded() bool {
	return a.Status == AppointmentStatusRescheduled && a.RescheduleReason == RescheduleReasonFanRequest
}

// HoldsEscrow reports whether the booking's payment is still sitting in escrow. A
// replacement inherits its parent's hold with payment status completed.
func (a *Appointment) HoldsEscrow() bool {
	if a.Status == AppointmentStatusCompleted {
		return false
	}
	switch a.PaymentStatus {
	case AppointmentPaymentPending:
		return true
	case AppointmentPaymentCompleted:
		return a.IsRescheduled
	}
	return false
}

// StatusBucket is the primary listing sort key.
func StatusBucket(s AppointmentStatus) int {
	switch s {
	case AppointmentStatusPending:
		return 1
	case AppointmentStatusApproved, AppointmentStatusInProgress:
		return 2
	case AppointmentStatusCompleted:
		return 3
	case AppointmentStatusCancelled, AppointmentStatusRejected:
		return 4
	default:
		return 5
	}
}

// AppointmentCondition guards a conditional update. Empty fields do not constrain.
type AppointmentCondition struct {
	Statuses        []AppointmentStatus
	PaymentStatuses []AppointmentPaymentStatus
	ZeroDuration    bool
}

// AppointmentPatch lists the columns a conditional update writes. Nil fields are untouched.
type AppointmentPatch struct {
	Status           *AppointmentStatus
	PaymentStatus    *AppointmentPaymentStatus
	CompletedAt      *time.Time
	RescheduleReason *RescheduleReason
}
