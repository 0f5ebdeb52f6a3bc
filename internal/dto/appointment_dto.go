package dto

import (
	"time"

	"star-booking-be/internal/entity"

	"github.com/google/uuid"
)

type CreateAppointmentRequest struct {
	StarId         uuid.UUID `json:"star_id" validate:"required"`
	AvailabilityId uuid.UUID `json:"availability_id" validate:"required"`
	TimeSlotId     uuid.UUID `json:"time_slot_id" validate:"required"`
}

type CreateAppointmentResponse struct {
	Appointment    *AppointmentResponse `json:"appointment"`
	PaymentMode    entity.PaymentMode   `json:"payment_mode"`
	TransactionId  uuid.UUID            `json:"transaction_id"`
	ExternalAmount float64              `json:"external_amount,omitempty"`
	RedirectURL    string               `json:"redirect_url,omitempty"`
}

type RescheduleAppointmentRequest struct {
	AvailabilityId uuid.UUID `json:"availability_id" validate:"required"`
	TimeSlotId     uuid.UUID `json:"time_slot_id" validate:"required"`
}

type AddDurationRequest struct {
	Duration *int64 `json:"duration" validate:"required,min=0"`
}

type AddDurationResponse struct {
	AppointmentId    uuid.UUID                `json:"appointment_id"`
	CallDuration     int64                    `json:"call_duration"`
	IsFullyCompleted bool                     `json:"is_fully_completed"`
	Status           entity.AppointmentStatus `json:"status"`
}

type ListAppointmentsRequest struct {
	Page   int    `query:"page" validate:"omitempty,min=1"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Status string `query:"status" validate:"omitempty,oneof=pending approved completed rejected cancelled rescheduled"`
}

type AppointmentListResponse struct {
	Items []*AppointmentResponse `json:"items"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}

type AppointmentResponse struct {
	Id                  uuid.UUID                       `json:"id"`
	StarId              uuid.UUID                       `json:"star_id"`
	FanId               uuid.UUID                       `json:"fan_id"`
	AvailabilityId      uuid.UUID                       `json:"availability_id"`
	TimeSlotId          uuid.UUID                       `json:"time_slot_id"`
	Date                string                          `json:"date"`
	Time                string                          `json:"time"`
	UtcStartTime        *time.Time                      `json:"utc_start_time"`
	Status              entity.AppointmentStatus        `json:"status"`
	PaymentStatus       entity.AppointmentPaymentStatus `json:"payment_status"`
	Price               float64                         `json:"price"`
	TransactionId       *uuid.UUID                      `json:"transaction_id"`
	CallDuration        int64                           `json:"call_duration"`
	CompletedAt         *time.Time                      `json:"completed_at"`
	IsRescheduled       bool                            `json:"is_rescheduled"`
	ParentAppointmentId *uuid.UUID                      `json:"parent_appointment_id"`
	RescheduleReason    entity.RescheduleReason         `json:"reschedule_reason,omitempty"`
	CreatedAt           time.Time                       `json:"created_at"`
}

// ToAppointmentResponse is the client-facing view. The stored status is left untouched;
// in_progress is reported as approved.
func ToAppointmentResponse(a *entity.Appointment) *AppointmentResponse {
	if a == nil {
		return nil
	}
	return &AppointmentResponse{
		Id:                  a.Id,
		StarId:              a.StarId,
		FanId:               a.FanId,
		AvailabilityId:      a.AvailabilityId,
		TimeSlotId:          a.TimeSlotId,
		Date:                a.Date,
		Time:                a.Time,
		UtcStartTime:        a.UtcStartTime,
		Status:              a.PublicStatus(),
		PaymentStatus:       a.PaymentStatus,
		Price:               a.Price,
		TransactionId:       a.TransactionId,
		CallDuration:        a.CallDuration,
		CompletedAt:         a.CompletedAt,
		IsRescheduled:       a.IsRescheduled,
		ParentAppointmentId: a.ParentAppointmentId,
		RescheduleReason:    a.RescheduleReason,
		CreatedAt:           a.CreatedAt,
	}
}

func ToAppointmentResponses(items []*entity.Appointment) []*AppointmentResponse {
	out := make([]*AppointmentResponse, len(items))
	for i, a := range items {
		out[i] = ToAppointmentResponse(a)
	}
	return out
}
