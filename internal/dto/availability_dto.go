package dto

import (
	"time"

	"star-booking-be/internal/entity"

	"github.com/google/uuid"
)

type TimeSlotInput struct {
	Slot string `json:"slot" validate:"required"`
	// Status is optional; when empty an existing slot keeps its status.
	Status entity.SlotStatus `json:"status" validate:"omitempty,oneof=available unavailable"`
}

type UpsertAvailabilityRequest struct {
	Date      string                `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlots []TimeSlotInput       `json:"time_slots" validate:"required,min=1,dive"`
	Mode      entity.RecurrenceMode `json:"mode" validate:"omitempty,oneof=specific weekly daily"`
}

type SwitchModeRequest struct {
	Mode entity.RecurrenceMode `json:"mode" validate:"required,oneof=specific weekly daily"`
}

type SwitchModeResponse struct {
	Mode    entity.RecurrenceMode `json:"mode"`
	Deleted int                   `json:"deleted"`
}

type DeleteSlotRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Slot string `json:"slot" validate:"required"`
}

type SkippedSlot struct {
	Date   string `json:"date"`
	Slot   string `json:"slot"`
	Reason string `json:"reason"`
}

type DeleteSlotResponse struct {
	Deleted int           `json:"deleted"`
	Skipped []SkippedSlot `json:"skipped"`
}

type TimeSlotResponse struct {
	Id                 uuid.UUID         `json:"id"`
	Slot               string            `json:"slot"`
	Status             entity.SlotStatus `json:"status"`
	PaymentReferenceId *string           `json:"payment_reference_id,omitempty"`
	LockedAt           *time.Time        `json:"locked_at,omitempty"`
}

type AvailabilityResponse struct {
	Id        uuid.UUID           `json:"id"`
	UserId    uuid.UUID           `json:"user_id"`
	Date      string              `json:"date"`
	IsWeekly  bool                `json:"is_weekly"`
	IsDaily   bool                `json:"is_daily"`
	TimeSlots []*TimeSlotResponse `json:"time_slots"`
}

func ToAvailabilityResponse(a *entity.Availability) *AvailabilityResponse {
	slots := make([]*TimeSlotResponse, len(a.TimeSlots))
	for i, ts := range a.TimeSlots {
		slots[i] = &TimeSlotResponse{
			Id:                 ts.Id,
			Slot:               ts.Slot,
			Status:             ts.Status,
			PaymentReferenceId: ts.PaymentReferenceId,
			LockedAt:           ts.LockedAt,
		}
	}
	return &AvailabilityResponse{
		Id:        a.Id,
		UserId:    a.UserId,
		Date:      a.Date,
		IsWeekly:  a.IsWeekly,
		IsDaily:   a.IsDaily,
		TimeSlots: slots,
	}
}

func ToAvailabilityResponses(items []*entity.Availability) []*AvailabilityResponse {
	out := make([]*AvailabilityResponse, len(items))
	for i, a := range items {
		out[i] = ToAvailabilityResponse(a)
	}
	return out
}
