package mapper

import (
	"star-booking-be/internal/entity"
	"star-booking-be/internal/model"
)

type AppointmentMapper struct{}

func NewAppointmentMapper() *AppointmentMapper {
	return &AppointmentMapper{}
}

func (m *AppointmentMapper) ToEntity(a *model.Appointment) *entity.Appointment {
	if a == nil {
		return nil
	}
	return &entity.Appointment{
		Id:                  a.Id,
		StarId:              a.StarId,
		FanId:               a.FanId,
		AvailabilityId:      a.AvailabilityId,
		TimeSlotId:          a.TimeSlotId,
		Date:                a.Date,
		Time:                a.Time,
		UtcStartTime:        a.UtcStartTime,
		Status:              entity.AppointmentStatus(a.Status),
		PaymentStatus:       entity.AppointmentPaymentStatus(a.PaymentStatus),
		Price:               a.Price,
		TransactionId:       a.TransactionId,
		CallDuration:        a.CallDuration,
		CompletedAt:         a.CompletedAt,
		IsRescheduled:       a.IsRescheduled,
		ParentAppointmentId: a.ParentAppointmentId,
		RescheduleReason:    entity.RescheduleReason(a.RescheduleReason),
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func (m *AppointmentMapper) ToModel(a *entity.Appointment) *model.Appointment {
	if a == nil {
		return nil
	}
	return &model.Appointment{
		Id:                  a.Id,
		StarId:              a.StarId,
		FanId:               a.FanId,
		AvailabilityId:      a.AvailabilityId,
		TimeSlotId:          a.TimeSlotId,
		Date:                a.Date,
		Time:                a.Time,
		UtcStartTime:        a.UtcStartTime,
		Status:              string(a.Status),
		PaymentStatus:       string(a.PaymentStatus),
		Price:               a.Price,
		TransactionId:       a.TransactionId,
		CallDuration:        a.CallDuration,
		CompletedAt:         a.CompletedAt,
		IsRescheduled:       a.IsRescheduled,
		ParentAppointmentId: a.ParentAppointmentId,
		RescheduleReason:    string(a.RescheduleReason),
		CreatedAt:           a.CreatedAt,
		UpdatedAt:           a.UpdatedAt,
	}
}

func (m *AppointmentMapper) ToEntities(items []*model.Appointment) []*entity.Appointment {
	entities := make([]*entity.Appointment, len(items))
	for i, a := range items {
		entities[i] = m.ToEntity(a)
	}
	return entities
}
