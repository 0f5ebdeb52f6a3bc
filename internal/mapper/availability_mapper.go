package mapper

import (
	"star-booking-be/internal/entity"
	"star-booking-be/internal/model"
)

type AvailabilityMapper struct{}

func NewAvailabilityMapper() *AvailabilityMapper {
	return &AvailabilityMapper{}
}

func (m *AvailabilityMapper) ToEntity(a *model.Availability) *entity.Availability {
	if a == nil {
		return nil
	}
	slots := make([]*entity.TimeSlot, 0, len(a.TimeSlots))
	for i := range a.TimeSlots {
		slots = append(slots, m.SlotToEntity(&a.TimeSlots[i]))
	}
	return &entity.Availability{
		Id:        a.Id,
		UserId:    a.UserId,
		Date:      a.Date,
		IsWeekly:  a.IsWeekly,
		IsDaily:   a.IsDaily,
		TimeSlots: slots,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// ToModel maps the parent row only; slots are written separately.
func (m *AvailabilityMapper) ToModel(a *entity.Availability) *model.Availability {
	if a == nil {
		return nil
	}
	return &model.Availability{
		Id:        a.Id,
		UserId:    a.UserId,
		Date:      a.Date,
		IsWeekly:  a.IsWeekly,
		IsDaily:   a.IsDaily,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (m *AvailabilityMapper) ToEntities(items []*model.Availability) []*entity.Availability {
	entities := make([]*entity.Availability, len(items))
	for i, a := range items {
		entities[i] = m.ToEntity(a)
	}
	return entities
}

func (m *AvailabilityMapper) SlotToEntity(s *model.TimeSlot) *entity.TimeSlot {
	if s == nil {
		return nil
	}
	return &entity.TimeSlot{
		Id:                 s.Id,
		AvailabilityId:     s.AvailabilityId,
		Slot:               s.Slot,
		Status:             entity.SlotStatus(s.Status),
		PaymentReferenceId: s.PaymentReferenceId,
		LockedAt:           s.LockedAt,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func (m *AvailabilityMapper) SlotToModel(s *entity.TimeSlot) *model.TimeSlot {
	if s == nil {
		return nil
	}
	return &model.TimeSlot{
		Id:                 s.Id,
		AvailabilityId:     s.AvailabilityId,
		Slot:               s.Slot,
		Status:             string(s.Status),
		PaymentReferenceId: s.PaymentReferenceId,
		LockedAt:           s.LockedAt,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}
