package contract

import (
	"context"
	"errors"

	"star-booking-be/internal/entity"
	"star-booking-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ErrDuplicate is returned when an availability or slot already exists for the same key.
var ErrDuplicate = errors.New("duplicate availability")

type AvailabilityRepository interface {
	// Create inserts the availability together with its time slots.
	Create(ctx context.Context, availability *entity.Availability) error
	UpdateRecurrence(ctx context.Context, id uuid.UUID, mode entity.RecurrenceMode) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Availability, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Availability, error)

	AddSlot(ctx context.Context, slot *entity.TimeSlot) error
	DeleteSlot(ctx context.Context, id uuid.UUID) error
	CountSlots(ctx context.Context, availabilityId uuid.UUID) (int64, error)
	FindSlot(ctx context.Context, specs ...specification.Specification) (*entity.TimeSlot, error)
	FindSlots(ctx context.Context, specs ...specification.Specification) ([]*entity.TimeSlot, error)

	// SetSlotStatus writes the status unconditionally and clears any lock metadata.
	SetSlotStatus(ctx context.Context, id uuid.UUID, status entity.SlotStatus) error
	// TransitionSlot reports false when the slot was not in an expected state.
	TransitionSlot(ctx context.Context, t entity.SlotTransition) (bool, error)
}
