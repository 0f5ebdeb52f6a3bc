package contract

import (
	"context"

	"star-booking-be/internal/entity"
	"star-booking-be/internal/repository/specification"

	"github.com/google/uuid"
)

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *entity.Appointment) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Appointment, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Appointment, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)

	// UpdateIf applies patch only when the row still satisfies cond.
	// It reports whether a row was changed.
	UpdateIf(ctx context.Context, id uuid.UUID, cond entity.AppointmentCondition, patch entity.AppointmentPatch) (bool, error)
	// IncrementCallDuration adds seconds in a single UPDATE when the status is one of allowed.
	IncrementCallDuration(ctx context.Context, id uuid.UUID, seconds int64, allowed []entity.AppointmentStatus) (bool, error)
}
