package implementation

import (
	"context"
	"errors"

	"star-booking-be/internal/entity"
	"star-booking-be/internal/mapper"
	"star-booking-be/internal/model"
	"star-booking-be/internal/repository/contract"
	"star-booking-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type appointmentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AppointmentMapper
}

func NewAppointmentRepository(db *gorm.DB) contract.AppointmentRepository {
	return &appointmentRepositoryImpl{
		db:     db,
		mapper: mapper.NewAppointmentMapper(),
	}
}

func (r *appointmentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *appointmentRepositoryImpl) Create(ctx context.Context, appointment *entity.Appointment) error {
	if appointment.Id == uuid.Nil {
		appointment.Id = uuid.New()
	}
	m := r.mapper.ToModel(appointment)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	appointment.CreatedAt = m.CreatedAt
	appointment.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *appointmentRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Appointment, error) {
	var m model.Appointment
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Appointment{}), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *appointmentRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Appointment, error) {
	var models []*model.Appointment
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Appointment{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *appointmentRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Appointment{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *appointmentRepositoryImpl) UpdateIf(ctx context.Context, id uuid.UUID, cond entity.AppointmentCondition, patch entity.AppointmentPatch) (bool, error) {
	updates := map[string]interface{}{}
	if patch.Status != nil {
		updates["status"] = string(*patch.Status)
	}
	if patch.PaymentStatus != nil {
		updates["payment_status"] = string(*patch.PaymentStatus)
	}
	if patch.CompletedAt != nil {
		updates["completed_at"] = patch.CompletedAt.UTC()
	}
	if patch.RescheduleReason != nil {
		updates["reschedule_reason"] = string(*patch.RescheduleReason)
	}
	if len(updates) == 0 {
		return false, nil
	}

	query := r.db.WithContext(ctx).Model(&model.Appointment{}).Where("id = ?", id)
	if len(cond.Statuses) > 0 {
		query = query.Where("status IN ?", specification.AppointmentStatusStrings(cond.Statuses))
	}
	if len(cond.PaymentStatuses) > 0 {
		query = query.Where("payment_status IN ?", specification.PaymentStatusStrings(cond.PaymentStatuses))
	}
	if cond.ZeroDuration {
		query = query.Where("call_duration = 0")
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *appointmentRepositoryImpl) IncrementCallDuration(ctx context.Context, id uuid.UUID, seconds int64, allowed []entity.AppointmentStatus) (bool, error) {
	query := r.db.WithContext(ctx).Model(&model.Appointment{}).Where("id = ?", id)
	if len(allowed) > 0 {
		query = query.Where("status IN ?", specification.AppointmentStatusStrings(allowed))
	}

	result := query.Update("call_duration", gorm.Expr("call_duration + ?", seconds))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
