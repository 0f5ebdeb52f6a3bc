package implementation

import (
	"context"
	"errors"
	"fmt"

	"star-booking-be/internal/entity"
	"star-booking-be/internal/mapper"
	"star-booking-be/internal/model"
	"star-booking-be/internal/repository/contract"
	"star-booking-be/internal/repository/scope"
	"star-booking-be/internal/repository/specification"
	"star-booking-be/pkg/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type availabilityRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.AvailabilityMapper
}

func NewAvailabilityRepository(db *gorm.DB) contract.AvailabilityRepository {
	return &availabilityRepositoryImpl{
		db:     db,
		mapper: mapper.NewAvailabilityMapper(),
	}
}

func translateDuplicate(err error) error {
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", contract.ErrDuplicate, err)
	}
	return err
}

func (r *availabilityRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *availabilityRepositoryImpl) Create(ctx context.Context, availability *entity.Availability) error {
	if availability.Id == uuid.Nil {
		availability.Id = uuid.New()
	}
	m := r.mapper.ToModel(availability)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(m).Error; err != nil {
		return translateDuplicate(err)
	}
	availability.CreatedAt = m.CreatedAt
	availability.UpdatedAt = m.UpdatedAt

	for _, slot := range availability.TimeSlots {
		slot.AvailabilityId = availability.Id
		if err := r.AddSlot(ctx, slot); err != nil {
			return err
		}
	}
	return nil
}

func (r *availabilityRepositoryImpl) UpdateRecurrence(ctx context.Context, id uuid.UUID, mode entity.RecurrenceMode) error {
	weekly, daily := mode.Flags()
	return r.db.WithContext(ctx).Model(&model.Availability{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_weekly": weekly,
			"is_daily":  daily,
		}).Error
}

func (r *availabilityRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("availability_id = ?", id).Delete(&model.TimeSlot{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Availability{}).Error
}

func (r *availabilityRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Availability, error) {
	var m model.Availability
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Availability{}).Scopes(scope.PreloadTimeSlots), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *availabilityRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Availability, error) {
	var models []*model.Availability
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Availability{}).Scopes(scope.PreloadTimeSlots, scope.OrderByDateAsc), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *availabilityRepositoryImpl) AddSlot(ctx context.Context, slot *entity.TimeSlot) error {
	if slot.Id == uuid.Nil {
		slot.Id = uuid.New()
	}
	if slot.Status == "" {
		slot.Status = entity.SlotStatusAvailable
	}
	m := r.mapper.SlotToModel(slot)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return translateDuplicate(err)
	}
	slot.CreatedAt = m.CreatedAt
	slot.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *availabilityRepositoryImpl) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.TimeSlot{}).Error
}

func (r *availabilityRepositoryImpl) CountSlots(ctx context.Context, availabilityId uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.TimeSlot{}).
		Where("availability_id = ?", availabilityId).
		Count(&count).Error
	return count, err
}

func (r *availabilityRepositoryImpl) FindSlot(ctx context.Context, specs ...specification.Specification) (*entity.TimeSlot, error) {
	var m model.TimeSlot
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.TimeSlot{}), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.SlotToEntity(&m), nil
}

func (r *availabilityRepositoryImpl) FindSlots(ctx context.Context, specs ...specification.Specification) ([]*entity.TimeSlot, error) {
	var models []*model.TimeSlot
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.TimeSlot{}), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	slots := make([]*entity.TimeSlot, len(models))
	for i, m := range models {
		slots[i] = r.mapper.SlotToEntity(m)
	}
	return slots, nil
}

func (r *availabilityRepositoryImpl) SetSlotStatus(ctx context.Context, id uuid.UUID, status entity.SlotStatus) error {
	return r.db.WithContext(ctx).Model(&model.TimeSlot{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":               string(status),
			"payment_reference_id": nil,
			"locked_at":            nil,
		}).Error
}

func (r *availabilityRepositoryImpl) TransitionSlot(ctx context.Context, t entity.SlotTransition) (bool, error) {
	updates := map[string]interface{}{
		"status":               string(t.To),
		"payment_reference_id": nil,
		"locked_at":            nil,
	}
	if t.To == entity.SlotStatusLocked && t.Lock != nil {
		updates["payment_reference_id"] = t.Lock.PaymentReferenceId
		updates["locked_at"] = t.Lock.LockedAt.UTC()
	}

	query := r.db.WithContext(ctx).Model(&model.TimeSlot{}).Where("id = ?", t.SlotId)
	if len(t.From) > 0 {
		from := make([]string, len(t.From))
		for i, s := range t.From {
			from[i] = string(s)
		}
		query = query.Where("status IN ?", from)
	}
	if t.PaymentReferenceId != "" {
		query = query.Where("payment_reference_id = ?", t.PaymentReferenceId)
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
