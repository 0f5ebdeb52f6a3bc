package implementation

import (
	"context"

	"star-booking-be/internal/entity"
	"star-booking-be/internal/model"
	"star-booking-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type messageRepositoryImpl struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &messageRepositoryImpl{db: db}
}

func (r *messageRepositoryImpl) Create(ctx context.Context, message *entity.Message) error {
	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	m := &model.Message{
		Id:         message.Id,
		SenderId:   message.SenderId,
		ReceiverId: message.ReceiverId,
		Body:       message.Body,
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	message.CreatedAt = m.CreatedAt
	return nil
}

func (r *messageRepositoryImpl) conversation(ctx context.Context, userA, userB uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Message{}).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", userA, userB, userB, userA)
}

func (r *messageRepositoryImpl) DeleteConversation(ctx context.Context, userA, userB uuid.UUID) (int64, error) {
	result := r.conversation(ctx, userA, userB).Delete(&model.Message{})
	return result.RowsAffected, result.Error
}

func (r *messageRepositoryImpl) CountConversation(ctx context.Context, userA, userB uuid.UUID) (int64, error) {
	var count int64
	err := r.conversation(ctx, userA, userB).Count(&count).Error
	return count, err
}
