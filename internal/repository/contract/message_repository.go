package contract

import (
	"context"

	"star-booking-be/internal/entity"

	"github.com/google/uuid"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error
	// DeleteConversation removes messages exchanged in either direction between two users.
	DeleteConversation(ctx context.Context, userA, userB uuid.UUID) (int64, error)
	CountConversation(ctx context.Context, userA, userB uuid.UUID) (int64, error)
}
