package entity

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	Id         uuid.UUID
	SenderId   uuid.UUID
	ReceiverId uuid.UUID
	Body       string
	CreatedAt  time.Time
}
