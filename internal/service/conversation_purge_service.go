package service

import (
	"context"
	"encoding/json"

	"star-booking-be/internal/pkg/logger"
	"star-booking-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

type PurgeConversationMessage struct {
	FanId  uuid.UUID `json:"fan_id"`
	StarId uuid.UUID `json:"star_id"`
}

// IConversationPurger queues deletion of the messages two users exchanged.
type IConversationPurger interface {
	PurgeConversation(ctx context.Context, fanId, starId uuid.UUID) error
}

type conversationPurger struct {
	publisher message.Publisher
	topic     string
}

func NewConversationPurger(publisher message.Publisher, topic string) IConversationPurger {
	return &conversationPurger{
		publisher: publisher,
		topic:     topic,
	}
}

func (p *conversationPurger) PurgeConversation(ctx context.Context, fanId, starId uuid.UUID) error {
	payload, err := json.Marshal(PurgeConversationMessage{FanId: fanId, StarId: starId})
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return p.publisher.Publish(p.topic, msg)
}

type IConversationConsumer interface {
	Consume(ctx context.Context) error
}

type conversationConsumer struct {
	subscriber message.Subscriber
	topic      string
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewConversationConsumer(
	subscriber message.Subscriber,
	topic string,
	uowFactory unitofwork.RepositoryFactory,
	log logger.ILogger,
) IConversationConsumer {
	return &conversationConsumer{
		subscriber: subscriber,
		topic:      topic,
		uowFactory: uowFactory,
		logger:     log,
	}
}

// Consume subscribes and processes purge jobs in the background until ctx ends.
func (c *conversationConsumer) Consume(ctx context.Context) error {
	messages, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			c.processMessage(ctx, msg)
		}
	}()
	return nil
}

func (c *conversationConsumer) processMessage(ctx context.Context, msg *message.Message) {
	var payload PurgeConversationMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		c.logger.Error("PURGE", "Invalid purge message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack()
		return
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	deleted, err := uow.MessageRepository().DeleteConversation(ctx, payload.FanId, payload.StarId)
	if err != nil {
		c.logger.Error("PURGE", "Failed to delete conversation", map[string]interface{}{
			"fan_id":  payload.FanId.String(),
			"star_id": payload.StarId.String(),
			"error":   err.Error(),
		})
		msg.Nack()
		return
	}

	c.logger.Info("PURGE", "Conversation deleted", map[string]interface{}{
		"fan_id":  payload.FanId.String(),
		"star_id": payload.StarId.String(),
		"deleted": deleted,
	})
	msg.Ack()
}
