package service

import (
	"context"
	"time"

	"star-booking-be/internal/entity"
	"star-booking-be/internal/pkg/logger"
	"star-booking-be/internal/pkg/mailer"
	"star-booking-be/pkg/events"
	pktNats "star-booking-be/pkg/nats"
)

// INotificationService tells fans and stars about appointment changes.
// Callers log and swallow its errors.
type INotificationService interface {
	AppointmentBooked(ctx context.Context, appointment *entity.Appointment, star *entity.StarProfile, fanName string) error
	AppointmentApproved(ctx context.Context, appointment *entity.Appointment) error
	AppointmentRejected(ctx context.Context, appointment *entity.Appointment) error
	AppointmentCancelled(ctx context.Context, appointment *entity.Appointment) error
	AppointmentRescheduled(ctx context.Context, appointment *entity.Appointment) error
	AppointmentCompleted(ctx context.Context, appointment *entity.Appointment) error
}

type notificationService struct {
	publisher pktNats.EventPublisher
	mailer    mailer.IEmailService
	logger    logger.ILogger
}

// NewNotificationService accepts a nil publisher or mailer; that channel is then skipped.
func NewNotificationService(publisher pktNats.EventPublisher, mail mailer.IEmailService, log logger.ILogger) INotificationService {
	return &notificationService{
		publisher: publisher,
		mailer:    mail,
		logger:    log,
	}
}

func (s *notificationService) AppointmentBooked(ctx context.Context, appointment *entity.Appointment, star *entity.StarProfile, fanName string) error {
	if err := s.publish(ctx, events.AppointmentBooked, appointment, nil); err != nil {
		return err
	}
	if s.mailer == nil || star == nil || star.Email == "" {
		return nil
	}
	return s.mailer.SendBookingNotice(star.Email, mailer.BookingNotice{
		StarName: star.Name,
		FanName:  fanName,
		Date:     appointment.Date,
		Slot:     appointment.Time,
		Price:    appointment.Price,
	})
}

func (s *notificationService) AppointmentApproved(ctx context.Context, appointment *entity.Appointment) error {
	return s.publish(ctx, events.AppointmentApproved, appointment, nil)
}

func (s *notificationService) AppointmentRejected(ctx context.Context, appointment *entity.Appointment) error {
	return s.publish(ctx, events.AppointmentRejected, appointment, nil)
}

func (s *notificationService) AppointmentCancelled(ctx context.Context, appointment *entity.Appointment) error {
	return s.publish(ctx, events.AppointmentCancelled, appointment, nil)
}

func (s *notificationService) AppointmentRescheduled(ctx context.Context, appointment *entity.Appointment) error {
	extra := map[string]interface{}{}
	if appointment.ParentAppointmentId != nil {
		extra["parent_appointment_id"] = appointment.ParentAppointmentId.String()
	}
	return s.publish(ctx, events.AppointmentRescheduled, appointment, extra)
}

func (s *notificationService) AppointmentCompleted(ctx context.Context, appointment *entity.Appointment) error {
	return s.publish(ctx, events.AppointmentCompleted, appointment, map[string]interface{}{
		"call_duration": appointment.CallDuration,
	})
}

func (s *notificationService) publish(ctx context.Context, eventType string, a *entity.Appointment, extra map[string]interface{}) error {
	if s.publisher == nil {
		s.logger.Debug("NOTIFICATION", "Event publisher not configured, skipping", map[string]interface{}{
			"type":           eventType,
			"appointment_id": a.Id.String(),
		})
		return nil
	}

	data := map[string]interface{}{
		"appointment_id": a.Id.String(),
		"star_id":        a.StarId.String(),
		"fan_id":         a.FanId.String(),
		"date":           a.Date,
		"time":           a.Time,
		"status":         string(a.PublicStatus()),
	}
	for k, v := range extra {
		data[k] = v
	}

	return s.publisher.Publish(ctx, events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	})
}
