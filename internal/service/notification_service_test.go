package service

import (
	"context"
	"testing"

	"star-booking-be/internal/entity"
	"star-booking-be/internal/pkg/logger"
	"star-booking-be/internal/pkg/mailer"
	"star-booking-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	to      []string
	notices []mailer.BookingNotice
}

func (m *recordingMailer) SendBookingNotice(toEmail string, notice mailer.BookingNotice) error {
	m.to = append(m.to, toEmail)
	m.notices = append(m.notices, notice)
	return nil
}

func TestNotification_BookedPublishesAndMails(t *testing.T) {
	publisher := &recordingPublisher{}
	mail := &recordingMailer{}
	svc := NewNotificationService(publisher, mail, logger.NewNopLogger())

	a := &entity.Appointment{
		Id:     uuid.New(),
		StarId: uuid.New(),
		FanId:  uuid.New(),
		Date:   "2030-01-11",
		Time:   "09:00 - 10:00",
		Status: entity.AppointmentStatusPending,
		Price:  10,
	}
	star := &entity.StarProfile{Id: a.StarId, Name: "Star", Email: "star@example.test"}

	require.NoError(t, svc.AppointmentBooked(context.Background(), a, star, "Fan"))

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, events.AppointmentBooked, event.EventType())
	assert.Equal(t, a.Id.String(), event.Payload()["appointment_id"])
	assert.Equal(t, "pending", event.Payload()["status"])

	require.Equal(t, []string{"star@example.test"}, mail.to)
	assert.Equal(t, mailer.BookingNotice{StarName: "Star", FanName: "Fan", Date: a.Date, Slot: a.Time, Price: 10}, mail.notices[0])
}

func TestNotification_ReportsPublicStatus(t *testing.T) {
	publisher := &recordingPublisher{}
	svc := NewNotificationService(publisher, nil, logger.NewNopLogger())
	parent := uuid.New()
	a := &entity.Appointment{Id: uuid.New(), Status: entity.AppointmentStatusInProgress, CallDuration: 42, ParentAppointmentId: &parent}

	require.NoError(t, svc.AppointmentCompleted(context.Background(), a))
	require.NoError(t, svc.AppointmentRescheduled(context.Background(), a))

	require.Len(t, publisher.events, 2)
	assert.Equal(t, "approved", publisher.events[0].Payload()["status"])
	assert.EqualValues(t, 42, publisher.events[0].Payload()["call_duration"])
	assert.Equal(t, parent.String(), publisher.events[1].Payload()["parent_appointment_id"])
}

func TestNotification_WithoutChannels(t *testing.T) {
	svc := NewNotificationService(nil, nil, logger.NewNopLogger())
	a := &entity.Appointment{Id: uuid.New()}

	assert.NoError(t, svc.AppointmentBooked(context.Background(), a, &entity.StarProfile{Email: "star@example.test"}, "Fan"))
	assert.NoError(t, svc.AppointmentCancelled(context.Background(), a))
}

func TestStarProfileProvider(t *testing.T) {
	h := newHarness(t)
	star := h.seedUser(entity.UserRoleStar, 0)
	fan := h.seedUser(entity.UserRoleFan, 0)

	profile, err := h.profiles.Get(h.ctx, star.Id)
	require.NoError(t, err)
	assert.Equal(t, star.FullName, profile.Name)
	assert.Equal(t, 0, profile.UtcOffset)
	assert.InDelta(t, testStarPrice, profile.Price, 0.001)

	// callers get copies
	profile.Price = 999
	again, err := h.profiles.Get(h.ctx, star.Id)
	require.NoError(t, err)
	assert.InDelta(t, testStarPrice, again.Price, 0.001)

	_, err = h.profiles.Get(h.ctx, fan.Id)
	assert.Error(t, err, "fans have no star profile")

	h.profiles.Invalidate(star.Id)
	_, err = h.profiles.Get(h.ctx, star.Id)
	assert.NoError(t, err)
}
