package events

import "time"

// Event is anything published on the event bus.
type Event interface {
	EventType() string
	Payload() map[string]interface{}
	Timestamp() time.Time
}

const (
	AppointmentBooked      = "APPOINTMENT_BOOKED"
	AppointmentApproved    = "APPOINTMENT_APPROVED"
	AppointmentRejected    = "APPOINTMENT_REJECTED"
	AppointmentCancelled   = "APPOINTMENT_CANCELLED"
	AppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	AppointmentCompleted   = "APPOINTMENT_COMPLETED"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Subject is the bus subject an event type is published on.
func Subject(eventType string) string {
	return "events." + eventType
}
