package unitofwork

import (
	"context"

	"star-booking-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	AvailabilityRepository() contract.AvailabilityRepository
	AppointmentRepository() contract.AppointmentRepository
	MessageRepository() contract.MessageRepository
	LedgerRepository() contract.LedgerRepository
}
