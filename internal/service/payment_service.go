package service

import (
	"context"
	"time"

	"star-booking-be/internal/dto"
	"star-booking-be/internal/entity"
	"star-booking-be/internal/pkg/apperror"
	"star-booking-be/internal/pkg/gateway"
	"star-booking-be/internal/pkg/logger"
	"star-booking-be/internal/repository/specification"
	"star-booking-be/internal/repository/unitofwork"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// IPaymentService finishes hybrid bookings once the gateway reports the outcome, and frees
// slots whose payment never arrived.
type IPaymentService interface {
	HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error
	ReleaseExpiredLocks(ctx context.Context) (*dto.LockSweepSummary, error)
}

const paymentModule = "PAYMENT"

type paymentService struct {
	uowFactory  unitofwork.RepositoryFactory
	ledger      IPaymentLedger
	gateway     gateway.PaymentGateway
	profiles    IStarProfileProvider
	notifier    INotificationService
	clock       clock.Clock
	logger      logger.ILogger
	lockTimeout time.Duration
}

func NewPaymentService(
	uowFactory unitofwork.RepositoryFactory,
	ledger IPaymentLedger,
	gw gateway.PaymentGateway,
	profiles IStarProfileProvider,
	notifier INotificationService,
	clk clock.Clock,
	log logger.ILogger,
	lockTimeout time.Duration,
) IPaymentService {
	return &paymentService{
		uowFactory:  uowFactory,
		ledger:      ledger,
		gateway:     gw,
		profiles:    profiles,
		notifier:    notifier,
		clock:       clk,
		logger:      log,
		lockTimeout: lockTimeout,
	}
}

// HandleNotification applies a gateway status callback. The order id is the ledger
// transaction id.
func (s *paymentService) HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error {
	if !s.gateway.VerifySignature(req.OrderId, req.StatusCode, req.GrossAmount, req.SignatureKey) {
		s.logger.Warn(paymentModule, "Webhook signature mismatch", map[string]interface{}{"order_id": req.OrderId})
		return apperror.Forbidden("invalid signature")
	}

	txId, err := uuid.Parse(req.OrderId)
	if err != nil {
		return apperror.BadRequest("invalid order id format")
	}
	tx, err := s.ledger.GetTransaction(ctx, txId)
	if err != nil {
		return err
	}
	if tx == nil {
		return apperror.NotFound("transaction not found")
	}

	s.logger.Info(paymentModule, "Processing payment notification", map[string]interface{}{
		"transaction_id":     txId.String(),
		"transaction_status": req.TransactionStatus,
		"ledger_status":      string(tx.Status),
	})

	switch req.TransactionStatus {
	case "capture", "settlement":
		if req.FraudStatus == "deny" {
			return s.failPayment(ctx, tx)
		}
		return s.settlePayment(ctx, tx)
	case "deny", "cancel", "expire", "failure":
		return s.failPayment(ctx, tx)
	default:
		return nil
	}
}

func (s *paymentService) settlePayment(ctx context.Context, tx *entity.Transaction) error {
	switch tx.Status {
	case entity.TransactionStatusCancelled, entity.TransactionStatusRefunded:
		s.logger.Warn(paymentModule, "Payment settled after the booking was released", map[string]interface{}{
			"transaction_id": tx.Id.String(),
			"ledger_status":  string(tx.Status),
		})
		return nil
	case entity.TransactionStatusCompleted:
	default:
		if err := s.ledger.CompleteTransaction(ctx, tx.Id); err != nil {
			return err
		}
	}

	appointments, err := s.initiatedAppointments(ctx, tx.Id)
	if err != nil {
		return err
	}
	confirmedAny := false
	for _, appointment := range appointments {
		confirmed, err := s.confirmAppointment(ctx, appointment, tx.Id)
		if err != nil {
			return err
		}
		if !confirmed {
			continue
		}
		confirmedAny = true
		s.notifyBooked(ctx, appointment)
	}
	if confirmedAny {
		return nil
	}
	return s.refundOrphanedPayment(ctx, tx.Id)
}

// refundOrphanedPayment refunds a completed payment whose booking was cancelled or rejected
// while the gateway was settling, so the escrow it created is not held forever.
func (s *paymentService) refundOrphanedPayment(ctx context.Context, txId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	appointments, err := uow.AppointmentRepository().FindAll(ctx, specification.ByTransactionID{ID: txId})
	if err != nil {
		return err
	}
	for _, appointment := range appointments {
		if appointment.Status != entity.AppointmentStatusCancelled && appointment.Status != entity.AppointmentStatusRejected {
			return nil
		}
	}

	if err := s.ledger.RefundTransaction(ctx, txId); err != nil {
		return err
	}
	s.logger.Warn(paymentModule, "Refunded payment settled after its booking was closed", map[string]interface{}{
		"transaction_id": txId.String(),
	})
	return nil
}

// confirmAppointment makes a paid booking visible to the star and turns its lock into a hold.
func (s *paymentService) confirmAppointment(ctx context.Context, appointment *entity.Appointment, txId uuid.UUID) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}
	defer uow.Rollback()

	pending := entity.AppointmentPaymentPending
	ok, err := uow.AppointmentRepository().UpdateIf(ctx, appointment.Id,
		entity.AppointmentCondition{
			Statuses:        []entity.AppointmentStatus{entity.AppointmentStatusPending},
			PaymentStatuses: []entity.AppointmentPaymentStatus{entity.AppointmentPaymentInitiated},
		},
		entity.AppointmentPatch{PaymentStatus: &pending},
	)
	if err != nil || !ok {
		return false, err
	}

	held, err := uow.AvailabilityRepository().TransitionSlot(ctx, entity.SlotTransition{
		SlotId:             appointment.TimeSlotId,
		From:               []entity.SlotStatus{entity.SlotStatusLocked},
		To:                 entity.SlotStatusUnavailable,
		PaymentReferenceId: txId.String(),
	})
	if err != nil {
		return false, err
	}
	if !held {
		s.logger.Warn(paymentModule, "Locked slot no longer held by this payment", map[string]interface{}{
			"appointment_id": appointment.Id.String(),
			"time_slot_id":   appointment.TimeSlotId.String(),
		})
	}

	if err := uow.Commit(); err != nil {
		return false, err
	}
	appointment.PaymentStatus = pending
	return true, nil
}

func (s *paymentService) notifyBooked(ctx context.Context, appointment *entity.Appointment) {
	star, err := s.profiles.Get(ctx, appointment.StarId)
	if err != nil {
		s.logger.Warn(paymentModule, "Failed to load star for booking notice", map[string]interface{}{
			"appointment_id": appointment.Id.String(),
			"error":          err.Error(),
		})
		return
	}
	fanName := ""
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if fan, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: appointment.FanId}); err == nil && fan != nil {
		fanName = fan.FullName
	}
	if err := s.notifier.AppointmentBooked(ctx, appointment, star, fanName); err != nil {
		s.logger.Warn(paymentModule, "Failed to notify star of booking", map[string]interface{}{
			"appointment_id": appointment.Id.String(),
			"error":          err.Error(),
		})
	}
}

func (s *paymentService) failPayment(ctx context.Context, tx *entity.Transaction) error {
	if tx.Status.Open() {
		if err := s.ledger.CancelTransaction(ctx, tx.Id); err != nil {
			return err
		}
	}

	appointments, err := s.initiatedAppointments(ctx, tx.Id)
	if err != nil {
		return err
	}
	for _, appointment := range appointments {
		if _, err := s.abandonBooking(ctx, appointment, tx.Id); err != nil {
			return err
		}
	}
	return nil
}

// abandonBooking cancels an unpaid booking and frees the slot its payment locked.
func (s *paymentService) abandonBooking(ctx context.Context, appointment *entity.Appointment, txId uuid.UUID) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return false, err
	}
	defer uow.Rollback()

	cancelled := entity.AppointmentStatusCancelled
	ok, err := uow.AppointmentRepository().UpdateIf(ctx, appointment.Id,
		entity.AppointmentCondition{
			Statuses:        []entity.AppointmentStatus{entity.AppointmentStatusPending},
			PaymentStatuses: []entity.AppointmentPaymentStatus{entity.AppointmentPaymentInitiated},
		},
		entity.AppointmentPatch{Status: &cancelled},
	)
	if err != nil {
		return false, err
	}
	if _, err := uow.AvailabilityRepository().TransitionSlot(ctx, entity.SlotTransition{
		SlotId:             appointment.TimeSlotId,
		From:               []entity.SlotStatus{entity.SlotStatusLocked},
		To:                 entity.SlotStatusAvailable,
		PaymentReferenceId: txId.String(),
	}); err != nil {
		return false, err
	}
	if err := uow.Commit(); err != nil {
		return false, err
	}

	if ok {
		appointment.Status = cancelled
		if err := s.notifier.AppointmentCancelled(ctx, appointment); err != nil {
			s.logger.Warn(paymentModule, "Failed to notify of cancellation", map[string]interface{}{
				"appointment_id": appointment.Id.String(),
				"error":          err.Error(),
			})
		}
	}
	return ok, nil
}

func (s *paymentService) initiatedAppointments(ctx context.Context, txId uuid.UUID) ([]*entity.Appointment, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.AppointmentRepository().FindAll(ctx,
		specification.ByTransactionID{ID: txId},
		specification.ByPaymentStatuses{Statuses: []entity.AppointmentPaymentStatus{entity.AppointmentPaymentInitiated}},
	)
}

// ReleaseExpiredLocks reverts slots locked longer than the lock timeout whose payment did
// not complete, cancelling the payment and the waiting booking.
func (s *paymentService) ReleaseExpiredLocks(ctx context.Context) (*dto.LockSweepSummary, error) {
	now := s.clock.Now().UTC()
	summary := &dto.LockSweepSummary{RanAt: now}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	slots, err := uow.AvailabilityRepository().FindSlots(ctx,
		specification.BySlotStatuses{Statuses: []entity.SlotStatus{entity.SlotStatusLocked}},
	)
	if err != nil {
		return nil, err
	}

	for _, slot := range slots {
		summary.Scanned++
		if slot.LockedAt == nil || slot.PaymentReferenceId == nil || now.Sub(*slot.LockedAt) < s.lockTimeout {
			summary.Skipped++
			continue
		}
		released, err := s.releaseLock(ctx, slot)
		if err != nil {
			summary.Errors++
			s.logger.Error(paymentModule, "Failed to release expired slot lock", map[string]interface{}{
				"time_slot_id": slot.Id.String(),
				"error":        err.Error(),
			})
			continue
		}
		if released {
			summary.Released++
		} else {
			summary.Skipped++
		}
	}

	if summary.Released > 0 || summary.Errors > 0 {
		s.logger.Info(paymentModule, "Expired slot locks swept", map[string]interface{}{
			"scanned":  summary.Scanned,
			"released": summary.Released,
			"errors":   summary.Errors,
		})
	}
	return summary, nil
}

func (s *paymentService) releaseLock(ctx context.Context, slot *entity.TimeSlot) (bool, error) {
	reference := *slot.PaymentReferenceId
	txId, err := uuid.Parse(reference)
	if err != nil {
		return s.forceRelease(ctx, slot, reference)
	}

	tx, err := s.ledger.GetTransaction(ctx, txId)
	if err != nil {
		return false, err
	}
	if tx != nil && tx.Status == entity.TransactionStatusCompleted {
		// Paid; the settlement notification turns the lock into a hold.
		return false, nil
	}
	if tx != nil && tx.Status.Open() {
		if err := s.ledger.CancelTransaction(ctx, txId); err != nil {
			return false, err
		}
	}

	released, err := s.forceRelease(ctx, slot, reference)
	if err != nil {
		return false, err
	}

	appointments, err := s.initiatedAppointments(ctx, txId)
	if err != nil {
		return released, err
	}
	for _, appointment := range appointments {
		if _, err := s.abandonBooking(ctx, appointment, txId); err != nil {
			return released, err
		}
	}
	return released, nil
}

func (s *paymentService) forceRelease(ctx context.Context, slot *entity.TimeSlot, reference string) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.AvailabilityRepository().TransitionSlot(ctx, entity.SlotTransition{
		SlotId:             slot.Id,
		From:               []entity.SlotStatus{entity.SlotStatusLocked},
		To:                 entity.SlotStatusAvailable,
		PaymentReferenceId: reference,
	})
}
