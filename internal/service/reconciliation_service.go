package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"star-booking-be/internal/config"
	"star-booking-be/internal/dto"
	"star-booking-be/internal/entity"
	"star-booking-be/internal/pkg/logger"
	"star-booking-be/internal/repository/specification"
	"star-booking-be/internal/repository/unitofwork"
	"star-booking-be/pkg/lock"

	"github.com/benbjohnson/clock"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// IReconciliationService settles appointments whose call window has passed.
type IReconciliationService interface {
	Start() error
	Stop()
	RunOnce(ctx context.Context) (*dto.ReconciliationSummary, error)
}

const reconcileModule = "RECONCILIATION"

type settlement int

const (
	settleNone settlement = iota
	settleComplete
	settleNoShow
)

type reconciliationService struct {
	uowFactory unitofwork.RepositoryFactory
	ledger     IPaymentLedger
	notifier   INotificationService
	purger     IConversationPurger
	payments   IPaymentService
	locker     lock.Locker
	clock      clock.Clock
	logger     logger.ILogger
	cfg        config.SchedulerConfig

	mu   sync.Mutex
	cron *cron.Cron
}

func NewReconciliationService(
	uowFactory unitofwork.RepositoryFactory,
	ledger IPaymentLedger,
	notifier INotificationService,
	purger IConversationPurger,
	payments IPaymentService,
	locker lock.Locker,
	clk clock.Clock,
	log logger.ILogger,
	cfg config.SchedulerConfig,
) IReconciliationService {
	return &reconciliationService{
		uowFactory: uowFactory,
		ledger:     ledger,
		notifier:   notifier,
		purger:     purger,
		payments:   payments,
		locker:     locker,
		clock:      clk,
		logger:     log,
		cfg:        cfg,
	}
}

// Start schedules the reconciliation pass and the expired-lock sweep. A tick that is
// still running when the next one fires is skipped.
func (s *reconciliationService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("reconciliation scheduler already started")
	}

	cronLogger := &cronLogAdapter{logger: s.logger}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	if _, err := c.AddFunc(s.cfg.Spec, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.Error(reconcileModule, "Reconciliation run failed", map[string]interface{}{"error": err.Error()})
		}
	}); err != nil {
		return fmt.Errorf("invalid scheduler spec %q: %w", s.cfg.Spec, err)
	}

	if s.payments != nil {
		if _, err := c.AddFunc(s.cfg.Spec, s.sweepLocks); err != nil {
			return fmt.Errorf("invalid scheduler spec %q: %w", s.cfg.Spec, err)
		}
	}

	c.Start()
	s.cron = c
	s.logger.Info(reconcileModule, "Reconciliation scheduler started", map[string]interface{}{"spec": s.cfg.Spec})
	return nil
}

// Stop waits for running jobs to finish.
func (s *reconciliationService) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info(reconcileModule, "Reconciliation scheduler stopped", nil)
}

func (s *reconciliationService) sweepLocks() {
	ctx := context.Background()
	key := s.cfg.LockKey + ":locks"
	token, ok, err := s.locker.Acquire(ctx, key, s.cfg.LockTTL)
	if err != nil || !ok {
		return
	}
	defer s.release(ctx, key, token)

	if _, err := s.payments.ReleaseExpiredLocks(ctx); err != nil {
		s.logger.Error(reconcileModule, "Expired lock sweep failed", map[string]interface{}{"error": err.Error()})
	}
}

// RunOnce scans approved and in-progress appointments and settles the ones that are due.
// Every status change is a compare-and-set, so side effects run at most once per appointment.
func (s *reconciliationService) RunOnce(ctx context.Context) (*dto.ReconciliationSummary, error) {
	ctx, span := otel.Tracer("star-booking-be/reconciliation").Start(ctx, "reconciliation.run")
	defer span.End()

	now := s.clock.Now().UTC()
	summary := &dto.ReconciliationSummary{RanAt: now}

	token, ok, err := s.locker.Acquire(ctx, s.cfg.LockKey, s.cfg.LockTTL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if !ok {
		summary.NotLeader = true
		span.SetAttributes(attribute.Bool("reconciliation.not_leader", true))
		return summary, nil
	}
	defer s.release(ctx, s.cfg.LockKey, token)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	appointments, err := uow.AppointmentRepository().FindAll(ctx,
		specification.ByAppointmentStatuses{Statuses: entity.ReconcilableStatuses},
		specification.ByPaymentStatuses{Statuses: entity.ReconcilablePaymentStatuses},
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	for _, appointment := range appointments {
		summary.Scanned++
		start, ok := appointment.StartInstant()
		if !ok {
			summary.Skipped++
			s.logger.Warn(reconcileModule, "Appointment has no resolvable start time", map[string]interface{}{
				"appointment_id": appointment.Id.String(),
			})
			continue
		}

		switch s.decide(appointment, now.Sub(start)) {
		case settleComplete:
			done, err := s.complete(ctx, appointment, now)
			switch {
			case err != nil:
				summary.Errors++
				s.logger.Error(reconcileModule, "Failed to complete appointment", map[string]interface{}{
					"appointment_id": appointment.Id.String(),
					"error":          err.Error(),
				})
			case done:
				summary.Completed++
			default:
				summary.Skipped++
			}
		case settleNoShow:
			done, err := s.markNoShow(ctx, appointment)
			switch {
			case err != nil:
				summary.Errors++
				s.logger.Error(reconcileModule, "Failed to reschedule missed appointment", map[string]interface{}{
					"appointment_id": appointment.Id.String(),
					"error":          err.Error(),
				})
			case done:
				summary.Rescheduled++
			default:
				summary.Skipped++
			}
		default:
			summary.Skipped++
		}
	}

	span.SetAttributes(
		attribute.Int("reconciliation.scanned", summary.Scanned),
		attribute.Int("reconciliation.completed", summary.Completed),
		attribute.Int("reconciliation.rescheduled", summary.Rescheduled),
		attribute.Int("reconciliation.errors", summary.Errors),
	)
	if summary.Completed > 0 || summary.Rescheduled > 0 || summary.Errors > 0 {
		s.logger.Info(reconcileModule, "Reconciliation run finished", map[string]interface{}{
			"scanned":     summary.Scanned,
			"completed":   summary.Completed,
			"rescheduled": summary.Rescheduled,
			"errors":      summary.Errors,
		})
	}
	return summary, nil
}

// decide: enough call time completes the appointment at once; after the grace period any
// call time completes it and none marks it as missed.
func (s *reconciliationService) decide(a *entity.Appointment, elapsed time.Duration) settlement {
	grace := time.Duration(s.cfg.GraceMinutes) * time.Minute
	switch {
	case a.CallDuration >= s.cfg.CompletionSeconds:
		return settleComplete
	case elapsed >= grace && a.CallDuration > 0:
		return settleComplete
	case elapsed >= grace:
		return settleNoShow
	default:
		return settleNone
	}
}

func (s *reconciliationService) complete(ctx context.Context, a *entity.Appointment, now time.Time) (bool, error) {
	completed := entity.AppointmentStatusCompleted
	paid := entity.AppointmentPaymentCompleted
	uow := s.uowFactory.NewUnitOfWork(ctx)
	ok, err := uow.AppointmentRepository().UpdateIf(ctx, a.Id,
		entity.AppointmentCondition{
			Statuses:        entity.ReconcilableStatuses,
			PaymentStatuses: entity.ReconcilablePaymentStatuses,
		},
		entity.AppointmentPatch{Status: &completed, PaymentStatus: &paid, CompletedAt: &now},
	)
	if err != nil || !ok {
		return false, err
	}

	a.Status = completed
	a.PaymentStatus = paid
	a.CompletedAt = &now
	details := map[string]interface{}{"appointment_id": a.Id.String()}

	if err := s.ledger.MoveEscrowToJackpot(ctx, a.StarId, a.Id); err != nil {
		details["error"] = err.Error()
		s.logger.Warn(reconcileModule, "Failed to move escrow to jackpot", details)
	}
	if err := s.notifier.AppointmentCompleted(ctx, a); err != nil {
		details["error"] = err.Error()
		s.logger.Warn(reconcileModule, "Failed to send completion notice", details)
	}
	if err := s.purger.PurgeConversation(ctx, a.FanId, a.StarId); err != nil {
		details["error"] = err.Error()
		s.logger.Warn(reconcileModule, "Failed to queue conversation purge", details)
	}
	return true, nil
}

// markNoShow only flips the status; the slot stays taken and no new appointment is made.
func (s *reconciliationService) markNoShow(ctx context.Context, a *entity.Appointment) (bool, error) {
	rescheduled := entity.AppointmentStatusRescheduled
	reason := entity.RescheduleReasonNoShow
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.AppointmentRepository().UpdateIf(ctx, a.Id,
		entity.AppointmentCondition{
			Statuses:        entity.ReconcilableStatuses,
			PaymentStatuses: entity.ReconcilablePaymentStatuses,
			ZeroDuration:    true,
		},
		entity.AppointmentPatch{Status: &rescheduled, RescheduleReason: &reason},
	)
}

func (s *reconciliationService) release(ctx context.Context, key, token string) {
	if err := s.locker.Release(ctx, key, token); err != nil {
		s.logger.Warn(reconcileModule, "Failed to release scheduler lock", map[string]interface{}{"error": err.Error()})
	}
}

// cronLogAdapter routes cron's own logging through the application logger.
type cronLogAdapter struct {
	logger logger.ILogger
}

func (a *cronLogAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug("CRON", msg, pairs(keysAndValues))
}

func (a *cronLogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	details := pairs(keysAndValues)
	details["error"] = err.Error()
	a.logger.Error("CRON", msg, details)
}

func pairs(keysAndValues []interface{}) map[string]interface{} {
	details := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		details[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return details
}
