package service

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"star-booking-be/internal/dto"
	"star-booking-be/internal/entity"
	"star-booking-be/internal/pkg/apperror"
	"star-booking-be/internal/repository/contract"
	"star-booking-be/internal/repository/specification"
	"star-booking-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rescheduledBooking pays 10 coins for the morning slot, then moves it to the evening slot.
func rescheduledBooking(t *testing.T, h *harness) (fan, star *entity.User, original *dto.CreateAppointmentResponse, moved *dto.AppointmentResponse) {
	t.Helper()
	star = h.seedUser(entity.UserRoleStar, 0)
	fan = h.seedUser(entity.UserRoleFan, 10)
	availability := h.seedSlots(star.Id, tomorrow, morningSlot, eveningSlot)
	original = book(t, h, fan, star, availability, availability.SlotByString(morningSlot))

	moved, err := h.appointments.Reschedule(h.ctx, fanActor(fan), original.Appointment.Id, &dto.RescheduleAppointmentRequest{
		AvailabilityId: availability.Id,
		TimeSlotId:     availability.SlotByString(eveningSlot).Id,
	})
	require.NoError(t, err)
	return fan, star, original, moved
}

func TestCancel_ReplacedAppointmentKeepsEscrow(t *testing.T) {
	h := newHarness(t)
	fan, star, original, moved := rescheduledBooking(t, h)

	_, err := h.appointments.Cancel(h.ctx, fanActor(fan), original.Appointment.Id)
	assert.True(t, apperror.Is(err, http.StatusBadRequest))
	_, err = h.appointments.Cancel(h.ctx, adminActor(), original.Appointment.Id)
	assert.True(t, apperror.Is(err, http.StatusBadRequest))

	assert.Equal(t, entity.AppointmentStatusRescheduled, h.appointment(original.Appointment.Id).Status)
	assert.InDelta(t, 0, h.wallet(fan.Id).Coins, 0.001)
	assert.InDelta(t, testStarPrice, h.wallet(star.Id).Escrow, 0.001)

	_, err = h.appointments.Approve(h.ctx, starActor(star), moved.Id)
	require.NoError(t, err)
	seconds := int64(300)
	_, err = h.appointments.AddDuration(h.ctx, fanActor(fan), moved.Id, &dto.AddDurationRequest{Duration: &seconds})
	require.NoError(t, err)
	h.clock.Set(time.Date(2030, 1, 11, 18, 6, 0, 0, time.UTC))

	summary, err := h.reconciler.RunOnce(h.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Completed)
	assert.Zero(t, summary.Errors)

	wallet := h.wallet(star.Id)
	assert.InDelta(t, 0, wallet.Escrow, 0.001)
	assert.InDelta(t, testStarPrice, wallet.Jackpot, 0.001)
	assert.InDelta(t, 0, h.wallet(fan.Id).Coins, 0.001)
}

func TestCancel_ReplacementRefundsSharedEscrow(t *testing.T) {
	h := newHarness(t)
	fan, star, _, moved := rescheduledBooking(t, h)

	cancelled, err := h.appointments.Cancel(h.ctx, fanActor(fan), moved.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentStatusCancelled, cancelled.Status)
	assert.Equal(t, entity.AppointmentPaymentRefunded, cancelled.PaymentStatus)

	got := h.appointment(moved.Id)
	assert.Equal(t, entity.AppointmentPaymentRefunded, got.PaymentStatus)
	assert.Equal(t, entity.SlotStatusAvailable, h.slot(got.TimeSlotId).Status)
	assert.InDelta(t, 10, h.wallet(fan.Id).Coins, 0.001)
	assert.InDelta(t, 0, h.wallet(star.Id).Escrow, 0.001)
}

func TestCancel_UnpaidHybridReleasesLock(t *testing.T) {
	h := newHarness(t)
	fan, _, res := hybridBooking(t, h)
	assert.InDelta(t, 0, h.wallet(fan.Id).Coins, 0.001)

	cancelled, err := h.appointments.Cancel(h.ctx, fanActor(fan), res.Appointment.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentStatusCancelled, cancelled.Status)

	slot := h.slot(res.Appointment.TimeSlotId)
	assert.Equal(t, entity.SlotStatusAvailable, slot.Status)
	assert.Nil(t, slot.PaymentReferenceId)
	assert.Nil(t, slot.LockedAt)
	assert.Equal(t, entity.TransactionStatusCancelled, h.transaction(res.TransactionId).Status)
	assert.InDelta(t, 4, h.wallet(fan.Id).Coins, 0.001)
}

func TestApproveAndReject_WaitForPayment(t *testing.T) {
	h := newHarness(t)
	_, star, res := hybridBooking(t, h)

	_, err := h.appointments.Approve(h.ctx, starActor(star), res.Appointment.Id)
	assert.True(t, apperror.Is(err, http.StatusBadRequest))
	_, err = h.appointments.Reject(h.ctx, starActor(star), res.Appointment.Id)
	assert.True(t, apperror.Is(err, http.StatusBadRequest))

	got := h.appointment(res.Appointment.Id)
	assert.Equal(t, entity.AppointmentStatusPending, got.Status)
	assert.Equal(t, entity.AppointmentPaymentInitiated, got.PaymentStatus)
	assert.Equal(t, entity.SlotStatusLocked, h.slot(got.TimeSlotId).Status)
	assert.Equal(t, entity.TransactionStatusInitiated, h.transaction(res.TransactionId).Status)
}

// settlingLedger delivers the gateway settlement in the middle of a cancellation.
type settlingLedger struct {
	IPaymentLedger
	onGet    bool
	onCancel bool
	settle   func()
	once     sync.Once
}

func (l *settlingLedger) GetTransaction(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	if l.onGet {
		l.once.Do(l.settle)
	}
	return l.IPaymentLedger.GetTransaction(ctx, id)
}

func (l *settlingLedger) CancelTransaction(ctx context.Context, id uuid.UUID) error {
	if l.onCancel {
		l.once.Do(l.settle)
	}
	return l.IPaymentLedger.CancelTransaction(ctx, id)
}

func TestCancel_SettlementDuringCancelIsRefunded(t *testing.T) {
	tests := []struct {
		name     string
		onGet    bool
		onCancel bool
	}{
		{"settled before the transaction is read", true, false},
		{"settled before the transaction is cancelled", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			fan, star, res := hybridBooking(t, h)

			ledger := &settlingLedger{
				IPaymentLedger: h.ledger,
				onGet:          tt.onGet,
				onCancel:       tt.onCancel,
				settle: func() {
					require.NoError(t, h.payments.HandleNotification(h.ctx, notification(res.TransactionId, "settlement")))
				},
			}
			appointments := NewAppointmentService(h.uowFactory, ledger, h.profiles, h.notifier, NewInMemoryPager(), h.clock, h.log, 300)

			cancelled, err := appointments.Cancel(h.ctx, fanActor(fan), res.Appointment.Id)
			require.NoError(t, err)
			assert.Equal(t, entity.AppointmentStatusCancelled, cancelled.Status)

			assert.Equal(t, entity.AppointmentStatusCancelled, h.appointment(res.Appointment.Id).Status)
			assert.Equal(t, entity.TransactionStatusRefunded, h.transaction(res.TransactionId).Status)
			assert.InDelta(t, testStarPrice, h.wallet(fan.Id).Coins, 0.001)
			assert.InDelta(t, 0, h.wallet(star.Id).Escrow, 0.001)
			assert.Equal(t, entity.SlotStatusAvailable, h.slot(res.Appointment.TimeSlotId).Status)
		})
	}
}

func TestHandleNotification_SettlementAfterCancelIsRefunded(t *testing.T) {
	h := newHarness(t)
	fan, star, res := hybridBooking(t, h)

	// the cancellation already flipped the booking but the gateway had not reported yet
	uow := h.uowFactory.NewUnitOfWork(h.ctx)
	cancelled := entity.AppointmentStatusCancelled
	ok, err := uow.AppointmentRepository().UpdateIf(h.ctx, res.Appointment.Id,
		entity.AppointmentCondition{Statuses: []entity.AppointmentStatus{entity.AppointmentStatusPending}},
		entity.AppointmentPatch{Status: &cancelled},
	)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, h.payments.HandleNotification(h.ctx, notification(res.TransactionId, "settlement")))
	assert.Equal(t, entity.TransactionStatusRefunded, h.transaction(res.TransactionId).Status)
	assert.InDelta(t, testStarPrice, h.wallet(fan.Id).Coins, 0.001)
	assert.InDelta(t, 0, h.wallet(star.Id).Escrow, 0.001)

	// retries change nothing
	require.NoError(t, h.payments.HandleNotification(h.ctx, notification(res.TransactionId, "settlement")))
	assert.InDelta(t, testStarPrice, h.wallet(fan.Id).Coins, 0.001)
}

// hookedAppointments runs a hook right after the appointment is read, before the caller
// acts on what it read.
type hookedAppointments struct {
	contract.AppointmentRepository
	after func()
}

func (r hookedAppointments) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Appointment, error) {
	appointment, err := r.AppointmentRepository.FindOne(ctx, specs...)
	r.after()
	return appointment, err
}

type hookedUnitOfWork struct {
	unitofwork.UnitOfWork
	after func()
}

func (u hookedUnitOfWork) AppointmentRepository() contract.AppointmentRepository {
	return hookedAppointments{AppointmentRepository: u.UnitOfWork.AppointmentRepository(), after: u.after}
}

type hookedFactory struct {
	inner unitofwork.RepositoryFactory
	hook  func()
	once  *sync.Once
}

func (f hookedFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return hookedUnitOfWork{UnitOfWork: f.inner.NewUnitOfWork(ctx), after: func() { f.once.Do(f.hook) }}
}

func TestApproveCancel_StaleReadLoses(t *testing.T) {
	t.Run("cancel lands first", func(t *testing.T) {
		h := newHarness(t)
		fan, star, res := coinBooking(t, h)

		var cancelErr error
		approver := h.newAppointmentService(hookedFactory{inner: h.uowFactory, once: &sync.Once{}, hook: func() {
			_, cancelErr = h.appointments.Cancel(h.ctx, fanActor(fan), res.Appointment.Id)
		}})

		_, err := approver.Approve(h.ctx, starActor(star), res.Appointment.Id)
		require.NoError(t, cancelErr)
		assert.True(t, apperror.Is(err, http.StatusConflict))

		got := h.appointment(res.Appointment.Id)
		assert.Equal(t, entity.AppointmentStatusCancelled, got.Status)
		assert.Equal(t, entity.SlotStatusAvailable, h.slot(got.TimeSlotId).Status)
		assert.InDelta(t, 0, h.wallet(star.Id).Escrow, 0.001)
	})

	t.Run("approve lands first", func(t *testing.T) {
		h := newHarness(t)
		fan, star, res := coinBooking(t, h)

		var approveErr error
		canceller := h.newAppointmentService(hookedFactory{inner: h.uowFactory, once: &sync.Once{}, hook: func() {
			_, approveErr = h.appointments.Approve(h.ctx, starActor(star), res.Appointment.Id)
		}})

		_, err := canceller.Cancel(h.ctx, fanActor(fan), res.Appointment.Id)
		require.NoError(t, approveErr)
		assert.True(t, apperror.Is(err, http.StatusConflict))

		got := h.appointment(res.Appointment.Id)
		assert.Equal(t, entity.AppointmentStatusApproved, got.Status)
		assert.Equal(t, entity.AppointmentPaymentPending, got.PaymentStatus)
		assert.Equal(t, entity.SlotStatusUnavailable, h.slot(got.TimeSlotId).Status)
		assert.InDelta(t, testStarPrice, h.wallet(star.Id).Escrow, 0.001)
	})
}

// An approve that finishes before the cancel reads the booking is followed by a valid
// cancellation of an approved appointment, so both may succeed. Whatever the interleaving
// the loser gets a client error and the ledger matches the final status.
func TestApproveCancel_Concurrent(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 6; i++ {
		fan, star, res := coinBooking(t, h)

		var (
			wg         sync.WaitGroup
			start      = make(chan struct{})
			approveErr error
			cancelErr  error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, approveErr = h.appointments.Approve(context.Background(), starActor(star), res.Appointment.Id)
		}()
		go func() {
			defer wg.Done()
			<-start
			_, cancelErr = h.appointments.Cancel(context.Background(), fanActor(fan), res.Appointment.Id)
		}()
		close(start)
		wg.Wait()

		for _, err := range []error{approveErr, cancelErr} {
			if err != nil {
				code := apperror.CodeOf(err)
				assert.True(t, code >= 400 && code < 500, "unexpected error %v", err)
			}
		}
		require.False(t, approveErr != nil && cancelErr != nil, "one of the requests must win")

		got := h.appointment(res.Appointment.Id)
		if cancelErr == nil {
			assert.Equal(t, entity.AppointmentStatusCancelled, got.Status)
			assert.Equal(t, entity.SlotStatusAvailable, h.slot(got.TimeSlotId).Status)
			assert.InDelta(t, 10, h.wallet(fan.Id).Coins, 0.001)
			assert.InDelta(t, 0, h.wallet(star.Id).Escrow, 0.001)
		} else {
			assert.Equal(t, entity.AppointmentStatusApproved, got.Status)
			assert.Equal(t, entity.SlotStatusUnavailable, h.slot(got.TimeSlotId).Status)
			assert.InDelta(t, testStarPrice, h.wallet(star.Id).Escrow, 0.001)
		}
	}
}

func coinBooking(t *testing.T, h *harness) (fan, star *entity.User, res *dto.CreateAppointmentResponse) {
	t.Helper()
	star = h.seedUser(entity.UserRoleStar, 0)
	fan = h.seedUser(entity.UserRoleFan, 10)
	availability := h.seedSlots(star.Id, tomorrow, morningSlot)
	return fan, star, book(t, h, fan, star, availability, availability.TimeSlots[0])
}
