package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"star-booking-be/internal/dto"
	"star-booking-be/internal/entity"
	"star-booking-be/internal/pkg/apperror"
	"star-booking-be/internal/repository/contract"
	"star-booking-be/internal/repository/unitofwork"
	"star-booking-be/pkg/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func book(t *testing.T, h *harness, fan, star *entity.User, availability *entity.Availability, slot *entity.TimeSlot) *dto.CreateAppointmentResponse {
	t.Helper()
	res, err := h.appointments.Create(h.ctx, fanActor(fan), &dto.CreateAppointmentRequest{
		StarId:         star.Id,
		AvailabilityId: availability.Id,
		TimeSlotId:     slot.Id,
	})
	require.NoError(t, err)
	return res
}

func TestCreate_CoinBooking(t *testing.T) {
	h := newHarness(t)
	star := h.seedUser(entity.UserRoleStar, 0)
	fan := h.seedUser(entity.UserRoleFan, 25)
	availability := h.seedSlots(star.Id, tomorrow, morningSlot)
	slot := availability.TimeSlots[0]

	res := book(t, h, fan, star, availability, slot)

	assert.Equal(t, entity.PaymentModeCoin, res.PaymentMode)
	assert.Equal(t, entity.AppointmentStatusPending, res.Appointment.Status)
	assert.Equal(t, entity.AppointmentPaymentPending, res.Appointment.PaymentStatus)
	require.NotNil(t, res.Appointment.UtcStartTime)
	assert.Equal(t, "2030-01-11T09:00:00Z", res.Appointment.UtcStartTime.UTC().Format("2006-01-02T15:04:05Z"))

	assert.Equal(t, entity.SlotStatusUnavailable, h.slot(slot.Id).Status)
	assert.Equal(t, entity.TransactionStatusCompleted, h.transaction(res.TransactionId).Status)
	assert.InDelta(t, 15, h.wallet(fan.Id).Coins, 0.001)
	assert.InDelta(t, testStarPrice, h.wallet(star.Id).Escrow, 0.001)
	assert.Equal(t, 1, h.publisher.count(events.AppointmentBooked))
}

func TestReject_RefundsCoinBooking(t *testing.T) {
	h := newHarness(t)
	star := h.seedUser(entity.UserRoleStar, 0)
	fan := h.seedUser(entity.UserRoleFan, 10)
	availability := h.seedSlots(star.Id, tomorrow, morningSlot)
	slot := availability.TimeSlots[0]
	res := book(t, h, fan, star, availability, slot)

	rejected, err := h.appointments.Reject(h.ctx, starActor(star), res.Appointment.Id)
	require.NoError(t, err)

	assert.Equal(t, entity.AppointmentStatusRejected, rejected.Status)
	assert.Equal(t, entity.AppointmentPaymentRefunded, rejected.PaymentStatus)
	assert.Equal(t, entity.SlotStatusAvailable, h.slot(slot.Id).Status)
	assert.Equal(t, entity.TransactionStatusRefunded, h.transaction(res.TransactionId).Status)
	// refunded exactly once
	assert.InDelta(t, 10, h.wallet(fan.Id).Coins, 0.001)
	assert.InDelta(t, 0, h.wallet(star.Id).Escrow, 0.001)
	assert.Equal(t, 1, h.publisher.count(events.AppointmentRejected))

	_, err = h.appointments.Reject(h.ctx, starActor(star), res.Appointment.Id)
	assert.True(t, apperror.Is(err, http.StatusBadRequest))
}

func TestCreate_Validation(t *testing.T) {
	h := newHarness(t)
	star := h.seedUser(entity.UserRoleStar, 0)
	fan := h.seedUser(entity.UserRoleFan, 100)
	availability := h.seedSlots(star.Id, tomorrow, morningSlot)
	past := h.seedSlots(star.Id, "2030-01-09", morningSlot)
	today := h.seedSlots(star.Id, "2030-01-10", "11:00 - 12:00", eveningSlot)

	tests := []struct {
		name  string
		actor entity.Actor
		req   dto.CreateAppointmentRequest
		code  int
	}{
		{
			name:  "stars cannot book",
			actor: starActor(star),
			req:   dto.CreateAppointmentRequest{StarId: star.Id, AvailabilityId: availability.Id, TimeSlotId: availability.TimeSlots[0].Id},
			code:  http.StatusForbidden,
		},
		{
			name:  "unknown star",
			actor: fanActor(fan),
			req:   dto.CreateAppointmentRequest{StarId: uuid.New(), AvailabilityId: availability.Id, TimeSlotId: availability.TimeSlots[0].Id},
			code:  http.StatusNotFound,
		},
		{
			name:  "slot of another availability",
			actor: fanActor(fan),
			req:   dto.CreateAppointmentRequest{StarId: star.Id, AvailabilityId: availability.Id, TimeSlotId: past.TimeSlots[0].Id},
			code:  http.StatusNotFound,
		},
		{
			name:  "past date",
			actor: fanActor(fan),
			req:   dto.CreateAppointmentRequest{StarId: star.Id, AvailabilityId: past.Id, TimeSlotId: past.TimeSlots[0].Id},
			code:  http.StatusBadRequest,
		},
		{
			name:  "slot already started today",
			actor: fanActor(fan),
			req:   dto.CreateAppointmentRequest{StarId: star.Id, AvailabilityId: today.Id, TimeSlotId: today.SlotByString("11:00 - 12:00").Id},
			code:  http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.appointments.Create(h.ctx, tt.actor, &tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperror.CodeOf(err))
		})
	}

	// a later slot today is still bookable
	res := book(t, h, fan, star, today, today.SlotByString(eveningSlot))
	assert.Equal(t, "2030-01-10", res.Appointment.Date)
}

func TestCreate_RequiresPhone(t *testing.T) {
	h := newHarness(t)
	star := h.seedUser(entity.UserRoleStar, 0)
	fan := &entity.User{FullName: "No Phone", Role: entity.UserRoleFan}
	require.NoError(t, h.uowFactory.NewUnitOfWork(h.ctx).UserRepository().Create(h.ctx, fan))
	availability := h.seedSlots(star.Id, tomorrow, morningSlot)

	_, err := h.appointments.Create(h.ctx, fanActor(fan), &dto.CreateAppointmentRequest{
		StarId: star.Id, AvailabilityId: availability.Id, TimeSlotId: availability.TimeSlots[0].Id,
	})
	assert.True(t, apperror.Is(err, http.StatusBadRequest))
	assert.Zero(t, h.appointmentCount())
}

func TestCreate_TakenSlotConflicts(t *testing.T) {
	h := newHarness(t)
	star := h.seedUser(entity.UserRoleStar, 0)
	first := h.seedUser(entity.UserRoleFan, 10)
	second := h.seedUser(entity.UserRoleFan, 10)
	availability := h.seedSlots(star.Id, tomorrow, morningSlot)
	book(t, h, first, star, availability, availability.TimeSlots[0])

	_, err := h.appointments.Create(h.ctx, fanActor(second), &dto.CreateAppointmentRequest{
		StarId: star.Id, AvailabilityId: availability.Id, TimeSlotId: availability.TimeSlots[0].Id,
	})
	assert.True(t, apperror.Is(err, http.StatusConflict))
	assert.InDelta(t, 10, h.wallet(second.Id).Coins, 0.001)
}

func TestCreate_ConcurrentBookersOneWinner(t *testing.T) {
	h := newHarness(t)
	star := h.seedUser(entity.UserRoleStar, 0)
	availability := h.seedSlots(star.Id, tomorrow, morningSlot)
	slot := availability.TimeSlots[0]

	const bookers = 6
	fans := make([]*entity.User, bookers)
	for i := range fans {
		fans[i] = h.seedUser(entity.UserRoleFan, 20)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for _, fan := range fans {
		wg.Add(1)
		go func(fan *entity.User) {
			defer wg.Done()
			_, err := h.appointments.Create(context.Background(), fanActor(fan), &dto.CreateAppointmentRequest{
				StarId: star.Id, AvailabilityId: availability.Id, TimeSlotId: slot.Id,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case apperror.Is(err, http.StatusConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(fan)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, bookers-1, conflicts)
	assert.EqualValues(t, 1, h.appointmentCount())
	assert.Equal(t, entity.SlotStatusUnavailable, h.slot(slot.Id).Status)

	// losers were charged nothing in the end
	charged := 0
	for _, fan := range fans {
		if h.wallet(fan.Id).Coins < 20 {
			charged++
		}
	}
	assert.Equal(t, 1, charged)
	assert.InDelta(t, testStarPrice, h.wallet(star.Id).Escrow, 0.001)
}

func TestApprove(t *testing.T) {
	h := newHarness(t)
	star := h.seedUser(entity.UserRoleStar, 0)
	other := h.seedUser(entity.UserRoleStar, 0)
	fan := h.seedUser(entity.UserRoleFan, 10)
	availability := h.seedSlots(star.Id, tomorrow, morningSlot)
	res := book(t, h, fan, star, availability, availability.TimeSlots[0])

	_, err := h.appointments.Approve(h.ctx, starActor(other), res.Appointment.Id)
	assert.True(t, apperror.Is(err, http.StatusForbidden))

	approved, err := h.appointments.Approve(h.ctx, starActor(star), res.Appointment.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentStatusApproved, approved.Status)
	assert.Equal(t, entity.SlotStatusUnavailable, h.slot(availability.TimeSlots[0].Id).Status)
	assert.Equal(t, 1, h.publisher.count(events.AppointmentApproved))

	_, err = h.appointments.Approve(h.ctx, starActor(star), res.Appointment.Id)
	assert.True(t, apperror.Is(err, http.StatusBadRequest))
}

func TestCancel(t *testing.T) {
	h := newHarness(t)
	star := h.seedUser(entity.UserRoleStar, 0)
	fan := h.seedUser(entity.UserRoleFan, 10)
	availability := h.seedSlots(star.Id, tomorrow, morningSlot)
	res := book(t, h, fan, star, availability, availability.TimeSlots[0])

	_, err := h.appointments.Cancel(h.ctx, starActor(star), res.Appointment.Id)
	assert.True(t, apperror.Is(err, http.StatusForbidden))

	cancelled, err := h.appointments.Cancel(h.ctx, fanActor(fan), res.Appointment.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentStatusCancelled, cancelled.Status)
	assert.Equal(t, entity.AppointmentPaymentRefunded, cancelled.PaymentStatus)
	assert.Equal(t, entity.SlotStatusAvailable, h.slot(availability.TimeSlots[0].Id).Status)
	assert.InDelta(t, 10, h.wallet(fan.Id).Coins, 0.001)
	assert.InDelta(t, 0, h.wallet(star.Id).Escrow, 0.001)

	_, err = h.appointments.Cancel(h.ctx, fanActor(fan), res.Appointment.Id)
	assert.True(t, apperror.Is(err, http.StatusBadRequest))
}

func TestAddDuration(t *testing.T) {
	h := newHarness(t)
	star := h.seedUser(entity.UserRoleStar, 0)
	fan := h.seedUser(entity.UserRoleFan, 10)
	stranger := h.seedUser(entity.UserRoleFan, 0)
	availability := h.seedSlots(star.Id, tomorrow, morningSlot)
	res := book(t, h, fan, star, availability, availability.TimeSlots[0])
	id := res.Appointment.Id

	seconds := func(n int64) *dto.AddDurationRequest { return &dto.AddDurationRequest{Duration: &n} }

	_, err := h.appointments.AddDuration(h.ctx, fanActor(fan), id, seconds(30))
	assert.True(t, apperror.Is(err, http.StatusBadRequest), "pending appointments take no duration")

	_, err = h.appointments.Approve(h.ctx, starActor(star), id)
	require.NoError(t, err)

	_, err = h.appointments.AddDuration(h.ctx, fanActor(stranger), id, seconds(30))
	assert.True(t, apperror.Is(err, http.StatusForbidden))
	_, err = h.appointments.AddDuration(h.ctx, fanActor(fan), id, seconds(-1))
	assert.True(t, apperror.Is(err, http.StatusBadRequest))

	out, err := h.appointments.AddDuration(h.ctx, fanActor(fan), id, seconds(120))
	require.NoError(t, err)
	assert.EqualValues(t, 120, out.CallDuration)
	assert.False(t, out.IsFullyCompleted)
	assert.Equal(t, entity.AppointmentStatusApproved, out.Status)
	assert.Equal(t, entity.AppointmentStatusInProgress, h.appointment(id).Status)

	out, err = h.appointments.AddDuration(h.ctx, starActor(star), id, seconds(0))
	require.NoError(t, err)
	assert.EqualValues(t, 120, out.CallDuration)

	out, err = h.appointments.AddDuration(h.ctx, starActor(star), id, seconds(180))
	require.NoError(t, err)
	assert.EqualValues(t, 300, out.CallDuration)
	assert.True(t, out.IsFullyCompleted)
}

func TestAddDuration_ConcurrentReportsSum(t *testing.T) {
	h := newHarness(t)
	star := h.seedUser(entity.UserRoleStar, 0)
	fan := h.seedUser(entity.UserRoleFan, 10)
	availability := h.seedSlots(star.Id, tomorrow, morningSlot)
	res := book(t, h, fan, star, availability, availability.TimeSlots[0])
	_, err := h.appointments.Approve(h.ctx, starActor(star), res.Appointment.Id)
	require.NoError(t, err)

	const (
		calls = 12
		delta = int64(15)
	)
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d := delta
			_, err := h.appointments.AddDuration(context.Background(), fanActor(fan), res.Appointment.Id, &dto.AddDurationRequest{Duration: &d})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, calls*delta, h.appointment(res.Appointment.Id).CallDuration)
}

func TestReschedule(t *testing.T) {
	h := newHarness(t)
	star := h.seedUser(entity.UserRoleStar, 0)
	fan := h.seedUser(entity.UserRoleFan, 10)
	availability := h.seedSlots(star.Id, tomorrow, morningSlot, eveningSlot)
	oldSlot := availability.SlotByString(morningSlot)
	newSlot := availability.SlotByString(eveningSlot)
	res := book(t, h, fan, star, availability, oldSlot)

	moved, err := h.appointments.Reschedule(h.ctx, fanActor(fan), res.Appointment.Id, &dto.RescheduleAppointmentRequest{
		AvailabilityId: availability.Id,
		TimeSlotId:     newSlot.Id,
	})
	require.NoError(t, err)

	assert.NotEqual(t, res.Appointment.Id, moved.Id)
	assert.True(t, moved.IsRescheduled)
	require.NotNil(t, moved.ParentAppointmentId)
	assert.Equal(t, res.Appointment.Id, *moved.ParentAppointmentId)
	assert.Equal(t, entity.AppointmentStatusPending, moved.Status)
	assert.Equal(t, entity.AppointmentPaymentCompleted, moved.PaymentStatus)
	assert.Equal(t, eveningSlot, moved.Time)

	original := h.appointment(res.Appointment.Id)
	assert.Equal(t, entity.AppointmentStatusRescheduled, original.Status)
	assert.Equal(t, entity.RescheduleReasonFanRequest, original.RescheduleReason)
	assert.Equal(t, entity.SlotStatusAvailable, h.slot(oldSlot.Id).Status)
	assert.Equal(t, entity.SlotStatusUnavailable, h.slot(newSlot.Id).Status)
	assert.Equal(t, 1, h.publisher.count(events.AppointmentRescheduled))
}

// failingAppointments makes the insert of a rescheduled appointment fail mid-transaction.
type failingAppointments struct {
	contract.AppointmentRepository
}

func (failingAppointments) Create(ctx context.Context, appointment *entity.Appointment) error {
	return errors.New("injected insert failure")
}

type failingUnitOfWork struct {
	unitofwork.UnitOfWork
}

func (u failingUnitOfWork) AppointmentRepository() contract.AppointmentRepository {
	return failingAppointments{u.UnitOfWork.AppointmentRepository()}
}

type failingFactory struct {
	inner unitofwork.RepositoryFactory
}

func (f failingFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return failingUnitOfWork{f.inner.NewUnitOfWork(ctx)}
}

func TestReschedule_RollsBackOnFailure(t *testing.T) {
	h := newHarness(t)
	star := h.seedUser(entity.UserRoleStar, 0)
	fan := h.seedUser(entity.UserRoleFan, 10)
	availability := h.seedSlots(star.Id, tomorrow, morningSlot, eveningSlot)
	oldSlot := availability.SlotByString(morningSlot)
	newSlot := availability.SlotByString(eveningSlot)
	res := book(t, h, fan, star, availability, oldSlot)
	_, err := h.appointments.Approve(h.ctx, starActor(star), res.Appointment.Id)
	require.NoError(t, err)

	broken := h.newAppointmentService(failingFactory{inner: h.uowFactory})
	_, err = broken.Reschedule(h.ctx, fanActor(fan), res.Appointment.Id, &dto.RescheduleAppointmentRequest{
		AvailabilityId: availability.Id,
		TimeSlotId:     newSlot.Id,
	})
	require.Error(t, err)

	assert.EqualValues(t, 1, h.appointmentCount())
	assert.Equal(t, entity.AppointmentStatusApproved, h.appointment(res.Appointment.Id).Status)
	assert.Equal(t, entity.SlotStatusUnavailable, h.slot(oldSlot.Id).Status)
	assert.Equal(t, entity.SlotStatusAvailable, h.slot(newSlot.Id).Status)
	assert.Zero(t, h.publisher.count(events.AppointmentRescheduled))
}

func TestListAndGet_Visibility(t *testing.T) {
	h := newHarness(t)
	star := h.seedUser(entity.UserRoleStar, 0)
	richFan := h.seedUser(entity.UserRoleFan, 50)
	poorFan := h.seedUser(entity.UserRoleFan, 2)
	availability := h.seedSlots(star.Id, tomorrow, morningSlot, eveningSlot)

	paid := book(t, h, richFan, star, availability, availability.SlotByString(morningSlot))
	unpaid := book(t, h, poorFan, star, availability, availability.SlotByString(eveningSlot))
	require.Equal(t, entity.PaymentModeHybrid, unpaid.PaymentMode)

	starView, err := h.appointments.List(h.ctx, starActor(star), &dto.ListAppointmentsRequest{})
	require.NoError(t, err)
	require.EqualValues(t, 1, starView.Total)
	assert.Equal(t, paid.Appointment.Id, starView.Items[0].Id)

	_, err = h.appointments.Get(h.ctx, starActor(star), unpaid.Appointment.Id)
	assert.True(t, apperror.Is(err, http.StatusForbidden))
	_, err = h.appointments.Get(h.ctx, fanActor(richFan), unpaid.Appointment.Id)
	assert.True(t, apperror.Is(err, http.StatusForbidden))
	got, err := h.appointments.Get(h.ctx, fanActor(poorFan), unpaid.Appointment.Id)
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentPaymentInitiated, got.PaymentStatus)

	all, err := h.appointments.List(h.ctx, adminActor(), &dto.ListAppointmentsRequest{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Total)
	assert.Len(t, all.Items, 1)

	_, err = h.appointments.Approve(h.ctx, starActor(star), paid.Appointment.Id)
	require.NoError(t, err)
	d := int64(10)
	_, err = h.appointments.AddDuration(h.ctx, fanActor(richFan), paid.Appointment.Id, &dto.AddDurationRequest{Duration: &d})
	require.NoError(t, err)

	// in_progress is listed and reported as approved
	approved, err := h.appointments.List(h.ctx, fanActor(richFan), &dto.ListAppointmentsRequest{Status: "approved"})
	require.NoError(t, err)
	require.Len(t, approved.Items, 1)
	assert.Equal(t, entity.AppointmentStatusApproved, approved.Items[0].Status)
}
