package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"star-booking-be/internal/config"
	"star-booking-be/internal/entity"
	"star-booking-be/internal/pkg/gateway"
	"star-booking-be/internal/pkg/logger"
	"star-booking-be/internal/pkg/testdb"
	"star-booking-be/internal/repository/memory"
	"star-booking-be/internal/repository/specification"
	"star-booking-be/internal/repository/unitofwork"
	"star-booking-be/pkg/events"
	"star-booking-be/pkg/lock"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testStarPrice = 10.0
	tomorrow      = "2030-01-11"
	morningSlot   = "09:00 - 10:00"
	eveningSlot   = "18:00 - 19:00"
)

// testNow is noon UTC; stars are based in the United Kingdom so local time equals UTC.
var testNow = time.Date(2030, 1, 10, 12, 0, 0, 0, time.UTC)

type fakeGateway struct {
	mu         sync.Mutex
	requests   []gateway.PaymentLinkRequest
	err        error
	badSigning bool
}

func (g *fakeGateway) CreatePaymentLink(ctx context.Context, req gateway.PaymentLinkRequest) (*gateway.PaymentLink, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)
	return &gateway.PaymentLink{
		ExternalPaymentId: "snap-" + req.OrderId,
		RedirectURL:       "https://pay.example.test/" + req.OrderId,
	}, nil
}

func (g *fakeGateway) VerifySignature(orderId, statusCode, grossAmount, signature string) bool {
	return !g.badSigning
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

type purgeCall struct {
	fanId  uuid.UUID
	starId uuid.UUID
}

type recordingPurger struct {
	mu    sync.Mutex
	calls []purgeCall
}

func (p *recordingPurger) PurgeConversation(ctx context.Context, fanId, starId uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, purgeCall{fanId: fanId, starId: starId})
	return nil
}

func (p *recordingPurger) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

type harness struct {
	t          *testing.T
	ctx        context.Context
	db         *gorm.DB
	uowFactory unitofwork.RepositoryFactory
	clock      *clock.Mock
	log        logger.ILogger

	gateway   *fakeGateway
	publisher *recordingPublisher
	purger    *recordingPurger

	ledger       IPaymentLedger
	profiles     IStarProfileProvider
	notifier     INotificationService
	appointments IAppointmentService
	availability IAvailabilityService
	payments     IPaymentService
	reconciler   IReconciliationService
}

func schedulerConfig() config.SchedulerConfig {
	return config.SchedulerConfig{
		Enabled:           true,
		Spec:              "@every 1m",
		LockKey:           "locks:test-reconciliation",
		LockTTL:           time.Minute,
		CompletionSeconds: 300,
		GraceMinutes:      5,
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testdb.New(t)
	mock := clock.NewMock()
	mock.Set(testNow)
	h := &harness{
		t:          t,
		ctx:        context.Background(),
		db:         db,
		uowFactory: unitofwork.NewRepositoryFactory(db),
		clock:      mock,
		log:        logger.NewNopLogger(),
		gateway:    &fakeGateway{},
		publisher:  &recordingPublisher{},
		purger:     &recordingPurger{},
	}

	h.ledger = NewLedgerService(h.uowFactory, h.gateway, h.log)
	h.profiles = NewStarProfileProvider(h.uowFactory, memory.NewStarProfileCache(time.Minute))
	h.notifier = NewNotificationService(h.publisher, nil, h.log)
	h.appointments = h.newAppointmentService(h.uowFactory)
	h.availability = NewAvailabilityService(h.uowFactory, h.profiles, h.clock, h.log)
	h.payments = NewPaymentService(h.uowFactory, h.ledger, h.gateway, h.profiles, h.notifier, h.clock, h.log, 10*time.Minute)
	h.reconciler = h.newReconciler(lock.NewLocalLocker())
	return h
}

func (h *harness) newAppointmentService(factory unitofwork.RepositoryFactory) IAppointmentService {
	return NewAppointmentService(factory, h.ledger, h.profiles, h.notifier, NewInMemoryPager(), h.clock, h.log, 300)
}

func (h *harness) newReconciler(locker lock.Locker) IReconciliationService {
	return NewReconciliationService(h.uowFactory, h.ledger, h.notifier, h.purger, h.payments, locker, h.clock, h.log, schedulerConfig())
}

func (h *harness) seedUser(role entity.UserRole, coins float64) *entity.User {
	h.t.Helper()
	user := &entity.User{
		FullName: fmt.Sprintf("%s %s", role, uuid.NewString()[:8]),
		Email:    uuid.NewString()[:8] + "@example.test",
		Phone:    "+440000000",
		Role:     role,
		Country:  "United Kingdom",
	}
	if role == entity.UserRoleStar {
		user.AppointmentPrice = testStarPrice
	}
	uow := h.uowFactory.NewUnitOfWork(h.ctx)
	require.NoError(h.t, uow.UserRepository().Create(h.ctx, user))
	require.NoError(h.t, uow.LedgerRepository().AdjustWallet(h.ctx, user.Id, entity.WalletDelta{Coins: coins}))
	return user
}

func (h *harness) seedSlots(starId uuid.UUID, date string, slots ...string) *entity.Availability {
	h.t.Helper()
	availability := &entity.Availability{UserId: starId, Date: date}
	for _, s := range slots {
		availability.TimeSlots = append(availability.TimeSlots, &entity.TimeSlot{Slot: s, Status: entity.SlotStatusAvailable})
	}
	uow := h.uowFactory.NewUnitOfWork(h.ctx)
	require.NoError(h.t, uow.AvailabilityRepository().Create(h.ctx, availability))
	return availability
}

func (h *harness) wallet(userId uuid.UUID) *entity.Wallet {
	h.t.Helper()
	w, err := h.uowFactory.NewUnitOfWork(h.ctx).LedgerRepository().FindWallet(h.ctx, userId)
	require.NoError(h.t, err)
	require.NotNil(h.t, w)
	return w
}

func (h *harness) appointment(id uuid.UUID) *entity.Appointment {
	h.t.Helper()
	a, err := h.uowFactory.NewUnitOfWork(h.ctx).AppointmentRepository().FindOne(h.ctx, specification.ByID{ID: id})
	require.NoError(h.t, err)
	require.NotNil(h.t, a)
	return a
}

func (h *harness) slot(id uuid.UUID) *entity.TimeSlot {
	h.t.Helper()
	s, err := h.uowFactory.NewUnitOfWork(h.ctx).AvailabilityRepository().FindSlot(h.ctx, specification.ByID{ID: id})
	require.NoError(h.t, err)
	require.NotNil(h.t, s)
	return s
}

func (h *harness) transaction(id uuid.UUID) *entity.Transaction {
	h.t.Helper()
	tx, err := h.ledger.GetTransaction(h.ctx, id)
	require.NoError(h.t, err)
	require.NotNil(h.t, tx)
	return tx
}

func (h *harness) appointmentCount() int64 {
	h.t.Helper()
	n, err := h.uowFactory.NewUnitOfWork(h.ctx).AppointmentRepository().Count(h.ctx)
	require.NoError(h.t, err)
	return n
}

func fanActor(u *entity.User) entity.Actor {
	return entity.Actor{UserId: u.Id, Role: entity.UserRoleFan}
}

func starActor(u *entity.User) entity.Actor {
	return entity.Actor{UserId: u.Id, Role: entity.UserRoleStar}
}

func adminActor() entity.Actor {
	return entity.Actor{UserId: uuid.New(), Role: entity.UserRoleAdmin}
}
