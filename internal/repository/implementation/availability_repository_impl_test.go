package implementation

import (
	"context"
	"sync"
	"testing"
	"time"

	"star-booking-be/internal/entity"
	"star-booking-be/internal/pkg/testdb"
	"star-booking-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAvailability(t *testing.T, repo interface {
	Create(ctx context.Context, a *entity.Availability) error
}, slots ...string) *entity.Availability {
	t.Helper()
	a := &entity.Availability{UserId: uuid.New(), Date: "2030-01-15"}
	for _, s := range slots {
		a.TimeSlots = append(a.TimeSlots, &entity.TimeSlot{Slot: s})
	}
	require.NoError(t, repo.Create(context.Background(), a))
	return a
}

func TestAvailabilityRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewAvailabilityRepository(testdb.New(t))

	created := seedAvailability(t, repo, "10:00 - 11:00", "09:00 - 10:00")

	found, err := repo.FindOne(ctx, specification.UserOwnedBy{UserID: created.UserId}, specification.ByDate{Date: "2030-01-15"})
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.TimeSlots, 2)
	assert.Equal(t, "09:00 - 10:00", found.TimeSlots[0].Slot)
	assert.Equal(t, entity.SlotStatusAvailable, found.TimeSlots[0].Status)
	assert.Equal(t, entity.RecurrenceSpecific, found.Mode())

	missing, err := repo.FindOne(ctx, specification.ByDate{Date: "1999-01-01"})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAvailabilityRepository_TransitionSlot(t *testing.T) {
	ctx := context.Background()
	repo := NewAvailabilityRepository(testdb.New(t))
	a := seedAvailability(t, repo, "09:00 - 10:00")
	slotId := a.TimeSlots[0].Id
	lockedAt := time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)

	ok, err := repo.TransitionSlot(ctx, entity.SlotTransition{
		SlotId: slotId,
		From:   []entity.SlotStatus{entity.SlotStatusAvailable},
		To:     entity.SlotStatusLocked,
		Lock:   &entity.SlotLock{PaymentReferenceId: "tx-1", LockedAt: lockedAt},
	})
	require.NoError(t, err)
	assert.True(t, ok)

	slot, err := repo.FindSlot(ctx, specification.ByID{ID: slotId})
	require.NoError(t, err)
	assert.Equal(t, entity.SlotStatusLocked, slot.Status)
	require.NotNil(t, slot.PaymentReferenceId)
	assert.Equal(t, "tx-1", *slot.PaymentReferenceId)
	require.NotNil(t, slot.LockedAt)
	assert.True(t, lockedAt.Equal(*slot.LockedAt))

	// a second booker loses the compare-and-set
	ok, err = repo.TransitionSlot(ctx, entity.SlotTransition{
		SlotId: slotId,
		From:   []entity.SlotStatus{entity.SlotStatusAvailable},
		To:     entity.SlotStatusUnavailable,
	})
	require.NoError(t, err)
	assert.False(t, ok)

	// wrong payment reference does not settle the lock
	ok, err = repo.TransitionSlot(ctx, entity.SlotTransition{
		SlotId:             slotId,
		From:               []entity.SlotStatus{entity.SlotStatusLocked},
		To:                 entity.SlotStatusUnavailable,
		PaymentReferenceId: "tx-2",
	})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.TransitionSlot(ctx, entity.SlotTransition{
		SlotId:             slotId,
		From:               []entity.SlotStatus{entity.SlotStatusLocked},
		To:                 entity.SlotStatusUnavailable,
		PaymentReferenceId: "tx-1",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	slot, err = repo.FindSlot(ctx, specification.ByID{ID: slotId})
	require.NoError(t, err)
	assert.Equal(t, entity.SlotStatusUnavailable, slot.Status)
	assert.Nil(t, slot.PaymentReferenceId)
	assert.Nil(t, slot.LockedAt)
}

func TestAvailabilityRepository_ConcurrentBookersOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	repo := NewAvailabilityRepository(testdb.New(t))
	a := seedAvailability(t, repo, "09:00 - 10:00")

	const bookers = 12
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < bookers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.TransitionSlot(ctx, entity.SlotTransition{
				SlotId: a.TimeSlots[0].Id,
				From:   []entity.SlotStatus{entity.SlotStatusAvailable},
				To:     entity.SlotStatusUnavailable,
			})
			if err == nil && ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
}

func TestAvailabilityRepository_DeleteRemovesSlots(t *testing.T) {
	ctx := context.Background()
	repo := NewAvailabilityRepository(testdb.New(t))
	a := seedAvailability(t, repo, "09:00 - 10:00", "10:00 - 11:00")

	count, err := repo.CountSlots(ctx, a.Id)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	require.NoError(t, repo.DeleteSlot(ctx, a.TimeSlots[0].Id))
	count, err = repo.CountSlots(ctx, a.Id)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, repo.Delete(ctx, a.Id))
	found, err := repo.FindOne(ctx, specification.ByID{ID: a.Id})
	require.NoError(t, err)
	assert.Nil(t, found)

	slots, err := repo.FindSlots(ctx, specification.ByAvailabilityID{ID: a.Id})
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailabilityRepository_RecurrenceFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewAvailabilityRepository(testdb.New(t))
	owner := uuid.New()

	for i, mode := range []entity.RecurrenceMode{entity.RecurrenceWeekly, entity.RecurrenceDaily, entity.RecurrenceSpecific} {
		weekly, daily := mode.Flags()
		require.NoError(t, repo.Create(ctx, &entity.Availability{
			UserId:   owner,
			Date:     []string{"2030-02-01", "2030-02-02", "2030-02-03"}[i],
			IsWeekly: weekly,
			IsDaily:  daily,
		}))
	}

	weekly, err := repo.FindAll(ctx, specification.UserOwnedBy{UserID: owner}, specification.ByRecurrence{Mode: entity.RecurrenceWeekly})
	require.NoError(t, err)
	require.Len(t, weekly, 1)
	assert.Equal(t, "2030-02-01", weekly[0].Date)

	others, err := repo.FindAll(ctx, specification.UserOwnedBy{UserID: owner}, specification.NotRecurrence{Mode: entity.RecurrenceWeekly})
	require.NoError(t, err)
	assert.Len(t, others, 2)

	require.NoError(t, repo.UpdateRecurrence(ctx, weekly[0].Id, entity.RecurrenceDaily))
	daily, err := repo.FindAll(ctx, specification.UserOwnedBy{UserID: owner}, specification.ByRecurrence{Mode: entity.RecurrenceDaily})
	require.NoError(t, err)
	assert.Len(t, daily, 2)
}
