package service

import (
	"context"
	"sort"
	"time"

	"star-booking-be/internal/entity"
	"star-booking-be/internal/repository/contract"
	"star-booking-be/internal/repository/specification"
)

// SortAppointments orders by status bucket, then scheduled start, then id.
// Appointments whose start cannot be resolved sort last within their bucket.
func SortAppointments(items []*entity.Appointment) {
	type key struct {
		bucket int
		start  time.Time
		known  bool
		id     string
	}
	keys := make(map[*entity.Appointment]key, len(items))
	for _, a := range items {
		start, ok := a.StartInstant()
		keys[a] = key{bucket: entity.StatusBucket(a.Status), start: start, known: ok, id: a.Id.String()}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := keys[items[i]], keys[items[j]]
		if a.bucket != b.bucket {
			return a.bucket < b.bucket
		}
		if a.known != b.known {
			return a.known
		}
		if a.known && !a.start.Equal(b.start) {
			return a.start.Before(b.start)
		}
		return a.id < b.id
	})
}

// IAppointmentPager pages a filtered appointment set in listing order.
type IAppointmentPager interface {
	Page(ctx context.Context, repo contract.AppointmentRepository, page, limit int, specs ...specification.Specification) ([]*entity.Appointment, int64, error)
}

// inMemoryPager loads the whole filtered set, sorts it and slices the page. The store
// cannot express the bucket then start-time order natively.
type inMemoryPager struct{}

func NewInMemoryPager() IAppointmentPager {
	return inMemoryPager{}
}

func (inMemoryPager) Page(ctx context.Context, repo contract.AppointmentRepository, page, limit int, specs ...specification.Specification) ([]*entity.Appointment, int64, error) {
	items, err := repo.FindAll(ctx, specs...)
	if err != nil {
		return nil, 0, err
	}
	SortAppointments(items)

	total := int64(len(items))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = len(items)
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []*entity.Appointment{}, total, nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], total, nil
}
