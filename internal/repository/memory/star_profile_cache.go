package memory

import (
	"time"

	"star-booking-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

type StarProfileCache struct {
	cache *cache.Cache
}

func NewStarProfileCache(ttl time.Duration) *StarProfileCache {
	return &StarProfileCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (r *StarProfileCache) Save(profile *entity.StarProfile) {
	r.cache.Set(profile.Id.String(), profile, cache.DefaultExpiration)
}

// Get returns a copy so callers cannot mutate the cached value.
func (r *StarProfileCache) Get(starId uuid.UUID) (*entity.StarProfile, bool) {
	if x, found := r.cache.Get(starId.String()); found {
		p := *x.(*entity.StarProfile)
		return &p, true
	}
	return nil, false
}

func (r *StarProfileCache) Delete(starId uuid.UUID) {
	r.cache.Delete(starId.String())
}
