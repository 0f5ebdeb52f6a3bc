package service

import (
	"context"

	"star-booking-be/internal/entity"
	"star-booking-be/internal/pkg/apperror"
	"star-booking-be/internal/repository/memory"
	"star-booking-be/internal/repository/specification"
	"star-booking-be/internal/repository/unitofwork"
	"star-booking-be/pkg/timezone"

	"github.com/google/uuid"
)

type IStarProfileProvider interface {
	Get(ctx context.Context, starId uuid.UUID) (*entity.StarProfile, error)
	Invalidate(starId uuid.UUID)
}

type starProfileProvider struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.StarProfileCache
}

func NewStarProfileProvider(uowFactory unitofwork.RepositoryFactory, cache *memory.StarProfileCache) IStarProfileProvider {
	return &starProfileProvider{
		uowFactory: uowFactory,
		cache:      cache,
	}
}

func (p *starProfileProvider) Get(ctx context.Context, starId uuid.UUID) (*entity.StarProfile, error) {
	if profile, ok := p.cache.Get(starId); ok {
		return profile, nil
	}

	uow := p.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx,
		specification.ByID{ID: starId},
		specification.ByRole{Role: entity.UserRoleStar},
	)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperror.NotFound("star not found")
	}

	offset, _ := timezone.OffsetMinutes(user.Country)
	profile := &entity.StarProfile{
		Id:        user.Id,
		Name:      user.FullName,
		Email:     user.Email,
		Country:   user.Country,
		UtcOffset: offset,
		Price:     user.AppointmentPrice,
	}
	p.cache.Save(profile)

	cached := *profile
	return &cached, nil
}

func (p *starProfileProvider) Invalidate(starId uuid.UUID) {
	p.cache.Delete(starId)
}
