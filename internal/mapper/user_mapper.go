package mapper

import (
	"star-booking-be/internal/entity"
	"star-booking-be/internal/model"
)

type UserMapper struct{}

func NewUserMapper() *UserMapper {
	return &UserMapper{}
}

func (m *UserMapper) ToEntity(u *model.User) *entity.User {
	if u == nil {
		return nil
	}
	return &entity.User{
		Id:               u.Id,
		FullName:         u.FullName,
		Email:            u.Email,
		Phone:            u.Phone,
		Role:             entity.UserRole(u.Role),
		Country:          u.Country,
		AppointmentPrice: u.AppointmentPrice,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (m *UserMapper) ToModel(u *entity.User) *model.User {
	if u == nil {
		return nil
	}
	return &model.User{
		Id:               u.Id,
		FullName:         u.FullName,
		Email:            u.Email,
		Phone:            u.Phone,
		Role:             string(u.Role),
		Country:          u.Country,
		AppointmentPrice: u.AppointmentPrice,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (m *UserMapper) ToEntities(users []*model.User) []*entity.User {
	entities := make([]*entity.User, len(users))
	for i, u := range users {
		entities[i] = m.ToEntity(u)
	}
	return entities
}
