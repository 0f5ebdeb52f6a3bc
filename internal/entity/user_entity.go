package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleFan   UserRole = "fan"
	UserRoleStar  UserRole = "star"
	UserRoleAdmin UserRole = "admin"
)

type User struct {
	Id               uuid.UUID
	FullName         string
	Email            string
	Phone            string
	Role             UserRole
	Country          string
	AppointmentPrice float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserId uuid.UUID
	Role   UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == UserRoleAdmin
}

// StarProfile is what booking needs to know about a star.
type StarProfile struct {
	Id        uuid.UUID
	Name      string
	Email     string
	Country   string
	UtcOffset int
	Price     float64
}
