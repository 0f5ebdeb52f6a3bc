package specification

import (
	"star-booking-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByRole struct {
	Role entity.UserRole
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", string(s.Role))
}

// UserOwnedBy matches rows whose user_id column is the given user.
type UserOwnedBy struct {
	UserID uuid.UUID
}

func (s UserOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}
