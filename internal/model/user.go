package model

import (
	"time"

	"github.com/google/uuid"
)

// UserStatus represents the lifecycle status of a user account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusDeleted   UserStatus = "deleted"
)

// IsValid checks if the status is a valid user status.
func (s UserStatus) IsValid() bool {
	switch s {
	case UserStatusActive, UserStatusSuspended, UserStatusDeleted:
		return true
	default:
		return false
	}
}

// User represents a registered account. Credentials, OAuth identities and
// profile data live in the auth service; this model carries only what
// entitlement resolution reads.
type User struct {
	ID              uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email           string     `json:"email" gorm:"uniqueIndex;not null"`
	Name            string     `json:"name"`
	Status          UserStatus `json:"status" gorm:"default:active"`
	DefaultPlanTier PlanTier   `json:"default_plan_tier" gorm:"not null;default:free"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"-" gorm:"index"`
}

// TableName returns the database table name.
func (User) TableName() string {
	return "users"
}

// IsActive returns true if the account may use the product.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}
