package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/mockmate/server/internal/domain/subscription"
	"github.com/mockmate/server/internal/model"
	"gorm.io/gorm"
)

// userAdapter implements subscription.UserReader.
type userAdapter struct {
	db *gorm.DB
}

// NewUserAdapter creates a new user database adapter.
func NewUserAdapter(db *gorm.DB) subscription.UserReader {
	return &userAdapter{db: db}
}

func (a *userAdapter) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := a.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, subscription.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Compile-time check
var _ subscription.UserReader = (*userAdapter)(nil)
