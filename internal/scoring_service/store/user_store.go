package store

import (
	"context"
	"errors"

	"github.com/Jampi276/pymescore-ai/internal/models"
)

// ErrUserNotFound is returned when no account exists for the given email.
var ErrUserNotFound = errors.New("user not found")

// UserStore is the injected account repository: get/put/delete by email.
// Backings are pluggable; the in-memory implementation serves tests and the
// redis implementation serves deployments.
type UserStore interface {
	Get(ctx context.Context, email string) (*models.User, error)
	Put(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, email string) error
}
