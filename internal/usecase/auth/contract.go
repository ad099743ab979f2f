package auth

import (
	"context"

	domuser "github.com/kailas-cloud/moviemaster/internal/domain/user"
)

// Repository defines the storage contract for user accounts.
type Repository interface {
	Create(ctx context.Context, u domuser.User) error
	GetByEmail(ctx context.Context, email string) (domuser.User, error)
}
