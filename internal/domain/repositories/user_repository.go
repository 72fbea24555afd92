package repositories

import (
	"context"

	"ecodescarte-user-service/internal/domain/entities"
)

// UserRepository persists users together with their address and
// communication preferences. Lookups return nil, nil when nothing matches.
// Failures are apperror values: Conflict for uniqueness, Database otherwise.
type UserRepository interface {
	// Create hashes the password and inserts the user, its address and its
	// preference in one transaction.
	Create(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error)
	FindById(ctx context.Context, id uint) (*entities.User, error)
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	// UpdateProfile writes name, birth date, e-mail, address and preference
	// in one transaction.
	UpdateProfile(ctx context.Context, user *entities.ValidatedUser) (*entities.User, error)
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
	Ping(ctx context.Context) error
}
