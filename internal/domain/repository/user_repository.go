package repository

import "github.com/safespace-app/safespace-api/internal/domain/entity"

// IdentityRepository defines credential persistence. Identity creation
// and profile creation are separate writes; the application layer owns
// the compensation policy when the second write fails.
type IdentityRepository interface {
	Create(id *entity.Identity) error
	GetByEmail(email string) (*entity.Identity, error)
	UpdatePassword(id string, passwordHash string) error
	Delete(id string) error
}

// UserRepository defines profile persistence.
type UserRepository interface {
	Create(u *entity.User) error
	GetByID(id string) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	Update(u *entity.User) error
}
