package repository

import "github.com/safespace-app/safespace-api/internal/domain/entity"

// AlertRepository defines alert persistence. Alerts are append-and-resolve
// only; there is no delete.
type AlertRepository interface {
	Create(a *entity.Alert) error
	GetByID(id string) (*entity.Alert, error)
	ListByUser(userID string, limit int) ([]*entity.Alert, error)
	Resolve(id string) error
}
