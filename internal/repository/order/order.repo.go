package order

import (
	"context"
	"errors"
	"go-checkout/internal/common/models"
	database "go-checkout/internal/pkg/db"

	"gorm.io/gorm"
)

type IRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByOrderID(ctx context.Context, orderID string) (*models.Order, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID string, updates map[string]any) error
}

type Repository struct {
	db *database.Database
}

func NewRepo(db *database.Database) IRepository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *Repository) FindByOrderID(ctx context.Context, orderID string) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// FindByIdempotencyKey returns nil, nil when no order carries the key.
func (r *Repository) FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, orderID string, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Order{}).Where("order_id = ?", orderID).Updates(updates).Error
}
