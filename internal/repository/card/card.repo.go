package card

import (
	"context"
	"go-checkout/internal/common/models"
	database "go-checkout/internal/pkg/db"
)

type IRepository interface {
	ListByAccount(ctx context.Context, accountID string) ([]models.PaymentCard, error)
	FindByID(ctx context.Context, id string) (*models.PaymentCard, error)
	Create(ctx context.Context, card *models.PaymentCard) error
}

type Repository struct {
	db *database.Database
}

func NewRepo(db *database.Database) IRepository {
	return &Repository{db: db}
}

func (r *Repository) ListByAccount(ctx context.Context, accountID string) ([]models.PaymentCard, error) {
	var cards []models.PaymentCard
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at DESC").
		Find(&cards).Error
	if err != nil {
		return nil, err
	}
	return cards, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.PaymentCard, error) {
	var c models.PaymentCard
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) Create(ctx context.Context, card *models.PaymentCard) error {
	return r.db.WithContext(ctx).Create(card).Error
}
