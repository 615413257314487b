package catalog

import (
	"context"
	"go-checkout/internal/common/models"
	"go-checkout/internal/pkg/cache"
	database "go-checkout/internal/pkg/db"
	"time"
)

type IRepository interface {
	FindItem(ctx context.Context, id string) (*models.Item, error)
	ListModifiers(ctx context.Context, itemID string) ([]models.Modifier, error)
}

type Repository struct {
	db            *database.Database
	modifierCache *cache.TTLCache[[]models.Modifier]
}

func NewRepo(db *database.Database) IRepository {
	return &Repository{
		db:            db,
		modifierCache: cache.NewTTLCache[[]models.Modifier](5*time.Minute, 256, nil),
	}
}

// FindItem loads an item with its discount tiers ordered by minimum quantity.
func (r *Repository) FindItem(ctx context.Context, id string) (*models.Item, error) {
	var item models.Item
	err := r.db.WithContext(ctx).
		Preload("Tiers").
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) ListModifiers(ctx context.Context, itemID string) ([]models.Modifier, error) {
	if mods, ok := r.modifierCache.Get(itemID); ok {
		return mods, nil
	}

	var mods []models.Modifier
	err := r.db.WithContext(ctx).Where("item_id = ?", itemID).Find(&mods).Error
	if err != nil {
		return nil, err
	}

	r.modifierCache.Set(itemID, mods)
	return mods, nil
}
