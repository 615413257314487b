package account

import (
	"context"
	"errors"
	"go-checkout/internal/common/models"
	database "go-checkout/internal/pkg/db"
	"strings"

	"gorm.io/gorm"
)

type IRepository interface {
	Search(ctx context.Context, email, phone, firstName, lastName string) ([]models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	Update(ctx context.Context, id string, updates map[string]any) error
}

type Repository struct {
	db *database.Database
}

func NewRepo(db *database.Database) IRepository {
	return &Repository{db: db}
}

// Search returns accounts matching any of the provided identifiers. Email and
// phone match exactly (phone must already be normalized), names match as a
// case-insensitive pair. Empty fields are skipped.
func (r *Repository) Search(ctx context.Context, email, phone, firstName, lastName string) ([]models.Account, error) {
	query := r.db.WithContext(ctx).Model(&models.Account{})

	var conds []string
	var args []any
	if email != "" {
		conds = append(conds, "LOWER(email) = ?")
		args = append(args, strings.ToLower(email))
	}
	if phone != "" {
		conds = append(conds, "mobile_number = ?")
		args = append(args, phone)
	}
	if firstName != "" && lastName != "" {
		conds = append(conds, "(LOWER(first_name) = ? AND LOWER(last_name) = ?)")
		args = append(args, strings.ToLower(firstName), strings.ToLower(lastName))
	}

	if len(conds) == 0 {
		return nil, nil
	}

	var accounts []models.Account
	err := query.Where(strings.Join(conds, " OR "), args...).Limit(10).Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *Repository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *Repository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *Repository) Update(ctx context.Context, id string, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Updates(updates).Error
}
