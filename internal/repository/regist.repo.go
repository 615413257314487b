package repository

import (
	accountRepo "go-checkout/internal/repository/account"
	cardRepo "go-checkout/internal/repository/card"
	catalogRepo "go-checkout/internal/repository/catalog"
	orderRepo "go-checkout/internal/repository/order"
)

// IRepository is a container for all repository interfaces
type IRepository struct {
	Account accountRepo.IRepository
	Card    cardRepo.IRepository
	Catalog catalogRepo.IRepository
	Order   orderRepo.IRepository
}
