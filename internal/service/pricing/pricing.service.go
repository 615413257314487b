package pricing

import (
	"math"

	"go-checkout/internal/common/models"

	"github.com/samber/lo"
)

// IService prices cart lines. All amounts are minor currency units.
type IService interface {
	UnitPrice(item *models.Item, quantity int, discountsVisible bool) int64
	LineTotal(item *models.Item, modifiers []models.Modifier, quantity int, discountsVisible bool) int64
}

type Service struct{}

func NewService() IService {
	return &Service{}
}

// UnitPrice applies the item's best qualifying discount tier to its base price.
// Among tiers with minimum_quantity <= quantity, the largest minimum_quantity wins;
// minimum quantities are unique per item so there is never a tie. A tier carries
// either a fixed per-unit deduction or a percentage multiplier, never both. When no
// tier qualifies, or discounts are not visible to this session, the base price is
// returned unchanged.
func (s *Service) UnitPrice(item *models.Item, quantity int, discountsVisible bool) int64 {
	if quantity < 1 {
		quantity = 1
	}

	if !discountsVisible && item.MemberOnlyDiscount {
		return item.BasePrice
	}

	var best *models.DiscountTier
	for i := range item.Tiers {
		t := &item.Tiers[i]
		if t.MinimumQuantity > quantity {
			continue
		}
		if best == nil || t.MinimumQuantity > best.MinimumQuantity {
			best = t
		}
	}

	if best == nil {
		return item.BasePrice
	}

	if best.FixedAmount > 0 {
		price := item.BasePrice - best.FixedAmount
		if price < 0 {
			price = 0
		}
		return price
	}

	// half-up so a .5 minor unit never silently vanishes from the total
	price := int64(math.Floor(float64(item.BasePrice)*(1-best.Percentage) + 0.5))
	if price < 0 {
		price = 0
	}
	return price
}

// LineTotal prices one cart line: the discounted unit price plus the selected
// modifier deltas, multiplied by quantity. Modifier deltas are applied after
// discounting so a tier never discounts an add-on.
func (s *Service) LineTotal(item *models.Item, modifiers []models.Modifier, quantity int, discountsVisible bool) int64 {
	if quantity < 1 {
		quantity = 1
	}

	unit := s.UnitPrice(item, quantity, discountsVisible)
	unit += lo.SumBy(modifiers, func(m models.Modifier) int64 { return m.PriceDelta })
	if unit < 0 {
		unit = 0
	}
	return unit * int64(quantity)
}
