package pricing

import (
	"testing"

	"go-checkout/internal/common/models"
)

func tieredItem() *models.Item {
	return &models.Item{
		ID:        "item-1",
		Name:      "Weekly Plan",
		BasePrice: 1000,
		Tiers: []models.DiscountTier{
			{ItemID: "item-1", MinimumQuantity: 5, Percentage: 0.1},
			{ItemID: "item-1", MinimumQuantity: 10, FixedAmount: 200},
		},
	}
}

func TestUnitPriceTierSelection(t *testing.T) {
	svc := NewService()
	item := tieredItem()

	cases := []struct {
		name     string
		quantity int
		want     int64
	}{
		{"below first tier", 4, 1000},
		{"percentage tier", 5, 900},
		{"between tiers", 9, 900},
		{"fixed tier wins at boundary", 10, 800},
		{"above highest tier", 50, 800},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := svc.UnitPrice(item, tc.quantity, true)
			if got != tc.want {
				t.Errorf("UnitPrice(qty=%d) = %d, want %d", tc.quantity, got, tc.want)
			}
		})
	}
}

func TestUnitPriceIdempotent(t *testing.T) {
	svc := NewService()
	item := tieredItem()

	first := svc.UnitPrice(item, 7, true)
	second := svc.UnitPrice(item, 7, true)
	if first != second {
		t.Errorf("same inputs priced differently: %d vs %d", first, second)
	}
}

func TestUnitPriceMonotonicNonIncreasing(t *testing.T) {
	svc := NewService()
	item := tieredItem()

	prev := svc.UnitPrice(item, 1, true)
	for q := 2; q <= 20; q++ {
		got := svc.UnitPrice(item, q, true)
		if got > prev {
			t.Fatalf("unit price increased from %d to %d at qty %d", prev, got, q)
		}
		prev = got
	}
}

func TestUnitPriceClampsQuantity(t *testing.T) {
	svc := NewService()
	item := tieredItem()

	if got := svc.UnitPrice(item, 0, true); got != 1000 {
		t.Errorf("UnitPrice(qty=0) = %d, want base price 1000", got)
	}
	if got := svc.UnitPrice(item, -3, true); got != 1000 {
		t.Errorf("UnitPrice(qty=-3) = %d, want base price 1000", got)
	}
}

func TestUnitPriceMemberOnlyHidden(t *testing.T) {
	svc := NewService()
	item := tieredItem()
	item.MemberOnlyDiscount = true

	if got := svc.UnitPrice(item, 10, false); got != 1000 {
		t.Errorf("hidden discount priced at %d, want base price 1000", got)
	}
	if got := svc.UnitPrice(item, 10, true); got != 800 {
		t.Errorf("visible discount priced at %d, want 800", got)
	}
}

// Percentage discounts round half-up, so a half minor unit goes to the merchant's
// stated price rather than silently truncating.
func TestUnitPricePercentageRoundsHalfUp(t *testing.T) {
	svc := NewService()

	cases := []struct {
		name       string
		basePrice  int64
		percentage float64
		want       int64
	}{
		{"half rounds up", 125, 0.10, 113},
		{"below half rounds down", 999, 0.15, 849},
		{"odd base at fifty percent", 101, 0.50, 51},
	}

	for _, tc := range cases {
		item := &models.Item{
			ID:        "item-r",
			BasePrice: tc.basePrice,
			Tiers: []models.DiscountTier{
				{ItemID: "item-r", MinimumQuantity: 1, Percentage: tc.percentage},
			},
		}
		if got := svc.UnitPrice(item, 1, true); got != tc.want {
			t.Errorf("%s: UnitPrice = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestUnitPriceNoTiers(t *testing.T) {
	svc := NewService()
	item := &models.Item{ID: "plain", BasePrice: 550}

	if got := svc.UnitPrice(item, 100, true); got != 550 {
		t.Errorf("UnitPrice = %d, want 550", got)
	}
}

func TestLineTotalWithModifiers(t *testing.T) {
	svc := NewService()
	item := tieredItem()
	mods := []models.Modifier{
		{SKU: "extra-side", PriceDelta: 150},
		{SKU: "small-portion", PriceDelta: -50},
	}

	// qty 5: unit 900 + 100 modifier delta = 1000 per unit
	if got := svc.LineTotal(item, mods, 5, true); got != 5000 {
		t.Errorf("LineTotal = %d, want 5000", got)
	}
}
