package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/verification-service/internal/domain"
)

func validOptions() []domain.PricingOption {
	return []domain.PricingOption{
		{Tier: "Premium", Price: 250, Description: "Full audit with on-site visit"},
		{Tier: "Basic", Price: 50, Description: "Document check"},
		{Tier: "Standard", Price: 120, Description: "Document check plus phone interview"},
	}
}

func TestNewTieredPricingSortsByPriceAscending(t *testing.T) {
	pricing, err := domain.NewTieredPricing(validOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"Basic", "Standard", "Premium"}, pricing.AvailableTiers())
	assert.Equal(t, "Basic", pricing.CheapestTier().Tier)
	assert.Equal(t, "Premium", pricing.MostExpensiveTier().Tier)
}

func TestNewTieredPricingValidation(t *testing.T) {
	tests := []struct {
		name    string
		options []domain.PricingOption
	}{
		{name: "empty set", options: nil},
		{
			name: "blank tier name",
			options: []domain.PricingOption{
				{Tier: "  ", Price: 10, Description: "x"},
			},
		},
		{
			name: "negative price",
			options: []domain.PricingOption{
				{Tier: "Basic", Price: -1, Description: "x"},
			},
		},
		{
			name: "blank description",
			options: []domain.PricingOption{
				{Tier: "Basic", Price: 10, Description: "   "},
			},
		},
		{
			name: "duplicate tier case-insensitive",
			options: []domain.PricingOption{
				{Tier: "Basic", Price: 10, Description: "x"},
				{Tier: "BASIC", Price: 20, Description: "y"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.NewTieredPricing(tc.options)
			assert.Error(t, err)
		})
	}
}

func TestNewTieredPricingAllowsZeroPrice(t *testing.T) {
	pricing, err := domain.NewTieredPricing([]domain.PricingOption{
		{Tier: "Free", Price: 0, Description: "Self-service check"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Free", pricing.CheapestTier().Tier)
}

func TestPriceForTierMatchesCaseInsensitively(t *testing.T) {
	pricing, err := domain.NewTieredPricing(validOptions())
	require.NoError(t, err)

	price, err := pricing.PriceForTier("basic")
	require.NoError(t, err)
	assert.Equal(t, 50.0, price)

	price, err = pricing.PriceForTier("PREMIUM")
	require.NoError(t, err)
	assert.Equal(t, 250.0, price)
}

func TestPriceForTierUnknownListsValidTiers(t *testing.T) {
	pricing, err := domain.NewTieredPricing(validOptions())
	require.NoError(t, err)

	_, err = pricing.PriceForTier("Platinum")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Basic")
	assert.Contains(t, err.Error(), "Standard")
	assert.Contains(t, err.Error(), "Premium")
}

func TestHasTier(t *testing.T) {
	pricing, err := domain.NewTieredPricing(validOptions())
	require.NoError(t, err)

	assert.True(t, pricing.HasTier("standard"))
	assert.False(t, pricing.HasTier("Platinum"))
}

func TestTierDescription(t *testing.T) {
	pricing, err := domain.NewTieredPricing(validOptions())
	require.NoError(t, err)

	desc, err := pricing.TierDescription("basic")
	require.NoError(t, err)
	assert.Equal(t, "Document check", desc)

	_, err = pricing.TierDescription("unknown")
	assert.Error(t, err)
}

func TestOptionsReturnsACopy(t *testing.T) {
	pricing, err := domain.NewTieredPricing(validOptions())
	require.NoError(t, err)

	options := pricing.Options()
	options[0].Price = 9999

	assert.Equal(t, 50.0, pricing.CheapestTier().Price)
}
