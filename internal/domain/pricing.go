package domain

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/spec-kit/verification-service/pkg/util"
)

// PricingOption is a single named pricing bracket.
type PricingOption struct {
	Tier        string  `json:"tier"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
}

// TieredPricing is an immutable set of pricing options, sorted ascending
// by price at construction. Options cannot be added, removed, or changed
// after construction.
type TieredPricing struct {
	options []PricingOption
}

// NewTieredPricing validates and freezes the supplied options. The first
// violation encountered is reported: empty input, blank tier name or
// description, negative price, or a duplicate tier name (case-insensitive).
func NewTieredPricing(options []PricingOption) (*TieredPricing, error) {
	if len(options) == 0 {
		return nil, apperrors.NewValidationError("pricing requires at least one tier", nil)
	}
	seen := make(map[string]struct{}, len(options))
	for _, opt := range options {
		name := strings.TrimSpace(opt.Tier)
		if name == "" {
			return nil, apperrors.NewValidationError("pricing tier name must not be blank", nil)
		}
		if opt.Price < 0 {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("pricing tier %q has a negative price", name),
				map[string]any{"tier": name, "price": opt.Price})
		}
		if strings.TrimSpace(opt.Description) == "" {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("pricing tier %q requires a description", name),
				map[string]any{"tier": name})
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("duplicate pricing tier %q", name),
				map[string]any{"tier": name})
		}
		seen[key] = struct{}{}
	}

	sorted := make([]PricingOption, len(options))
	copy(sorted, options)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Price < sorted[j].Price
	})
	return &TieredPricing{options: sorted}, nil
}

// PriceForTier resolves the price for the named tier, matching
// case-insensitively. Unknown tiers fail with the valid names listed.
func (p *TieredPricing) PriceForTier(tier string) (float64, error) {
	for _, opt := range p.options {
		if strings.EqualFold(opt.Tier, tier) {
			return opt.Price, nil
		}
	}
	return 0, apperrors.NewValidationError(
		fmt.Sprintf("invalid tier %q, valid tiers: %s", tier, strings.Join(p.AvailableTiers(), ", ")),
		map[string]any{"tier": tier, "valid_tiers": p.AvailableTiers()})
}

// HasTier reports whether the named tier exists, case-insensitively.
func (p *TieredPricing) HasTier(tier string) bool {
	_, err := p.PriceForTier(tier)
	return err == nil
}

// CheapestTier returns the lowest-priced option.
func (p *TieredPricing) CheapestTier() PricingOption {
	return p.options[0]
}

// MostExpensiveTier returns the highest-priced option.
func (p *TieredPricing) MostExpensiveTier() PricingOption {
	return p.options[len(p.options)-1]
}

// AvailableTiers lists tier names in ascending price order.
func (p *TieredPricing) AvailableTiers() []string {
	names := make([]string, len(p.options))
	for i, opt := range p.options {
		names[i] = opt.Tier
	}
	return names
}

// TierDescription returns the description for the named tier.
func (p *TieredPricing) TierDescription(tier string) (string, error) {
	for _, opt := range p.options {
		if strings.EqualFold(opt.Tier, tier) {
			return opt.Description, nil
		}
	}
	return "", apperrors.NewValidationError(
		fmt.Sprintf("invalid tier %q, valid tiers: %s", tier, strings.Join(p.AvailableTiers(), ", ")),
		map[string]any{"tier": tier, "valid_tiers": p.AvailableTiers()})
}

// Options returns a defensive copy of the sorted options.
func (p *TieredPricing) Options() []PricingOption {
	out := make([]PricingOption, len(p.options))
	copy(out, p.options)
	return out
}
