package pipeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var ErrInvalidPrice = errors.New("target price must be a positive integer")

var maxPrice = decimal.NewFromInt(math.MaxInt64)

type StrategyKind int

const (
	StrategyCheapest StrategyKind = iota
	StrategyAboveMarket
)

func (k StrategyKind) String() string {
	switch k {
	case StrategyCheapest:
		return "cheapest"
	case StrategyAboveMarket:
		return "above"
	default:
		return fmt.Sprintf("StrategyKind(%d)", int(k))
	}
}

// PricingStrategy maps the lowest competing ask to the price an item is
// listed at.
type PricingStrategy struct {
	Kind StrategyKind
	// only used by StrategyAboveMarket
	Multiplier decimal.Decimal
}

func Cheapest() PricingStrategy {
	return PricingStrategy{Kind: StrategyCheapest}
}

func AboveMarket(multiplier decimal.Decimal) PricingStrategy {
	return PricingStrategy{Kind: StrategyAboveMarket, Multiplier: multiplier}
}

func (s PricingStrategy) Validate() error {
	switch s.Kind {
	case StrategyCheapest:
		return nil
	case StrategyAboveMarket:
		if !s.Multiplier.IsPositive() {
			return fmt.Errorf("price multiplier must be > 0, got %s", s.Multiplier)
		}
		return nil
	default:
		return fmt.Errorf("unknown pricing strategy %d", int(s.Kind))
	}
}

func (s PricingStrategy) String() string {
	if s.Kind == StrategyAboveMarket {
		return fmt.Sprintf("above (x%s)", s.Multiplier)
	}
	return s.Kind.String()
}

// TargetPrice computes floor(market * multiplier) in exact decimal
// arithmetic. Results that are not positive are rejected, never clamped.
func (s PricingStrategy) TargetPrice(market int64) (int64, error) {
	if market <= 0 {
		return 0, fmt.Errorf("%w: market price %d", ErrInvalidPrice, market)
	}

	target := market
	switch s.Kind {
	case StrategyCheapest:
	case StrategyAboveMarket:
		product := decimal.NewFromInt(market).Mul(s.Multiplier).Floor()
		if product.GreaterThan(maxPrice) {
			return 0, fmt.Errorf("%w: %s out of range", ErrInvalidPrice, product)
		}
		target = product.IntPart()
	default:
		return 0, fmt.Errorf("unknown pricing strategy %d", int(s.Kind))
	}

	if target <= 0 {
		return 0, fmt.Errorf("%w: got %d from market price %d", ErrInvalidPrice, target, market)
	}
	return target, nil
}
