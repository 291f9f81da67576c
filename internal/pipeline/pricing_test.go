package pipeline

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestCheapestIsIdentity(t *testing.T) {
	for _, market := range []int64{1, 2, 99, 100, 12345, math.MaxInt64} {
		target, err := Cheapest().TargetPrice(market)
		require.NoError(t, err)
		require.Equal(t, market, target)
	}
}

func TestAboveMarketFloors(t *testing.T) {
	cases := []struct {
		multiplier string
		market     int64
		expected   int64
	}{
		{"1.05", 100, 105},
		{"1.15", 100, 115},
		{"1.05", 99, 103},
		{"1.05", 1, 1},
		{"1", 57, 57},
		{"2.5", 3, 7},
		{"0.5", 3, 1},
	}

	for _, c := range cases {
		target, err := AboveMarket(decimal.RequireFromString(c.multiplier)).TargetPrice(c.market)
		require.NoError(t, err, "%s x %d", c.multiplier, c.market)
		require.Equal(t, c.expected, target, "%s x %d", c.multiplier, c.market)
	}
}

func TestAboveMarketMonotonicInMultiplier(t *testing.T) {
	multipliers := []string{"1", "1.01", "1.05", "1.1", "1.15", "1.5", "2"}
	for _, market := range []int64{1, 7, 100, 999, 123456} {
		previous := int64(0)
		for _, m := range multipliers {
			target, err := AboveMarket(decimal.RequireFromString(m)).TargetPrice(market)
			require.NoError(t, err)
			require.GreaterOrEqual(t, target, previous, "market %d multiplier %s", market, m)
			previous = target
		}
	}
}

func TestTargetPriceRejectsInvalidResults(t *testing.T) {
	_, err := AboveMarket(decimal.RequireFromString("0.5")).TargetPrice(1)
	require.ErrorIs(t, err, ErrInvalidPrice)

	_, err = AboveMarket(decimal.NewFromInt(2)).TargetPrice(math.MaxInt64)
	require.ErrorIs(t, err, ErrInvalidPrice)

	_, err = Cheapest().TargetPrice(0)
	require.Error(t, err)
}

func TestStrategyValidate(t *testing.T) {
	require.NoError(t, Cheapest().Validate())
	require.NoError(t, AboveMarket(decimal.RequireFromString("1.05")).Validate())
	require.Error(t, AboveMarket(decimal.Zero).Validate())
	require.Error(t, AboveMarket(decimal.NewFromInt(-1)).Validate())
	require.Error(t, PricingStrategy{Kind: StrategyKind(9)}.Validate())
}
