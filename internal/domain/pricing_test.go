package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeMarket_Symmetric(t *testing.T) {
	var m Market
	reserve, err := m.InitializeMarket(1000, 10)
	require.NoError(t, err)

	// 1000×10 / 2000 = 5
	assert.Equal(t, uint64(5), reserve)
	assert.Equal(t, uint64(5), m.TotalReserve)
	assert.Equal(t, uint64(1000), m.TokenAAmount)
	assert.Equal(t, uint64(1000), m.TokenBAmount)
	assert.Equal(t, uint64(10), m.TokenPriceA)
	assert.Equal(t, uint64(10), m.TokenPriceB)
}

func TestInitializeMarket_ReserveIsFloor(t *testing.T) {
	cases := []struct {
		amount, price uint64
	}{
		{1, 1}, {3, 7}, {1000, 10}, {999, 13}, {1 << 20, 12345},
	}
	for _, c := range cases {
		var m Market
		reserve, err := m.InitializeMarket(c.amount, c.price)
		require.NoError(t, err)
		assert.Equal(t, c.amount*c.price/(2*c.amount), reserve, "amount=%d price=%d", c.amount, c.price)
	}
}

func TestInitializeMarket_ZeroAmount(t *testing.T) {
	var m Market
	_, err := m.InitializeMarket(0, 10)
	assert.ErrorIs(t, err, ErrArithmetic)
	assert.Equal(t, Market{}, m)
}

func TestInitializeMarket_Overflow(t *testing.T) {
	var m Market
	_, err := m.InitializeMarket(math.MaxUint64, 2)
	assert.ErrorIs(t, err, ErrArithmetic)

	_, err = m.InitializeMarket(math.MaxUint64/2, 3)
	assert.ErrorIs(t, err, ErrArithmetic)
	assert.Equal(t, Market{}, m)
}

func TestUpdatePriceOnTrade_YesSide(t *testing.T) {
	var m Market
	_, err := m.InitializeMarket(1000, 10)
	require.NoError(t, err)

	require.NoError(t, m.UpdatePriceOnTrade(50, SideYes))

	// supplies 950/1000, reserve 5 → k = 5×1950 = 9750
	assert.Equal(t, uint64(950), m.TokenAAmount)
	assert.Equal(t, uint64(1000), m.TokenBAmount)
	assert.Equal(t, uint64(9750/950), m.TokenPriceA)
	assert.Equal(t, uint64(9750/1000), m.TokenPriceB)
	assert.Equal(t, uint64(5), m.TotalReserve, "reserve never re-derived")
}

func TestUpdatePriceOnTrade_NoSide(t *testing.T) {
	var m Market
	_, err := m.InitializeMarket(1000, 10)
	require.NoError(t, err)

	require.NoError(t, m.UpdatePriceOnTrade(200, SideNo))

	assert.Equal(t, uint64(1000), m.TokenAAmount)
	assert.Equal(t, uint64(800), m.TokenBAmount)
	assert.Equal(t, uint64(5*1800/1000), m.TokenPriceA)
	assert.Equal(t, uint64(5*1800/800), m.TokenPriceB)
}

func TestUpdatePriceOnTrade_SequenceUsesOriginalReserve(t *testing.T) {
	var m Market
	_, err := m.InitializeMarket(10_000, 40)
	require.NoError(t, err)
	reserve := m.TotalReserve

	trades := []struct {
		amount uint64
		side   Side
	}{
		{100, SideYes}, {250, SideNo}, {1, SideYes}, {3000, SideNo}, {999, SideYes},
	}
	for _, tr := range trades {
		require.NoError(t, m.UpdatePriceOnTrade(tr.amount, tr.side))
		sum := m.TokenAAmount + m.TokenBAmount
		assert.Equal(t, reserve*sum/m.TokenAAmount, m.TokenPriceA)
		assert.Equal(t, reserve*sum/m.TokenBAmount, m.TokenPriceB)
		assert.Equal(t, reserve, m.TotalReserve)
	}
}

func TestUpdatePriceOnTrade_DrainSideIsArithmeticError(t *testing.T) {
	var m Market
	_, err := m.InitializeMarket(100, 10)
	require.NoError(t, err)
	before := m

	// supply 0 → división por cero
	err = m.UpdatePriceOnTrade(100, SideYes)
	assert.ErrorIs(t, err, ErrArithmetic)
	assert.Equal(t, before, m, "market must not change on error")

	// supply negativa → underflow
	err = m.UpdatePriceOnTrade(101, SideNo)
	assert.ErrorIs(t, err, ErrArithmetic)
	assert.Equal(t, before, m)
}

func TestUpdatePriceOnTrade_PriceCounterOverflow(t *testing.T) {
	m := Market{TokenAAmount: 10, TokenBAmount: 10, TokenPriceB: math.MaxUint64, TotalReserve: 1}
	before := m
	err := m.UpdatePriceOnTrade(1, SideYes)
	assert.ErrorIs(t, err, ErrArithmetic)
	assert.Equal(t, before, m)
}

func TestAddLiquidity_KeepsReserve(t *testing.T) {
	var m Market
	_, err := m.InitializeMarket(1000, 10)
	require.NoError(t, err)
	require.NoError(t, m.UpdatePriceOnTrade(500, SideYes))

	require.NoError(t, m.AddLiquidity(500))
	assert.Equal(t, uint64(1000), m.TokenAAmount)
	assert.Equal(t, uint64(1500), m.TokenBAmount)
	assert.Equal(t, uint64(5), m.TotalReserve)
	assert.Equal(t, uint64(5*2500/1000), m.TokenPriceA)
	assert.Equal(t, uint64(5*2500/1500), m.TokenPriceB)
}

func TestCurvePrices_ZeroSupply(t *testing.T) {
	_, _, err := CurvePrices(5, 0, 10)
	assert.ErrorIs(t, err, ErrArithmetic)
}

func TestScaleByDecimal(t *testing.T) {
	v, err := ScaleByDecimal(50, 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000_000), v)

	v, err = ScaleByDecimal(7, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v)

	_, err = ScaleByDecimal(math.MaxUint64/10+1, 1)
	assert.ErrorIs(t, err, ErrArithmetic)
}
