package notify_test

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sea-sol/prediction-markets/internal/adapters/notify"
	"github.com/sea-sol/prediction-markets/internal/domain"
)

func makeMarket() domain.Market {
	return domain.Market{
		Creator:      solana.NewWallet().PublicKey(),
		Feed:         solana.NewWallet().PublicKey(),
		Quest:        100,
		MarketStatus: domain.StatusActive,
		TokenA:       solana.NewWallet().PublicKey(),
		TokenB:       solana.NewWallet().PublicKey(),
		TokenAAmount: 950,
		TokenBAmount: 1000,
		TokenPriceA:  10,
		TokenPriceB:  9,
		TotalReserve: 5,
		YesAmount:    2,
		NoAmount:     1,
	}
}

func TestConsole_Publish(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	yes := domain.SideYes
	res := true
	events := []domain.Event{
		{Kind: domain.EventBetPlaced, Market: solana.NewWallet().PublicKey(), Side: &yes, Amount: 50, PriceA: 10, PriceB: 9, Timestamp: time.Now()},
		{Kind: domain.EventMarketResolved, Result: &res, Timestamp: time.Now()},
	}
	require.NoError(t, c.Publish(context.Background(), events))

	out := buf.String()
	assert.Contains(t, out, "BetPlaced")
	assert.Contains(t, out, "side=YES")
	assert.Contains(t, out, "amount=50")
	assert.Contains(t, out, "price=10/9")
	assert.Contains(t, out, "result=YES")
}

func TestConsole_PrintMarket(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	m := makeMarket()
	c.PrintMarket(solana.NewWallet().PublicKey(), m, 1_500_000_000)

	out := buf.String()
	assert.Contains(t, out, "[Active]")
	assert.Contains(t, out, "950")
	assert.Contains(t, out, "1.5 SOL")
	assert.NotContains(t, out, "RESULT")

	buf.Reset()
	m.MarketStatus = domain.StatusFinished
	m.Result = true
	c.PrintMarket(solana.NewWallet().PublicKey(), m, 0)
	assert.Contains(t, buf.String(), "RESULT:  YES")
}

func TestConsole_PrintGlobal(t *testing.T) {
	var buf bytes.Buffer
	c := notify.NewConsoleWriter(&buf)

	c.PrintGlobal(solana.NewWallet().PublicKey(), domain.GlobalConfig{
		BettingUserFeeAmount: 20,
		FeePercentage:        10,
		Decimal:              6,
		MarketCount:          3,
	})
	out := buf.String()
	assert.Contains(t, out, "10%")
	assert.Contains(t, out, "0.00000002")
}

func TestConsole_PrintEvents_Empty(t *testing.T) {
	var buf bytes.Buffer
	notify.NewConsoleWriter(&buf).PrintEvents(nil)
	assert.Contains(t, buf.String(), "no events")
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "1.5", notify.FormatLamports(1_500_000_000))
	assert.Equal(t, "0", notify.FormatUnits(0, 6))
	assert.Equal(t, "18446744073709.551615", notify.FormatUnits(math.MaxUint64, 6))
	assert.Equal(t, "42", notify.FormatUnits(42, 0))
}
