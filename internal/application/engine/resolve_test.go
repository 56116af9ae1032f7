package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sea-sol/prediction-markets/internal/application/engine"
	"github.com/sea-sol/prediction-markets/internal/domain"
	"github.com/sea-sol/prediction-markets/internal/ports"
)

// Escenario D: feed 150, quest 100 → YES; la segunda resolución falla.
func TestGetResolution_ScenarioD(t *testing.T) {
	f := newFixture(t)
	cfg := f.initGlobal(t)
	f.createMarket(t, cfg)
	f.setFeed("150", 30*time.Second)

	result, err := f.eng.GetResolution(f.ctx, cfg, f.resolveParams())
	require.NoError(t, err)
	assert.True(t, result)

	v := f.view(t)
	assert.Equal(t, domain.StatusFinished, v.Market.MarketStatus)
	assert.True(t, v.Market.Result)

	_, err = f.eng.GetResolution(f.ctx, cfg, f.resolveParams())
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.True(t, f.view(t).Market.Result)

	last := f.sink.events[len(f.sink.events)-1]
	assert.Equal(t, domain.EventMarketResolved, last.Kind)
	require.NotNil(t, last.Result)
	assert.True(t, *last.Result)
}

func TestGetResolution_Outcomes(t *testing.T) {
	cases := []struct {
		value string
		want  bool
	}{
		{"150", true},
		{"100", true},
		{"100.0001", true},
		{"99.9999", false},
		{"0", false},
		{"-5", false},
	}
	for _, c := range cases {
		t.Run(c.value, func(t *testing.T) {
			f := newFixture(t)
			cfg := f.initGlobal(t)
			f.createMarket(t, cfg)
			f.setFeed(c.value, 0)

			got, err := f.eng.GetResolution(f.ctx, cfg, f.resolveParams())
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
			assert.Equal(t, c.want, f.view(t).Market.Result)
		})
	}
}

func TestGetResolution_StaleFeed(t *testing.T) {
	f := newFixture(t)
	cfg := f.initGlobal(t)
	f.createMarket(t, cfg)
	before := f.ledger.Snapshot()

	f.setFeed("150", domain.DefaultStalenessWindow+time.Second)
	_, err := f.eng.GetResolution(f.ctx, cfg, f.resolveParams())
	assert.ErrorIs(t, err, domain.ErrStaleFeed)
	assert.Equal(t, before, f.ledger.Snapshot())
	assert.Equal(t, domain.StatusActive, f.view(t).Market.MarketStatus)

	// justo en el borde de la ventana todavía vale
	f.setFeed("150", domain.DefaultStalenessWindow)
	_, err = f.eng.GetResolution(f.ctx, cfg, f.resolveParams())
	require.NoError(t, err)
}

func TestGetResolution_CustomWindow(t *testing.T) {
	f := newFixture(t)
	f.eng = engine.New(f.ledger, f.feed, f.deriver, engine.Config{StalenessWindow: 10 * time.Second})
	cfg := f.initGlobal(t)
	f.createMarket(t, cfg)

	f.setFeed("150", 11*time.Second)
	_, err := f.eng.GetResolution(f.ctx, cfg, f.resolveParams())
	assert.ErrorIs(t, err, domain.ErrStaleFeed)
}

func TestGetResolution_WrongFeed(t *testing.T) {
	f := newFixture(t)
	cfg := f.initGlobal(t)
	f.createMarket(t, cfg)
	f.setFeed("150", 0)

	p := f.resolveParams()
	p.Feed = solana.NewWallet().PublicKey()
	_, err := f.eng.GetResolution(f.ctx, cfg, p)
	assert.ErrorIs(t, err, domain.ErrInvalidFeed)
	assert.ErrorIs(t, err, domain.ErrInvalidParams)

	// sin feed explícito se usa el del mercado
	p.Feed = solana.PublicKey{}
	_, err = f.eng.GetResolution(f.ctx, cfg, p)
	require.NoError(t, err)
}

func TestGetResolution_FeedUnavailable(t *testing.T) {
	f := newFixture(t)
	cfg := f.initGlobal(t)
	f.createMarket(t, cfg)

	_, err := f.eng.GetResolution(f.ctx, cfg, f.resolveParams())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.StatusActive, f.view(t).Market.MarketStatus)
}

func TestGetResolution_NoFeedConfigured(t *testing.T) {
	f := newFixture(t)
	f.eng = engine.New(f.ledger, nil, f.deriver, engine.Config{})
	cfg := f.initGlobal(t)
	f.createMarket(t, cfg)

	_, err := f.eng.GetResolution(f.ctx, cfg, f.resolveParams())
	assert.Error(t, err)
}

func TestEventsOnlyForCommittedOperations(t *testing.T) {
	f := newFixture(t)
	cfg := f.initGlobal(t)
	f.createMarket(t, cfg)

	require.NoError(t, f.bet(cfg, domain.SideYes, 10))
	assert.Error(t, f.bet(cfg, domain.SideYes, 10_000))
	f.setFeed("10", 0)
	_, err := f.eng.GetResolution(f.ctx, cfg, f.resolveParams())
	require.NoError(t, err)
	assert.Error(t, f.bet(cfg, domain.SideNo, 1))

	assert.Equal(t, []domain.EventKind{
		domain.EventGlobalInitialized,
		domain.EventMarketCreated,
		domain.EventBetPlaced,
		domain.EventMarketResolved,
	}, f.sink.kinds())
}

func TestMarketsAreIndependent(t *testing.T) {
	f := newFixture(t)
	cfg := f.initGlobal(t)
	f.createMarket(t, cfg)

	other := solana.NewWallet().PublicKey()
	require.NoError(t, f.ledger.Airdrop(f.ctx, other, startBalance))
	p := marketParams(other, f.oracle)
	p.Quest = 200
	_, err := f.eng.CreateMarket(f.ctx, cfg, p)
	require.NoError(t, err)

	f.setFeed("150", 0)
	got, err := f.eng.GetResolution(f.ctx, cfg, engine.ResolveParams{Caller: f.user, Creator: other})
	require.NoError(t, err)
	assert.False(t, got)

	assert.Equal(t, domain.StatusActive, f.view(t).Market.MarketStatus)
	require.NoError(t, f.bet(cfg, domain.SideYes, 5))
}

// ledgerTouchingFeed ejecuta during mientras la lectura está en curso.
type ledgerTouchingFeed struct {
	inner  ports.PriceFeed
	during func() error
}

func (r *ledgerTouchingFeed) Read(ctx context.Context, feed solana.PublicKey) (domain.FeedReading, error) {
	done := make(chan error, 1)
	go func() { done <- r.during() }()
	select {
	case err := <-done:
		if err != nil {
			return domain.FeedReading{}, err
		}
	case <-time.After(2 * time.Second):
		return domain.FeedReading{}, errors.New("ledger locked during feed read")
	}
	return r.inner.Read(ctx, feed)
}

func TestGetResolution_FeedReadDoesNotHoldLedger(t *testing.T) {
	f := newFixture(t)
	other := solana.NewWallet().PublicKey()
	f.eng = engine.New(f.ledger, &ledgerTouchingFeed{
		inner:  f.feed,
		during: func() error { return f.ledger.Airdrop(f.ctx, other, 7) },
	}, f.deriver, engine.Config{})
	cfg := f.initGlobal(t)
	f.createMarket(t, cfg)
	f.setFeed("150", 30*time.Second)

	result, err := f.eng.GetResolution(f.ctx, cfg, f.resolveParams())
	require.NoError(t, err)
	assert.True(t, result)
	assert.Equal(t, uint64(7), f.ledger.Balance(other))
	assert.Equal(t, domain.StatusFinished, f.view(t).Market.MarketStatus)
}
