package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/sea-sol/prediction-markets/internal/domain"
	"github.com/sea-sol/prediction-markets/internal/ports"
)

// ResolveParams son los parámetros de GetResolution.
// Feed es opcional; si se indica debe ser el feed del mercado.
type ResolveParams struct {
	Caller  solana.PublicKey
	Creator solana.PublicKey
	Feed    solana.PublicKey
}

// GetResolution lee el feed del mercado, rechaza lecturas más viejas que la
// ventana de staleness y fija result = quest <= valor, pasando el mercado a
// Finished. Una segunda llamada falla con ErrInvalidState.
func (e *Engine) GetResolution(ctx context.Context, cfg domain.GlobalConfig, p ResolveParams) (bool, error) {
	if e.feed == nil {
		return false, reject("GetResolution", errors.New("no price feed configured"), "caller", p.Caller)
	}
	addr, _, err := e.marketKeys(p.Creator)
	if err != nil {
		return false, reject("GetResolution", err, "caller", p.Caller)
	}

	var m domain.Market
	// check valida el mercado contra el config y el feed pedido.
	check := func(tx ports.Tx) error {
		if _, _, err := e.checkConfig(tx, cfg); err != nil {
			return err
		}
		var err error
		if m, err = loadMarket(tx, addr); err != nil {
			return err
		}
		if err := m.RequireActive(); err != nil {
			return err
		}
		if !p.Feed.IsZero() && !p.Feed.Equals(m.Feed) {
			return fmt.Errorf("%w: got %s, market reads %s", domain.ErrInvalidFeed, p.Feed, m.Feed)
		}
		return nil
	}

	// El feed se lee fuera de Atomic, sin el lock del ledger. La staleness se
	// valida contra tx.Now al confirmar.
	err = e.runtime.Atomic(ctx, nil, func(_ context.Context, tx ports.Tx) error {
		return check(tx)
	})
	if err != nil {
		return false, reject("GetResolution", err, "caller", p.Caller, "market", addr)
	}
	reading, err := e.feed.Read(ctx, m.Feed)
	if err != nil {
		return false, reject("GetResolution", err, "caller", p.Caller, "market", addr, "feed", m.Feed)
	}

	err = e.runtime.Atomic(ctx, []solana.PublicKey{p.Caller}, func(_ context.Context, tx ports.Tx) error {
		if err := check(tx); err != nil {
			return err
		}
		if err := domain.CheckStaleness(reading, tx.Now(), e.cfg.StalenessWindow); err != nil {
			return err
		}

		result := domain.Resolve(reading, m.Quest)
		if err := m.CommitResult(result); err != nil {
			return err
		}
		if err := storeMarket(tx, addr, m); err != nil {
			return err
		}

		tx.Emit(domain.Event{
			Kind:   domain.EventMarketResolved,
			Market: addr,
			Actor:  p.Caller,
			Result: &result,
		})
		return nil
	})
	if err != nil {
		return false, reject("GetResolution", err, "caller", p.Caller, "market", addr)
	}

	slog.Info("engine: market resolved",
		"market", addr,
		"quest", m.Quest,
		"value", reading.Value.String(),
		"result", m.Result,
	)
	return m.Result, nil
}
