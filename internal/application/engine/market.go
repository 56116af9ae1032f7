package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/sea-sol/prediction-markets/internal/account"
	"github.com/sea-sol/prediction-markets/internal/custody"
	"github.com/sea-sol/prediction-markets/internal/domain"
	"github.com/sea-sol/prediction-markets/internal/ports"
)

// CreateMarketParams son los parámetros de CreateMarket.
type CreateMarketParams struct {
	Creator solana.PublicKey
	Feed    solana.PublicKey
	domain.MarketParams
}

// CreateMarket crea el mercado del creador: registro, dos outcome tokens con
// metadata, vaults de custodia con la supply inicial, fee de creación y
// precios iniciales. Termina con el mercado Active.
func (e *Engine) CreateMarket(ctx context.Context, cfg domain.GlobalConfig, p CreateMarketParams) (domain.Market, error) {
	if err := p.Validate(); err != nil {
		return domain.Market{}, reject("CreateMarket", err, "creator", p.Creator)
	}
	if p.Feed.IsZero() {
		return domain.Market{}, reject("CreateMarket", fmt.Errorf("%w: feed is required", domain.ErrInvalidParams), "creator", p.Creator)
	}

	addr, signer, err := e.marketKeys(p.Creator)
	if err != nil {
		return domain.Market{}, reject("CreateMarket", err, "creator", p.Creator)
	}
	mintA, err := e.deriver.OutcomeMint(addr, domain.SideYes)
	if err != nil {
		return domain.Market{}, reject("CreateMarket", err, "creator", p.Creator)
	}
	mintB, err := e.deriver.OutcomeMint(addr, domain.SideNo)
	if err != nil {
		return domain.Market{}, reject("CreateMarket", err, "creator", p.Creator)
	}

	var m domain.Market
	err = e.runtime.Atomic(ctx, []solana.PublicKey{p.Creator}, func(_ context.Context, tx ports.Tx) error {
		g, gAddr, err := e.checkConfig(tx, cfg)
		if err != nil {
			return err
		}

		if err := tx.CreateAccount(p.Creator, addr, account.MarketSpace); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return fmt.Errorf("%w: creator %s already has a market", domain.ErrAlreadyExists, p.Creator)
			}
			return err
		}

		m = domain.Market{}
		m.UpdateSettings(p.Creator, p.Feed, mintA, mintB, p.Quest)

		supply, err := g.Scale(p.TokenAmount)
		if err != nil {
			return err
		}
		if err := createOutcome(tx, p.Creator, signer, mintA, g.Decimal, p.MetadataA, supply); err != nil {
			return fmt.Errorf("token a: %w", err)
		}
		if err := createOutcome(tx, p.Creator, signer, mintB, g.Decimal, p.MetadataB, supply); err != nil {
			return fmt.Errorf("token b: %w", err)
		}

		if err := tx.Transfer(p.Creator, g.FeeAuthority, g.CreatorFeeAmount); err != nil {
			return fmt.Errorf("creator fee: %w", err)
		}

		if _, err := m.InitializeMarket(p.TokenAmount, p.TokenPrice); err != nil {
			return err
		}
		if err := m.Transition(domain.StatusActive); err != nil {
			return err
		}

		if err := g.IncrementMarketCount(); err != nil {
			return err
		}
		if err := storeGlobal(tx, gAddr, g); err != nil {
			return err
		}
		if err := storeMarket(tx, addr, m); err != nil {
			return err
		}

		tx.Emit(domain.Event{
			Kind:   domain.EventMarketCreated,
			Market: addr,
			Actor:  p.Creator,
			Amount: p.TokenAmount,
			PriceA: m.TokenPriceA,
			PriceB: m.TokenPriceB,
		})
		return nil
	})
	if err != nil {
		return domain.Market{}, reject("CreateMarket", err, "creator", p.Creator)
	}

	slog.Info("engine: market created",
		"market", addr,
		"creator", p.Creator,
		"quest", m.Quest,
		"reserve", m.TotalReserve,
		"supply", m.TokenAAmount,
		"price", m.TokenPriceA,
	)
	return m, nil
}

// createOutcome crea el mint de un outcome token, registra su metadata y
// acuña la supply inicial en el vault de custodia.
func createOutcome(tx ports.Tx, payer solana.PublicKey, signer custody.Signer, mint solana.PublicKey, decimals uint8, md domain.TokenMetadata, supply uint64) error {
	if err := tx.CreateMint(payer, mint, decimals, signer.Address()); err != nil {
		return err
	}
	if err := tx.RegisterMetadata(mint, md, signer); err != nil {
		return err
	}
	vault, err := tx.CreateTokenAccount(payer, mint, signer.Address())
	if err != nil {
		return err
	}
	return tx.MintTo(mint, vault, supply, signer)
}
