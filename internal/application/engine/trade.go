package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/sea-sol/prediction-markets/internal/custody"
	"github.com/sea-sol/prediction-markets/internal/domain"
	"github.com/sea-sol/prediction-markets/internal/ports"
)

// BetParams son los parámetros de PlaceBet.
type BetParams struct {
	User         solana.PublicKey
	Creator      solana.PublicKey
	FeeAuthority solana.PublicKey
	Side         domain.Side
	Amount       uint64
}

// PlaceBet registra una apuesta en un mercado Active.
//
// En una sola operación: contador del lado +1, el usuario paga Amount a la
// custodia, la custodia entrega Amount outcome tokens del lado elegido,
// se recalculan precios y el usuario paga el betting fee repartido entre
// fee authority y creador.
func (e *Engine) PlaceBet(ctx context.Context, cfg domain.GlobalConfig, p BetParams) error {
	if p.Amount == 0 {
		return reject("PlaceBet", fmt.Errorf("%w: amount must be positive", domain.ErrInvalidParams), "user", p.User)
	}
	addr, signer, err := e.marketKeys(p.Creator)
	if err != nil {
		return reject("PlaceBet", err, "user", p.User)
	}

	var m domain.Market
	err = e.runtime.Atomic(ctx, []solana.PublicKey{p.User}, func(_ context.Context, tx ports.Tx) error {
		g, _, err := e.checkConfig(tx, cfg)
		if err != nil {
			return err
		}
		if !p.FeeAuthority.Equals(g.FeeAuthority) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidFeeAuthority, p.FeeAuthority)
		}

		if m, err = loadMarket(tx, addr); err != nil {
			return err
		}
		if err := m.RequireActive(); err != nil {
			return err
		}
		if err := m.RecordBet(p.Side); err != nil {
			return err
		}

		if err := tx.Transfer(p.User, signer.Address(), p.Amount); err != nil {
			return fmt.Errorf("stake: %w", err)
		}

		mint := m.Mint(p.Side)
		vault, err := custody.Vault(signer, mint)
		if err != nil {
			return err
		}
		userAcct, err := tx.CreateTokenAccount(p.User, mint, p.User)
		if err != nil {
			return err
		}
		tokens, err := scaleForMint(tx, mint, p.Amount)
		if err != nil {
			return err
		}
		if err := tx.TransferTokens(vault, userAcct, tokens, signer); err != nil {
			return fmt.Errorf("outcome tokens: %w", err)
		}

		if err := m.UpdatePriceOnTrade(p.Amount, p.Side); err != nil {
			return err
		}

		toAuthority, toCreator, err := domain.SplitBettingFee(g.BettingUserFeeAmount, g.FeePercentage)
		if err != nil {
			return err
		}
		if err := tx.Transfer(p.User, g.FeeAuthority, toAuthority); err != nil {
			return fmt.Errorf("authority fee: %w", err)
		}
		if err := tx.Transfer(p.User, m.Creator, toCreator); err != nil {
			return fmt.Errorf("creator fee: %w", err)
		}

		if err := storeMarket(tx, addr, m); err != nil {
			return err
		}

		side := p.Side
		tx.Emit(domain.Event{
			Kind:   domain.EventBetPlaced,
			Market: addr,
			Actor:  p.User,
			Side:   &side,
			Amount: p.Amount,
			PriceA: m.TokenPriceA,
			PriceB: m.TokenPriceB,
		})
		return nil
	})
	if err != nil {
		return reject("PlaceBet", err, "user", p.User, "market", addr, "side", p.Side)
	}

	slog.Info("engine: bet placed",
		"market", addr,
		"user", p.User,
		"side", p.Side,
		"amount", p.Amount,
		"price_a", m.TokenPriceA,
		"price_b", m.TokenPriceB,
	)
	return nil
}

// LiquidityParams son los parámetros de AddLiquidity.
type LiquidityParams struct {
	Provider solana.PublicKey
	Creator  solana.PublicKey
	Amount   uint64
}

// AddLiquidity deposita Amount en la custodia y acuña Amount de ambos
// outcome tokens en los vaults. El proveedor paga el liquidity fee completo
// a la fee authority.
func (e *Engine) AddLiquidity(ctx context.Context, cfg domain.GlobalConfig, p LiquidityParams) error {
	if p.Amount == 0 {
		return reject("AddLiquidity", fmt.Errorf("%w: amount must be positive", domain.ErrInvalidParams), "provider", p.Provider)
	}
	addr, signer, err := e.marketKeys(p.Creator)
	if err != nil {
		return reject("AddLiquidity", err, "provider", p.Provider)
	}

	var m domain.Market
	err = e.runtime.Atomic(ctx, []solana.PublicKey{p.Provider}, func(_ context.Context, tx ports.Tx) error {
		g, _, err := e.checkConfig(tx, cfg)
		if err != nil {
			return err
		}
		if m, err = loadMarket(tx, addr); err != nil {
			return err
		}
		if err := m.RequireActive(); err != nil {
			return err
		}

		if err := tx.Transfer(p.Provider, signer.Address(), p.Amount); err != nil {
			return fmt.Errorf("deposit: %w", err)
		}
		if err := tx.Transfer(p.Provider, g.FeeAuthority, g.LiquidityUserFeeAmount); err != nil {
			return fmt.Errorf("liquidity fee: %w", err)
		}

		for _, mint := range []solana.PublicKey{m.TokenA, m.TokenB} {
			tokens, err := scaleForMint(tx, mint, p.Amount)
			if err != nil {
				return err
			}
			vault, err := custody.Vault(signer, mint)
			if err != nil {
				return err
			}
			if err := tx.MintTo(mint, vault, tokens, signer); err != nil {
				return err
			}
		}

		if err := m.AddLiquidity(p.Amount); err != nil {
			return err
		}
		if err := storeMarket(tx, addr, m); err != nil {
			return err
		}

		tx.Emit(domain.Event{
			Kind:   domain.EventLiquidityAdded,
			Market: addr,
			Actor:  p.Provider,
			Amount: p.Amount,
			PriceA: m.TokenPriceA,
			PriceB: m.TokenPriceB,
		})
		return nil
	})
	if err != nil {
		return reject("AddLiquidity", err, "provider", p.Provider, "market", addr)
	}

	slog.Info("engine: liquidity added",
		"market", addr,
		"provider", p.Provider,
		"amount", p.Amount,
		"supply_a", m.TokenAAmount,
		"supply_b", m.TokenBAmount,
	)
	return nil
}

// WithdrawParams son los parámetros de Withdraw.
type WithdrawParams struct {
	Admin    solana.PublicKey
	Creator  solana.PublicKey
	Receiver solana.PublicKey
	Amount   uint64
}

// Withdraw saca Amount de token nativo de la custodia del mercado hacia
// Receiver. Solo el admin; no depende del estado del mercado.
func (e *Engine) Withdraw(ctx context.Context, cfg domain.GlobalConfig, p WithdrawParams) error {
	addr, signer, err := e.marketKeys(p.Creator)
	if err != nil {
		return reject("Withdraw", err, "admin", p.Admin)
	}

	err = e.runtime.Atomic(ctx, []solana.PublicKey{p.Admin}, func(_ context.Context, tx ports.Tx) error {
		g, _, err := e.checkConfig(tx, cfg)
		if err != nil {
			return err
		}
		if !g.Admin.Equals(p.Admin) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidAdmin, p.Admin)
		}
		if _, err := loadMarket(tx, addr); err != nil {
			return err
		}
		if err := tx.TransferSigned(signer.Address(), p.Receiver, p.Amount, signer); err != nil {
			return err
		}

		tx.Emit(domain.Event{
			Kind:   domain.EventWithdrawn,
			Market: addr,
			Actor:  p.Receiver,
			Amount: p.Amount,
		})
		return nil
	})
	if err != nil {
		return reject("Withdraw", err, "admin", p.Admin, "market", addr)
	}

	slog.Info("engine: withdrawn",
		"market", addr,
		"receiver", p.Receiver,
		"amount", p.Amount,
	)
	return nil
}
