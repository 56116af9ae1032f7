package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"github.com/sea-sol/prediction-markets/internal/account"
	"github.com/sea-sol/prediction-markets/internal/domain"
	"github.com/sea-sol/prediction-markets/internal/ports"
)

// InitGlobal crea el GlobalConfig singleton con admin como administrador.
// Falla con ErrAlreadyInitialized si ya existe.
func (e *Engine) InitGlobal(ctx context.Context, admin solana.PublicKey, p domain.GlobalParams) (domain.GlobalConfig, error) {
	if err := p.Validate(); err != nil {
		return domain.GlobalConfig{}, reject("InitGlobal", err, "admin", admin)
	}
	addr, err := e.deriver.GlobalAddress()
	if err != nil {
		return domain.GlobalConfig{}, reject("InitGlobal", err)
	}

	g := domain.GlobalConfig{Admin: admin}
	g.Apply(p)

	err = e.runtime.Atomic(ctx, []solana.PublicKey{admin}, func(_ context.Context, tx ports.Tx) error {
		if err := tx.CreateAccount(admin, addr, account.GlobalSpace); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				return domain.ErrAlreadyInitialized
			}
			return err
		}
		if err := storeGlobal(tx, addr, g); err != nil {
			return err
		}
		tx.Emit(domain.Event{Kind: domain.EventGlobalInitialized, Actor: admin})
		return nil
	})
	if err != nil {
		return domain.GlobalConfig{}, reject("InitGlobal", err, "admin", admin)
	}

	slog.Info("engine: global initialized",
		"address", addr,
		"admin", admin,
		"fee_authority", g.FeeAuthority,
		"fee_percentage", g.FeePercentage,
		"decimal", g.Decimal,
	)
	return g, nil
}

// UpdateGlobal reemplaza el fee schedule. Solo el admin puede hacerlo.
// Devuelve el nuevo config, que sustituye a cfg en las operaciones siguientes.
func (e *Engine) UpdateGlobal(ctx context.Context, cfg domain.GlobalConfig, admin solana.PublicKey, p domain.GlobalParams) (domain.GlobalConfig, error) {
	if err := p.Validate(); err != nil {
		return domain.GlobalConfig{}, reject("UpdateGlobal", err, "admin", admin)
	}

	var updated domain.GlobalConfig
	err := e.runtime.Atomic(ctx, []solana.PublicKey{admin}, func(_ context.Context, tx ports.Tx) error {
		g, addr, err := e.checkConfig(tx, cfg)
		if err != nil {
			return err
		}
		if !g.Admin.Equals(admin) {
			return fmt.Errorf("%w: %s", domain.ErrInvalidAdmin, admin)
		}
		g.Apply(p)
		if err := storeGlobal(tx, addr, g); err != nil {
			return err
		}
		tx.Emit(domain.Event{Kind: domain.EventGlobalUpdated, Actor: admin})
		updated = g
		return nil
	})
	if err != nil {
		return domain.GlobalConfig{}, reject("UpdateGlobal", err, "admin", admin)
	}

	slog.Info("engine: global updated",
		"fee_authority", updated.FeeAuthority,
		"fee_percentage", updated.FeePercentage,
		"decimal", updated.Decimal,
	)
	return updated, nil
}
