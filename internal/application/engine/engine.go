// Package engine orquesta las operaciones del mercado sobre el ledger runtime.
//
// Cada operación corre dentro de un único Runtime.Atomic: si cualquier paso
// falla (aritmética, autorización, estado, feed) no queda ninguna mutación ni
// evento publicado. El GlobalConfig se pasa explícitamente a cada operación y
// se compara contra el registro guardado antes de usarlo.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/sea-sol/prediction-markets/internal/account"
	"github.com/sea-sol/prediction-markets/internal/custody"
	"github.com/sea-sol/prediction-markets/internal/domain"
	"github.com/sea-sol/prediction-markets/internal/ports"
)

// Config controla el comportamiento del engine.
type Config struct {
	StalenessWindow time.Duration
}

// Engine implementa las operaciones del programa.
type Engine struct {
	runtime ports.Runtime
	feed    ports.PriceFeed
	deriver *custody.Deriver
	cfg     Config
}

// New crea un Engine. feed puede ser nil si no se va a resolver.
func New(runtime ports.Runtime, feed ports.PriceFeed, deriver *custody.Deriver, cfg Config) *Engine {
	if cfg.StalenessWindow <= 0 {
		cfg.StalenessWindow = domain.DefaultStalenessWindow
	}
	return &Engine{
		runtime: runtime,
		feed:    feed,
		deriver: deriver,
		cfg:     cfg,
	}
}

// LoadGlobal lee el GlobalConfig guardado. Se llama una vez al arrancar y el
// valor se pasa después a cada operación.
func (e *Engine) LoadGlobal(ctx context.Context) (domain.GlobalConfig, error) {
	var g domain.GlobalConfig
	err := e.runtime.Atomic(ctx, nil, func(_ context.Context, tx ports.Tx) error {
		var err error
		g, _, err = e.loadGlobal(tx)
		return err
	})
	if err != nil {
		return domain.GlobalConfig{}, fmt.Errorf("engine.LoadGlobal: %w", err)
	}
	return g, nil
}

// MarketView es el estado de un mercado junto con su custodia.
type MarketView struct {
	Address        solana.PublicKey
	Custody        solana.PublicKey
	CustodyBalance uint64
	VaultA         uint64
	VaultB         uint64
	Market         domain.Market
}

// Market devuelve el mercado del creador.
func (e *Engine) Market(ctx context.Context, creator solana.PublicKey) (MarketView, error) {
	addr, signer, err := e.marketKeys(creator)
	if err != nil {
		return MarketView{}, fmt.Errorf("engine.Market: %w", err)
	}

	view := MarketView{Address: addr, Custody: signer.Address()}
	err = e.runtime.Atomic(ctx, nil, func(_ context.Context, tx ports.Tx) error {
		m, err := loadMarket(tx, addr)
		if err != nil {
			return err
		}
		view.Market = m
		view.CustodyBalance = tx.Balance(signer.Address())
		if view.VaultA, err = vaultBalance(tx, signer, m.TokenA); err != nil {
			return err
		}
		view.VaultB, err = vaultBalance(tx, signer, m.TokenB)
		return err
	})
	if err != nil {
		return MarketView{}, fmt.Errorf("engine.Market: %w", err)
	}
	return view, nil
}

// --- helpers internos ---

func (e *Engine) marketKeys(creator solana.PublicKey) (solana.PublicKey, custody.Signer, error) {
	addr, err := e.deriver.MarketAddress(creator)
	if err != nil {
		return solana.PublicKey{}, custody.Signer{}, err
	}
	signer, err := e.deriver.Derive(addr)
	if err != nil {
		return solana.PublicKey{}, custody.Signer{}, err
	}
	return addr, signer, nil
}

func (e *Engine) loadGlobal(tx ports.Tx) (domain.GlobalConfig, solana.PublicKey, error) {
	addr, err := e.deriver.GlobalAddress()
	if err != nil {
		return domain.GlobalConfig{}, solana.PublicKey{}, err
	}
	data, err := tx.LoadAccount(addr)
	if err != nil {
		return domain.GlobalConfig{}, solana.PublicKey{}, fmt.Errorf("global config: %w", err)
	}
	g, err := account.DecodeGlobal(data)
	if err != nil {
		return domain.GlobalConfig{}, solana.PublicKey{}, err
	}
	return g, addr, nil
}

// checkConfig carga el registro y exige que cfg tenga sus mismos settings.
func (e *Engine) checkConfig(tx ports.Tx, cfg domain.GlobalConfig) (domain.GlobalConfig, solana.PublicKey, error) {
	stored, addr, err := e.loadGlobal(tx)
	if err != nil {
		return domain.GlobalConfig{}, solana.PublicKey{}, err
	}
	if !stored.SameSettings(cfg) {
		return domain.GlobalConfig{}, solana.PublicKey{}, domain.ErrStaleConfig
	}
	return stored, addr, nil
}

func storeGlobal(tx ports.Tx, addr solana.PublicKey, g domain.GlobalConfig) error {
	data, err := account.EncodeGlobal(g)
	if err != nil {
		return err
	}
	return tx.StoreAccount(addr, data)
}

func loadMarket(tx ports.Tx, addr solana.PublicKey) (domain.Market, error) {
	data, err := tx.LoadAccount(addr)
	if err != nil {
		return domain.Market{}, fmt.Errorf("market: %w", err)
	}
	return account.DecodeMarket(data)
}

func storeMarket(tx ports.Tx, addr solana.PublicKey, m domain.Market) error {
	data, err := account.EncodeMarket(m)
	if err != nil {
		return err
	}
	return tx.StoreAccount(addr, data)
}

func vaultBalance(tx ports.Tx, signer custody.Signer, mint solana.PublicKey) (uint64, error) {
	vault, err := custody.Vault(signer, mint)
	if err != nil {
		return 0, err
	}
	bal, err := tx.TokenBalance(vault)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, nil
	}
	return bal, err
}

// scaleForMint convierte unidades enteras a unidades base con los decimales
// del mint. Un cambio posterior de GlobalConfig.Decimal no afecta a los
// mercados ya creados.
func scaleForMint(tx ports.Tx, mint solana.PublicKey, amount uint64) (uint64, error) {
	decimals, err := tx.MintDecimals(mint)
	if err != nil {
		return 0, err
	}
	return domain.ScaleByDecimal(amount, decimals)
}

// reject loguea el rechazo y envuelve el error con el nombre de la operación.
func reject(op string, err error, attrs ...any) error {
	slog.Warn("engine: "+op+" rejected", append(attrs, "err", err)...)
	return fmt.Errorf("engine.%s: %w", op, err)
}
