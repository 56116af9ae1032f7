package ledger

// ledger.go: runtime de referencia en memoria.
//
// Cada operación trabaja sobre una copia del snapshot. Si fn devuelve error la
// copia se descarta; si no, se persiste (si hay StateStore) y reemplaza al
// estado vivo. Los eventos se publican solo después de confirmar.

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/sea-sol/prediction-markets/internal/domain"
	"github.com/sea-sol/prediction-markets/internal/ports"
)

// Ledger implementa ports.Runtime.
type Ledger struct {
	program solana.PublicKey
	store   ports.StateStore
	sinks   []ports.EventSink
	clock   func() time.Time

	mu    sync.Mutex // serializa operaciones: una a la vez
	state ports.Snapshot
}

// Option configura un Ledger.
type Option func(*Ledger)

// WithStore persiste cada operación confirmada.
func WithStore(s ports.StateStore) Option {
	return func(l *Ledger) { l.store = s }
}

// WithSink publica los eventos de cada operación confirmada.
func WithSink(s ports.EventSink) Option {
	return func(l *Ledger) { l.sinks = append(l.sinks, s) }
}

// WithClock reemplaza el reloj del ledger (tests).
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) { l.clock = clock }
}

// New crea un ledger vacío para program.
func New(program solana.PublicKey, opts ...Option) *Ledger {
	l := &Ledger{
		program: program,
		clock:   time.Now,
		state:   ports.NewSnapshot(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Open crea un ledger y carga el último snapshot del store.
func Open(ctx context.Context, program solana.PublicKey, store ports.StateStore, opts ...Option) (*Ledger, error) {
	l := New(program, append([]Option{WithStore(store)}, opts...)...)
	snap, err := store.LoadState(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger.Open: %w", err)
	}
	l.state = snap.Clone()
	slog.Debug("ledger: state loaded",
		"accounts", len(l.state.Accounts),
		"balances", len(l.state.Balances),
		"mints", len(l.state.Mints),
	)
	return l, nil
}

// ProgramID devuelve el programa hospedado.
func (l *Ledger) ProgramID() solana.PublicKey { return l.program }

// Atomic implementa ports.Runtime.
func (l *Ledger) Atomic(ctx context.Context, signers []solana.PublicKey, fn func(ctx context.Context, tx ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx := newTx(l.program, l.state.Clone(), signers, l.clock().UTC())
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}

	if l.store != nil {
		if err := l.store.SaveState(ctx, tx.state, tx.events); err != nil {
			return fmt.Errorf("ledger.Atomic: persist: %w", err)
		}
	}
	l.state = tx.state

	if len(tx.events) > 0 {
		for _, sink := range l.sinks {
			// la operación ya confirmó: un sink caído no la revierte
			if err := sink.Publish(ctx, tx.events); err != nil {
				slog.Warn("ledger: event sink failed", "err", err, "events", len(tx.events))
			}
		}
	}
	return nil
}

// Airdrop acredita amount de token nativo a address (ledger local).
func (l *Ledger) Airdrop(ctx context.Context, address solana.PublicKey, amount uint64) error {
	return l.Atomic(ctx, nil, func(_ context.Context, t ports.Tx) error {
		return t.(*tx).credit(address, amount)
	})
}

// Balance devuelve el saldo nativo confirmado de address.
func (l *Ledger) Balance(address solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Balances[address]
}

// TokenBalance devuelve el saldo confirmado de una token account (0 si no existe).
func (l *Ledger) TokenBalance(account solana.PublicKey) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.TokenAccounts[account].Amount
}

// Snapshot devuelve una copia del estado confirmado.
func (l *Ledger) Snapshot() ports.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone()
}

var _ ports.Runtime = (*Ledger)(nil)

// errMissingSigner formatea el error de firma ausente.
func errMissingSigner(addr solana.PublicKey) error {
	return fmt.Errorf("%w: %s did not sign", domain.ErrMissingSignature, addr)
}
