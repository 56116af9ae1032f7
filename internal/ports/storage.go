package ports

import (
	"context"
	"maps"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/sea-sol/prediction-markets/internal/domain"
)

// StateStore persiste el snapshot del ledger entre ejecuciones.
type StateStore interface {
	// SaveState guarda el snapshot y los eventos de una operación en una sola transacción.
	SaveState(ctx context.Context, snap Snapshot, events []domain.Event) error

	// LoadState devuelve el último snapshot guardado (vacío si no hay ninguno).
	LoadState(ctx context.Context) (Snapshot, error)

	// Events devuelve el journal de eventos en el rango de tiempo dado.
	Events(ctx context.Context, from, to time.Time) ([]domain.Event, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}

// EventSink recibe los eventos de cada operación confirmada.
type EventSink interface {
	Publish(ctx context.Context, events []domain.Event) error
}

// Mint es un registro de outcome token.
type Mint struct {
	Decimals  uint8
	Authority solana.PublicKey
	Supply    uint64
}

// TokenAccount es una tenencia de un outcome token.
type TokenAccount struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
}

// Snapshot es el estado completo del ledger.
type Snapshot struct {
	Accounts      map[solana.PublicKey][]byte
	Balances      map[solana.PublicKey]uint64
	Mints         map[solana.PublicKey]Mint
	TokenAccounts map[solana.PublicKey]TokenAccount
	Metadata      map[solana.PublicKey]domain.TokenMetadata
}

// NewSnapshot devuelve un snapshot vacío con todos los mapas inicializados.
func NewSnapshot() Snapshot {
	return Snapshot{
		Accounts:      make(map[solana.PublicKey][]byte),
		Balances:      make(map[solana.PublicKey]uint64),
		Mints:         make(map[solana.PublicKey]Mint),
		TokenAccounts: make(map[solana.PublicKey]TokenAccount),
		Metadata:      make(map[solana.PublicKey]domain.TokenMetadata),
	}
}

// Clone devuelve una copia profunda.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Accounts:      make(map[solana.PublicKey][]byte, len(s.Accounts)),
		Balances:      maps.Clone(s.Balances),
		Mints:         maps.Clone(s.Mints),
		TokenAccounts: maps.Clone(s.TokenAccounts),
		Metadata:      maps.Clone(s.Metadata),
	}
	for k, v := range s.Accounts {
		out.Accounts[k] = append([]byte(nil), v...)
	}
	if out.Balances == nil {
		out.Balances = make(map[solana.PublicKey]uint64)
	}
	if out.Mints == nil {
		out.Mints = make(map[solana.PublicKey]Mint)
	}
	if out.TokenAccounts == nil {
		out.TokenAccounts = make(map[solana.PublicKey]TokenAccount)
	}
	if out.Metadata == nil {
		out.Metadata = make(map[solana.PublicKey]domain.TokenMetadata)
	}
	return out
}
