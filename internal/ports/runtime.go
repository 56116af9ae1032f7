package ports

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/sea-sol/prediction-markets/internal/custody"
	"github.com/sea-sol/prediction-markets/internal/domain"
)

// Runtime es el ledger que hospeda el programa.
type Runtime interface {
	// Atomic ejecuta fn como una única operación todo-o-nada firmada por signers.
	// Si fn devuelve error no queda ninguna mutación ni evento visible.
	// El runtime serializa las operaciones que mutan las mismas cuentas.
	Atomic(ctx context.Context, signers []solana.PublicKey, fn func(ctx context.Context, tx Tx) error) error
}

// Tx es la vista de una operación en curso sobre el ledger.
type Tx interface {
	Accounts
	Bank
	TokenRegistry

	// ProgramID es el programa bajo el que se derivan las direcciones.
	ProgramID() solana.PublicKey
	// Now es la hora del ledger para esta operación.
	Now() time.Time
	// Emit encola un evento; solo se publica si la operación confirma.
	Emit(ev domain.Event)
}

// Accounts es el almacenamiento de registros de tamaño fijo.
type Accounts interface {
	// CreateAccount asigna space bytes a cero en address, pagado por payer.
	// Falla con ErrAlreadyExists si la cuenta ya existe.
	CreateAccount(payer, address solana.PublicKey, space int) error
	LoadAccount(address solana.PublicKey) ([]byte, error)
	// StoreAccount reescribe los datos; len(data) debe ser el espacio asignado.
	StoreAccount(address solana.PublicKey, data []byte) error
}

// Bank mueve el token nativo.
type Bank interface {
	Balance(address solana.PublicKey) uint64
	// Transfer mueve amount desde una cuenta que firmó la operación.
	Transfer(from, to solana.PublicKey, amount uint64) error
	// TransferSigned mueve amount desde una cuenta de custodia autorizada por signer.
	TransferSigned(from, to solana.PublicKey, amount uint64, signer custody.Signer) error
}

// TokenRegistry es el colaborador de outcome tokens y su metadata.
type TokenRegistry interface {
	CreateMint(payer, mint solana.PublicKey, decimals uint8, authority solana.PublicKey) error
	// CreateTokenAccount devuelve la token account asociada de owner, creándola si falta.
	CreateTokenAccount(payer, mint, owner solana.PublicKey) (solana.PublicKey, error)
	MintTo(mint, destination solana.PublicKey, amount uint64, authority custody.Signer) error
	TransferTokens(source, destination solana.PublicKey, amount uint64, authority custody.Signer) error
	RegisterMetadata(mint solana.PublicKey, md domain.TokenMetadata, authority custody.Signer) error
	TokenBalance(account solana.PublicKey) (uint64, error)
	// MintDecimals son los decimales con los que se creó el mint.
	MintDecimals(mint solana.PublicKey) (uint8, error)
}
