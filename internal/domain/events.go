package domain

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// EventKind identifica el tipo de evento emitido por una operación.
type EventKind string

const (
	EventGlobalInitialized EventKind = "GlobalInitialized"
	EventGlobalUpdated     EventKind = "GlobalUpdated"
	EventMarketCreated     EventKind = "MarketCreated"
	EventBetPlaced         EventKind = "BetPlaced"
	EventLiquidityAdded    EventKind = "LiquidityAdded"
	EventWithdrawn         EventKind = "Withdrawn"
	EventMarketResolved    EventKind = "MarketResolved"
)

// Event es un registro emitido al confirmar una operación.
// Los eventos de una operación fallida nunca se publican.
type Event struct {
	ID        string
	Kind      EventKind
	Market    solana.PublicKey // zero para eventos globales
	Actor     solana.PublicKey
	Side      *Side
	Amount    uint64
	Result    *bool
	PriceA    uint64
	PriceB    uint64
	Timestamp time.Time
}
