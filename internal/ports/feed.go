package ports

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/sea-sol/prediction-markets/internal/domain"
)

// PriceFeed lee el valor actual de un feed externo junto con su último update.
type PriceFeed interface {
	Read(ctx context.Context, feed solana.PublicKey) (domain.FeedReading, error)
}
