package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/sea-sol/prediction-markets/internal/domain"
	"github.com/sea-sol/prediction-markets/internal/ports"
)

// Static es un price feed en memoria: devuelve la última lectura fijada por feed.
// Lo usan los tests y el CLI cuando no hay oracle.feed_url.
type Static struct {
	mu       sync.RWMutex
	readings map[solana.PublicKey]domain.FeedReading
}

// NewStatic crea un feed vacío.
func NewStatic() *Static {
	return &Static{readings: make(map[solana.PublicKey]domain.FeedReading)}
}

// Set fija la lectura de feed.
func (s *Static) Set(feed solana.PublicKey, r domain.FeedReading) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings[feed] = r
}

// Read implementa ports.PriceFeed.
func (s *Static) Read(_ context.Context, feed solana.PublicKey) (domain.FeedReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.readings[feed]
	if !ok {
		return domain.FeedReading{}, fmt.Errorf("feed.Read %s: %w", feed, domain.ErrNotFound)
	}
	return r, nil
}

var _ ports.PriceFeed = (*Static)(nil)
