package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultStalenessWindow es la edad máxima de una lectura del feed.
const DefaultStalenessWindow = 300 * time.Second

// FeedReading es un valor del price feed con su último update.
type FeedReading struct {
	Value      decimal.Decimal
	LastUpdate time.Time
}

// CheckStaleness falla con ErrStaleFeed si LastUpdate es anterior a now - window.
func CheckStaleness(r FeedReading, now time.Time, window time.Duration) error {
	if r.LastUpdate.IsZero() {
		return fmt.Errorf("%w: reading has no update timestamp", ErrStaleFeed)
	}
	if r.LastUpdate.Before(now.Add(-window)) {
		return fmt.Errorf("%w: last update %s older than %s",
			ErrStaleFeed, r.LastUpdate.UTC().Format(time.RFC3339), window)
	}
	return nil
}

// Resolve compara el quest contra el valor del feed: quest <= value.
func Resolve(r FeedReading, quest uint16) bool {
	return decimal.NewFromInt(int64(quest)).LessThanOrEqual(r.Value)
}

// CommitResult escribe el resultado y pasa el mercado a Finished en un solo paso.
// Solo es válido con el mercado Active; si falla no hay mutación.
func (m *Market) CommitResult(result bool) error {
	if err := m.RequireActive(); err != nil {
		return err
	}
	m.Result = result
	return m.Transition(StatusFinished)
}
