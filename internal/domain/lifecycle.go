package domain

import "fmt"

// Transiciones válidas: Prepare → Active → Finished. Sin regresión.
var transitions = map[MarketStatus]MarketStatus{
	StatusPrepare: StatusActive,
	StatusActive:  StatusFinished,
}

// CanTransition devuelve true si from → to es una transición válida.
func CanTransition(from, to MarketStatus) bool {
	next, ok := transitions[from]
	return ok && next == to
}

// Transition avanza el estado del mercado o falla con ErrInvalidState.
func (m *Market) Transition(to MarketStatus) error {
	if !CanTransition(m.MarketStatus, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, m.MarketStatus, to)
	}
	m.MarketStatus = to
	return nil
}

// RequireActive es el guard de apuestas, liquidez y resolución.
func (m Market) RequireActive() error {
	if m.MarketStatus != StatusActive {
		return fmt.Errorf("%w (status %s)", ErrMarketNotActive, m.MarketStatus)
	}
	return nil
}

// IsFinished devuelve true si el resultado ya está fijado.
func (m Market) IsFinished() bool {
	return m.MarketStatus == StatusFinished
}
