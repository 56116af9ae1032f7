package domain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// MarketStatus es el estado del ciclo de vida de un mercado.
// Se persiste como un byte; el orden de los valores es parte del layout.
type MarketStatus uint8

const (
	StatusPrepare MarketStatus = iota
	StatusActive
	StatusFinished
)

func (s MarketStatus) String() string {
	switch s {
	case StatusPrepare:
		return "Prepare"
	case StatusActive:
		return "Active"
	case StatusFinished:
		return "Finished"
	default:
		return fmt.Sprintf("MarketStatus(%d)", uint8(s))
	}
}

// Side es el lado de una apuesta: YES (token A) o NO (token B).
type Side bool

const (
	SideYes Side = true
	SideNo  Side = false
)

func (s Side) String() string {
	if s == SideYes {
		return "YES"
	}
	return "NO"
}

// ParseSide acepta "yes"/"no" (y sus variantes en mayúsculas).
func ParseSide(s string) (Side, error) {
	switch s {
	case "yes", "YES", "Yes", "a", "A":
		return SideYes, nil
	case "no", "NO", "No", "b", "B":
		return SideNo, nil
	}
	return SideNo, fmt.Errorf("%w: unknown side %q", ErrInvalidParams, s)
}

// Market es el registro de un mercado binario, uno por creador.
// El orden de los campos es el layout persistido.
type Market struct {
	Creator      solana.PublicKey
	Feed         solana.PublicKey
	Quest        uint16
	MarketStatus MarketStatus
	Result       bool
	TokenA       solana.PublicKey
	TokenB       solana.PublicKey
	TokenAAmount uint64
	TokenBAmount uint64
	TokenPriceA  uint64
	TokenPriceB  uint64
	TotalReserve uint64
	YesAmount    uint64
	NoAmount     uint64
}

// TokenMetadata es la metadata registrada para un outcome token.
type TokenMetadata struct {
	Name   string
	Symbol string
	URI    string
}

// MarketParams son los parámetros de negocio de create_market.
type MarketParams struct {
	Quest       uint16
	TokenAmount uint64
	TokenPrice  uint64
	MetadataA   TokenMetadata
	MetadataB   TokenMetadata
}

// Validate rechaza parámetros que harían imposible el pricing.
func (p MarketParams) Validate() error {
	if p.TokenAmount == 0 {
		return fmt.Errorf("%w: token amount must be positive", ErrInvalidParams)
	}
	for _, md := range []TokenMetadata{p.MetadataA, p.MetadataB} {
		if md.Name == "" || md.Symbol == "" {
			return fmt.Errorf("%w: token metadata requires name and symbol", ErrInvalidParams)
		}
	}
	return nil
}

// UpdateSettings puebla un mercado recién asignado.
func (m *Market) UpdateSettings(creator, feed, tokenA, tokenB solana.PublicKey, quest uint16) {
	m.Creator = creator
	m.Feed = feed
	m.TokenA = tokenA
	m.TokenB = tokenB
	m.Quest = quest
	m.YesAmount = 1
	m.NoAmount = 1
}

// RecordBet incrementa el contador del lado apostado.
func (m *Market) RecordBet(side Side) error {
	if side == SideYes {
		n, err := checkedAdd(m.YesAmount, 1)
		if err != nil {
			return err
		}
		m.YesAmount = n
		return nil
	}
	n, err := checkedAdd(m.NoAmount, 1)
	if err != nil {
		return err
	}
	m.NoAmount = n
	return nil
}

// Mint devuelve el registro del outcome token del lado dado.
func (m Market) Mint(side Side) solana.PublicKey {
	if side == SideYes {
		return m.TokenA
	}
	return m.TokenB
}
