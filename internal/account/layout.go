// Package account defines the persisted byte layout of the program's records.
//
// Every record is an 8-byte discriminator, sha256("account:<Name>")[:8],
// followed by the Borsh encoding of its fields in declaration order. The
// allocation size of a record is that header plus the sum of its field widths;
// adding or removing a field changes the size and is a breaking schema change.
package account

import (
	"bytes"
	"crypto/sha256"
	"fmt"

	bin "github.com/gagliardetto/binary"

	"github.com/sea-sol/prediction-markets/internal/domain"
)

const (
	// DiscriminatorSize is the header overhead of every record.
	DiscriminatorSize = 8

	keySize = 32

	// GlobalSpace: admin, fee_authority, creator/liquidity/betting fees,
	// decimal, market_count, fee_percentage.
	GlobalSpace = DiscriminatorSize + keySize + keySize + 8 + 8 + 8 + 1 + 8 + 1

	// MarketSpace: creator, feed, quest, market_status, result, token_a,
	// token_b, two supplies, two prices, total_reserve, yes/no counters.
	MarketSpace = DiscriminatorSize + keySize + keySize + 2 + 1 + 1 + keySize + keySize + 8*7
)

var (
	globalDiscriminator = Discriminator("Global")
	marketDiscriminator = Discriminator("Market")
)

// Discriminator returns the 8-byte type tag for the named record.
func Discriminator(name string) [DiscriminatorSize]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [DiscriminatorSize]byte
	copy(d[:], sum[:DiscriminatorSize])
	return d
}

// EncodeGlobal serializes the global config record.
func EncodeGlobal(g domain.GlobalConfig) ([]byte, error) {
	return encode(globalDiscriminator, g, GlobalSpace)
}

// DecodeGlobal parses a global config record.
func DecodeGlobal(data []byte) (domain.GlobalConfig, error) {
	var g domain.GlobalConfig
	err := decode(globalDiscriminator, data, GlobalSpace, &g)
	return g, err
}

// EncodeMarket serializes a market record.
func EncodeMarket(m domain.Market) ([]byte, error) {
	return encode(marketDiscriminator, m, MarketSpace)
}

// DecodeMarket parses a market record.
func DecodeMarket(data []byte) (domain.Market, error) {
	var m domain.Market
	err := decode(marketDiscriminator, data, MarketSpace, &m)
	return m, err
}

func encode(disc [DiscriminatorSize]byte, v any, space int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(space)
	buf.Write(disc[:])
	if err := bin.NewBorshEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("account.encode: %w", err)
	}
	if buf.Len() != space {
		return nil, fmt.Errorf("%w: encoded %d bytes, layout is %d", domain.ErrInvalidAccountData, buf.Len(), space)
	}
	return buf.Bytes(), nil
}

func decode(disc [DiscriminatorSize]byte, data []byte, space int, v any) error {
	if len(data) != space {
		return fmt.Errorf("%w: got %d bytes, layout is %d", domain.ErrInvalidAccountData, len(data), space)
	}
	if !bytes.Equal(data[:DiscriminatorSize], disc[:]) {
		return fmt.Errorf("%w: discriminator mismatch", domain.ErrInvalidAccountData)
	}
	if err := bin.NewBorshDecoder(data[DiscriminatorSize:]).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidAccountData, err)
	}
	return nil
}
