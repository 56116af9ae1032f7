// Package custody derives the program-owned signing authority of each market.
//
// A market's pooled funds are held by an address that has no private key:
// it is a program-derived address computed from a fixed domain seed plus the
// market's own address. The program proves it may move those funds by
// presenting the seed material (a Signer) to the ledger runtime, which
// re-derives the address before honouring the transfer.
package custody

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/sea-sol/prediction-markets/internal/domain"
)

// Default seeds. Changing a seed changes every derived address.
const (
	DefaultGlobalSeed  = "global"
	DefaultMarketSeed  = "market"
	DefaultCustodySeed = "custody"
	DefaultMintSeed    = "mint"
)

// Seeds holds the deployment-fixed domain seeds.
type Seeds struct {
	Global  string
	Market  string
	Custody string
	Mint    string
}

// DefaultSeeds returns the seeds used when config leaves them empty.
func DefaultSeeds() Seeds {
	return Seeds{
		Global:  DefaultGlobalSeed,
		Market:  DefaultMarketSeed,
		Custody: DefaultCustodySeed,
		Mint:    DefaultMintSeed,
	}
}

// Deriver computes the program-derived addresses of one deployment.
type Deriver struct {
	program solana.PublicKey
	seeds   Seeds
}

// NewDeriver builds a Deriver. Empty seeds fall back to the defaults.
func NewDeriver(program solana.PublicKey, seeds Seeds) *Deriver {
	def := DefaultSeeds()
	if seeds.Global == "" {
		seeds.Global = def.Global
	}
	if seeds.Market == "" {
		seeds.Market = def.Market
	}
	if seeds.Custody == "" {
		seeds.Custody = def.Custody
	}
	if seeds.Mint == "" {
		seeds.Mint = def.Mint
	}
	return &Deriver{program: program, seeds: seeds}
}

// Program returns the program id addresses are derived under.
func (d *Deriver) Program() solana.PublicKey { return d.program }

// GlobalAddress is the address of the GlobalConfig singleton.
func (d *Deriver) GlobalAddress() (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(d.seeds.Global)}, d.program)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("custody.GlobalAddress: %w", err)
	}
	return addr, nil
}

// MarketAddress is the address of the creator's market record.
func (d *Deriver) MarketAddress(creator solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress([][]byte{[]byte(d.seeds.Market), creator.Bytes()}, d.program)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("custody.MarketAddress: %w", err)
	}
	return addr, nil
}

// OutcomeMint is the registry address of one outcome token of a market.
func (d *Deriver) OutcomeMint(market solana.PublicKey, side domain.Side) (solana.PublicKey, error) {
	tag := "b"
	if side == domain.SideYes {
		tag = "a"
	}
	seeds := [][]byte{[]byte(d.seeds.Mint), market.Bytes(), []byte(tag)}
	addr, _, err := solana.FindProgramAddress(seeds, d.program)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("custody.OutcomeMint: %w", err)
	}
	return addr, nil
}

// Derive returns the custody signer of a market.
func (d *Deriver) Derive(market solana.PublicKey) (Signer, error) {
	seeds := [][]byte{[]byte(d.seeds.Custody), market.Bytes()}
	addr, bump, err := solana.FindProgramAddress(seeds, d.program)
	if err != nil {
		return Signer{}, fmt.Errorf("custody.Derive: %w", err)
	}
	return Signer{address: addr, seeds: seeds, bump: bump, market: market}, nil
}

// Vault is the custody token account of mint, owned by the signer.
func Vault(s Signer, mint solana.PublicKey) (solana.PublicKey, error) {
	return TokenAccount(s.Address(), mint)
}

// TokenAccount is the associated token account of owner for mint.
func TokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("custody.TokenAccount: %w", err)
	}
	return addr, nil
}
