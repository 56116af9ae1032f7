package domain

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const (
	// MaxFeePercentage es el tope de fee_percentage (porcentaje entero).
	MaxFeePercentage = 100
	// MaxDecimal mantiene 10^decimal dentro de u64.
	MaxDecimal = 18
)

// GlobalConfig es el registro singleton con el fee schedule del programa.
// El orden de los campos es el layout persistido.
type GlobalConfig struct {
	Admin                  solana.PublicKey
	FeeAuthority           solana.PublicKey
	CreatorFeeAmount       uint64
	LiquidityUserFeeAmount uint64
	BettingUserFeeAmount   uint64
	Decimal                uint8
	MarketCount            uint64
	FeePercentage          uint8
}

// GlobalParams son los parámetros de init_global y update_global.
type GlobalParams struct {
	FeeAuthority           solana.PublicKey
	CreatorFeeAmount       uint64
	LiquidityUserFeeAmount uint64
	BettingUserFeeAmount   uint64
	Decimal                uint8
	FeePercentage          uint8
}

// Validate comprueba rangos antes de escribir el registro.
func (p GlobalParams) Validate() error {
	if p.FeeAuthority.IsZero() {
		return fmt.Errorf("%w: fee authority is required", ErrInvalidParams)
	}
	if p.FeePercentage > MaxFeePercentage {
		return fmt.Errorf("%w: fee percentage %d > %d", ErrInvalidParams, p.FeePercentage, MaxFeePercentage)
	}
	if p.Decimal > MaxDecimal {
		return fmt.Errorf("%w: decimal %d > %d", ErrInvalidParams, p.Decimal, MaxDecimal)
	}
	return nil
}

// Apply copia los settings al registro. Admin y MarketCount no se tocan.
func (g *GlobalConfig) Apply(p GlobalParams) {
	g.FeeAuthority = p.FeeAuthority
	g.CreatorFeeAmount = p.CreatorFeeAmount
	g.LiquidityUserFeeAmount = p.LiquidityUserFeeAmount
	g.BettingUserFeeAmount = p.BettingUserFeeAmount
	g.Decimal = p.Decimal
	g.FeePercentage = p.FeePercentage
}

// SameSettings devuelve true si ambos registros tienen el mismo admin y fee schedule.
// MarketCount es informativo y se ignora.
func (g GlobalConfig) SameSettings(o GlobalConfig) bool {
	return g.Admin.Equals(o.Admin) &&
		g.FeeAuthority.Equals(o.FeeAuthority) &&
		g.CreatorFeeAmount == o.CreatorFeeAmount &&
		g.LiquidityUserFeeAmount == o.LiquidityUserFeeAmount &&
		g.BettingUserFeeAmount == o.BettingUserFeeAmount &&
		g.Decimal == o.Decimal &&
		g.FeePercentage == o.FeePercentage
}

// IncrementMarketCount suma un mercado creado al contador.
func (g *GlobalConfig) IncrementMarketCount() error {
	next, err := checkedAdd(g.MarketCount, 1)
	if err != nil {
		return err
	}
	g.MarketCount = next
	return nil
}

// Scale convierte unidades enteras de outcome token a unidades base (× 10^decimal).
func (g GlobalConfig) Scale(amount uint64) (uint64, error) {
	return ScaleByDecimal(amount, g.Decimal)
}
