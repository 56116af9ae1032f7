package domain

import (
	"errors"
	"fmt"
)

// Taxonomía de errores del engine. Todo error aborta la operación completa.
var (
	ErrArithmetic    = errors.New("arithmetic error")
	ErrAuthorization = errors.New("authorization error")
	ErrInvalidState  = errors.New("invalid state")
	ErrStaleFeed     = errors.New("stale feed")
)

// Errores del runtime y de validación de parámetros.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidAccountData = errors.New("invalid account data")
	ErrInvalidParams      = errors.New("invalid parameters")
)

// Errores específicos; envuelven la taxonomía para que errors.Is funcione.
var (
	ErrInvalidFeeAuthority = fmt.Errorf("%w: invalid fee authority", ErrAuthorization)
	ErrInvalidAdmin        = fmt.Errorf("%w: invalid admin", ErrAuthorization)
	ErrMissingSignature    = fmt.Errorf("%w: missing signature", ErrAuthorization)
	ErrMarketNotActive     = fmt.Errorf("%w: market not active", ErrInvalidState)
	ErrAlreadyInitialized  = fmt.Errorf("%w: global already initialized", ErrInvalidState)
	ErrStaleConfig         = fmt.Errorf("%w: global config does not match ledger", ErrInvalidState)
	ErrInvalidFeed         = fmt.Errorf("%w: feed does not match market", ErrInvalidParams)
)
