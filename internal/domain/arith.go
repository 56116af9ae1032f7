package domain

import (
	"fmt"

	gmath "github.com/ethereum/go-ethereum/common/math"
)

// Aritmética u64 chequeada. Todo overflow, underflow o división por cero
// devuelve ErrArithmetic.

func checkedAdd(x, y uint64) (uint64, error) {
	z, overflow := gmath.SafeAdd(x, y)
	if overflow {
		return 0, fmt.Errorf("%w: %d + %d overflows", ErrArithmetic, x, y)
	}
	return z, nil
}

func checkedSub(x, y uint64) (uint64, error) {
	z, underflow := gmath.SafeSub(x, y)
	if underflow {
		return 0, fmt.Errorf("%w: %d - %d underflows", ErrArithmetic, x, y)
	}
	return z, nil
}

func checkedMul(x, y uint64) (uint64, error) {
	z, overflow := gmath.SafeMul(x, y)
	if overflow {
		return 0, fmt.Errorf("%w: %d * %d overflows", ErrArithmetic, x, y)
	}
	return z, nil
}

func checkedDiv(x, y uint64) (uint64, error) {
	if y == 0 {
		return 0, fmt.Errorf("%w: %d / 0", ErrArithmetic, x)
	}
	return x / y, nil
}

// ScaleByDecimal devuelve amount × 10^decimal con chequeo de overflow.
func ScaleByDecimal(amount uint64, decimal uint8) (uint64, error) {
	out := amount
	for i := uint8(0); i < decimal; i++ {
		var err error
		if out, err = checkedMul(out, 10); err != nil {
			return 0, err
		}
	}
	return out, nil
}
