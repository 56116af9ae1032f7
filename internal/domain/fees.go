package domain

// SplitBettingFee reparte el fee de apuesta entre la fee authority y el creador.
//
//	toAuthority = floor(amount × pct / 100)
//	toCreator   = amount - toAuthority
//
// pct > 100 hace que toAuthority supere amount y falla con ErrArithmetic.
func SplitBettingFee(amount uint64, pct uint8) (toAuthority, toCreator uint64, err error) {
	scaled, err := checkedMul(amount, uint64(pct))
	if err != nil {
		return 0, 0, err
	}
	toAuthority, err = checkedDiv(scaled, 100)
	if err != nil {
		return 0, 0, err
	}
	toCreator, err = checkedSub(amount, toAuthority)
	if err != nil {
		return 0, 0, err
	}
	return toAuthority, toCreator, nil
}
