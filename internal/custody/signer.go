package custody

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/sea-sol/prediction-markets/internal/domain"
)

// Signer is the capability that lets the program authorize transfers out of a
// market's custody. Only Deriver.Derive builds a usable one; the zero value
// verifies against nothing.
type Signer struct {
	address solana.PublicKey
	seeds   [][]byte
	bump    uint8
	market  solana.PublicKey
}

// Address is the custody authority address.
func (s Signer) Address() solana.PublicKey { return s.address }

// Market is the market the authority was derived for.
func (s Signer) Market() solana.PublicKey { return s.market }

// Bump is the canonical bump seed found during derivation.
func (s Signer) Bump() uint8 { return s.bump }

// SignerSeeds returns a copy of the full seed material, bump included.
func (s Signer) SignerSeeds() [][]byte {
	out := make([][]byte, 0, len(s.seeds)+1)
	for _, seed := range s.seeds {
		out = append(out, append([]byte(nil), seed...))
	}
	return append(out, []byte{s.bump})
}

// Verify re-derives the address from the seed material under programID.
// The runtime calls it before honouring any custody-signed instruction.
func (s Signer) Verify(programID solana.PublicKey) error {
	if len(s.seeds) == 0 {
		return fmt.Errorf("%w: empty custody signer", domain.ErrAuthorization)
	}
	addr, err := solana.CreateProgramAddress(s.SignerSeeds(), programID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAuthorization, err)
	}
	if !addr.Equals(s.address) {
		return fmt.Errorf("%w: custody seeds derive %s, not %s", domain.ErrAuthorization, addr, s.address)
	}
	return nil
}

// Authorizes verifies the signer and checks it is the authority of account.
func (s Signer) Authorizes(programID, account solana.PublicKey) error {
	if err := s.Verify(programID); err != nil {
		return err
	}
	if !s.address.Equals(account) {
		return fmt.Errorf("%w: signer %s cannot act for %s", domain.ErrAuthorization, s.address, account)
	}
	return nil
}
