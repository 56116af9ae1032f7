package ledger

import (
	"fmt"
	"time"

	gmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/sea-sol/prediction-markets/internal/custody"
	"github.com/sea-sol/prediction-markets/internal/domain"
	"github.com/sea-sol/prediction-markets/internal/ports"
)

// tx implementa ports.Tx sobre una copia privada del snapshot.
type tx struct {
	program solana.PublicKey
	state   ports.Snapshot
	signers map[solana.PublicKey]bool
	now     time.Time
	events  []domain.Event
	dirty   bool
}

func newTx(program solana.PublicKey, state ports.Snapshot, signers []solana.PublicKey, now time.Time) *tx {
	set := make(map[solana.PublicKey]bool, len(signers))
	for _, s := range signers {
		set[s] = true
	}
	return &tx{program: program, state: state, signers: set, now: now}
}

func (t *tx) ProgramID() solana.PublicKey { return t.program }

func (t *tx) Now() time.Time { return t.now }

func (t *tx) Emit(ev domain.Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = t.now
	}
	t.events = append(t.events, ev)
	t.dirty = true
}

func (t *tx) requireSigner(addr solana.PublicKey) error {
	if !t.signers[addr] {
		return errMissingSigner(addr)
	}
	return nil
}

// ─── Accounts ────────────────────────────────────────────────────────────────

func (t *tx) CreateAccount(payer, address solana.PublicKey, space int) error {
	if err := t.requireSigner(payer); err != nil {
		return err
	}
	if space <= 0 {
		return fmt.Errorf("%w: account space %d", domain.ErrInvalidParams, space)
	}
	if _, ok := t.state.Accounts[address]; ok {
		return fmt.Errorf("%w: account %s", domain.ErrAlreadyExists, address)
	}
	t.state.Accounts[address] = make([]byte, space)
	t.dirty = true
	return nil
}

func (t *tx) LoadAccount(address solana.PublicKey) ([]byte, error) {
	data, ok := t.state.Accounts[address]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", domain.ErrNotFound, address)
	}
	return append([]byte(nil), data...), nil
}

func (t *tx) StoreAccount(address solana.PublicKey, data []byte) error {
	cur, ok := t.state.Accounts[address]
	if !ok {
		return fmt.Errorf("%w: account %s", domain.ErrNotFound, address)
	}
	if len(data) != len(cur) {
		return fmt.Errorf("%w: %d bytes into %d-byte account", domain.ErrInvalidAccountData, len(data), len(cur))
	}
	t.state.Accounts[address] = append([]byte(nil), data...)
	t.dirty = true
	return nil
}

// ─── Bank ────────────────────────────────────────────────────────────────────

func (t *tx) Balance(address solana.PublicKey) uint64 {
	return t.state.Balances[address]
}

func (t *tx) Transfer(from, to solana.PublicKey, amount uint64) error {
	if err := t.requireSigner(from); err != nil {
		return err
	}
	return t.move(from, to, amount)
}

func (t *tx) TransferSigned(from, to solana.PublicKey, amount uint64, signer custody.Signer) error {
	if err := signer.Authorizes(t.program, from); err != nil {
		return err
	}
	return t.move(from, to, amount)
}

func (t *tx) move(from, to solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	bal := t.state.Balances[from]
	if bal < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", domain.ErrInsufficientFunds, from, bal, amount)
	}
	if from.Equals(to) {
		return nil
	}
	if err := t.credit(to, amount); err != nil {
		return err
	}
	t.state.Balances[from] = bal - amount
	return nil
}

func (t *tx) credit(to solana.PublicKey, amount uint64) error {
	next, overflow := gmath.SafeAdd(t.state.Balances[to], amount)
	if overflow {
		return fmt.Errorf("%w: balance of %s overflows", domain.ErrArithmetic, to)
	}
	t.state.Balances[to] = next
	t.dirty = true
	return nil
}

// ─── TokenRegistry ───────────────────────────────────────────────────────────

func (t *tx) CreateMint(payer, mint solana.PublicKey, decimals uint8, authority solana.PublicKey) error {
	if err := t.requireSigner(payer); err != nil {
		return err
	}
	if _, ok := t.state.Mints[mint]; ok {
		return fmt.Errorf("%w: mint %s", domain.ErrAlreadyExists, mint)
	}
	t.state.Mints[mint] = ports.Mint{Decimals: decimals, Authority: authority}
	t.dirty = true
	return nil
}

func (t *tx) CreateTokenAccount(payer, mint, owner solana.PublicKey) (solana.PublicKey, error) {
	if _, ok := t.state.Mints[mint]; !ok {
		return solana.PublicKey{}, fmt.Errorf("%w: mint %s", domain.ErrNotFound, mint)
	}
	addr, err := custody.TokenAccount(owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if _, ok := t.state.TokenAccounts[addr]; ok {
		return addr, nil
	}
	if err := t.requireSigner(payer); err != nil {
		return solana.PublicKey{}, err
	}
	t.state.TokenAccounts[addr] = ports.TokenAccount{Mint: mint, Owner: owner}
	t.dirty = true
	return addr, nil
}

func (t *tx) MintTo(mint, destination solana.PublicKey, amount uint64, authority custody.Signer) error {
	m, ok := t.state.Mints[mint]
	if !ok {
		return fmt.Errorf("%w: mint %s", domain.ErrNotFound, mint)
	}
	if err := authority.Authorizes(t.program, m.Authority); err != nil {
		return err
	}
	dst, err := t.tokenAccount(destination, mint)
	if err != nil {
		return err
	}

	supply, overflow := gmath.SafeAdd(m.Supply, amount)
	if overflow {
		return fmt.Errorf("%w: supply of %s overflows", domain.ErrArithmetic, mint)
	}
	bal, overflow := gmath.SafeAdd(dst.Amount, amount)
	if overflow {
		return fmt.Errorf("%w: token balance of %s overflows", domain.ErrArithmetic, destination)
	}

	m.Supply = supply
	dst.Amount = bal
	t.state.Mints[mint] = m
	t.state.TokenAccounts[destination] = dst
	t.dirty = true
	return nil
}

func (t *tx) TransferTokens(source, destination solana.PublicKey, amount uint64, authority custody.Signer) error {
	src, ok := t.state.TokenAccounts[source]
	if !ok {
		return fmt.Errorf("%w: token account %s", domain.ErrNotFound, source)
	}
	if err := authority.Authorizes(t.program, src.Owner); err != nil {
		return err
	}
	dst, err := t.tokenAccount(destination, src.Mint)
	if err != nil {
		return err
	}
	if src.Amount < amount {
		return fmt.Errorf("%w: token account %s has %d, needs %d", domain.ErrInsufficientFunds, source, src.Amount, amount)
	}
	if source.Equals(destination) || amount == 0 {
		return nil
	}
	bal, overflow := gmath.SafeAdd(dst.Amount, amount)
	if overflow {
		return fmt.Errorf("%w: token balance of %s overflows", domain.ErrArithmetic, destination)
	}

	src.Amount -= amount
	dst.Amount = bal
	t.state.TokenAccounts[source] = src
	t.state.TokenAccounts[destination] = dst
	t.dirty = true
	return nil
}

func (t *tx) RegisterMetadata(mint solana.PublicKey, md domain.TokenMetadata, authority custody.Signer) error {
	m, ok := t.state.Mints[mint]
	if !ok {
		return fmt.Errorf("%w: mint %s", domain.ErrNotFound, mint)
	}
	if err := authority.Authorizes(t.program, m.Authority); err != nil {
		return err
	}
	if _, ok := t.state.Metadata[mint]; ok {
		return fmt.Errorf("%w: metadata for %s", domain.ErrAlreadyExists, mint)
	}
	t.state.Metadata[mint] = md
	t.dirty = true
	return nil
}

func (t *tx) TokenBalance(account solana.PublicKey) (uint64, error) {
	ta, ok := t.state.TokenAccounts[account]
	if !ok {
		return 0, fmt.Errorf("%w: token account %s", domain.ErrNotFound, account)
	}
	return ta.Amount, nil
}

func (t *tx) MintDecimals(mint solana.PublicKey) (uint8, error) {
	m, ok := t.state.Mints[mint]
	if !ok {
		return 0, fmt.Errorf("%w: mint %s", domain.ErrNotFound, mint)
	}
	return m.Decimals, nil
}

func (t *tx) tokenAccount(addr, mint solana.PublicKey) (ports.TokenAccount, error) {
	ta, ok := t.state.TokenAccounts[addr]
	if !ok {
		return ports.TokenAccount{}, fmt.Errorf("%w: token account %s", domain.ErrNotFound, addr)
	}
	if !ta.Mint.Equals(mint) {
		return ports.TokenAccount{}, fmt.Errorf("%w: token account %s holds mint %s, not %s",
			domain.ErrInvalidParams, addr, ta.Mint, mint)
	}
	return ta, nil
}

var _ ports.Tx = (*tx)(nil)
