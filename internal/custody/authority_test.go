package custody

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sea-sol/prediction-markets/internal/domain"
)

var testProgram = solana.MustPublicKeyFromBase58("FW9KvGkRcnibqm5LSE4J8sq3homgVizKGBoNA511gR2s")

func TestDerive_Deterministic(t *testing.T) {
	d := NewDeriver(testProgram, Seeds{})
	creator := solana.NewWallet().PublicKey()

	market, err := d.MarketAddress(creator)
	require.NoError(t, err)
	again, err := d.MarketAddress(creator)
	require.NoError(t, err)
	assert.Equal(t, market, again)

	s1, err := d.Derive(market)
	require.NoError(t, err)
	s2, err := d.Derive(market)
	require.NoError(t, err)
	assert.Equal(t, s1.Address(), s2.Address())
	assert.Equal(t, s1.Bump(), s2.Bump())
	assert.Equal(t, market, s1.Market())
	assert.NotEqual(t, market, s1.Address())
}

func TestDerive_DifferentMarketsDifferentAuthorities(t *testing.T) {
	d := NewDeriver(testProgram, Seeds{})
	a, err := d.Derive(solana.NewWallet().PublicKey())
	require.NoError(t, err)
	b, err := d.Derive(solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.NotEqual(t, a.Address(), b.Address())
}

func TestSigner_Verify(t *testing.T) {
	d := NewDeriver(testProgram, Seeds{})
	s, err := d.Derive(solana.NewWallet().PublicKey())
	require.NoError(t, err)

	assert.NoError(t, s.Verify(testProgram))
	assert.NoError(t, s.Authorizes(testProgram, s.Address()))

	other := solana.NewWallet().PublicKey()
	assert.ErrorIs(t, s.Verify(other), domain.ErrAuthorization, "another program cannot use the seeds")
	assert.ErrorIs(t, s.Authorizes(testProgram, other), domain.ErrAuthorization)
}

func TestSigner_ForgedSeedsRejected(t *testing.T) {
	d := NewDeriver(testProgram, Seeds{})
	genuine, err := d.Derive(solana.NewWallet().PublicKey())
	require.NoError(t, err)

	forged := Signer{
		address: genuine.Address(),
		seeds:   [][]byte{[]byte("custody"), solana.NewWallet().PublicKey().Bytes()},
		bump:    genuine.Bump(),
	}
	assert.ErrorIs(t, forged.Verify(testProgram), domain.ErrAuthorization)
	assert.ErrorIs(t, Signer{}.Verify(testProgram), domain.ErrAuthorization)
}

func TestSigner_SeedsAreCopied(t *testing.T) {
	d := NewDeriver(testProgram, Seeds{})
	s, err := d.Derive(solana.NewWallet().PublicKey())
	require.NoError(t, err)

	seeds := s.SignerSeeds()
	seeds[0][0] ^= 0xff
	assert.NoError(t, s.Verify(testProgram))
}

func TestOutcomeMint_DistinctPerSide(t *testing.T) {
	d := NewDeriver(testProgram, Seeds{})
	market := solana.NewWallet().PublicKey()
	a, err := d.OutcomeMint(market, domain.SideYes)
	require.NoError(t, err)
	b, err := d.OutcomeMint(market, domain.SideNo)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestNewDeriver_CustomSeeds(t *testing.T) {
	def := NewDeriver(testProgram, Seeds{})
	custom := NewDeriver(testProgram, Seeds{Custody: "vault"})
	market := solana.NewWallet().PublicKey()

	s1, err := def.Derive(market)
	require.NoError(t, err)
	s2, err := custom.Derive(market)
	require.NoError(t, err)
	assert.NotEqual(t, s1.Address(), s2.Address())

	g1, err := def.GlobalAddress()
	require.NoError(t, err)
	g2, err := custom.GlobalAddress()
	require.NoError(t, err)
	assert.Equal(t, g1, g2)
}
