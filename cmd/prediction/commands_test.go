package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sea-sol/prediction-markets/config"
	"github.com/sea-sol/prediction-markets/internal/domain"
)

func TestParseKey(t *testing.T) {
	wallet := solana.NewWallet()

	pk, err := parseKey("signer", wallet.PublicKey().String())
	require.NoError(t, err)
	assert.Equal(t, wallet.PublicKey(), pk)

	pk, err = parseKey("signer", wallet.PrivateKey.String())
	require.NoError(t, err)
	assert.Equal(t, wallet.PublicKey(), pk)

	_, err = parseKey("signer", "")
	assert.ErrorIs(t, err, domain.ErrInvalidParams)

	_, err = parseKey("signer", "not-base58-0OIl")
	assert.ErrorIs(t, err, domain.ErrInvalidParams)
}

func TestParseSigner_RequiresPrivateKey(t *testing.T) {
	wallet := solana.NewWallet()

	pk, err := parseSigner(wallet.PrivateKey.String())
	require.NoError(t, err)
	assert.Equal(t, wallet.PublicKey(), pk)

	_, err = parseSigner(wallet.PublicKey().String())
	assert.ErrorIs(t, err, domain.ErrInvalidParams)

	_, err = parseSigner("")
	assert.ErrorIs(t, err, domain.ErrInvalidParams)
}

func TestRunKeygen(t *testing.T) {
	var buf bytes.Buffer
	runKeygen(&buf)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	pub := strings.TrimSpace(strings.TrimPrefix(lines[0], "public:"))
	priv := strings.TrimSpace(strings.TrimPrefix(lines[1], "private:"))

	derived, err := parseSigner(priv)
	require.NoError(t, err)
	assert.Equal(t, pub, derived.String())
}

func TestCommands_EndToEnd(t *testing.T) {
	ctx := context.Background()
	adminW, creatorW, userW := solana.NewWallet(), solana.NewWallet(), solana.NewWallet()
	creator, user := creatorW.PublicKey(), userW.PublicKey()
	oracle := solana.NewWallet().PublicKey()

	cfg := &config.Config{
		Program: config.ProgramConfig{ID: config.DefaultProgramID},
		Global: config.GlobalConfig{
			FeeAuthority:         solana.NewWallet().PublicKey().String(),
			CreatorFeeAmount:     1_000,
			BettingUserFeeAmount: 20,
			Decimal:              6,
			FeePercentage:        10,
		},
		Oracle:  config.OracleConfig{StalenessWindowSeconds: 300},
		Storage: config.StorageConfig{DSN: filepath.Join(t.TempDir(), "cli.db")},
	}

	a, err := newApp(ctx, cfg)
	require.NoError(t, err)
	defer a.close()

	run := func(name string, args ...string) {
		t.Helper()
		require.NoError(t, commands[name](ctx, a, args), name)
	}

	// un firmante sin clave privada no puede operar
	err = commands["init"](ctx, a, []string{"-signer", adminW.PublicKey().String()})
	assert.ErrorIs(t, err, domain.ErrInvalidParams)

	run("init", "-signer", adminW.PrivateKey.String())
	run("airdrop", "-to", creator.String(), "-amount", "1000000")
	run("airdrop", "-to", user.String(), "-amount", "1000000")
	run("create", "-signer", creatorW.PrivateKey.String(), "-feed", oracle.String(), "-quest", "100", "-amount", "1000", "-price", "10")
	run("bet", "-signer", userW.PrivateKey.String(), "-creator", creator.String(), "-side", "yes", "-amount", "50")
	run("resolve", "-signer", userW.PrivateKey.String(), "-creator", creator.String(), "-value", "150")

	view, err := a.engine.Market(ctx, creator)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, view.Market.MarketStatus)
	assert.True(t, view.Market.Result)
	assert.Equal(t, uint64(2), view.Market.YesAmount)

	// el estado sobrevive al reabrir la base de datos
	a.close()
	b, err := newApp(ctx, cfg)
	require.NoError(t, err)
	defer b.close()

	reopened, err := b.engine.Market(ctx, creator)
	require.NoError(t, err)
	assert.Equal(t, view.Market, reopened.Market)
	assert.Equal(t, view.CustodyBalance, reopened.CustodyBalance)

	require.NoError(t, commands["show"](ctx, b, []string{"-events"}))
	err = commands["bet"](ctx, b, []string{"-signer", userW.PrivateKey.String(), "-creator", creator.String(), "-amount", "1"})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}
