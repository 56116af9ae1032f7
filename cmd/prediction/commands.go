package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/sea-sol/prediction-markets/internal/application/engine"
	"github.com/sea-sol/prediction-markets/internal/domain"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"init":          runInit,
	"update-global": runUpdateGlobal,
	"airdrop":       runAirdrop,
	"create":        runCreate,
	"bet":           runBet,
	"liquidity":     runLiquidity,
	"withdraw":      runWithdraw,
	"resolve":       runResolve,
	"show":          runShow,
}

func runInit(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	signer := fs.String("signer", "", "admin private key (base58)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	admin, err := parseSigner(*signer)
	if err != nil {
		return err
	}
	p, err := a.cfg.GlobalParams()
	if err != nil {
		return err
	}

	g, err := a.engine.InitGlobal(ctx, admin, p)
	if err != nil {
		return err
	}
	addr, err := a.deriver.GlobalAddress()
	if err != nil {
		return err
	}
	a.console.PrintGlobal(addr, g)
	return nil
}

func runUpdateGlobal(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("update-global", flag.ContinueOnError)
	signer := fs.String("signer", "", "admin private key (base58)")
	feePct := fs.Int("fee-percentage", -1, "override fee_percentage from config")
	bettingFee := fs.Int64("betting-fee", -1, "override betting_user_fee_amount from config (lamports)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	admin, err := parseSigner(*signer)
	if err != nil {
		return err
	}
	p, err := a.cfg.GlobalParams()
	if err != nil {
		return err
	}
	if *feePct >= 0 {
		if *feePct > domain.MaxFeePercentage {
			return fmt.Errorf("%w: fee percentage %d", domain.ErrInvalidParams, *feePct)
		}
		p.FeePercentage = uint8(*feePct)
	}
	if *bettingFee >= 0 {
		p.BettingUserFeeAmount = uint64(*bettingFee)
	}

	cfg, err := a.engine.LoadGlobal(ctx)
	if err != nil {
		return err
	}
	g, err := a.engine.UpdateGlobal(ctx, cfg, admin, p)
	if err != nil {
		return err
	}
	addr, err := a.deriver.GlobalAddress()
	if err != nil {
		return err
	}
	a.console.PrintGlobal(addr, g)
	return nil
}

func runAirdrop(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("airdrop", flag.ContinueOnError)
	to := fs.String("to", "", "receiver key")
	amount := fs.Uint64("amount", 0, "lamports to credit")
	if err := fs.Parse(args); err != nil {
		return err
	}
	receiver, err := parseKey("to", *to)
	if err != nil {
		return err
	}
	if err := a.ledger.Airdrop(ctx, receiver, *amount); err != nil {
		return err
	}
	fmt.Printf("%s: %d lamports\n", receiver, a.ledger.Balance(receiver))
	return nil
}

func runCreate(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	signer := fs.String("signer", "", "creator private key (base58)")
	feedKey := fs.String("feed", "", "price feed address")
	quest := fs.Uint("quest", 0, "resolution threshold (0-65535)")
	amount := fs.Uint64("amount", 0, "initial supply of each outcome token")
	price := fs.Uint64("price", 0, "initial price of each outcome token (lamports)")
	nameA := fs.String("name-a", "Yes", "token A name")
	symbolA := fs.String("symbol-a", "YES", "token A symbol")
	uriA := fs.String("uri-a", "", "token A metadata uri")
	nameB := fs.String("name-b", "No", "token B name")
	symbolB := fs.String("symbol-b", "NO", "token B symbol")
	uriB := fs.String("uri-b", "", "token B metadata uri")
	if err := fs.Parse(args); err != nil {
		return err
	}
	creator, err := parseSigner(*signer)
	if err != nil {
		return err
	}
	oracle, err := parseKey("feed", *feedKey)
	if err != nil {
		return err
	}
	if *quest > 0xFFFF {
		return fmt.Errorf("%w: quest %d does not fit 16 bits", domain.ErrInvalidParams, *quest)
	}

	cfg, err := a.engine.LoadGlobal(ctx)
	if err != nil {
		return err
	}
	_, err = a.engine.CreateMarket(ctx, cfg, engine.CreateMarketParams{
		Creator: creator,
		Feed:    oracle,
		MarketParams: domain.MarketParams{
			Quest:       uint16(*quest),
			TokenAmount: *amount,
			TokenPrice:  *price,
			MetadataA:   domain.TokenMetadata{Name: *nameA, Symbol: *symbolA, URI: *uriA},
			MetadataB:   domain.TokenMetadata{Name: *nameB, Symbol: *symbolB, URI: *uriB},
		},
	})
	if err != nil {
		return err
	}
	return showMarket(ctx, a, creator)
}

func runBet(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("bet", flag.ContinueOnError)
	signer := fs.String("signer", "", "bettor private key (base58)")
	creatorKey := fs.String("creator", "", "market creator key")
	sideFlag := fs.String("side", "yes", "yes|no")
	amount := fs.Uint64("amount", 0, "stake (lamports)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	user, err := parseSigner(*signer)
	if err != nil {
		return err
	}
	creator, err := parseKey("creator", *creatorKey)
	if err != nil {
		return err
	}
	side, err := domain.ParseSide(*sideFlag)
	if err != nil {
		return err
	}

	cfg, err := a.engine.LoadGlobal(ctx)
	if err != nil {
		return err
	}
	err = a.engine.PlaceBet(ctx, cfg, engine.BetParams{
		User:         user,
		Creator:      creator,
		FeeAuthority: cfg.FeeAuthority,
		Side:         side,
		Amount:       *amount,
	})
	if err != nil {
		return err
	}
	return showMarket(ctx, a, creator)
}

func runLiquidity(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("liquidity", flag.ContinueOnError)
	signer := fs.String("signer", "", "provider private key (base58)")
	creatorKey := fs.String("creator", "", "market creator key")
	amount := fs.Uint64("amount", 0, "deposit (lamports), minted on both sides")
	if err := fs.Parse(args); err != nil {
		return err
	}
	provider, err := parseSigner(*signer)
	if err != nil {
		return err
	}
	creator, err := parseKey("creator", *creatorKey)
	if err != nil {
		return err
	}

	cfg, err := a.engine.LoadGlobal(ctx)
	if err != nil {
		return err
	}
	if err := a.engine.AddLiquidity(ctx, cfg, engine.LiquidityParams{Provider: provider, Creator: creator, Amount: *amount}); err != nil {
		return err
	}
	return showMarket(ctx, a, creator)
}

func runWithdraw(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("withdraw", flag.ContinueOnError)
	signer := fs.String("signer", "", "admin private key (base58)")
	creatorKey := fs.String("creator", "", "market creator key")
	to := fs.String("to", "", "receiver key")
	amount := fs.Uint64("amount", 0, "lamports to withdraw")
	if err := fs.Parse(args); err != nil {
		return err
	}
	admin, err := parseSigner(*signer)
	if err != nil {
		return err
	}
	creator, err := parseKey("creator", *creatorKey)
	if err != nil {
		return err
	}
	receiver, err := parseKey("to", *to)
	if err != nil {
		return err
	}

	cfg, err := a.engine.LoadGlobal(ctx)
	if err != nil {
		return err
	}
	err = a.engine.Withdraw(ctx, cfg, engine.WithdrawParams{
		Admin:    admin,
		Creator:  creator,
		Receiver: receiver,
		Amount:   *amount,
	})
	if err != nil {
		return err
	}
	return showMarket(ctx, a, creator)
}

func runResolve(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	signer := fs.String("signer", "", "caller private key (base58)")
	creatorKey := fs.String("creator", "", "market creator key")
	feedKey := fs.String("feed", "", "expected feed address (optional)")
	value := fs.String("value", "", "feed value when oracle.feed_url is empty")
	if err := fs.Parse(args); err != nil {
		return err
	}
	caller, err := parseSigner(*signer)
	if err != nil {
		return err
	}
	creator, err := parseKey("creator", *creatorKey)
	if err != nil {
		return err
	}
	var oracle solana.PublicKey
	if *feedKey != "" {
		if oracle, err = parseKey("feed", *feedKey); err != nil {
			return err
		}
	}

	if a.cfg.Oracle.FeedURL == "" {
		if *value == "" {
			return fmt.Errorf("%w: -value is required without oracle.feed_url", domain.ErrInvalidParams)
		}
		v, err := decimal.NewFromString(*value)
		if err != nil {
			return fmt.Errorf("%w: value %q: %v", domain.ErrInvalidParams, *value, err)
		}
		view, err := a.engine.Market(ctx, creator)
		if err != nil {
			return err
		}
		a.static.Set(view.Market.Feed, domain.FeedReading{Value: v, LastUpdate: time.Now()})
	}

	cfg, err := a.engine.LoadGlobal(ctx)
	if err != nil {
		return err
	}
	result, err := a.engine.GetResolution(ctx, cfg, engine.ResolveParams{Caller: caller, Creator: creator, Feed: oracle})
	if err != nil {
		return err
	}
	fmt.Printf("result: %v\n", result)
	return showMarket(ctx, a, creator)
}

func runShow(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	creatorKey := fs.String("creator", "", "market creator key (empty: global config)")
	events := fs.Bool("events", false, "print the event journal")
	since := fs.Duration("since", 24*time.Hour, "journal window")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *events {
		now := time.Now()
		evs, err := a.store.Events(ctx, now.Add(-*since), now)
		if err != nil {
			return err
		}
		a.console.PrintEvents(evs)
		return nil
	}

	if *creatorKey != "" {
		creator, err := parseKey("creator", *creatorKey)
		if err != nil {
			return err
		}
		return showMarket(ctx, a, creator)
	}

	g, err := a.engine.LoadGlobal(ctx)
	if err != nil {
		return err
	}
	addr, err := a.deriver.GlobalAddress()
	if err != nil {
		return err
	}
	a.console.PrintGlobal(addr, g)
	return nil
}

func runKeygen(w io.Writer) {
	wallet := solana.NewWallet()
	fmt.Fprintf(w, "public:  %s\n", wallet.PublicKey())
	fmt.Fprintf(w, "private: %s\n", wallet.PrivateKey)
}

func showMarket(ctx context.Context, a *app, creator solana.PublicKey) error {
	view, err := a.engine.Market(ctx, creator)
	if err != nil {
		return err
	}
	a.console.PrintMarket(view.Address, view.Market, view.CustodyBalance)
	return nil
}

// parseSigner exige la clave privada del firmante y devuelve su clave pública.
func parseSigner(s string) (solana.PublicKey, error) {
	if s == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: -signer is required", domain.ErrInvalidParams)
	}
	priv, err := solana.PrivateKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: -signer must be a base58 private key", domain.ErrInvalidParams)
	}
	return priv.PublicKey(), nil
}

// parseKey acepta una clave pública o privada en base58.
func parseKey(name, s string) (solana.PublicKey, error) {
	if s == "" {
		return solana.PublicKey{}, fmt.Errorf("%w: -%s is required", domain.ErrInvalidParams, name)
	}
	if pk, err := solana.PublicKeyFromBase58(s); err == nil {
		return pk, nil
	}
	priv, err := solana.PrivateKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: -%s is not a base58 key", domain.ErrInvalidParams, name)
	}
	return priv.PublicKey(), nil
}
