package notify

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"os"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/sea-sol/prediction-markets/internal/domain"
	"github.com/sea-sol/prediction-markets/internal/ports"
)

// LamportDecimals es la precisión del token nativo en los reportes.
const LamportDecimals = 9

// Console imprime reportes de mercado y el stream de eventos confirmados.
// También implementa ports.EventSink.
type Console struct {
	out io.Writer
}

// NewConsole crea un Console que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un Console para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// Publish imprime una línea por evento.
func (c *Console) Publish(_ context.Context, events []domain.Event) error {
	for _, ev := range events {
		fmt.Fprintln(c.out, eventLine(ev))
	}
	return nil
}

// PrintGlobal imprime el fee schedule.
func (c *Console) PrintGlobal(addr solana.PublicKey, g domain.GlobalConfig) {
	fmt.Fprintf(c.out, "\nGlobal %s\n", addr)

	table := tablewriter.NewWriter(c.out)
	table.Header("Field", "Value")
	table.Append("admin", g.Admin.String())
	table.Append("fee_authority", g.FeeAuthority.String())
	table.Append("creator_fee", FormatLamports(g.CreatorFeeAmount))
	table.Append("liquidity_user_fee", FormatLamports(g.LiquidityUserFeeAmount))
	table.Append("betting_user_fee", FormatLamports(g.BettingUserFeeAmount))
	table.Append("fee_percentage", fmt.Sprintf("%d%%", g.FeePercentage))
	table.Append("decimal", fmt.Sprintf("%d", g.Decimal))
	table.Append("market_count", fmt.Sprintf("%d", g.MarketCount))
	table.Render()
}

// PrintMarket imprime el estado de un mercado y su custodia.
func (c *Console) PrintMarket(addr solana.PublicKey, m domain.Market, custodyBalance uint64) {
	fmt.Fprintf(c.out, "\nMarket %s  [%s]\n", addr, m.MarketStatus)
	fmt.Fprintf(c.out, "  creator: %s\n", m.Creator)
	fmt.Fprintf(c.out, "  feed:    %s  quest: %d\n", m.Feed, m.Quest)

	table := tablewriter.NewWriter(c.out)
	table.Header("Side", "Mint", "Supply", "Price", "Bets")
	table.Append("YES", short(m.TokenA), fmt.Sprintf("%d", m.TokenAAmount), fmt.Sprintf("%d", m.TokenPriceA), fmt.Sprintf("%d", m.YesAmount))
	table.Append("NO", short(m.TokenB), fmt.Sprintf("%d", m.TokenBAmount), fmt.Sprintf("%d", m.TokenPriceB), fmt.Sprintf("%d", m.NoAmount))
	table.Render()

	fmt.Fprintf(c.out, "  reserve: %d  custody: %s SOL\n", m.TotalReserve, FormatLamports(custodyBalance))
	if m.IsFinished() {
		fmt.Fprintf(c.out, "  RESULT:  %s\n", resultLabel(m.Result))
	}
	fmt.Fprintln(c.out)
}

// PrintEvents imprime el journal de eventos como tabla.
func (c *Console) PrintEvents(events []domain.Event) {
	if len(events) == 0 {
		fmt.Fprintln(c.out, "  no events")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Time", "Kind", "Market", "Actor", "Side", "Amount", "Price A/B")
	for _, ev := range events {
		side := "-"
		if ev.Side != nil {
			side = ev.Side.String()
		}
		prices := "-"
		if ev.PriceA > 0 || ev.PriceB > 0 {
			prices = fmt.Sprintf("%d/%d", ev.PriceA, ev.PriceB)
		}
		table.Append(
			ev.Timestamp.Format("2006-01-02 15:04:05"),
			string(ev.Kind),
			short(ev.Market),
			short(ev.Actor),
			side,
			fmt.Sprintf("%d", ev.Amount),
			prices,
		)
	}
	table.Render()
}

// FormatLamports devuelve amount en unidades enteras del token nativo.
func FormatLamports(amount uint64) string {
	return FormatUnits(amount, LamportDecimals)
}

// FormatUnits escala amount por 10^-decimals sin pérdida.
func FormatUnits(amount uint64, decimals uint8) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals))
	return d.String()
}

// --- helpers ---

func eventLine(ev domain.Event) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %-17s", ev.Timestamp.Format("15:04:05"), ev.Kind)
	if !ev.Market.IsZero() {
		fmt.Fprintf(&sb, " market=%s", short(ev.Market))
	}
	if !ev.Actor.IsZero() {
		fmt.Fprintf(&sb, " actor=%s", short(ev.Actor))
	}
	if ev.Side != nil {
		fmt.Fprintf(&sb, " side=%s", ev.Side)
	}
	if ev.Amount > 0 {
		fmt.Fprintf(&sb, " amount=%d", ev.Amount)
	}
	if ev.PriceA > 0 || ev.PriceB > 0 {
		fmt.Fprintf(&sb, " price=%d/%d", ev.PriceA, ev.PriceB)
	}
	if ev.Result != nil {
		fmt.Fprintf(&sb, " result=%s", resultLabel(*ev.Result))
	}
	return sb.String()
}

func resultLabel(r bool) string {
	if r {
		return "YES"
	}
	return "NO"
}

func short(k solana.PublicKey) string {
	if k.IsZero() {
		return "-"
	}
	s := k.String()
	if len(s) <= 12 {
		return s
	}
	return s[:4] + ".." + s[len(s)-4:]
}

var _ ports.EventSink = (*Console)(nil)
