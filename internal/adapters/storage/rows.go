package storage

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/sea-sol/prediction-markets/internal/domain"
	"github.com/sea-sol/prediction-markets/internal/ports"
)

var upserts = map[string]string{
	"accounts": `INSERT INTO accounts (address, data) VALUES (?, ?)
		ON CONFLICT(address) DO UPDATE SET data = excluded.data`,
	"balances": `INSERT INTO balances (address, lamports) VALUES (?, ?)
		ON CONFLICT(address) DO UPDATE SET lamports = excluded.lamports`,
	"mints": `INSERT INTO mints (address, decimals, authority, supply) VALUES (?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			decimals  = excluded.decimals,
			authority = excluded.authority,
			supply    = excluded.supply`,
	"token_accounts": `INSERT INTO token_accounts (address, mint, owner, amount) VALUES (?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			mint   = excluded.mint,
			owner  = excluded.owner,
			amount = excluded.amount`,
	"metadata": `INSERT INTO metadata (mint, name, symbol, uri) VALUES (?, ?, ?, ?)
		ON CONFLICT(mint) DO UPDATE SET
			name   = excluded.name,
			symbol = excluded.symbol,
			uri    = excluded.uri`,
}

// row es una fila lista para upsert.
type row struct {
	table string
	key   string
	args  []any
}

func (r row) cacheKey() string { return r.table + "/" + r.key }

// fingerprint serializa los valores para detectar cambios.
func (r row) fingerprint() string {
	var sb strings.Builder
	for i, a := range r.args {
		if i > 0 {
			sb.WriteByte('|')
		}
		switch v := a.(type) {
		case []byte:
			sb.WriteString(hex.EncodeToString(v))
		default:
			fmt.Fprint(&sb, v)
		}
	}
	return sb.String()
}

// flatten convierte el snapshot en filas.
func flatten(snap ports.Snapshot) []row {
	n := len(snap.Accounts) + len(snap.Balances) + len(snap.Mints) + len(snap.TokenAccounts) + len(snap.Metadata)
	rows := make([]row, 0, n)

	for k, data := range snap.Accounts {
		key := k.String()
		rows = append(rows, row{table: "accounts", key: key, args: []any{key, data}})
	}
	for k, lamports := range snap.Balances {
		key := k.String()
		rows = append(rows, row{table: "balances", key: key, args: []any{key, formatU64(lamports)}})
	}
	for k, m := range snap.Mints {
		key := k.String()
		rows = append(rows, row{table: "mints", key: key,
			args: []any{key, int64(m.Decimals), m.Authority.String(), formatU64(m.Supply)}})
	}
	for k, ta := range snap.TokenAccounts {
		key := k.String()
		rows = append(rows, row{table: "token_accounts", key: key,
			args: []any{key, ta.Mint.String(), ta.Owner.String(), formatU64(ta.Amount)}})
	}
	for k, md := range snap.Metadata {
		key := k.String()
		rows = append(rows, row{table: "metadata", key: key, args: []any{key, md.Name, md.Symbol, md.URI}})
	}
	return rows
}

func eventArgs(ev domain.Event) []any {
	var side, result any
	if ev.Side != nil {
		side = ev.Side.String()
	}
	if ev.Result != nil {
		r := 0
		if *ev.Result {
			r = 1
		}
		result = r
	}
	return []any{
		ev.ID,
		string(ev.Kind),
		keyOrEmpty(ev.Market),
		keyOrEmpty(ev.Actor),
		side,
		formatU64(ev.Amount),
		result,
		formatU64(ev.PriceA),
		formatU64(ev.PriceB),
		ev.Timestamp.UnixNano(),
	}
}

func scanEvent(rows *sql.Rows) (domain.Event, error) {
	var (
		ev                     domain.Event
		kind, market, actor    string
		amount, priceA, priceB string
		side                   sql.NullString
		result                 sql.NullInt64
		ts                     int64
	)
	if err := rows.Scan(&ev.ID, &kind, &market, &actor, &side, &amount, &result, &priceA, &priceB, &ts); err != nil {
		return domain.Event{}, fmt.Errorf("scan event: %w", err)
	}

	ev.Kind = domain.EventKind(kind)
	ev.Timestamp = time.Unix(0, ts).UTC()

	var err error
	if ev.Market, err = parseKeyOrEmpty(market); err != nil {
		return domain.Event{}, err
	}
	if ev.Actor, err = parseKeyOrEmpty(actor); err != nil {
		return domain.Event{}, err
	}
	if side.Valid {
		s, err := domain.ParseSide(side.String)
		if err != nil {
			return domain.Event{}, err
		}
		ev.Side = &s
	}
	if result.Valid {
		r := result.Int64 == 1
		ev.Result = &r
	}
	if ev.Amount, err = parseU64(amount); err != nil {
		return domain.Event{}, fmt.Errorf("event amount: %w", err)
	}
	if ev.PriceA, err = parseU64(priceA); err != nil {
		return domain.Event{}, fmt.Errorf("event price_a: %w", err)
	}
	if ev.PriceB, err = parseU64(priceB); err != nil {
		return domain.Event{}, fmt.Errorf("event price_b: %w", err)
	}
	return ev, nil
}

func keyOrEmpty(k solana.PublicKey) string {
	if k.IsZero() {
		return ""
	}
	return k.String()
}

func parseKeyOrEmpty(s string) (solana.PublicKey, error) {
	if s == "" {
		return solana.PublicKey{}, nil
	}
	k, err := solana.PublicKeyFromBase58(s)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("event key %q: %w", s, err)
	}
	return k, nil
}
