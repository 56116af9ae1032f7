package storage

// sqlite.go: persistencia del snapshot del ledger.
//
// Estrategia:
//   - Una tabla por tipo de registro (accounts, balances, mints, token_accounts,
//     metadata). Cada operación confirmada hace UPSERT dentro de UNA transacción
//     SQL junto con sus eventos: o se guarda todo o nada.
//   - Cache en memoria: evita reescribir filas que no cambiaron. Una apuesta
//     toca ~6 filas de cientos.
//   - Los u64 se guardan como TEXT decimal: INTEGER de SQLite es int64.
//   - `events`: journal append-only de eventos confirmados.

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	_ "modernc.org/sqlite"

	"github.com/sea-sol/prediction-markets/internal/domain"
	"github.com/sea-sol/prediction-markets/internal/ports"
)

const schema = `
-- Registros de tamaño fijo (Global, Market)
CREATE TABLE IF NOT EXISTS accounts (
    address TEXT PRIMARY KEY,
    data    BLOB NOT NULL
);

-- Saldos de token nativo
CREATE TABLE IF NOT EXISTS balances (
    address  TEXT PRIMARY KEY,
    lamports TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS mints (
    address   TEXT PRIMARY KEY,
    decimals  INTEGER NOT NULL,
    authority TEXT    NOT NULL,
    supply    TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS token_accounts (
    address TEXT PRIMARY KEY,
    mint    TEXT NOT NULL,
    owner   TEXT NOT NULL,
    amount  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
    mint   TEXT PRIMARY KEY,
    name   TEXT NOT NULL,
    symbol TEXT NOT NULL,
    uri    TEXT NOT NULL DEFAULT ''
);

-- Journal de eventos confirmados
CREATE TABLE IF NOT EXISTS events (
    id       TEXT PRIMARY KEY,
    kind     TEXT    NOT NULL,
    market   TEXT    NOT NULL DEFAULT '',
    actor    TEXT    NOT NULL DEFAULT '',
    side     TEXT,
    amount   TEXT    NOT NULL DEFAULT '0',
    result   INTEGER,
    price_a  TEXT    NOT NULL DEFAULT '0',
    price_b  TEXT    NOT NULL DEFAULT '0',
    ts       INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_token_owner ON token_accounts(owner);
CREATE INDEX IF NOT EXISTS idx_events_ts   ON events(ts);
CREATE INDEX IF NOT EXISTS idx_events_mkt  ON events(market);
`

// SQLiteStorage implementa ports.StateStore usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db    *sql.DB
	cache map[string]string // "tabla/clave" → fila serializada ya guardada
	mu    sync.Mutex
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	return &SQLiteStorage{
		db:    db,
		cache: make(map[string]string),
	}, nil
}

// SaveState hace upsert de las filas que cambiaron y agrega los eventos.
func (s *SQLiteStorage) SaveState(ctx context.Context, snap ports.Snapshot, events []domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := flatten(snap)
	changed := make([]row, 0, len(rows))
	for _, r := range rows {
		if s.cache[r.cacheKey()] != r.fingerprint() {
			changed = append(changed, r)
		}
	}
	if len(changed) == 0 && len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveState: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, r := range changed {
		if _, err := tx.ExecContext(ctx, upserts[r.table], r.args...); err != nil {
			return fmt.Errorf("storage.SaveState: upsert %s %s: %w", r.table, r.key, err)
		}
	}

	if len(events) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO events (id, kind, market, actor, side, amount, result, price_a, price_b, ts)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("storage.SaveState: prepare events: %w", err)
		}
		defer stmt.Close()

		for _, ev := range events {
			if _, err := stmt.ExecContext(ctx, eventArgs(ev)...); err != nil {
				return fmt.Errorf("storage.SaveState: insert event %s: %w", ev.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveState: commit: %w", err)
	}

	// la cache solo se actualiza tras el commit
	for _, r := range changed {
		s.cache[r.cacheKey()] = r.fingerprint()
	}
	return nil
}

// LoadState reconstruye el snapshot completo y precarga la cache.
func (s *SQLiteStorage) LoadState(ctx context.Context) (ports.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := ports.NewSnapshot()
	if err := s.loadAccounts(ctx, snap); err != nil {
		return ports.Snapshot{}, err
	}
	if err := s.loadBalances(ctx, snap); err != nil {
		return ports.Snapshot{}, err
	}
	if err := s.loadMints(ctx, snap); err != nil {
		return ports.Snapshot{}, err
	}
	if err := s.loadTokenAccounts(ctx, snap); err != nil {
		return ports.Snapshot{}, err
	}
	if err := s.loadMetadata(ctx, snap); err != nil {
		return ports.Snapshot{}, err
	}

	for _, r := range flatten(snap) {
		s.cache[r.cacheKey()] = r.fingerprint()
	}
	return snap, nil
}

// Events devuelve los eventos cuyo timestamp está en el rango dado, en orden.
func (s *SQLiteStorage) Events(ctx context.Context, from, to time.Time) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, market, actor, side, amount, result, price_a, price_b, ts
		FROM events
		WHERE ts BETWEEN ? AND ?
		ORDER BY ts ASC, rowid ASC
	`, from.UnixNano(), to.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("storage.Events: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.Events: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

var _ ports.StateStore = (*SQLiteStorage)(nil)

// --- helpers internos ---

func (s *SQLiteStorage) loadAccounts(ctx context.Context, snap ports.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `SELECT address, data FROM accounts`)
	if err != nil {
		return fmt.Errorf("storage.LoadState: accounts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var addr string
		var data []byte
		if err := rows.Scan(&addr, &data); err != nil {
			return fmt.Errorf("storage.LoadState: scan account: %w", err)
		}
		key, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return fmt.Errorf("storage.LoadState: account key %q: %w", addr, err)
		}
		snap.Accounts[key] = data
	}
	return rows.Err()
}

func (s *SQLiteStorage) loadBalances(ctx context.Context, snap ports.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `SELECT address, lamports FROM balances`)
	if err != nil {
		return fmt.Errorf("storage.LoadState: balances: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var addr, lamports string
		if err := rows.Scan(&addr, &lamports); err != nil {
			return fmt.Errorf("storage.LoadState: scan balance: %w", err)
		}
		key, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return fmt.Errorf("storage.LoadState: balance key %q: %w", addr, err)
		}
		if snap.Balances[key], err = parseU64(lamports); err != nil {
			return fmt.Errorf("storage.LoadState: balance %s: %w", addr, err)
		}
	}
	return rows.Err()
}

func (s *SQLiteStorage) loadMints(ctx context.Context, snap ports.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `SELECT address, decimals, authority, supply FROM mints`)
	if err != nil {
		return fmt.Errorf("storage.LoadState: mints: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var addr, authority, supply string
		var decimals uint8
		if err := rows.Scan(&addr, &decimals, &authority, &supply); err != nil {
			return fmt.Errorf("storage.LoadState: scan mint: %w", err)
		}
		key, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return fmt.Errorf("storage.LoadState: mint key %q: %w", addr, err)
		}
		m := ports.Mint{Decimals: decimals}
		if m.Authority, err = solana.PublicKeyFromBase58(authority); err != nil {
			return fmt.Errorf("storage.LoadState: mint authority %q: %w", authority, err)
		}
		if m.Supply, err = parseU64(supply); err != nil {
			return fmt.Errorf("storage.LoadState: mint supply %s: %w", addr, err)
		}
		snap.Mints[key] = m
	}
	return rows.Err()
}

func (s *SQLiteStorage) loadTokenAccounts(ctx context.Context, snap ports.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `SELECT address, mint, owner, amount FROM token_accounts`)
	if err != nil {
		return fmt.Errorf("storage.LoadState: token accounts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var addr, mint, owner, amount string
		if err := rows.Scan(&addr, &mint, &owner, &amount); err != nil {
			return fmt.Errorf("storage.LoadState: scan token account: %w", err)
		}
		key, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return fmt.Errorf("storage.LoadState: token account key %q: %w", addr, err)
		}
		var ta ports.TokenAccount
		if ta.Mint, err = solana.PublicKeyFromBase58(mint); err != nil {
			return fmt.Errorf("storage.LoadState: token account mint %q: %w", mint, err)
		}
		if ta.Owner, err = solana.PublicKeyFromBase58(owner); err != nil {
			return fmt.Errorf("storage.LoadState: token account owner %q: %w", owner, err)
		}
		if ta.Amount, err = parseU64(amount); err != nil {
			return fmt.Errorf("storage.LoadState: token amount %s: %w", addr, err)
		}
		snap.TokenAccounts[key] = ta
	}
	return rows.Err()
}

func (s *SQLiteStorage) loadMetadata(ctx context.Context, snap ports.Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `SELECT mint, name, symbol, uri FROM metadata`)
	if err != nil {
		return fmt.Errorf("storage.LoadState: metadata: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mint string
		var md domain.TokenMetadata
		if err := rows.Scan(&mint, &md.Name, &md.Symbol, &md.URI); err != nil {
			return fmt.Errorf("storage.LoadState: scan metadata: %w", err)
		}
		key, err := solana.PublicKeyFromBase58(mint)
		if err != nil {
			return fmt.Errorf("storage.LoadState: metadata key %q: %w", mint, err)
		}
		snap.Metadata[key] = md
	}
	return rows.Err()
}

func parseU64(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

func formatU64(v uint64) string {
	return strconv.FormatUint(v, 10)
}
