// Package txindex implements the durable transaction-hash and archive
// range index (D8), grounded in the teacher's
// storage/relationaldb.RepositoryManager driver-agnostic design (since
// deleted along with its postgres-only implementation) — retargeted
// to the ledger's two lookup tables and widened to also accept
// modernc.org/sqlite for single-process deployments that don't want a
// separate Postgres instance, while keeping lib/pq available for
// production multi-process deployments against the same archive.
package txindex

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Store persists transaction-hash-to-height entries (Record/Lookup)
// and archive index height-range-to-shard assignments
// (RecordArchiveRange). The ledger and the CLI only call Lookup; no
// code in this module calls Record or RecordArchiveRange.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to either a "sqlite" or "postgres" DSN and ensures
// the index tables exist.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	driverName := driver
	if driverName == "sqlite" {
		driverName = "sqlite"
	} else if driverName == "postgres" {
		driverName = "postgres"
	} else {
		return nil, fmt.Errorf("txindex: unsupported driver %q", driver)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("txindex: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("txindex: ping: %w", err)
	}

	s := &Store{db: db, driver: driver}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tx_index (
			tx_hash TEXT PRIMARY KEY,
			height BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS archive_ranges (
			start_height BIGINT NOT NULL,
			end_height BIGINT NOT NULL,
			shard_principal TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("txindex: migrate: %w", err)
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Record persists that txHash committed at height.
func (s *Store) Record(ctx context.Context, txHash [32]byte, height uint64) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO tx_index (tx_hash, height) VALUES (?, ?)`),
		hex.EncodeToString(txHash[:]), height)
	if err != nil {
		return fmt.Errorf("txindex: record: %w", err)
	}
	return nil
}

// Lookup implements service.TxIndexLookup.
func (s *Store) Lookup(ctx context.Context, txHash [32]byte) (height uint64, ok bool, err error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT height FROM tx_index WHERE tx_hash = ?`),
		hex.EncodeToString(txHash[:]))
	if err := row.Scan(&height); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("txindex: lookup: %w", err)
	}
	return height, true, nil
}

// RecordArchiveRange persists one archive.Index range assignment.
func (s *Store) RecordArchiveRange(ctx context.Context, start, end uint64, shardPrincipal []byte) error {
	_, err := s.db.ExecContext(ctx,
		s.rebind(`INSERT INTO archive_ranges (start_height, end_height, shard_principal) VALUES (?, ?, ?)`),
		start, end, hex.EncodeToString(shardPrincipal))
	if err != nil {
		return fmt.Errorf("txindex: record archive range: %w", err)
	}
	return nil
}

// rebind swaps "?" placeholders for Postgres's "$N" style when the
// driver requires it.
func (s *Store) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			out = append(out, '$')
			out = append(out, []byte(fmt.Sprintf("%d", n))...)
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}
