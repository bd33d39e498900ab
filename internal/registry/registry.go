// Package registry maps ICAO addresses to aircraft registration and type metadata.
package registry

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"adsbtrack/internal/adsb"
)

// DefaultCacheSize is the number of lookups kept in memory
const DefaultCacheSize = 1024

// csvFields is the column count of an import row:
// icao, registration, designator, model, description, wtc
const csvFields = 6

// Aircraft is the fixed metadata known for one address
type Aircraft struct {
	Registration           string
	TypeDesignator         string
	Model                  string
	Description            string
	WakeTurbulenceCategory string
}

type cacheEntry struct {
	aircraft Aircraft
	found    bool
}

// Registry wraps a SQLite database of aircraft metadata.
type Registry struct {
	db     *sql.DB
	cache  *lru.Cache[adsb.IcaoAddress, cacheEntry]
	logger *logrus.Logger
}

// Open opens or creates a registry database at the given path.
func Open(path string, cacheSize int, logger *logrus.Logger) (*Registry, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	if err := createSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	cache, err := lru.New[adsb.IcaoAddress, cacheEntry](cacheSize)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return &Registry{db: db, cache: cache, logger: logger}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS aircraft (
		icao INTEGER PRIMARY KEY,
		registration TEXT NOT NULL DEFAULT '',
		type_designator TEXT NOT NULL DEFAULT '',
		model TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		wake_turbulence TEXT NOT NULL DEFAULT ''
	);
	`)
	return err
}

// Close closes the database connection.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Import loads comma-separated rows into the database, replacing existing
// entries with the same address. Blank lines and rows with an unparsable
// address are skipped. It returns the number of rows stored.
func (r *Registry) Import(ctx context.Context, in io.Reader) (int, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO aircraft (icao, registration, type_designator, model, description, wake_turbulence)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(icao) DO UPDATE SET
		registration = excluded.registration,
		type_designator = excluded.type_designator,
		model = excluded.model,
		description = excluded.description,
		wake_turbulence = excluded.wake_turbulence
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	imported, skipped := 0, 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read row: %w", err)
		}

		addr, err := adsb.ParseIcaoAddress(strings.TrimSpace(record[0]))
		if err != nil {
			skipped++
			continue
		}

		fields := make([]string, csvFields)
		copy(fields, record)

		if _, err := stmt.ExecContext(ctx, int64(addr), fields[1], fields[2], fields[3], fields[4], fields[5]); err != nil {
			return 0, fmt.Errorf("store %s: %w", addr, err)
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}

	r.cache.Purge()
	r.logger.WithFields(logrus.Fields{
		"imported": imported,
		"skipped":  skipped,
	}).Info("Aircraft registry imported")

	return imported, nil
}

// Lookup returns the metadata stored for addr. Misses are cached as well.
func (r *Registry) Lookup(ctx context.Context, addr adsb.IcaoAddress) (Aircraft, bool, error) {
	if entry, ok := r.cache.Get(addr); ok {
		return entry.aircraft, entry.found, nil
	}

	var a Aircraft
	err := r.db.QueryRowContext(ctx, `
	SELECT registration, type_designator, model, description, wake_turbulence
	FROM aircraft WHERE icao = ?
	`, int64(addr)).Scan(&a.Registration, &a.TypeDesignator, &a.Model, &a.Description, &a.WakeTurbulenceCategory)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		r.cache.Add(addr, cacheEntry{})
		return Aircraft{}, false, nil
	case err != nil:
		return Aircraft{}, false, fmt.Errorf("lookup %s: %w", addr, err)
	}

	r.cache.Add(addr, cacheEntry{aircraft: a, found: true})
	return a, true, nil
}

// Count returns the number of stored aircraft.
func (r *Registry) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM aircraft").Scan(&n); err != nil {
		return 0, fmt.Errorf("count aircraft: %w", err)
	}
	return n, nil
}
