package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	errs "github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/errors"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/logger"
	"github.com/nanyeglm/CPU-Gym-Reserve-online/pkg/models"
)

// Name selects one of the two record stores. They share a shape but have
// independent lifecycles: orders are discovered remotely, reservations are
// created locally by the booking transaction.
type Name string

const (
	Orders       Name = "orders"
	Reservations Name = "reservations"
)

func (n Name) valid() bool {
	return n == Orders || n == Reservations
}

// Store is the local sqlite mirror of the remote booking state.
type Store struct {
	db     *sqlx.DB
	logger logger.Logger
}

var schema = `
CREATE TABLE IF NOT EXISTS orders (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id  INTEGER NOT NULL UNIQUE,
	venue        TEXT NOT NULL,
	holder_name  TEXT NOT NULL DEFAULT '',
	holder_phone TEXT NOT NULL DEFAULT '',
	date         TEXT NOT NULL,
	time_slot    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_date  ON orders(date);
CREATE INDEX IF NOT EXISTS idx_orders_venue ON orders(venue);

CREATE TABLE IF NOT EXISTS reservations (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	external_id  INTEGER NOT NULL UNIQUE,
	venue        TEXT NOT NULL,
	holder_name  TEXT NOT NULL DEFAULT '',
	holder_phone TEXT NOT NULL DEFAULT '',
	date         TEXT NOT NULL,
	time_slot    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_reservations_date  ON reservations(date);
CREATE INDEX IF NOT EXISTS idx_reservations_venue ON reservations(venue);
`

// Open opens (creating if necessary) the sqlite mirror at path and ensures
// the schema exists.
func Open(path string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time; readers and the background poll loop share the
	// file, so give writes a grace period instead of failing on SQLITE_BUSY.
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db, logger: log}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// FindMaxID returns the greatest external id currently stored. ok is false
// when the store is empty.
func (s *Store) FindMaxID(ctx context.Context, name Name) (int64, bool, error) {
	if !name.valid() {
		return 0, false, fmt.Errorf("unknown store %q", name)
	}

	var max sql.NullInt64
	query := fmt.Sprintf(`SELECT MAX(external_id) FROM %s`, name)
	if err := s.db.GetContext(ctx, &max, query); err != nil {
		return 0, false, fmt.Errorf("failed to query max external id: %w", err)
	}
	if !max.Valid {
		return 0, false, nil
	}
	return max.Int64, true, nil
}

// Exists reports whether a record with the given external id is stored.
func (s *Store) Exists(ctx context.Context, name Name, id int64) (bool, error) {
	if !name.valid() {
		return false, fmt.Errorf("unknown store %q", name)
	}

	var count int
	query := fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE external_id = ?`, name)
	if err := s.db.GetContext(ctx, &count, query, id); err != nil {
		return false, fmt.Errorf("failed to query record existence: %w", err)
	}
	return count > 0, nil
}

// Insert stores a record. Insertion is idempotent by external id: an id that
// already exists is silently skipped, never overwritten. The returned bool
// reports whether a row was actually written.
func (s *Store) Insert(ctx context.Context, name Name, rec models.Record) (bool, error) {
	if !name.valid() {
		return false, fmt.Errorf("unknown store %q", name)
	}

	query := fmt.Sprintf(`
		INSERT OR IGNORE INTO %s (external_id, venue, holder_name, holder_phone, date, time_slot)
		VALUES (:external_id, :venue, :holder_name, :holder_phone, :date, :time_slot)`, name)

	res, err := s.db.NamedExecContext(ctx, query, rec)
	if err != nil {
		return false, errs.New(errs.ErrorTypeStorageConflict, "failed to insert record %d: %v", rec.ExternalID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteByID removes a record by external id. The returned bool reports
// whether a row was removed.
func (s *Store) DeleteByID(ctx context.Context, name Name, id int64) (bool, error) {
	if !name.valid() {
		return false, fmt.Errorf("unknown store %q", name)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE external_id = ?`, name)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete record %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteOlderThan removes all records whose date is strictly before the
// given YYYY-MM-DD date and returns the number removed. The comparison is
// lexicographic, which is exact for this date layout.
func (s *Store) DeleteOlderThan(ctx context.Context, name Name, date string) (int64, error) {
	if !name.valid() {
		return 0, fmt.Errorf("unknown store %q", name)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE date < ?`, name)
	res, err := s.db.ExecContext(ctx, query, date)
	if err != nil {
		return 0, fmt.Errorf("failed to prune %s by age: %w", name, err)
	}
	return res.RowsAffected()
}

// DeleteBoth removes the id from both stores in one transaction. A remote
// cancellation applies to the order and any matching reservation at once.
func (s *Store) DeleteBoth(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, name := range []Name{Orders, Reservations} {
		query := fmt.Sprintf(`DELETE FROM %s WHERE external_id = ?`, name)
		if _, err := tx.ExecContext(ctx, query, id); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to delete %d from %s: %w", id, name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete of %d: %w", id, err)
	}
	return nil
}

// ListIDs returns all stored external ids in ascending order.
func (s *Store) ListIDs(ctx context.Context, name Name) ([]int64, error) {
	if !name.valid() {
		return nil, fmt.Errorf("unknown store %q", name)
	}

	var ids []int64
	query := fmt.Sprintf(`SELECT external_id FROM %s ORDER BY external_id`, name)
	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("failed to list external ids: %w", err)
	}
	return ids, nil
}

// Filters narrow a query. Zero values mean "no filter". TimeSlot matches as
// a substring because confirmed orders pack multiple slots into one field.
type Filters struct {
	Venues   []string
	Date     string
	TimeSlot string
}

// QueryByFilters returns records matching the filters, ordered by venue then
// time slot.
func (s *Store) QueryByFilters(ctx context.Context, name Name, f Filters) ([]models.Record, error) {
	if !name.valid() {
		return nil, fmt.Errorf("unknown store %q", name)
	}

	query := fmt.Sprintf(`SELECT external_id, venue, holder_name, holder_phone, date, time_slot FROM %s WHERE 1=1`, name)
	var args []interface{}

	if len(f.Venues) > 0 {
		q, inArgs, err := sqlx.In(` AND venue IN (?)`, f.Venues)
		if err != nil {
			return nil, fmt.Errorf("failed to build venue filter: %w", err)
		}
		query += q
		args = append(args, inArgs...)
	}
	if f.Date != "" {
		query += ` AND date = ?`
		args = append(args, f.Date)
	}
	if f.TimeSlot != "" {
		query += ` AND time_slot LIKE ?`
		args = append(args, "%"+f.TimeSlot+"%")
	}

	query += ` ORDER BY venue, time_slot`

	var recs []models.Record
	if err := s.db.SelectContext(ctx, &recs, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return recs, nil
}

// IsConflict reports whether err is a storage constraint violation.
func IsConflict(err error) bool {
	var typed *errs.Error
	return errors.As(err, &typed) && typed.Type == errs.ErrorTypeStorageConflict
}
