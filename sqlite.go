package unitconverter

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// fixed width so text order is time order
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

var ErrDBAttached = errors.New("history already has a database")

// WithSQLite attaches a SQLite database to the history. Records made before
// the attach are written to it, then everything it holds is loaded.
func (h *History) WithSQLite(path string) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.db != nil {
		return ErrDBAttached
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	// ":memory:" databases are per connection
	db.SetMaxOpenConns(1)

	h.db = db
	fail := func(what string, err error) error {
		h.db = nil
		db.Close()
		return fmt.Errorf("%s: %w", what, err)
	}
	if err := h.initSchema(); err != nil {
		return fail("init schema", err)
	}
	for _, rec := range h.records {
		if err := h.persistRecord(rec); err != nil {
			return fail("save earlier records", err)
		}
	}
	records, err := h.loadRecords()
	if err != nil {
		return fail("load history", err)
	}
	h.records = records
	h.logger.Info("history opened", "path", path, "records", len(records))
	return nil
}

func (h *History) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS conversions (
			id TEXT PRIMARY KEY,
			timestamp TEXT,
			input TEXT,
			category TEXT,
			from_unit TEXT,
			to_unit TEXT,
			output TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS conversions_timestamp ON conversions (timestamp);`,
	}
	for _, q := range queries {
		if _, err := h.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (h *History) persistRecord(rec Record) error {
	_, err := h.db.Exec(`INSERT OR IGNORE INTO conversions (id, timestamp, input, category, from_unit, to_unit, output) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID.String(), rec.Timestamp.UTC().Format(timestampLayout), rec.Input, rec.Category, rec.FromUnit, rec.ToUnit, rec.Output)
	return err
}

func (h *History) deleteRecords() error {
	_, err := h.db.Exec(`DELETE FROM conversions`)
	return err
}

func (h *History) loadRecords() ([]Record, error) {
	rows, err := h.db.Query(`SELECT id, timestamp, input, category, from_unit, to_unit, output FROM conversions ORDER BY timestamp`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var id, ts string
		if err := rows.Scan(&id, &ts, &rec.Input, &rec.Category, &rec.FromUnit, &rec.ToUnit, &rec.Output); err != nil {
			return nil, err
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("record %q: %w", id, err)
		}
		if rec.Timestamp, err = time.Parse(timestampLayout, ts); err != nil {
			return nil, fmt.Errorf("record %q: %w", id, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
