package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists events in a SQLite database file. It satisfies Store
// and is the durable choice for long-running simulations.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and migrates the
// schema. Pass ":memory:" for an ephemeral database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		rowid   INTEGER PRIMARY KEY AUTOINCREMENT,
		id      TEXT NOT NULL UNIQUE,
		stream  TEXT NOT NULL,
		seq     INTEGER NOT NULL,
		type    TEXT NOT NULL,
		block   INTEGER NOT NULL,
		time    INTEGER NOT NULL,
		data    TEXT,
		UNIQUE (stream, seq)
	);

	CREATE INDEX IF NOT EXISTS idx_events_stream ON events(stream, seq);
	CREATE INDEX IF NOT EXISTS idx_events_type ON events(type);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append assigns sequence numbers and inserts the events in one transaction.
func (s *SQLiteStore) Append(ctx context.Context, events ...*Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: begin append: %w", err)
	}
	defer tx.Rollback()

	seqs := make(map[string]int)
	for _, e := range events {
		seq, ok := seqs[e.Stream]
		if !ok {
			row := tx.QueryRowContext(ctx,
				`SELECT COALESCE(MAX(seq), 0) FROM events WHERE stream = ?`, e.Stream)
			if err := row.Scan(&seq); err != nil {
				return fmt.Errorf("journal: read stream seq: %w", err)
			}
		}
		seq++
		seqs[e.Stream] = seq
		e.Seq = seq

		var data []byte
		if e.Data != nil {
			data, err = json.Marshal(e.Data)
			if err != nil {
				return fmt.Errorf("journal: marshal event data: %w", err)
			}
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO events (id, stream, seq, type, block, time, data)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Stream, e.Seq, e.Type, e.Block, e.Time, string(data))
		if err != nil {
			return fmt.Errorf("journal: insert event: %w", err)
		}
	}
	return tx.Commit()
}

// Read returns one stream's events with Seq >= from.
func (s *SQLiteStore) Read(ctx context.Context, stream string, from int) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stream, seq, type, block, time, data
		 FROM events WHERE stream = ? AND seq >= ? ORDER BY seq`, stream, from)
	if err != nil {
		return nil, fmt.Errorf("journal: read stream: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ReadAll returns events passing the filter in global append order.
func (s *SQLiteStore) ReadAll(ctx context.Context, filter Filter) ([]*Event, error) {
	query := `SELECT id, stream, seq, type, block, time, data FROM events`
	var conds []string
	var args []any
	if filter.Stream != "" {
		conds = append(conds, "stream = ?")
		args = append(args, filter.Stream)
	}
	if filter.FromBlock > 0 {
		conds = append(conds, "block >= ?")
		args = append(args, filter.FromBlock)
	}
	if len(filter.Types) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Types)), ",")
		conds = append(conds, "type IN ("+placeholders+")")
		for _, t := range filter.Types {
			args = append(args, t)
		}
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: read all: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// StreamSeq returns the highest sequence number of a stream, or 0.
func (s *SQLiteStore) StreamSeq(ctx context.Context, stream string) (int, error) {
	var seq int
	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM events WHERE stream = ?`, stream)
	if err := row.Scan(&seq); err != nil {
		return 0, fmt.Errorf("journal: stream seq: %w", err)
	}
	return seq, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanEvents(rows *sql.Rows) ([]*Event, error) {
	var out []*Event
	for rows.Next() {
		var e Event
		var data sql.NullString
		if err := rows.Scan(&e.ID, &e.Stream, &e.Seq, &e.Type, &e.Block, &e.Time, &data); err != nil {
			return nil, fmt.Errorf("journal: scan event: %w", err)
		}
		if data.Valid && data.String != "" {
			if err := json.Unmarshal([]byte(data.String), &e.Data); err != nil {
				return nil, fmt.Errorf("journal: unmarshal event data: %w", err)
			}
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
