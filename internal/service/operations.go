package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrOperationNotFound is returned when no record matches an id.
var ErrOperationNotFound = errors.New("operation not found")

// OperationStore persists operation records in DuckDB.
// It satisfies operation.Recorder.
type OperationStore struct {
	db *sql.DB
}

// NewOperationStore wraps an open DuckDB connection. Call Migrate once.
func NewOperationStore(db *sql.DB) *OperationStore {
	return &OperationStore{db: db}
}

// Migrate creates the operations table if needed.
func (s *OperationStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS operations (
		id         VARCHAR PRIMARY KEY,
		status     VARCHAR NOT NULL,
		talhao_id  VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL,
		payload    VARCHAR NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating operations table: %w", err)
	}
	return nil
}

// Record stores one record. Records are immutable, so a duplicate id fails.
func (s *OperationStore) Record(ctx context.Context, rec OperationRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding operation %s: %w", rec.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO operations (id, status, talhao_id, created_at, payload) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Status), rec.TalhaoID, rec.CreatedAt, string(payload),
	)
	if err != nil {
		return fmt.Errorf("inserting operation %s: %w", rec.ID, err)
	}
	return nil
}

// List returns records newest first, plus the total count.
func (s *OperationStore) List(ctx context.Context, offset, limit int) ([]OperationRecord, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM operations`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting operations: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM operations ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	records := []OperationRecord{}
	for rows.Next() {
		rec, err := scanOperation(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// Get returns one record by id.
func (s *OperationStore) Get(ctx context.Context, id string) (OperationRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload FROM operations WHERE id = ?`, id)
	rec, err := scanOperation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return OperationRecord{}, ErrOperationNotFound
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOperation(sc scanner) (OperationRecord, error) {
	var payload string
	if err := sc.Scan(&payload); err != nil {
		return OperationRecord{}, err
	}
	var rec OperationRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return OperationRecord{}, fmt.Errorf("decoding operation payload: %w", err)
	}
	return rec, nil
}
