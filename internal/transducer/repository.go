package transducer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-transducers/internal/measure"
)

const (
	defaultDataLimit = 50
	maxDataLimit     = 200
)

// timestampLayout is fixed-width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Repository defines the interface for transducer persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Repository interface {
	// GetByID retrieves a transducer, including its data, by ID.
	// Returns ErrTransducerNotFound if the transducer does not exist.
	GetByID(ctx context.Context, id string) (*Transducer, error)

	// List retrieves all transducers, including their data, ordered by name.
	List(ctx context.Context) ([]*Transducer, error)

	// Create inserts a new transducer and any data it already holds.
	// Returns ErrTransducerExists if the ID or name is taken.
	Create(ctx context.Context, t *Transducer) error

	// Update persists name, registry ID, set point, and metadata.
	// Data is managed through AppendData and RemoveData.
	// Returns ErrTransducerNotFound if the transducer does not exist.
	Update(ctx context.Context, t *Transducer) error

	// Delete removes a transducer and its data.
	// Returns ErrTransducerNotFound if the transducer does not exist.
	Delete(ctx context.Context, id string) error

	// AppendData appends records after any already stored, in order.
	AppendData(ctx context.Context, transducerID string, records []measure.Record) error

	// RemoveData removes the earliest stored record with recordID and
	// reports whether one was removed.
	RemoveData(ctx context.Context, transducerID, recordID string) (bool, error)

	// ListData returns recent records, newest first.
	// limit defaults to 50 and is capped at 200.
	ListData(ctx context.Context, transducerID string, limit int) ([]measure.Record, error)

	// PruneData deletes records observed before now-olderThan and
	// returns the number deleted.
	PruneData(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with the
// transducer migrations applied.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectTransducer = `
	SELECT id, name, registry_id, set_point, metadata
	FROM transducers`

// GetByID retrieves a transducer by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Transducer, error) {
	row := r.db.QueryRowContext(ctx, selectTransducer+" WHERE id = ?", id)
	snap, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransducerNotFound
		}
		return nil, fmt.Errorf("querying transducer by id: %w", err)
	}

	data, err := r.allData(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromSnapshot(snap, data)
}

// List retrieves all transducers ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]*Transducer, error) {
	rows, err := r.db.QueryContext(ctx, selectTransducer+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying transducers: %w", err)
	}

	var snaps []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning transducer: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating transducers: %w", err)
	}
	rows.Close()

	// Data is loaded after the cursor is closed so the pool never needs
	// a second connection.
	out := make([]*Transducer, 0, len(snaps))
	for _, snap := range snaps {
		data, err := r.allData(ctx, snap.ID)
		if err != nil {
			return nil, err
		}
		t, err := FromSnapshot(snap, data)
		if err != nil {
			return nil, fmt.Errorf("loading transducer %s: %w", snap.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// Create inserts a new transducer.
func (r *SQLiteRepository) Create(ctx context.Context, t *Transducer) error {
	snap := t.Snapshot()
	setPointJSON, metadataJSON, err := marshalColumns(snap)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO transducers (id, name, registry_id, set_point, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Name, nullableString(snap.RegistryID), setPointJSON, string(metadataJSON), now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrTransducerExists
		}
		return fmt.Errorf("inserting transducer: %w", err)
	}

	if err := insertData(ctx, tx, snap.ID, t.Data()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transducer: %w", err)
	}
	return nil
}

// Update persists the mutable attributes of a transducer.
func (r *SQLiteRepository) Update(ctx context.Context, t *Transducer) error {
	snap := t.Snapshot()
	setPointJSON, metadataJSON, err := marshalColumns(snap)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE transducers
		SET name = ?, registry_id = ?, set_point = ?, metadata = ?, updated_at = ?
		WHERE id = ?`,
		snap.Name, nullableString(snap.RegistryID), setPointJSON, string(metadataJSON),
		time.Now().UTC().Format(time.RFC3339), snap.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrTransducerExists
		}
		return fmt.Errorf("updating transducer: %w", err)
	}
	return requireRow(result)
}

// Delete removes a transducer and its data.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM transducer_data WHERE transducer_id = ?", id); err != nil {
		return fmt.Errorf("deleting transducer data: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM transducers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting transducer: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete: %w", err)
	}
	return nil
}

// AppendData stores records for a transducer in the given order.
func (r *SQLiteRepository) AppendData(ctx context.Context, transducerID string, records []measure.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM transducers WHERE id = ?", transducerID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTransducerNotFound
		}
		return fmt.Errorf("checking transducer: %w", err)
	}

	if err := insertData(ctx, tx, transducerID, records); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing data: %w", err)
	}
	return nil
}

// RemoveData removes the earliest record with the given ID.
func (r *SQLiteRepository) RemoveData(ctx context.Context, transducerID, recordID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM transducer_data
		WHERE seq = (
			SELECT seq FROM transducer_data
			WHERE transducer_id = ? AND record_id = ?
			ORDER BY seq
			LIMIT 1
		)`,
		transducerID, recordID,
	)
	if err != nil {
		return false, fmt.Errorf("deleting record: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return n > 0, nil
}

// ListData returns recent records for a transducer, newest first.
func (r *SQLiteRepository) ListData(ctx context.Context, transducerID string, limit int) ([]measure.Record, error) {
	if transducerID == "" {
		return nil, fmt.Errorf("%w: transducer id is required", ErrValidation)
	}
	if limit <= 0 {
		limit = defaultDataLimit
	}
	if limit > maxDataLimit {
		limit = maxDataLimit
	}

	return r.queryData(ctx, `
		SELECT record_id, kind, command, value, observed_at
		FROM transducer_data
		WHERE transducer_id = ?
		ORDER BY seq DESC
		LIMIT ?`,
		transducerID, limit,
	)
}

// PruneData deletes records observed before now-olderThan.
func (r *SQLiteRepository) PruneData(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(timestampLayout)
	result, err := r.db.ExecContext(ctx, "DELETE FROM transducer_data WHERE observed_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning transducer data: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return rowsAffected, nil
}

// allData loads every record of a transducer in insertion order.
func (r *SQLiteRepository) allData(ctx context.Context, transducerID string) ([]measure.Record, error) {
	return r.queryData(ctx, `
		SELECT record_id, kind, command, value, observed_at
		FROM transducer_data
		WHERE transducer_id = ?
		ORDER BY seq`,
		transducerID,
	)
}

func (r *SQLiteRepository) queryData(ctx context.Context, query string, args ...any) ([]measure.Record, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transducer data: %w", err)
	}
	defer rows.Close()

	records := make([]measure.Record, 0)
	for rows.Next() {
		var (
			env        measure.RecordJSON
			command    sql.NullString
			observedAt string
		)
		if err := rows.Scan(&env.ID, &env.Kind, &command, &env.Value, &observedAt); err != nil {
			return nil, fmt.Errorf("scanning transducer data: %w", err)
		}
		env.Command = command.String

		ts, err := time.Parse(time.RFC3339Nano, observedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing observed_at: %w", err)
		}
		env.Timestamp = ts

		rec, err := measure.DecodeRecord(env)
		if err != nil {
			return nil, fmt.Errorf("decoding record %s: %w", env.ID, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transducer data: %w", err)
	}
	return records, nil
}

// insertData writes records inside tx, preserving order.
func insertData(ctx context.Context, tx *sql.Tx, transducerID string, records []measure.Record) error {
	if len(records) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO transducer_data (transducer_id, record_id, kind, command, value, observed_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing data insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		env, err := measure.EncodeRecord(rec)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx,
			transducerID, env.ID, string(env.Kind), nullableString(env.Command),
			env.Value, env.Timestamp.UTC().Format(timestampLayout),
		)
		if err != nil {
			return fmt.Errorf("inserting record %s: %w", env.ID, err)
		}
	}
	return nil
}

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(s scanner) (Snapshot, error) {
	var (
		snap         Snapshot
		registryID   sql.NullString
		setPointJSON sql.NullString
		metadataJSON string
	)
	if err := s.Scan(&snap.ID, &snap.Name, &registryID, &setPointJSON, &metadataJSON); err != nil {
		return Snapshot{}, err
	}
	snap.RegistryID = registryID.String

	if setPointJSON.Valid && setPointJSON.String != "" {
		var sp measure.Measure
		if err := json.Unmarshal([]byte(setPointJSON.String), &sp); err != nil {
			return Snapshot{}, fmt.Errorf("unmarshalling set_point: %w", err)
		}
		snap.SetPoint = &sp
	}

	if err := json.Unmarshal([]byte(metadataJSON), &snap.Metadata); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	return snap, nil
}

func marshalColumns(snap Snapshot) (setPoint sql.NullString, metadata []byte, err error) {
	if snap.SetPoint != nil {
		b, err := json.Marshal(snap.SetPoint)
		if err != nil {
			return sql.NullString{}, nil, fmt.Errorf("marshalling set_point: %w", err)
		}
		setPoint = sql.NullString{String: string(b), Valid: true}
	}

	md := snap.Metadata
	if md == nil {
		md = map[string]any{}
	}
	metadata, err = json.Marshal(md)
	if err != nil {
		return sql.NullString{}, nil, fmt.Errorf("marshalling metadata: %w", err)
	}
	return setPoint, metadata, nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrTransducerNotFound
	}
	return nil
}

// nullableString maps "" to SQL NULL.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
