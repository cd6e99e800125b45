package tracking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/ports"
)

// Fixed-width so that text ordering matches time ordering.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z"

const operationColumns = `id, session_id, user_id, operation_type, original_command, priority, context_files,
	status, converted_equivalent, web_equivalent_output, error_message, conversion_notes, metadata,
	created_at, updated_at, completed_at`

// SQLiteStore persists conversion operations in a SQLite database.
type SQLiteStore struct {
	db    *sql.DB
	path  string
	mu    sync.Mutex
	now   func() time.Time
	newID func() string
	retry func() backoff.BackOff
}

// NewSQLiteStore creates (or opens) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, fmt.Errorf("create tracking dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open tracking db: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{
		db:    db,
		path:  path,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
		retry: defaultBackOff,
	}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init tracking db: %w", err)
	}
	return store, nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 25 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = domain.DefaultTrackingRetryElapsed
	return b
}

func (s *SQLiteStore) init() error {
	stmts := []string{
		`PRAGMA busy_timeout = 5000`,
		`CREATE TABLE IF NOT EXISTS conversion_operations (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			user_id TEXT,
			operation_type TEXT,
			original_command TEXT,
			priority TEXT,
			context_files TEXT,
			status TEXT NOT NULL,
			converted_equivalent TEXT,
			web_equivalent_output TEXT,
			error_message TEXT,
			conversion_notes TEXT,
			metadata TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			completed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversion_operations_session
			ON conversion_operations (session_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateOperation implements ports.ConversionTracker.
func (s *SQLiteStore) CreateOperation(ctx context.Context, req domain.ConversionRequest) (string, error) {
	if req.SessionID == "" {
		return "", errSessionRequired
	}
	op := newOperation(s.newID(), req, s.now())
	contextFiles, err := marshalJSON(op.ContextFiles)
	if err != nil {
		return "", err
	}
	metadata, err := marshalJSON(op.Metadata)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.withRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `INSERT INTO conversion_operations (`+operationColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			op.ID, op.SessionID, op.UserID, string(op.Type), op.OriginalCommand, string(op.Priority), contextFiles,
			string(op.Status), "", "", "", "", metadata,
			formatTime(op.CreatedAt), formatTime(op.UpdatedAt), nil,
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("insert operation: %w", err)
	}
	return op.ID, nil
}

// UpdateOperation implements ports.ConversionTracker.
func (s *SQLiteStore) UpdateOperation(ctx context.Context, update domain.ConversionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		row := tx.QueryRowContext(ctx, `SELECT `+operationColumns+` FROM conversion_operations WHERE id = ?`, update.OperationID)
		op, err := scanOperation(row)
		if errors.Is(err, sql.ErrNoRows) {
			return backoff.Permanent(fmt.Errorf("%w: %s", domain.ErrOperationNotFound, update.OperationID))
		}
		if err != nil {
			return err
		}
		if !op.Status.CanTransitionTo(update.Status) {
			return backoff.Permanent(fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, op.Status, update.Status))
		}
		op.Apply(update, s.now())

		var completed interface{}
		if op.CompletedAt != nil {
			completed = formatTime(*op.CompletedAt)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE conversion_operations SET
				status = ?, converted_equivalent = ?, web_equivalent_output = ?, error_message = ?,
				conversion_notes = ?, updated_at = ?, completed_at = ?
			WHERE id = ?`,
			string(op.Status), op.ConvertedEquivalent, op.WebEquivalentOutput, op.ErrorMessage,
			op.ConversionNotes, formatTime(op.UpdatedAt), completed, op.ID,
		); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// SessionProgress implements ports.ConversionTracker.
func (s *SQLiteStore) SessionProgress(ctx context.Context, sessionID string) (domain.SessionProgress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM conversion_operations WHERE session_id = ? GROUP BY status`, sessionID)
	if err != nil {
		return domain.SessionProgress{}, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.ConversionState]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return domain.SessionProgress{}, err
		}
		counts[domain.ConversionState(status)] = n
	}
	if err := rows.Err(); err != nil {
		return domain.SessionProgress{}, err
	}
	return domain.SummariseProgress(sessionID, counts), nil
}

// SessionOperations implements ports.ConversionTracker. Newest operations come first.
func (s *SQLiteStore) SessionOperations(ctx context.Context, sessionID string, limit int) ([]domain.ConversionOperation, error) {
	return s.operations(ctx, sessionID, limit)
}

func (s *SQLiteStore) operations(ctx context.Context, sessionID string, limit int) ([]domain.ConversionOperation, error) {
	builder := strings.Builder{}
	builder.WriteString("SELECT " + operationColumns + " FROM conversion_operations")
	var args []interface{}
	if sessionID != "" {
		builder.WriteString(" WHERE session_id = ?")
		args = append(args, sessionID)
	}
	builder.WriteString(" ORDER BY created_at DESC, rowid DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, builder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var ops []domain.ConversionOperation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

// Prune deletes operations last updated before the cutoff.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	err := s.withRetry(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM conversion_operations WHERE updated_at < ?`, formatTime(before.UTC()))
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

// ExportJSON writes every operation to a jsonl file.
func (s *SQLiteStore) ExportJSON(ctx context.Context, dest string) error {
	ops, err := s.operations(ctx, "", 0)
	if err != nil {
		return err
	}
	return writeJSONL(dest, ops)
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withRetry retries op while SQLite reports the database as busy.
func (s *SQLiteStore) withRetry(ctx context.Context, op func() error) error {
	return backoff.Retry(func() error {
		err := op()
		if err == nil || isBusy(err) {
			return err
		}
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(s.retry(), ctx))
}

func isBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "sqlite_busy") || strings.Contains(msg, "database is locked")
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOperation(row scanner) (domain.ConversionOperation, error) {
	var (
		op                                       domain.ConversionOperation
		opType, priority, status                 string
		contextFiles, metadata                   sql.NullString
		userID, converted, output, errMsg, notes sql.NullString
		createdAt, updatedAt                     string
		completedAt                              sql.NullString
	)
	if err := row.Scan(&op.ID, &op.SessionID, &userID, &opType, &op.OriginalCommand, &priority, &contextFiles,
		&status, &converted, &output, &errMsg, &notes, &metadata, &createdAt, &updatedAt, &completedAt); err != nil {
		return domain.ConversionOperation{}, err
	}
	op.UserID = userID.String
	op.Type = domain.CommandType(opType)
	op.Priority = domain.Priority(priority)
	op.Status = domain.ConversionState(status)
	op.ConvertedEquivalent = converted.String
	op.WebEquivalentOutput = output.String
	op.ErrorMessage = errMsg.String
	op.ConversionNotes = notes.String
	if contextFiles.Valid && contextFiles.String != "" {
		if err := json.Unmarshal([]byte(contextFiles.String), &op.ContextFiles); err != nil {
			return domain.ConversionOperation{}, fmt.Errorf("decode context files: %w", err)
		}
	}
	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &op.Metadata); err != nil {
			return domain.ConversionOperation{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	op.CreatedAt = parseTime(createdAt)
	op.UpdatedAt = parseTime(updatedAt)
	if completedAt.Valid && completedAt.String != "" {
		t := parseTime(completedAt.String)
		op.CompletedAt = &t
	}
	return op, nil
}

func marshalJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeFormat)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(sqliteTimeFormat, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

var _ ports.OperationStore = (*SQLiteStore)(nil)
