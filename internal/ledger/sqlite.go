package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/svtalent/candidate-intake/internal/common"
)

// SQLiteStore keeps the ledger in a single SQLite file. One connection,
// WAL journaling, writes serialized by the pool; lock scope never extends
// past the statement itself.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

const (
	createProcessedFiles = `CREATE TABLE IF NOT EXISTS processed_files (
		content_hash TEXT PRIMARY KEY,
		file_path    TEXT NOT NULL,
		processed_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	createDriveFiles = `CREATE TABLE IF NOT EXISTS drive_files (
		file_id    TEXT PRIMARY KEY,
		fetched_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
)

// NewSQLiteStore opens (creating if needed) the ledger database at path. An
// unreadable or corrupt database is moved aside and replaced with an empty
// one: reprocessing a few files beats refusing to start. Only a path that
// cannot host a fresh database is a hard error.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, common.NewAppError(common.CodeConfigError, "create ledger directory", err)
		}
	}

	db, err := openAndInit(path)
	if err != nil {
		if _, statErr := os.Stat(path); statErr != nil {
			// No database file to salvage; the location itself is unusable.
			return nil, common.NewAppError(common.CodeConfigError, "open ledger", err)
		}
		aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
		logger.Warn("ledger.unreadable",
			"code", common.CodeLedgerUnreadable,
			"path", path,
			"moved_to", aside,
			"error", err,
		)
		if mvErr := os.Rename(path, aside); mvErr != nil {
			return nil, common.NewAppError(common.CodeLedgerUnreadable, "move unreadable ledger aside", mvErr)
		}
		// stale WAL siblings must not outlive the database they belong to
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
		if db, err = openAndInit(path); err != nil {
			return nil, common.NewAppError(common.CodeLedgerUnreadable, "reopen ledger after reset", err)
		}
	}

	logger.Info("ledger.open", "path", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

func openAndInit(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		createProcessedFiles,
		createDriveFiles,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init ledger (%s): %w", stmt[:min(24, len(stmt))], err)
		}
	}
	return db, nil
}

func (s *SQLiteStore) Has(ctx context.Context, hash string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM processed_files WHERE content_hash = ?`, hash,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger lookup: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) Record(ctx context.Context, hash, path string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO processed_files (content_hash, file_path) VALUES (?, ?)
		 ON CONFLICT(content_hash) DO NOTHING`, hash, path,
	)
	if err != nil {
		return fmt.Errorf("ledger record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) HasDriveFile(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM drive_files WHERE file_id = ?`, id,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ledger drive lookup: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) RecordDriveFile(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO drive_files (file_id) VALUES (?)
		 ON CONFLICT(file_id) DO NOTHING`, id,
	)
	if err != nil {
		return fmt.Errorf("ledger drive record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
