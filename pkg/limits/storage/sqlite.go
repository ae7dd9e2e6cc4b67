package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteStore implements Store using SQLite.
// Several processes on one host can share rate windows by opening the same
// database file. Each increment is a single UPSERT statement, so the reset
// rule and the counter update are applied atomically per key.
type SQLiteStore struct {
	db        *sql.DB
	dbPath    string
	closeOnce sync.Once

	incrementStmt *sql.Stmt
	getStmt       *sql.Stmt
	deletePfxStmt *sql.Stmt
	pruneStmt     *sql.Stmt
}

// SQLiteStoreConfig configures the SQLite store.
type SQLiteStoreConfig struct {
	// DBPath is the path to the SQLite database file.
	DBPath string

	// BusyTimeout is how long to wait for locks held by other processes.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLiteStore creates a SQLite store with default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	return NewSQLiteStoreWithConfig(SQLiteStoreConfig{
		DBPath:      dbPath,
		BusyTimeout: 5 * time.Second,
	})
}

// NewSQLiteStoreWithConfig creates a SQLite store with custom configuration.
func NewSQLiteStoreWithConfig(cfg SQLiteStoreConfig) (*SQLiteStore, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)&_txlock=immediate",
		cfg.DBPath, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:     db,
		dbPath: cfg.DBPath,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := store.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return store, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rate_windows (
		key TEXT PRIMARY KEY,
		count INTEGER NOT NULL,
		window_start INTEGER NOT NULL,
		period INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_window_start ON rate_windows(window_start);
	`

	_, err := s.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (s *SQLiteStore) prepareStatements() error {
	var err error

	// SET expressions see the pre-update row, so both CASE arms test the
	// old window_start.
	s.incrementStmt, err = s.db.Prepare(`
		INSERT INTO rate_windows (key, count, window_start, period)
		VALUES (?1, 1, ?2, ?3)
		ON CONFLICT (key) DO UPDATE SET
			count = CASE WHEN ?2 >= rate_windows.window_start + rate_windows.period
				THEN 1 ELSE rate_windows.count + 1 END,
			window_start = CASE WHEN ?2 >= rate_windows.window_start + rate_windows.period
				THEN ?2 ELSE rate_windows.window_start END
		RETURNING count, window_start, period
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare increment statement: %w", err)
	}

	s.getStmt, err = s.db.Prepare(`
		SELECT count, window_start, period FROM rate_windows WHERE key = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	s.deletePfxStmt, err = s.db.Prepare(`
		DELETE FROM rate_windows WHERE substr(key, 1, length(?1)) = ?1
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`
		DELETE FROM rate_windows WHERE ? - window_start > 2 * period
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}

	return nil
}

// Increment applies the fixed-window rule and bumps the counter for key.
func (s *SQLiteStore) Increment(ctx context.Context, key string, now time.Time, period time.Duration) (Window, error) {
	if key == "" {
		return Window{}, fmt.Errorf("key cannot be empty")
	}
	if period <= 0 {
		return Window{}, fmt.Errorf("period must be positive, got %v", period)
	}

	var (
		count  int64
		start  int64
		stored int64
	)
	err := s.incrementStmt.QueryRowContext(ctx, key, now.UnixNano(), int64(period)).Scan(&count, &start, &stored)
	if err != nil {
		return Window{}, fmt.Errorf("failed to increment window %s: %w", key, err)
	}

	return Window{
		Key:    key,
		Count:  count,
		Start:  time.Unix(0, start),
		Period: time.Duration(stored),
	}, nil
}

// Get returns the window stored under key, or nil if none exists.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Window, error) {
	var (
		count  int64
		start  int64
		period int64
	)
	err := s.getStmt.QueryRowContext(ctx, key).Scan(&count, &start, &period)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load window %s: %w", key, err)
	}

	return &Window{
		Key:    key,
		Count:  count,
		Start:  time.Unix(0, start),
		Period: time.Duration(period),
	}, nil
}

// DeletePrefix removes all windows whose key has the given prefix.
func (s *SQLiteStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	result, err := s.deletePfxStmt.ExecContext(ctx, prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to delete windows: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(deleted), nil
}

// Prune removes windows older than twice their period.
func (s *SQLiteStore) Prune(ctx context.Context, now time.Time) (int, error) {
	result, err := s.pruneStmt.ExecContext(ctx, now.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(deleted), nil
}

// Close releases the database handle.
// Close is idempotent and safe to call multiple times.
func (s *SQLiteStore) Close() error {
	var closeErr error

	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.incrementStmt, s.getStmt, s.deletePfxStmt, s.pruneStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}

		if s.db != nil {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
			closeErr = s.db.Close()
		}
	})

	return closeErr
}
