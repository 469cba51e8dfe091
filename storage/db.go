// Package storage persists the workflow runtime in SQLite: workflow rows,
// agent execution rows, checkpoint audit rows, and the per-thread state
// snapshots the graph engine resumes from. A single Store owns the database
// handle; snapshot writes are serialized per thread.
package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite-backed persistence layer.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu      sync.Mutex
	threads map[string]*sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Open opens (creating if needed) the database at path and migrates the
// schema. Use ":memory:" for an ephemeral database.
func Open(path string, opts ...Option) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{
		db:      db,
		logger:  slog.Default(),
		threads: make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// threadLock returns the write lock for one thread id.
func (s *Store) threadLock(threadID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.threads[threadID]
	if !ok {
		lock = &sync.Mutex{}
		s.threads[threadID] = lock
	}
	return lock
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workflows (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		workspace_path TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		completed_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS agent_executions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		workflow_id TEXT NOT NULL,
		agent_name TEXT NOT NULL,
		agent_type TEXT NOT NULL,
		input_content TEXT NOT NULL DEFAULT '',
		output_content TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME,
		execution_time_ms INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (workflow_id) REFERENCES workflows(id)
	);

	CREATE INDEX IF NOT EXISTS idx_executions_workflow ON agent_executions(workflow_id);

	CREATE TABLE IF NOT EXISTS user_checkpoints (
		id TEXT PRIMARY KEY,
		workflow_id TEXT NOT NULL,
		checkpoint_number INTEGER NOT NULL,
		step_name TEXT NOT NULL,
		iteration INTEGER NOT NULL DEFAULT 0,
		payload TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		resolution_action TEXT NOT NULL DEFAULT '',
		edited_content TEXT NOT NULL DEFAULT '',
		user_notes TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		resolved_at DATETIME,
		FOREIGN KEY (workflow_id) REFERENCES workflows(id)
	);

	CREATE INDEX IF NOT EXISTS idx_checkpoints_workflow ON user_checkpoints(workflow_id);

	CREATE TABLE IF NOT EXISTS workflow_states (
		thread_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		snapshot_id TEXT NOT NULL,
		state TEXT NOT NULL,
		next TEXT NOT NULL DEFAULT '[]',
		interrupts TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL,
		PRIMARY KEY (thread_id, seq)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
