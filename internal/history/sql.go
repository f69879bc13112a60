package history

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // Import the PostgreSQL driver

	"github.com/tannerhall/repowatch/internal/logging"
)

// SQLRecorder persists delivery history to a PostgreSQL database.
type SQLRecorder struct {
	db     *sql.DB
	logger logging.Logger
}

// NewSQLRecorder creates a recorder backed by a SQL database connection.
func NewSQLRecorder(dsn string, logger logging.Logger) (*SQLRecorder, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQL database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to SQL database: %w", err)
	}

	r := &SQLRecorder{db: db, logger: logger.Named("sql_history")}

	if err := r.ensureSchema(); err != nil {
		r.db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	r.logger.Info("SQL history recorder initialized successfully.")
	return r, nil
}

// ensureSchema creates the deliveries table if it doesn't already exist.
func (r *SQLRecorder) ensureSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS repowatch_deliveries (
		id SERIAL PRIMARY KEY,
		cycle_id VARCHAR(36) NOT NULL,
		target_key VARCHAR(255) NOT NULL,
		revision_id VARCHAR(64) NOT NULL,
		group_id VARCHAR(64) NOT NULL,
		platform VARCHAR(32) NOT NULL,
		status VARCHAR(16) NOT NULL,
		error TEXT,
		timestamp TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_repowatch_deliveries_target_timestamp ON repowatch_deliveries (target_key, timestamp DESC);
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("failed to execute schema creation query: %w", err)
	}
	return nil
}

// Record inserts a delivery record into the database.
func (r *SQLRecorder) Record(rec Record) error {
	query := `INSERT INTO repowatch_deliveries (cycle_id, target_key, revision_id, group_id, platform, status, error, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.Exec(query, rec.CycleID, rec.TargetKey, rec.RevisionID, rec.GroupID, rec.Platform, rec.Status, rec.Error, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert delivery record into database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *SQLRecorder) Close() error {
	if r.db != nil {
		r.logger.Info("Closing SQL history recorder database connection...")
		return r.db.Close()
	}
	return nil
}
