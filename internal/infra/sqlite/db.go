// Package sqlite provides SQLite-based persistent storage for the
// attest node. Uses WAL mode for concurrent reads and crash-safe writes.
// The in-memory stores stay authoritative at runtime; this package is
// the write-through journal they restore from on start.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/attest-network/attest/internal/domain"
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Connection pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS commitments (
			job_id          TEXT PRIMARY KEY,
			worker          TEXT NOT NULL,
			commitment_hash TEXT NOT NULL,
			timestamp       INTEGER NOT NULL,
			revealed        BOOLEAN DEFAULT 0,
			model_id        TEXT,
			input_hash      TEXT,
			output_hash     TEXT,
			nonce           TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_commitments_hash ON commitments(commitment_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_commitments_ts ON commitments(timestamp)`,

		`CREATE TABLE IF NOT EXISTS failure_records (
			id              TEXT PRIMARY KEY,
			job_id          TEXT NOT NULL,
			agent_address   TEXT NOT NULL,
			error_type      TEXT NOT NULL,
			error_code      INTEGER NOT NULL,
			message         TEXT NOT NULL,
			timestamp       INTEGER NOT NULL,
			recovered       BOOLEAN DEFAULT 0,
			recovery_method TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_job ON failure_records(job_id)`,
		`CREATE INDEX IF NOT EXISTS idx_failures_agent ON failure_records(agent_address)`,

		`CREATE TABLE IF NOT EXISTS agent_stats (
			address              TEXT PRIMARY KEY,
			consecutive_failures INTEGER NOT NULL DEFAULT 0,
			total_failures       INTEGER NOT NULL DEFAULT 0,
			last_failure_time    INTEGER,
			is_suspended         BOOLEAN DEFAULT 0,
			suspended_until      INTEGER
		)`,

		`CREATE TABLE IF NOT EXISTS review_items (
			id            TEXT PRIMARY KEY,
			job_id        TEXT NOT NULL,
			agent_address TEXT NOT NULL,
			error_type    TEXT NOT NULL,
			error_message TEXT NOT NULL,
			added_at      INTEGER NOT NULL,
			priority      TEXT NOT NULL,
			status        TEXT NOT NULL,
			resolution    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_review_job ON review_items(job_id)`,
		`CREATE INDEX IF NOT EXISTS idx_review_status ON review_items(status)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Commitments ────────────────────────────────────────────────────────────

// SaveCommitment inserts or updates a commitment record.
func (d *DB) SaveCommitment(c domain.Commitment) error {
	var modelID, inputHash, outputHash, nonce sql.NullString
	if c.Reveal != nil {
		modelID = sql.NullString{String: c.Reveal.ModelID, Valid: true}
		inputHash = sql.NullString{String: c.Reveal.InputHash, Valid: true}
		outputHash = sql.NullString{String: c.Reveal.OutputHash, Valid: true}
		nonce = sql.NullString{String: c.Reveal.Nonce, Valid: true}
	}
	_, err := d.db.Exec(
		`INSERT INTO commitments (job_id, worker, commitment_hash, timestamp, revealed, model_id, input_hash, output_hash, nonce)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(job_id) DO UPDATE SET
			worker=excluded.worker,
			commitment_hash=excluded.commitment_hash,
			timestamp=excluded.timestamp,
			revealed=excluded.revealed,
			model_id=excluded.model_id,
			input_hash=excluded.input_hash,
			output_hash=excluded.output_hash,
			nonce=excluded.nonce`,
		c.JobID, c.Worker, c.CommitmentHash, c.Timestamp.UnixMilli(), c.Revealed,
		modelID, inputHash, outputHash, nonce,
	)
	return err
}

// DeleteCommitment removes a commitment record.
func (d *DB) DeleteCommitment(jobID string) error {
	_, err := d.db.Exec(`DELETE FROM commitments WHERE job_id = ?`, jobID)
	return err
}

// LoadCommitments returns all persisted commitments, oldest first.
func (d *DB) LoadCommitments() ([]domain.Commitment, error) {
	rows, err := d.db.Query(
		`SELECT job_id, worker, commitment_hash, timestamp, revealed, model_id, input_hash, output_hash, nonce
		 FROM commitments ORDER BY timestamp ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Commitment
	for rows.Next() {
		var c domain.Commitment
		var ts int64
		var modelID, inputHash, outputHash, nonce sql.NullString
		if err := rows.Scan(&c.JobID, &c.Worker, &c.CommitmentHash, &ts, &c.Revealed,
			&modelID, &inputHash, &outputHash, &nonce); err != nil {
			return nil, err
		}
		c.Timestamp = time.UnixMilli(ts)
		if c.Revealed && nonce.Valid {
			c.Reveal = &domain.Reveal{
				ModelID:    modelID.String,
				InputHash:  inputHash.String,
				OutputHash: outputHash.String,
				Nonce:      nonce.String,
			}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ─── Failure Records ────────────────────────────────────────────────────────

// SaveFailureRecord inserts or updates a failure record.
func (d *DB) SaveFailureRecord(r domain.FailureRecord) error {
	_, err := d.db.Exec(
		`INSERT INTO failure_records (id, job_id, agent_address, error_type, error_code, message, timestamp, recovered, recovery_method)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			recovered=excluded.recovered,
			recovery_method=excluded.recovery_method`,
		r.ID, r.JobID, r.AgentAddress, string(r.ErrorType), r.ErrorCode,
		r.Message, r.Timestamp.UnixMilli(), r.Recovered, r.RecoveryMethod,
	)
	return err
}

// LoadFailureRecords returns all persisted failure records, oldest first.
func (d *DB) LoadFailureRecords() ([]domain.FailureRecord, error) {
	rows, err := d.db.Query(
		`SELECT id, job_id, agent_address, error_type, error_code, message, timestamp, recovered, recovery_method
		 FROM failure_records ORDER BY timestamp ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FailureRecord
	for rows.Next() {
		var r domain.FailureRecord
		var errorType string
		var ts int64
		var method sql.NullString
		if err := rows.Scan(&r.ID, &r.JobID, &r.AgentAddress, &errorType, &r.ErrorCode,
			&r.Message, &ts, &r.Recovered, &method); err != nil {
			return nil, err
		}
		r.ErrorType = domain.ErrorType(errorType)
		r.Timestamp = time.UnixMilli(ts)
		r.RecoveryMethod = method.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// ─── Agent Stats ────────────────────────────────────────────────────────────

// SaveAgentStats inserts or updates an agent's failure statistics.
func (d *DB) SaveAgentStats(s domain.AgentFailureStats) error {
	_, err := d.db.Exec(
		`INSERT INTO agent_stats (address, consecutive_failures, total_failures, last_failure_time, is_suspended, suspended_until)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(address) DO UPDATE SET
			consecutive_failures=excluded.consecutive_failures,
			total_failures=excluded.total_failures,
			last_failure_time=excluded.last_failure_time,
			is_suspended=excluded.is_suspended,
			suspended_until=excluded.suspended_until`,
		s.Address, s.ConsecutiveFailures, s.TotalFailures,
		nullableUnixMilli(s.LastFailureTime), s.IsSuspended, nullableUnixMilli(s.SuspendedUntil),
	)
	return err
}

// LoadAgentStats returns all persisted agent statistics.
func (d *DB) LoadAgentStats() ([]domain.AgentFailureStats, error) {
	rows, err := d.db.Query(
		`SELECT address, consecutive_failures, total_failures, last_failure_time, is_suspended, suspended_until
		 FROM agent_stats`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AgentFailureStats
	for rows.Next() {
		var s domain.AgentFailureStats
		var lastFailure, suspendedUntil sql.NullInt64
		if err := rows.Scan(&s.Address, &s.ConsecutiveFailures, &s.TotalFailures,
			&lastFailure, &s.IsSuspended, &suspendedUntil); err != nil {
			return nil, err
		}
		if lastFailure.Valid {
			s.LastFailureTime = time.UnixMilli(lastFailure.Int64)
		}
		if suspendedUntil.Valid {
			s.SuspendedUntil = time.UnixMilli(suspendedUntil.Int64)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ─── Review Items ───────────────────────────────────────────────────────────

// SaveReviewItem inserts or updates a manual review item.
func (d *DB) SaveReviewItem(item domain.ManualReviewItem) error {
	_, err := d.db.Exec(
		`INSERT INTO review_items (id, job_id, agent_address, error_type, error_message, added_at, priority, status, resolution)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			status=excluded.status,
			resolution=excluded.resolution`,
		item.ID, item.JobID, item.AgentAddress, string(item.ErrorType), item.ErrorMessage,
		item.AddedAt.UnixMilli(), string(item.Priority), string(item.Status), item.Resolution,
	)
	return err
}

// LoadReviewItems returns all persisted review items in insertion order.
func (d *DB) LoadReviewItems() ([]domain.ManualReviewItem, error) {
	rows, err := d.db.Query(
		`SELECT id, job_id, agent_address, error_type, error_message, added_at, priority, status, resolution
		 FROM review_items ORDER BY added_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ManualReviewItem
	for rows.Next() {
		var item domain.ManualReviewItem
		var errorType, priority, status string
		var addedAt int64
		var resolution sql.NullString
		if err := rows.Scan(&item.ID, &item.JobID, &item.AgentAddress, &errorType, &item.ErrorMessage,
			&addedAt, &priority, &status, &resolution); err != nil {
			return nil, err
		}
		item.ErrorType = domain.ErrorType(errorType)
		item.AddedAt = time.UnixMilli(addedAt)
		item.Priority = domain.ReviewPriority(priority)
		item.Status = domain.ReviewStatus(status)
		item.Resolution = resolution.String
		out = append(out, item)
	}
	return out, rows.Err()
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func nullableUnixMilli(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}
