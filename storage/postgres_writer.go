package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"checkeasy-report/models"
	"checkeasy-report/utils"
)

// LoadRecord is one archived report load.
type LoadRecord struct {
	ID                 int64
	ReportID           string
	AIStatus           string
	SessionStatus      string
	SignalementsStatus string
	BundleStatus       string
	RoomCount          int
	SignalementCount   int
	LoadedAt           time.Time
}

// PostgresWriter archives report loads to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, pings it through the
// retry policy, runs schema migrations and returns a ready-to-use writer.
func NewPostgresWriter(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := NewPostgresWriterFromDB(db)
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

// NewPostgresWriterFromDB wraps an already-open database.
func NewPostgresWriterFromDB(db *sql.DB) *PostgresWriter {
	return &PostgresWriter{db: db}
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS report_loads (
			id                  BIGSERIAL PRIMARY KEY,
			report_id           TEXT        NOT NULL,
			ai_status           VARCHAR(20) NOT NULL,
			session_status      VARCHAR(20) NOT NULL,
			signalements_status VARCHAR(20) NOT NULL,
			bundle_status       VARCHAR(20) NOT NULL,
			room_count          INTEGER     NOT NULL DEFAULT 0,
			signalement_count   INTEGER     NOT NULL DEFAULT 0,
			loaded_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS report_load_rooms (
			load_id   BIGINT  NOT NULL REFERENCES report_loads(id) ON DELETE CASCADE,
			room_id   TEXT    NOT NULL,
			name      TEXT    NOT NULL DEFAULT '',
			note      NUMERIC(4,2) NOT NULL DEFAULT 0,
			problems  INTEGER NOT NULL DEFAULT 0,
			etapes    INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (load_id, room_id)
		);

		CREATE INDEX IF NOT EXISTS idx_report_loads_report ON report_loads(report_id);
	`)
	return err
}

// ArchiveLoad inserts one load row and one row per room.
func (pw *PostgresWriter) ArchiveLoad(ctx context.Context, r *models.FusedReport) error {
	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var loadID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO report_loads
			(report_id, ai_status, session_status, signalements_status, bundle_status, room_count, signalement_count, loaded_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, r.ReportMetadata.ID, string(r.Sources.AI), string(r.Sources.Session), string(r.Sources.Signalements),
		string(r.Sources.Bundle), len(r.RoomOrder), len(r.Raw.Signalements), r.LoadedAt,
	).Scan(&loadID)
	if err != nil {
		return fmt.Errorf("postgres: insert load: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(r.RoomOrder); i += batchSize {
		end := i + batchSize
		if end > len(r.RoomOrder) {
			end = len(r.RoomOrder)
		}
		if err := insertRoomBatch(ctx, tx, loadID, r, r.RoomOrder[i:end]); err != nil {
			return fmt.Errorf("postgres: insert rooms: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func insertRoomBatch(ctx context.Context, tx *sql.Tx, loadID int64, r *models.FusedReport, ids []string) error {
	valueStrings := make([]string, 0, len(ids))
	valueArgs := make([]interface{}, 0, len(ids)*6)

	for idx, id := range ids {
		room := r.Room(id)
		base := idx * 6
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6))
		valueArgs = append(valueArgs,
			loadID, id, room.AI.Nom, room.AI.Note, len(room.AI.Problemes), len(room.Etapes))
	}

	query := fmt.Sprintf(`
		INSERT INTO report_load_rooms (load_id, room_id, name, note, problems, etapes)
		VALUES %s
		ON CONFLICT (load_id, room_id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := tx.ExecContext(ctx, query, valueArgs...)
	return err
}

// RecentLoads returns the latest archived loads of a report, newest first.
func (pw *PostgresWriter) RecentLoads(ctx context.Context, reportID string, limit int) ([]LoadRecord, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT id, report_id, ai_status, session_status, signalements_status, bundle_status,
		       room_count, signalement_count, loaded_at
		FROM report_loads
		WHERE report_id = $1
		ORDER BY loaded_at DESC
		LIMIT $2
	`, reportID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent loads: %w", err)
	}
	defer rows.Close()

	var records []LoadRecord
	for rows.Next() {
		var rec LoadRecord
		if err := rows.Scan(
			&rec.ID, &rec.ReportID, &rec.AIStatus, &rec.SessionStatus, &rec.SignalementsStatus,
			&rec.BundleStatus, &rec.RoomCount, &rec.SignalementCount, &rec.LoadedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
