// Package repository persists match records.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"onboarding_backend/internal/matching/domain"
	"onboarding_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const recordNotFoundMsg = "match record not found"

const recordColumns = `
	id, source, source_record_id, channel, scout_id, reference_date, full_name, phone,
	driver_id, score, reasons, is_manual, is_discarded, matched_at, created_at, updated_at`

// Repository provides database operations for match records.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new matching repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetRecord loads one record.
func (r *Repository) GetRecord(ctx context.Context, id uuid.UUID) (domain.Record, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM match_records WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Record{}, apperr.NotFound(recordNotFoundMsg)
	}
	if err != nil {
		return domain.Record{}, fmt.Errorf("get match record: %w", err)
	}
	return rec, nil
}

// ListRecords returns every record of a source whose reference date falls in
// [from, to], including manual and discarded ones.
func (r *Repository) ListRecords(ctx context.Context, source domain.Source, from, to time.Time) ([]domain.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+recordColumns+`
		FROM match_records
		WHERE source = $1 AND reference_date BETWEEN $2 AND $3
		ORDER BY reference_date, id`, string(source), from, to)
	if err != nil {
		return nil, fmt.Errorf("list match records: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match record: %w", err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match records: %w", err)
	}
	return items, nil
}

// SaveAutoDecisions writes changed auto-match decisions in one batch. Rows
// that became manual or discarded since they were read are left untouched.
func (r *Repository) SaveAutoDecisions(ctx context.Context, decisions []domain.Decision, now time.Time) (int64, error) {
	if len(decisions) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, d := range decisions {
		var driverID *string
		var matchedAt *time.Time
		if d.DriverID != "" {
			driverID = &d.DriverID
			matchedAt = &now
		}
		reasons := d.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		batch.Queue(`
			UPDATE match_records
			SET driver_id = $2, score = $3, reasons = $4, matched_at = $5, updated_at = $6
			WHERE id = $1 AND NOT is_manual AND NOT is_discarded`,
			d.RecordID, driverID, d.Score, reasons, matchedAt, now)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	var updated int64
	for range decisions {
		tag, err := results.Exec()
		if err != nil {
			return updated, fmt.Errorf("save auto decision: %w", err)
		}
		updated += tag.RowsAffected()
	}
	return updated, nil
}

// AssignManual pins a record to a driver.
func (r *Repository) AssignManual(ctx context.Context, id uuid.UUID, driverID string, score float64, reasons []string, now time.Time) (domain.Record, error) {
	if reasons == nil {
		reasons = []string{}
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE match_records
		SET driver_id = $2, score = $3, reasons = $4, is_manual = true, matched_at = $5, updated_at = $5
		WHERE id = $1 AND NOT is_discarded
		RETURNING `+recordColumns, id, driverID, score, reasons, now)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Record{}, apperr.StateConflict("match record is discarded or missing")
	}
	if err != nil {
		return domain.Record{}, fmt.Errorf("assign manual match: %w", err)
	}
	return rec, nil
}

// Discard excludes a record from matching and clears its driver.
func (r *Repository) Discard(ctx context.Context, id uuid.UUID, now time.Time) (domain.Record, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE match_records
		SET is_discarded = true, is_manual = false, driver_id = NULL, score = 0, reasons = '{}', matched_at = NULL, updated_at = $2
		WHERE id = $1
		RETURNING `+recordColumns, id, now)
	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Record{}, apperr.NotFound(recordNotFoundMsg)
	}
	if err != nil {
		return domain.Record{}, fmt.Errorf("discard match record: %w", err)
	}
	return rec, nil
}

func scanRecord(row pgx.Row) (domain.Record, error) {
	var rec domain.Record
	var source string
	var scoutID, phone, driverID *string
	if err := row.Scan(
		&rec.ID, &source, &rec.SourceRecordID, &rec.Channel, &scoutID, &rec.ReferenceDate,
		&rec.FullName, &phone, &driverID, &rec.Score, &rec.Reasons, &rec.IsManual,
		&rec.IsDiscarded, &rec.MatchedAt, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return domain.Record{}, err
	}
	rec.Source = domain.Source(source)
	rec.ScoutID = deref(scoutID)
	rec.Phone = deref(phone)
	rec.DriverID = deref(driverID)
	return rec, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
