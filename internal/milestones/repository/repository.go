// Package repository persists milestone instances.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"onboarding_backend/internal/milestones/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const instanceColumns = `
	id, driver_id, park_id, milestone_type, window_days, trip_count,
	fulfilled_at, calculated_at, trip_breakdown, created_at, updated_at`

// PeriodFilter narrows the per-period query.
type PeriodFilter struct {
	ParkID        string
	WindowDays    int
	MilestoneType int
}

// Repository provides database operations for milestone instances.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new milestones repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListForDriver returns every instance of a driver ordered by window and type.
func (r *Repository) ListForDriver(ctx context.Context, driverID string) ([]domain.Instance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+instanceColumns+`
		FROM milestone_instances
		WHERE driver_id = $1
		ORDER BY window_days, milestone_type`, driverID)
	if err != nil {
		return nil, fmt.Errorf("list driver milestones: %w", err)
	}
	return collectInstances(rows)
}

// ListForDriverWindow returns a driver's instances for one window keyed by type.
func (r *Repository) ListForDriverWindow(ctx context.Context, driverID string, windowDays int) (map[int]domain.Instance, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+instanceColumns+`
		FROM milestone_instances
		WHERE driver_id = $1 AND window_days = $2`, driverID, windowDays)
	if err != nil {
		return nil, fmt.Errorf("list driver window milestones: %w", err)
	}
	items, err := collectInstances(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[int]domain.Instance, len(items))
	for _, it := range items {
		out[it.MilestoneType] = it
	}
	return out, nil
}

// ListForDrivers returns the instances of many drivers for one window.
func (r *Repository) ListForDrivers(ctx context.Context, driverIDs []string, windowDays int) ([]domain.Instance, error) {
	if len(driverIDs) == 0 {
		return []domain.Instance{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+instanceColumns+`
		FROM milestone_instances
		WHERE driver_id = ANY($1) AND window_days = $2
		ORDER BY driver_id, milestone_type`, driverIDs, windowDays)
	if err != nil {
		return nil, fmt.Errorf("list milestones for drivers: %w", err)
	}
	return collectInstances(rows)
}

// ListFulfilledInPeriod returns instances fulfilled within [from, to].
func (r *Repository) ListFulfilledInPeriod(ctx context.Context, filter PeriodFilter, from, to time.Time) ([]domain.Instance, error) {
	clauses := []string{"fulfilled_at IS NOT NULL", "fulfilled_at >= $1", "fulfilled_at < $2"}
	args := []interface{}{from, to.AddDate(0, 0, 1)}

	if filter.ParkID != "" {
		args = append(args, filter.ParkID)
		clauses = append(clauses, fmt.Sprintf("park_id = $%d", len(args)))
	}
	if filter.WindowDays != 0 {
		args = append(args, filter.WindowDays)
		clauses = append(clauses, fmt.Sprintf("window_days = $%d", len(args)))
	}
	if filter.MilestoneType != 0 {
		args = append(args, filter.MilestoneType)
		clauses = append(clauses, fmt.Sprintf("milestone_type = $%d", len(args)))
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+instanceColumns+`
		FROM milestone_instances
		WHERE `+strings.Join(clauses, " AND ")+`
		ORDER BY fulfilled_at, driver_id, milestone_type`, args...)
	if err != nil {
		return nil, fmt.Errorf("list fulfilled milestones: %w", err)
	}
	return collectInstances(rows)
}

// Upsert writes instances keyed by (driver, type, window). A fulfillment
// already stored is never replaced.
func (r *Repository) Upsert(ctx context.Context, instances []domain.Instance) error {
	if len(instances) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, inst := range instances {
		breakdown, err := json.Marshal(inst.Breakdown)
		if err != nil {
			return fmt.Errorf("encode trip breakdown: %w", err)
		}
		batch.Queue(`
			INSERT INTO milestone_instances (
				id, driver_id, park_id, milestone_type, window_days, trip_count,
				fulfilled_at, calculated_at, trip_breakdown, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $8, $8)
			ON CONFLICT (driver_id, milestone_type, window_days) DO UPDATE SET
				park_id = EXCLUDED.park_id,
				trip_count = EXCLUDED.trip_count,
				fulfilled_at = COALESCE(milestone_instances.fulfilled_at, EXCLUDED.fulfilled_at),
				calculated_at = EXCLUDED.calculated_at,
				trip_breakdown = EXCLUDED.trip_breakdown,
				updated_at = EXCLUDED.calculated_at`,
			inst.ID, inst.DriverID, inst.ParkID, inst.MilestoneType, inst.WindowDays,
			inst.TripCount, inst.FulfilledAt, inst.CalculatedAt, breakdown)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range instances {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert milestone instance: %w", err)
		}
	}
	return nil
}

func collectInstances(rows pgx.Rows) ([]domain.Instance, error) {
	defer rows.Close()
	items := make([]domain.Instance, 0)
	for rows.Next() {
		var inst domain.Instance
		var breakdown []byte
		if err := rows.Scan(
			&inst.ID, &inst.DriverID, &inst.ParkID, &inst.MilestoneType, &inst.WindowDays,
			&inst.TripCount, &inst.FulfilledAt, &inst.CalculatedAt, &breakdown,
			&inst.CreatedAt, &inst.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan milestone instance: %w", err)
		}
		if len(breakdown) > 0 {
			if err := json.Unmarshal(breakdown, &inst.Breakdown); err != nil {
				return nil, fmt.Errorf("decode trip breakdown: %w", err)
			}
		}
		items = append(items, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate milestone instances: %w", err)
	}
	return items, nil
}
