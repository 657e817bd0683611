// Package repository reads driver and daily trip activity owned by the
// upstream fleet system. Nothing here writes.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"onboarding_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const driverNotFoundMsg = "driver not found"

// Driver is an onboarded driver as recorded by the fleet system.
type Driver struct {
	ID       string
	ParkID   string
	FullName string
	Phone    string
	HireDate time.Time
}

// DailySummary is one row of per-day activity.
type DailySummary struct {
	DriverID        string
	Date            time.Time
	CompletedOrders int
	WorkTimeSeconds int64
}

// DriverFilter narrows a population of drivers. Zero values mean "any".
type DriverFilter struct {
	ParkID       string
	HireDateFrom *time.Time
	HireDateTo   *time.Time
}

// Repository provides read access to drivers and trip summaries.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new trips repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListDailySummaries returns rows with from <= date <= to ordered by date.
func (r *Repository) ListDailySummaries(ctx context.Context, driverID string, from, to time.Time) ([]DailySummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT driver_id, summary_date, completed_orders, work_time_seconds
		FROM trip_daily_summaries
		WHERE driver_id = $1 AND summary_date BETWEEN $2 AND $3
		ORDER BY summary_date`, driverID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list daily summaries: %w", err)
	}
	defer rows.Close()

	items := make([]DailySummary, 0)
	for rows.Next() {
		var s DailySummary
		if err := rows.Scan(&s.DriverID, &s.Date, &s.CompletedOrders, &s.WorkTimeSeconds); err != nil {
			return nil, fmt.Errorf("scan daily summary: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily summaries: %w", err)
	}
	return items, nil
}

// SumConnectionSeconds totals work time for a driver over [from, to].
func (r *Repository) SumConnectionSeconds(ctx context.Context, driverID string, from, to time.Time) (int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(work_time_seconds), 0)::bigint
		FROM trip_daily_summaries
		WHERE driver_id = $1 AND summary_date BETWEEN $2 AND $3`, driverID, from, to).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum connection seconds: %w", err)
	}
	return total, nil
}

// GetDriver loads one driver.
func (r *Repository) GetDriver(ctx context.Context, driverID string) (Driver, error) {
	var d Driver
	var phone *string
	err := r.pool.QueryRow(ctx, `
		SELECT id, park_id, full_name, phone, hire_date
		FROM drivers
		WHERE id = $1`, driverID).Scan(&d.ID, &d.ParkID, &d.FullName, &phone, &d.HireDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return Driver{}, apperr.NotFound(driverNotFoundMsg)
	}
	if err != nil {
		return Driver{}, fmt.Errorf("get driver: %w", err)
	}
	if phone != nil {
		d.Phone = *phone
	}
	return d, nil
}

// ListDriversByHireDate returns drivers hired within [from, to], ordered by id.
func (r *Repository) ListDriversByHireDate(ctx context.Context, from, to time.Time) ([]Driver, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, park_id, full_name, phone, hire_date
		FROM drivers
		WHERE hire_date BETWEEN $1 AND $2
		ORDER BY id`, from, to)
	if err != nil {
		return nil, fmt.Errorf("list drivers by hire date: %w", err)
	}
	return collectDrivers(rows)
}

// ListDriversByIDs returns the subset of ids that exist, ordered by id.
func (r *Repository) ListDriversByIDs(ctx context.Context, ids []string) ([]Driver, error) {
	if len(ids) == 0 {
		return []Driver{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, park_id, full_name, phone, hire_date
		FROM drivers
		WHERE id = ANY($1)
		ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list drivers by ids: %w", err)
	}
	return collectDrivers(rows)
}

// CountDrivers counts drivers matching the filter.
func (r *Repository) CountDrivers(ctx context.Context, filter DriverFilter) (int64, error) {
	where, args := filterClause(filter, 1)
	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM drivers"+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count drivers: %w", err)
	}
	return total, nil
}

// ListDriversPage returns up to limit drivers with id > afterID, ordered by id.
func (r *Repository) ListDriversPage(ctx context.Context, filter DriverFilter, afterID string, limit int) ([]Driver, error) {
	where, args := filterClause(filter, 1)
	if where == "" {
		where = " WHERE id > $1"
	} else {
		where += fmt.Sprintf(" AND id > $%d", len(args)+1)
	}
	args = append(args, afterID, limit)

	query := fmt.Sprintf(`
		SELECT id, park_id, full_name, phone, hire_date
		FROM drivers%s
		ORDER BY id
		LIMIT $%d`, where, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list drivers page: %w", err)
	}
	return collectDrivers(rows)
}

// ListParks returns the distinct park ids that have drivers.
func (r *Repository) ListParks(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT park_id FROM drivers ORDER BY park_id`)
	if err != nil {
		return nil, fmt.Errorf("list parks: %w", err)
	}
	parks, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect parks: %w", err)
	}
	return parks, nil
}

func filterClause(filter DriverFilter, start int) (string, []interface{}) {
	clauses := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	next := start

	if filter.ParkID != "" {
		clauses = append(clauses, fmt.Sprintf("park_id = $%d", next))
		args = append(args, filter.ParkID)
		next++
	}
	if filter.HireDateFrom != nil {
		clauses = append(clauses, fmt.Sprintf("hire_date >= $%d", next))
		args = append(args, *filter.HireDateFrom)
		next++
	}
	if filter.HireDateTo != nil {
		clauses = append(clauses, fmt.Sprintf("hire_date <= $%d", next))
		args = append(args, *filter.HireDateTo)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func collectDrivers(rows pgx.Rows) ([]Driver, error) {
	defer rows.Close()
	items := make([]Driver, 0)
	for rows.Next() {
		var d Driver
		var phone *string
		if err := rows.Scan(&d.ID, &d.ParkID, &d.FullName, &phone, &d.HireDate); err != nil {
			return nil, fmt.Errorf("scan driver: %w", err)
		}
		if phone != nil {
			d.Phone = *phone
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drivers: %w", err)
	}
	return items, nil
}
