// Package repository reads the sources joined by reconciliation summaries.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"onboarding_backend/internal/reconciliation/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Filter narrows the registrations a summary covers.
type Filter struct {
	ScoutID string
	ParkID  string
}

// Repository provides read-only queries over registrations, leads,
// milestones and partner payments.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new reconciliation repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListRegistrations returns non-discarded scout registrations in [from, to].
// A park filter only keeps registrations matched to a driver of that park.
func (r *Repository) ListRegistrations(ctx context.Context, filter Filter, from, to time.Time) ([]domain.Registration, error) {
	clauses := []string{
		"m.source = 'scout_registration'",
		"NOT m.is_discarded",
		"m.scout_id IS NOT NULL",
		"m.reference_date BETWEEN $1 AND $2",
	}
	args := []interface{}{from, to}

	if filter.ScoutID != "" {
		args = append(args, filter.ScoutID)
		clauses = append(clauses, fmt.Sprintf("m.scout_id = $%d", len(args)))
	}
	if filter.ParkID != "" {
		args = append(args, filter.ParkID)
		clauses = append(clauses, fmt.Sprintf("d.park_id = $%d", len(args)))
	}

	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.scout_id, COALESCE(m.driver_id, ''), m.reference_date
		FROM match_records m
		LEFT JOIN drivers d ON d.id = m.driver_id
		WHERE `+strings.Join(clauses, " AND ")+`
		ORDER BY m.scout_id, m.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Registration, 0)
	for rows.Next() {
		var reg domain.Registration
		if err := rows.Scan(&reg.RecordID, &reg.ScoutID, &reg.DriverID, &reg.ReferenceDate); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		items = append(items, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return items, nil
}

// ListLeadDrivers returns which of driverIDs have a non-discarded lead match.
func (r *Repository) ListLeadDrivers(ctx context.Context, driverIDs []string) ([]string, error) {
	if len(driverIDs) == 0 {
		return []string{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT driver_id
		FROM match_records
		WHERE source = 'lead' AND NOT is_discarded AND driver_id = ANY($1)`, driverIDs)
	if err != nil {
		return nil, fmt.Errorf("list lead drivers: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect lead drivers: %w", err)
	}
	return ids, nil
}

// ListFulfillments returns fulfilled milestone pairs of driverIDs for a window.
func (r *Repository) ListFulfillments(ctx context.Context, driverIDs []string, windowDays int) ([]domain.Fulfillment, error) {
	if len(driverIDs) == 0 {
		return []domain.Fulfillment{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT driver_id, milestone_type
		FROM milestone_instances
		WHERE driver_id = ANY($1) AND window_days = $2 AND fulfilled_at IS NOT NULL`, driverIDs, windowDays)
	if err != nil {
		return nil, fmt.Errorf("list fulfillments: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Fulfillment, error) {
		var f domain.Fulfillment
		err := row.Scan(&f.DriverID, &f.MilestoneType)
		return f, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect fulfillments: %w", err)
	}
	return items, nil
}

// ListPartnerPayments returns partner transactions paid in [from, to],
// including payments to drivers no registration was matched to. A park
// filter keeps payments whose driver belongs to that park; a scout filter
// keeps payments to drivers that scout registered.
func (r *Repository) ListPartnerPayments(ctx context.Context, filter Filter, from, to time.Time) ([]domain.PartnerPayment, error) {
	clauses := []string{"p.paid_at >= $1", "p.paid_at < $2"}
	args := []interface{}{from, to.AddDate(0, 0, 1)}

	if filter.ScoutID != "" {
		args = append(args, filter.ScoutID)
		clauses = append(clauses, fmt.Sprintf(`p.driver_id IN (
			SELECT m.driver_id FROM match_records m
			WHERE m.source = 'scout_registration' AND NOT m.is_discarded
			AND m.driver_id IS NOT NULL AND m.scout_id = $%d)`, len(args)))
	}
	if filter.ParkID != "" {
		args = append(args, filter.ParkID)
		clauses = append(clauses, fmt.Sprintf("d.park_id = $%d", len(args)))
	}

	rows, err := r.pool.Query(ctx, `
		SELECT p.driver_id, p.milestone_type, p.amount_cents, p.paid_at
		FROM partner_payment_transactions p
		LEFT JOIN drivers d ON d.id = p.driver_id
		WHERE `+strings.Join(clauses, " AND "), args...)
	if err != nil {
		return nil, fmt.Errorf("list partner payments: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.PartnerPayment, error) {
		var p domain.PartnerPayment
		err := row.Scan(&p.DriverID, &p.MilestoneType, &p.AmountCents, &p.PaidAt)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("collect partner payments: %w", err)
	}
	return items, nil
}
