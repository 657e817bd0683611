// Package repository persists scout payment instances and payments.
package repository

import (
	"context"
	"fmt"
	"time"

	"onboarding_backend/internal/eligibility/domain"
	"onboarding_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const instanceColumns = `
	id, scout_id, driver_id, milestone_type, window_days, milestone_instance_id,
	amount_cents, is_eligible, eligibility_reason, status, payment_id,
	COALESCE(cancel_reason, ''), period_start, period_end, paid_at, cancelled_at,
	created_at, updated_at`

// Repository provides database operations for scout payments.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new eligibility repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CountScoutRegistrations counts the scout's non-discarded registrations with
// a reference date in [from, to].
func (r *Repository) CountScoutRegistrations(ctx context.Context, scoutID string, from, to time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM match_records
		WHERE source = 'scout_registration' AND scout_id = $1
			AND NOT is_discarded
			AND reference_date BETWEEN $2 AND $3`, scoutID, from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count scout registrations: %w", err)
	}
	return n, nil
}

// ListScoutDrivers returns the distinct drivers matched to the scout's
// registrations in [from, to].
func (r *Repository) ListScoutDrivers(ctx context.Context, scoutID string, from, to time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT driver_id
		FROM match_records
		WHERE source = 'scout_registration' AND scout_id = $1
			AND NOT is_discarded AND driver_id IS NOT NULL
			AND reference_date BETWEEN $2 AND $3
		ORDER BY driver_id`, scoutID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list scout drivers: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect scout drivers: %w", err)
	}
	return ids, nil
}

// UpsertPending writes evaluated instances. Rows that already left pending
// are not touched.
func (r *Repository) UpsertPending(ctx context.Context, items []domain.PaymentInstance, now time.Time) error {
	if len(items) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(`
			INSERT INTO scout_payment_instances (
				id, scout_id, driver_id, milestone_type, window_days, milestone_instance_id,
				amount_cents, is_eligible, eligibility_reason, status,
				period_start, period_end, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pending', $10, $11, $12, $12)
			ON CONFLICT (scout_id, driver_id, milestone_type) DO UPDATE SET
				window_days = EXCLUDED.window_days,
				milestone_instance_id = EXCLUDED.milestone_instance_id,
				amount_cents = EXCLUDED.amount_cents,
				is_eligible = EXCLUDED.is_eligible,
				eligibility_reason = EXCLUDED.eligibility_reason,
				period_start = EXCLUDED.period_start,
				period_end = EXCLUDED.period_end,
				updated_at = EXCLUDED.updated_at
			WHERE scout_payment_instances.status = 'pending'`,
			it.ID, it.ScoutID, it.DriverID, it.MilestoneType, it.WindowDays, it.MilestoneInstanceID,
			it.AmountCents, it.IsEligible, it.EligibilityReason, it.PeriodStart, it.PeriodEnd, now)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range items {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert payment instance: %w", err)
		}
	}
	return nil
}

// ListInstances returns the scout's instances for the given drivers.
func (r *Repository) ListInstances(ctx context.Context, scoutID string, driverIDs []string) ([]domain.PaymentInstance, error) {
	if len(driverIDs) == 0 {
		return []domain.PaymentInstance{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+instanceColumns+`
		FROM scout_payment_instances
		WHERE scout_id = $1 AND driver_id = ANY($2)
		ORDER BY driver_id, milestone_type`, scoutID, driverIDs)
	if err != nil {
		return nil, fmt.Errorf("list payment instances: %w", err)
	}
	return collectInstances(rows)
}

// PayPending pays the requested instances in one transaction. Nothing is
// written unless every instance belongs to the scout, is pending and eligible.
func (r *Repository) PayPending(ctx context.Context, scoutID string, ids []uuid.UUID, paymentID uuid.UUID, now time.Time) (domain.Payment, error) {
	var payment domain.Payment
	err := db.RunInTx(ctx, r.pool, func(tx pgx.Tx) error {
		items, err := lockInstances(ctx, tx, scoutID, ids)
		if err != nil {
			return err
		}
		if err := domain.CheckPayable(ids, items); err != nil {
			return err
		}

		total := domain.SumAmounts(items)
		if _, err := tx.Exec(ctx, `
			INSERT INTO scout_payments (id, scout_id, total_cents, instance_count, created_at)
			VALUES ($1, $2, $3, $4, $5)`, paymentID, scoutID, total, len(items), now); err != nil {
			return fmt.Errorf("insert scout payment: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			UPDATE scout_payment_instances
			SET status = 'paid', payment_id = $1, paid_at = $2, updated_at = $2
			WHERE id = ANY($3)`, paymentID, now, ids); err != nil {
			return fmt.Errorf("mark instances paid: %w", err)
		}

		for i := range items {
			items[i].Status = domain.StatusPaid
			items[i].PaymentID = &paymentID
			items[i].PaidAt = &now
			items[i].UpdatedAt = now
		}
		payment = domain.Payment{ID: paymentID, ScoutID: scoutID, TotalCents: total, Instances: items, CreatedAt: now}
		return nil
	})
	if err != nil {
		return domain.Payment{}, err
	}
	return payment, nil
}

// CancelPending cancels the requested instances in one transaction with the
// same all-or-nothing rule as PayPending, without the eligibility check.
func (r *Repository) CancelPending(ctx context.Context, scoutID string, ids []uuid.UUID, reason string, now time.Time) ([]domain.PaymentInstance, error) {
	var out []domain.PaymentInstance
	err := db.RunInTx(ctx, r.pool, func(tx pgx.Tx) error {
		items, err := lockInstances(ctx, tx, scoutID, ids)
		if err != nil {
			return err
		}
		if err := domain.CheckCancellable(ids, items); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			UPDATE scout_payment_instances
			SET status = 'cancelled', cancel_reason = $1, cancelled_at = $2, updated_at = $2
			WHERE id = ANY($3)`, reason, now, ids); err != nil {
			return fmt.Errorf("mark instances cancelled: %w", err)
		}

		for i := range items {
			items[i].Status = domain.StatusCancelled
			items[i].CancelReason = reason
			items[i].CancelledAt = &now
			items[i].UpdatedAt = now
		}
		out = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func lockInstances(ctx context.Context, tx pgx.Tx, scoutID string, ids []uuid.UUID) ([]domain.PaymentInstance, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+instanceColumns+`
		FROM scout_payment_instances
		WHERE scout_id = $1 AND id = ANY($2)
		ORDER BY id
		FOR UPDATE`, scoutID, ids)
	if err != nil {
		return nil, fmt.Errorf("lock payment instances: %w", err)
	}
	return collectInstances(rows)
}

func collectInstances(rows pgx.Rows) ([]domain.PaymentInstance, error) {
	defer rows.Close()
	items := make([]domain.PaymentInstance, 0)
	for rows.Next() {
		var it domain.PaymentInstance
		var status string
		if err := rows.Scan(
			&it.ID, &it.ScoutID, &it.DriverID, &it.MilestoneType, &it.WindowDays, &it.MilestoneInstanceID,
			&it.AmountCents, &it.IsEligible, &it.EligibilityReason, &status, &it.PaymentID,
			&it.CancelReason, &it.PeriodStart, &it.PeriodEnd, &it.PaidAt, &it.CancelledAt,
			&it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment instance: %w", err)
		}
		it.Status = domain.Status(status)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment instances: %w", err)
	}
	return items, nil
}
