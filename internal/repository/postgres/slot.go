package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/pkg/errors"
)

const slotColumns = `id, doctor_id, start_time, end_time, booked, created_at, updated_at`

// CreateBatch inserts slots in order. Callers wanting all-or-nothing run it in a transaction.
func (r *slotRepository) CreateBatch(ctx context.Context, slots []*model.Slot) error {
	query := `
		INSERT INTO slots (` + slotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	now := time.Now().UTC()

	for _, slot := range slots {
		slot.Touch(now)
		_, err := r.db.ExecContext(ctx, query,
			slot.ID,
			slot.DoctorID,
			slot.StartTime,
			slot.EndTime,
			slot.Booked,
			slot.CreatedAt,
			slot.UpdatedAt,
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return errors.NotFound("Doctor", err)
			}
			return fmt.Errorf("failed to create slot: %w", err)
		}
	}
	return nil
}

func (r *slotRepository) Get(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`

	var slot model.Slot
	if err := sqlx.GetContext(ctx, r.db, &slot, query, id); err != nil {
		return nil, notFoundOr(err, "Availability slot", func(err error) error {
			return fmt.Errorf("failed to get slot: %w", err)
		})
	}
	return &slot, nil
}

func (r *slotRepository) Update(ctx context.Context, slot *model.Slot) error {
	query := `
		UPDATE slots
		SET start_time = $1, end_time = $2, booked = $3, updated_at = $4
		WHERE id = $5
	`
	slot.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		slot.StartTime,
		slot.EndTime,
		slot.Booked,
		slot.UpdatedAt,
		slot.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update slot: %w", err)
	}
	return requireAffected(result, "Availability slot")
}

func (r *slotRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE doctor_id = $1
		ORDER BY start_time, id
	`
	slots := []*model.Slot{}
	if err := sqlx.SelectContext(ctx, r.db, &slots, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}

func (r *slotRepository) ListByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Slot, error) {
	query := `
		SELECT ` + slotColumns + `
		FROM slots
		WHERE doctor_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time, id
	`
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	slots := []*model.Slot{}
	if err := sqlx.SelectContext(ctx, r.db, &slots, query, doctorID, dayStart, dayEnd); err != nil {
		return nil, fmt.Errorf("failed to list slots by date: %w", err)
	}
	return slots, nil
}
