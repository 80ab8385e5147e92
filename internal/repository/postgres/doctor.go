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

const doctorColumns = `id, name, specialization, created_at, updated_at`

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (` + doctorColumns + `)
		VALUES ($1, $2, $3, $4, $5)
	`
	doctor.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.Name,
		string(doctor.Specialization),
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict("Doctor already exists", err)
		}
		return fmt.Errorf("failed to create doctor: %w", err)
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`

	var doctor model.Doctor
	if err := sqlx.GetContext(ctx, r.db, &doctor, query, id); err != nil {
		return nil, notFoundOr(err, "Doctor", func(err error) error {
			return fmt.Errorf("failed to get doctor: %w", err)
		})
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors
		SET name = $1, specialization = $2, updated_at = $3
		WHERE id = $4
	`
	doctor.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, query,
		doctor.Name,
		string(doctor.Specialization),
		doctor.UpdatedAt,
		doctor.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update doctor: %w", err)
	}
	return requireAffected(result, "Doctor")
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM doctors WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return errors.Conflict("Doctor has appointments", err)
		}
		return fmt.Errorf("failed to delete doctor: %w", err)
	}
	return requireAffected(result, "Doctor")
}

func (r *doctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors ORDER BY name, id`

	doctors := []*model.Doctor{}
	if err := sqlx.SelectContext(ctx, r.db, &doctors, query); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (r *doctorRepository) ListBySpecialization(ctx context.Context, spec model.Specialization) ([]*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE specialization = $1 ORDER BY name, id`

	doctors := []*model.Doctor{}
	if err := sqlx.SelectContext(ctx, r.db, &doctors, query, string(spec)); err != nil {
		return nil, fmt.Errorf("failed to list doctors by specialization: %w", err)
	}
	return doctors, nil
}
