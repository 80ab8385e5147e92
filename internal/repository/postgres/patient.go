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

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	patient.Touch(time.Now().UTC())

	_, err := r.db.ExecContext(ctx, query, patient.ID, patient.Name, patient.CreatedAt, patient.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Conflict("Patient already exists", err)
		}
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT id, name, created_at, updated_at FROM patients WHERE id = $1`

	var patient model.Patient
	if err := sqlx.GetContext(ctx, r.db, &patient, query, id); err != nil {
		return nil, notFoundOr(err, "Patient", func(err error) error {
			return fmt.Errorf("failed to get patient: %w", err)
		})
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	query := `SELECT id, name, created_at, updated_at FROM patients ORDER BY name, id`

	patients := []*model.Patient{}
	if err := sqlx.SelectContext(ctx, r.db, &patients, query); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}
