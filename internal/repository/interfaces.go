package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
)

// All repository interfaces in one file.
//
// Get methods return an errors.ErrNotFound AppError when the row is missing.
// List methods return an empty slice, never nil.
type (
	DoctorRepository interface {
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.Doctor, error)
		ListBySpecialization(ctx context.Context, spec model.Specialization) ([]*model.Doctor, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		List(ctx context.Context) ([]*model.Patient, error)
	}

	SlotRepository interface {
		CreateBatch(ctx context.Context, slots []*model.Slot) error
		Get(ctx context.Context, id uuid.UUID) (*model.Slot, error)
		Update(ctx context.Context, slot *model.Slot) error
		// ListByDoctor returns the doctor's slots ordered by start time.
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Slot, error)
		// ListByDoctorAndDate returns slots starting on the calendar day of date.
		ListByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Slot, error)
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error
		ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
		CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		// GetPendingEvents locks the returned rows for the enclosing transaction.
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	// Store groups the repositories over one backend. Repositories obtained
	// from the Store passed to a WithTx callback share that transaction.
	Store interface {
		Doctors() DoctorRepository
		Patients() PatientRepository
		Slots() SlotRepository
		Appointments() AppointmentRepository
		Outbox() OutboxRepository
		// WithTx commits when fn returns nil and rolls back otherwise,
		// including when fn panics.
		WithTx(ctx context.Context, fn func(tx Store) error) error
		Ping(ctx context.Context) error
		Close() error
	}
)
