package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/booking-api/internal/repository"
)

type doctorRepository struct {
	db sqlx.ExtContext
}

type patientRepository struct {
	db sqlx.ExtContext
}

type slotRepository struct {
	db sqlx.ExtContext
}

type appointmentRepository struct {
	db sqlx.ExtContext
}

type outboxRepository struct {
	db sqlx.ExtContext
}

func NewDoctorRepository(db sqlx.ExtContext) repository.DoctorRepository {
	return &doctorRepository{db: db}
}

func NewPatientRepository(db sqlx.ExtContext) repository.PatientRepository {
	return &patientRepository{db: db}
}

func NewSlotRepository(db sqlx.ExtContext) repository.SlotRepository {
	return &slotRepository{db: db}
}

func NewAppointmentRepository(db sqlx.ExtContext) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func NewOutboxRepository(db sqlx.ExtContext) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

// Store implements repository.Store on Postgres. Outside a transaction the
// repositories run against the pool; inside WithTx they run against the tx.
type Store struct {
	BaseRepository
	q    sqlx.ExtContext
	inTx bool
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{BaseRepository: NewBaseRepository(db), q: db}
}

func (s *Store) Doctors() repository.DoctorRepository {
	return NewDoctorRepository(s.q)
}

func (s *Store) Patients() repository.PatientRepository {
	return NewPatientRepository(s.q)
}

func (s *Store) Slots() repository.SlotRepository {
	return NewSlotRepository(s.q)
}

func (s *Store) Appointments() repository.AppointmentRepository {
	return NewAppointmentRepository(s.q)
}

func (s *Store) Outbox() repository.OutboxRepository {
	return NewOutboxRepository(s.q)
}

// WithTx joins the current transaction when called on a transactional Store.
func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.BaseRepository.WithTx(ctx, func(tx *sqlx.Tx) error {
		return fn(&Store{BaseRepository: s.BaseRepository, q: tx, inTx: true})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
