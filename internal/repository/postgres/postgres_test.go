package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
)

func setupTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewStore(sqlx.NewDb(db, "postgres")), mock
}

func localTime(t *testing.T, s string) model.LocalTime {
	t.Helper()
	lt, err := model.ParseLocalTime(s)
	require.NoError(t, err)
	return lt
}

func TestDoctorRepository_Create(t *testing.T) {
	store, mock := setupTestStore(t)
	doctor := &model.Doctor{Name: "Dr. Grey", Specialization: model.SpecializationCardiology}

	mock.ExpectExec("INSERT INTO doctors").
		WithArgs(sqlmock.AnyArg(), "Dr. Grey", "CARDIOLOGY", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Doctors().Create(context.Background(), doctor))
	assert.NotEqual(t, uuid.Nil, doctor.ID)
	assert.False(t, doctor.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepository_Get(t *testing.T) {
	store, mock := setupTestStore(t)
	id := uuid.New()
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "name", "specialization", "created_at", "updated_at"}).
		AddRow(id.String(), "Dr. Grey", "NEUROLOGY", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM doctors WHERE id = $1")).
		WithArgs(id).
		WillReturnRows(rows)

	doctor, err := store.Doctors().Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, doctor.ID)
	assert.Equal(t, model.SpecializationNeurology, doctor.Specialization)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDoctorRepository_GetNotFound(t *testing.T) {
	store, mock := setupTestStore(t)

	mock.ExpectQuery("FROM doctors").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "specialization", "created_at", "updated_at"}))

	_, err := store.Doctors().Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "Doctor not found", mustAppError(t, err).Message)
}

func TestDoctorRepository_UpdateMissing(t *testing.T) {
	store, mock := setupTestStore(t)

	mock.ExpectExec("UPDATE doctors").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Doctors().Update(context.Background(), &model.Doctor{Base: model.Base{ID: uuid.New()}})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDoctorRepository_DeleteReferenced(t *testing.T) {
	store, mock := setupTestStore(t)

	mock.ExpectExec("DELETE FROM doctors").
		WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})

	err := store.Doctors().Delete(context.Background(), uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
}

func TestDoctorRepository_ListBySpecialization(t *testing.T) {
	store, mock := setupTestStore(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "name", "specialization", "created_at", "updated_at"}).
		AddRow(uuid.NewString(), "A", "ONCOLOGY", now, now).
		AddRow(uuid.NewString(), "B", "ONCOLOGY", now, now)
	mock.ExpectQuery("WHERE specialization = \\$1").
		WithArgs("ONCOLOGY").
		WillReturnRows(rows)

	doctors, err := store.Doctors().ListBySpecialization(context.Background(), model.SpecializationOncology)
	require.NoError(t, err)
	assert.Len(t, doctors, 2)
}

func TestSlotRepository_CreateBatch(t *testing.T) {
	store, mock := setupTestStore(t)
	doctorID := uuid.New()
	start := localTime(t, "2024-05-01T09:00:00")
	slots := []*model.Slot{
		{DoctorID: doctorID, StartTime: start, EndTime: start.Add(model.SlotDuration)},
		{DoctorID: doctorID, StartTime: start.Add(model.SlotDuration), EndTime: start.Add(2 * model.SlotDuration)},
	}

	for range slots {
		mock.ExpectExec("INSERT INTO slots").
			WithArgs(sqlmock.AnyArg(), doctorID, sqlmock.AnyArg(), sqlmock.AnyArg(), false, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}

	require.NoError(t, store.Slots().CreateBatch(context.Background(), slots))
	assert.NotEqual(t, slots[0].ID, slots[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotRepository_ListByDoctorAndDate(t *testing.T) {
	store, mock := setupTestStore(t)
	doctorID := uuid.New()
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "doctor_id", "start_time", "end_time", "booked", "created_at", "updated_at"}).
		AddRow(uuid.NewString(), doctorID.String(), day.Add(9*time.Hour), day.Add(9*time.Hour+30*time.Minute), true, now, now)
	mock.ExpectQuery("FROM slots").
		WithArgs(doctorID, day, day.AddDate(0, 0, 1)).
		WillReturnRows(rows)

	slots, err := store.Slots().ListByDoctorAndDate(context.Background(), doctorID, day.Add(13*time.Hour))
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.True(t, slots[0].Booked)
	assert.Equal(t, "09:00-09:30", slots[0].Label())
}

func TestAppointmentRepository_UpdateStatusMissing(t *testing.T) {
	store, mock := setupTestStore(t)

	mock.ExpectExec("UPDATE appointments").
		WithArgs("CANCELLED", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Appointments().UpdateStatus(context.Background(), uuid.New(), model.AppointmentStatusCancelled)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "Appointment not found", mustAppError(t, err).Message)
}

func TestAppointmentRepository_CountByDoctor(t *testing.T) {
	store, mock := setupTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM appointments")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := store.Appointments().CountByDoctor(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestOutboxRepository_Create(t *testing.T) {
	store, mock := setupTestStore(t)
	event := &model.OutboxEvent{EventType: model.EventAppointmentBooked, Payload: []byte(`{"id":"x"}`)}

	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs(sqlmock.AnyArg(), model.EventAppointmentBooked, `{"id":"x"}`, "PENDING", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.Outbox().Create(context.Background(), event))
	assert.Equal(t, model.OutboxStatusPending, event.Status)

	assert.Error(t, store.Outbox().Create(context.Background(), &model.OutboxEvent{EventType: "x"}))
}

func TestOutboxRepository_GetPendingEventsLocksRows(t *testing.T) {
	store, mock := setupTestStore(t)
	id := uuid.New()
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "event_type", "payload", "status", "error_message", "created_at", "processed_at", "updated_at"}).
		AddRow(id.String(), model.EventAppointmentBooked, []byte(`{"id":"x"}`), "PENDING", nil, now, nil, now)
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).
		WithArgs("PENDING", 10).
		WillReturnRows(rows)

	events, err := store.Outbox().GetPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
	assert.JSONEq(t, `{"id":"x"}`, string(events[0].Payload))
	assert.Nil(t, events[0].ProcessedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppointmentRepository_CreateMissingReference(t *testing.T) {
	store, mock := setupTestStore(t)

	mock.ExpectExec("INSERT INTO appointments").
		WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})

	err := store.Appointments().Create(context.Background(), &model.Appointment{
		DoctorID:        uuid.New(),
		PatientID:       uuid.New(),
		AppointmentTime: localTime(t, "2025-01-06T09:00"),
		Duration:        model.AppointmentDurationMinutes,
		Status:          model.AppointmentStatusScheduled,
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestOutboxRepository_UpdateStatus(t *testing.T) {
	store, mock := setupTestStore(t)
	id := uuid.New()

	mock.ExpectExec("UPDATE outbox_events").
		WithArgs("PROCESSED", nil, id, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Outbox().UpdateStatus(context.Background(), id, model.OutboxStatusProcessed, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTxCommits(t *testing.T) {
	store, mock := setupTestStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE appointments").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE slots").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(tx repository.Store) error {
		if err := tx.Appointments().UpdateStatus(context.Background(), uuid.New(), model.AppointmentStatusCancelled); err != nil {
			return err
		}
		return tx.Slots().Update(context.Background(), &model.Slot{Base: model.Base{ID: uuid.New()}})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTxRollsBackOnError(t *testing.T) {
	store, mock := setupTestStore(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO appointments").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE slots").WillReturnError(boom)
	mock.ExpectRollback()

	err := store.WithTx(context.Background(), func(tx repository.Store) error {
		if err := tx.Appointments().Create(context.Background(), &model.Appointment{Status: model.AppointmentStatusScheduled}); err != nil {
			return err
		}
		return tx.Slots().Update(context.Background(), &model.Slot{Base: model.Base{ID: uuid.New()}})
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_WithTxRollsBackOnPanic(t *testing.T) {
	store, mock := setupTestStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = store.WithTx(context.Background(), func(repository.Store) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_NestedWithTxJoins(t *testing.T) {
	store, mock := setupTestStore(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := store.WithTx(context.Background(), func(tx repository.Store) error {
		return tx.WithTx(context.Background(), func(inner repository.Store) error {
			assert.Same(t, tx, inner)
			return nil
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func mustAppError(t *testing.T, err error) *apperrors.AppError {
	t.Helper()
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	return appErr
}
