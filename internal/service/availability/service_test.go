package availability

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
	"github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

func setup(t *testing.T) (*Service, *memory.Store, *metrics.Metrics, *model.Doctor) {
	t.Helper()
	store := memory.NewStore()
	m := metrics.NewWithRegisterer("test", prometheus.NewRegistry())
	doctor := &model.Doctor{Name: "Dr. House", Specialization: model.SpecializationNeurology}
	require.NoError(t, store.Doctors().Create(context.Background(), doctor))
	return NewService(store, Config{}, logger.Nop(), m), store, m, doctor
}

func at(t *testing.T, s string) *model.LocalTime {
	t.Helper()
	ts, err := model.ParseLocalTime(s)
	require.NoError(t, err)
	return &ts
}

func TestGenerate(t *testing.T) {
	svc, store, m, doctor := setup(t)
	ctx := context.Background()

	slots, err := svc.Generate(ctx, doctor.ID, at(t, "2024-05-01T09:00"), at(t, "2024-05-01T10:00"))
	require.NoError(t, err)
	require.Len(t, slots, 2)

	assert.Equal(t, "09:00-09:30", slots[0].Label())
	assert.Equal(t, "09:30-10:00", slots[1].Label())
	for _, slot := range slots {
		assert.NotEqual(t, uuid.Nil, slot.ID)
		assert.Equal(t, doctor.ID, slot.DoctorID)
		assert.False(t, slot.Booked)
	}
	assert.Equal(t, float64(2), testutil.ToFloat64(m.SlotsGenerated))

	events, err := store.Outbox().GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventAvailabilityCreated, events[0].EventType)
}

func TestGenerateRejectsBadRanges(t *testing.T) {
	svc, store, _, doctor := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		start   *model.LocalTime
		end     *model.LocalTime
		message string
	}{
		{"missing start", nil, at(t, "2024-05-01T10:00"), msgInvalidRange},
		{"start equals end", at(t, "2024-05-01T10:00"), at(t, "2024-05-01T10:00"), msgInvalidRange},
		{"start after end", at(t, "2024-05-01T11:00"), at(t, "2024-05-01T10:00"), msgInvalidRange},
		{"not a multiple of 30", at(t, "2024-05-01T09:00"), at(t, "2024-05-01T09:45"), msgInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(ctx, doctor.ID, tt.start, tt.end)
			require.Error(t, err)
			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrBadRequest, appErr.Code)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}

	slots, err := store.Slots().ListByDoctor(ctx, doctor.ID)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerateBoundsRange(t *testing.T) {
	_, store, m, doctor := setup(t)
	svc := NewService(store, Config{MaxRange: 24 * time.Hour}, logger.Nop(), m)
	ctx := context.Background()

	_, err := svc.Generate(ctx, doctor.ID, at(t, "2024-05-01T00:00"), at(t, "2024-05-02T00:30"))
	require.Error(t, err)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrBadRequest, appErr.Code)

	slots, err := store.Slots().ListByDoctor(ctx, doctor.ID)
	require.NoError(t, err)
	assert.Empty(t, slots)
	events, err := store.Outbox().GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, events)

	slots, err = svc.Generate(ctx, doctor.ID, at(t, "2024-05-01T00:00"), at(t, "2024-05-02T00:00"))
	require.NoError(t, err)
	assert.Len(t, slots, 48)
}

func TestNewServiceDefaultsMaxRange(t *testing.T) {
	svc, _, _, _ := setup(t)
	assert.Equal(t, DefaultMaxRange, svc.config.MaxRange)
}

func TestGenerateUnknownDoctor(t *testing.T) {
	svc, _, _, _ := setup(t)

	_, err := svc.Generate(context.Background(), uuid.New(), at(t, "2024-05-01T09:00"), at(t, "2024-05-01T10:00"))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, "Doctor not found", err.(*errors.AppError).Message)
}

func TestGenerateRollsBackOnFailure(t *testing.T) {
	svc, store, m, doctor := setup(t)
	ctx := context.Background()
	store.FailNext("outbox.create", stderrors.New("outbox down"))

	_, err := svc.Generate(ctx, doctor.ID, at(t, "2024-05-01T09:00"), at(t, "2024-05-01T10:00"))
	require.Error(t, err)

	slots, err := store.Slots().ListByDoctor(ctx, doctor.ID)
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.SlotsGenerated))
}

func TestUpdate(t *testing.T) {
	svc, _, _, doctor := setup(t)
	ctx := context.Background()

	slots, err := svc.Generate(ctx, doctor.ID, at(t, "2024-05-01T09:00"), at(t, "2024-05-01T09:30"))
	require.NoError(t, err)
	slotID := slots[0].ID

	t.Run("moves the slot in place", func(t *testing.T) {
		updated, err := svc.Update(ctx, doctor.ID, slotID, at(t, "2024-05-01T14:00"), at(t, "2024-05-01T15:00"))
		require.NoError(t, err)
		assert.Equal(t, slotID, updated.ID)
		assert.Equal(t, "14:00-15:00", updated.Label())
	})

	t.Run("unknown slot", func(t *testing.T) {
		_, err := svc.Update(ctx, doctor.ID, uuid.New(), at(t, "2024-05-01T14:00"), at(t, "2024-05-01T14:30"))
		require.Error(t, err)
		assert.Equal(t, "Availability slot not found", err.(*errors.AppError).Message)
	})

	t.Run("doctor mismatch", func(t *testing.T) {
		_, err := svc.Update(ctx, uuid.New(), slotID, at(t, "2024-05-01T14:00"), at(t, "2024-05-01T14:30"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrMismatch))
	})

	t.Run("bad duration", func(t *testing.T) {
		_, err := svc.Update(ctx, doctor.ID, slotID, at(t, "2024-05-01T14:00"), at(t, "2024-05-01T14:10"))
		require.Error(t, err)
		assert.Equal(t, msgInvalidDuration, err.(*errors.AppError).Message)
	})
}

func TestAvailableTimes(t *testing.T) {
	svc, store, _, doctor := setup(t)
	ctx := context.Background()

	slots, err := svc.Generate(ctx, doctor.ID, at(t, "2024-05-01T09:00"), at(t, "2024-05-01T10:30"))
	require.NoError(t, err)
	_, err = svc.Generate(ctx, doctor.ID, at(t, "2024-05-02T09:00"), at(t, "2024-05-02T09:30"))
	require.NoError(t, err)

	booked := slots[1]
	booked.Booked = true
	require.NoError(t, store.Slots().Update(ctx, booked))

	times, err := svc.AvailableTimes(ctx, doctor.ID, "2024-05-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00-09:30", "10:00-10:30"}, times)

	all, err := svc.ByDate(ctx, doctor.ID, "2024-05-01")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	times, err = svc.AvailableTimes(ctx, uuid.New(), "2024-05-01")
	require.NoError(t, err)
	assert.Empty(t, times)

	_, err = svc.AvailableTimes(ctx, doctor.ID, "05/01/2024")
	assert.True(t, errors.Is(err, errors.ErrBadRequest))
}

func TestSplitIgnoresLeftoverSeconds(t *testing.T) {
	slots := Split(uuid.New(), *at(t, "2024-05-01T09:00:00"), *at(t, "2024-05-01T10:00:20"))
	assert.Len(t, slots, 2)
	assert.NoError(t, validateRange(at(t, "2024-05-01T09:00:00"), at(t, "2024-05-01T10:00:20")))
}
