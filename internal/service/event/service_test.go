package event

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository/memory"
)

func TestEmit(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	start, _ := model.ParseLocalTime("2024-05-01T09:00")
	apt := &model.Appointment{
		Base:            model.Base{ID: uuid.New()},
		DoctorID:        uuid.New(),
		PatientID:       uuid.New(),
		AppointmentTime: start,
		Duration:        30,
		Status:          model.AppointmentStatusScheduled,
	}

	require.NoError(t, Emit(ctx, store.Outbox(), model.EventAppointmentBooked, NewAppointmentPayload(apt, nil)))

	events, err := store.Outbox().GetPendingEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.EventAppointmentBooked, events[0].EventType)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, "2024-05-01T09:00:00", payload["appointment_time"])
	assert.Equal(t, "SCHEDULED", payload["status"])
	assert.NotContains(t, payload, "slot_id")
}

func TestEmitRejectsUnmarshalablePayload(t *testing.T) {
	err := Emit(context.Background(), memory.NewStore().Outbox(), "X", make(chan int))
	assert.ErrorContains(t, err, "failed to marshal payload")
}
