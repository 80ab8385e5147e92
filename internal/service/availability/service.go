package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/service/event"
	"github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

const (
	msgInvalidRange    = "Invalid start or end time"
	msgInvalidDuration = "Duration must be a multiple of 30 minutes"
)

// DefaultMaxRange bounds a single Generate call to a month of slots.
const DefaultMaxRange = 31 * 24 * time.Hour

type Config struct {
	// MaxRange is the longest [start, end) Generate accepts. Zero means
	// DefaultMaxRange.
	MaxRange time.Duration
}

type Service struct {
	store   repository.Store
	config  Config
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewService(store repository.Store, config Config, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	if config.MaxRange <= 0 {
		config.MaxRange = DefaultMaxRange
	}
	return &Service{
		store:   store,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// validateRange requires start < end and a whole number of 30 minute steps.
// Leftover seconds are ignored, so the last slot may end before end.
func validateRange(start, end *model.LocalTime) error {
	if start == nil || end == nil || start.IsZero() || end.IsZero() || !start.Before(*end) {
		return errors.Validation(msgInvalidRange)
	}
	minutes := int(end.Sub(start.Time) / time.Minute)
	if minutes%int(model.SlotDuration/time.Minute) != 0 {
		return errors.Validation(msgInvalidDuration)
	}
	return nil
}

// Split partitions [start, end) into consecutive unbooked slots.
func Split(doctorID uuid.UUID, start, end model.LocalTime) []*model.Slot {
	var slots []*model.Slot
	for cursor := start; !cursor.Add(model.SlotDuration).After(end); cursor = cursor.Add(model.SlotDuration) {
		slots = append(slots, &model.Slot{
			DoctorID:  doctorID,
			StartTime: cursor,
			EndTime:   cursor.Add(model.SlotDuration),
		})
	}
	return slots
}

// Generate publishes availability for a doctor as 30 minute slots.
func (s *Service) Generate(ctx context.Context, doctorID uuid.UUID, start, end *model.LocalTime) ([]*model.Slot, error) {
	if _, err := s.store.Doctors().Get(ctx, doctorID); err != nil {
		return nil, err
	}
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	if end.Sub(start.Time) > s.config.MaxRange {
		return nil, errors.Validation(fmt.Sprintf("Availability range exceeds %s", s.config.MaxRange))
	}

	slots := Split(doctorID, *start, *end)

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Slots().CreateBatch(ctx, slots); err != nil {
			return fmt.Errorf("failed to create slots: %w", err)
		}

		ids := make([]uuid.UUID, len(slots))
		for i, slot := range slots {
			ids[i] = slot.ID
		}
		return event.Emit(ctx, tx.Outbox(), model.EventAvailabilityCreated, event.AvailabilityPayload{
			DoctorID:  doctorID,
			StartTime: *start,
			EndTime:   *end,
			SlotIDs:   ids,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.SlotsGenerated.Add(float64(len(slots)))
	s.logger.WithContext(ctx).Info("availability generated",
		"doctor_id", doctorID.String(),
		"slots", len(slots),
		"start", start.String(),
		"end", end.String())

	return slots, nil
}

// Update moves an existing slot in place. The slot is not re-split and its
// booked flag is left alone.
func (s *Service) Update(ctx context.Context, doctorID, slotID uuid.UUID, start, end *model.LocalTime) (*model.Slot, error) {
	var updated *model.Slot

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		slot, err := tx.Slots().Get(ctx, slotID)
		if err != nil {
			return err
		}
		if slot.DoctorID != doctorID {
			return errors.Mismatch("Doctor mismatch")
		}
		if err := validateRange(start, end); err != nil {
			return err
		}

		slot.StartTime = *start
		slot.EndTime = *end
		if err := tx.Slots().Update(ctx, slot); err != nil {
			return fmt.Errorf("failed to update slot: %w", err)
		}
		updated = slot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AvailableTimes lists the doctor's unbooked slots on date as HH:MM-HH:MM.
func (s *Service) AvailableTimes(ctx context.Context, doctorID uuid.UUID, date string) ([]string, error) {
	slots, err := s.ByDate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	times := []string{}
	for _, slot := range slots {
		if !slot.Booked {
			times = append(times, slot.Label())
		}
	}
	return times, nil
}

// ByDate lists every slot of the doctor starting on date, booked or not.
func (s *Service) ByDate(ctx context.Context, doctorID uuid.UUID, date string) ([]*model.Slot, error) {
	day, err := model.ParseDate(date)
	if err != nil {
		return nil, errors.BadRequest("Invalid date, expected YYYY-MM-DD", err)
	}

	slots, err := s.store.Slots().ListByDoctorAndDate(ctx, doctorID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	return slots, nil
}
