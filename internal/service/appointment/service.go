package appointment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/internal/service/event"
	"github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/logger"
	"github.com/jwalitptl/booking-api/pkg/metrics"
)

// ErrDoctorOrPatientNotFound is returned by Book for unknown references.
var ErrDoctorOrPatientNotFound = errors.NotFound("Doctor or Patient", nil)

type Config struct {
	// RequireMatchingSlot makes Book fail when no slot covers the appointment.
	RequireMatchingSlot bool
}

type Service struct {
	store   repository.Store
	config  Config
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewService(store repository.Store, config Config, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}
}

// findSlot returns the first slot spanning exactly [start, end).
func findSlot(slots []*model.Slot, start, end model.LocalTime) *model.Slot {
	for _, slot := range slots {
		if slot.Matches(start, end) {
			return slot
		}
	}
	return nil
}

func (s *Service) exists(ctx context.Context, doctorID, patientID uuid.UUID) error {
	if doctorID == uuid.Nil || patientID == uuid.Nil {
		return ErrDoctorOrPatientNotFound
	}
	if _, err := s.store.Doctors().Get(ctx, doctorID); err != nil {
		if errors.IsNotFound(err) {
			return ErrDoctorOrPatientNotFound
		}
		return fmt.Errorf("failed to get doctor: %w", err)
	}
	if _, err := s.store.Patients().Get(ctx, patientID); err != nil {
		if errors.IsNotFound(err) {
			return ErrDoctorOrPatientNotFound
		}
		return fmt.Errorf("failed to get patient: %w", err)
	}
	return nil
}

// Book creates a SCHEDULED 30 minute appointment and marks the matching slot
// booked, atomically. A booking with no matching slot still succeeds unless
// RequireMatchingSlot is set. Double bookings are not prevented.
func (s *Service) Book(ctx context.Context, doctorID, patientID uuid.UUID, start model.LocalTime) (*model.Appointment, error) {
	if err := s.exists(ctx, doctorID, patientID); err != nil {
		return nil, err
	}
	if start.IsZero() {
		return nil, errors.Validation("Appointment time is required")
	}

	log := s.logger.WithContext(ctx)
	apt := &model.Appointment{
		DoctorID:        doctorID,
		PatientID:       patientID,
		AppointmentTime: start,
		Duration:        model.AppointmentDurationMinutes,
		Status:          model.AppointmentStatusScheduled,
	}
	end := apt.EndTime()

	var matched *model.Slot
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		slots, err := tx.Slots().ListByDoctor(ctx, doctorID)
		if err != nil {
			return fmt.Errorf("failed to list slots: %w", err)
		}
		matched = findSlot(slots, start, end)
		if matched == nil && s.config.RequireMatchingSlot {
			return errors.Validation("No availability slot matches the requested time")
		}

		if err := tx.Appointments().Create(ctx, apt); err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		if matched != nil {
			if matched.Booked {
				log.Warn("slot already booked, booking anyway",
					"slot_id", matched.ID.String(),
					"doctor_id", doctorID.String())
			}
			matched.Booked = true
			if err := tx.Slots().Update(ctx, matched); err != nil {
				return fmt.Errorf("failed to book slot: %w", err)
			}
		}

		return event.Emit(ctx, tx.Outbox(), model.EventAppointmentBooked, event.NewAppointmentPayload(apt, matched))
	})
	if err != nil {
		return nil, err
	}

	if matched == nil {
		s.metrics.BookingsWithoutSlot.Inc()
		log.Warn("appointment booked without a matching slot",
			"appointment_id", apt.ID.String(),
			"doctor_id", doctorID.String(),
			"appointment_time", start.String())
	}
	s.metrics.AppointmentsTotal.WithLabelValues(string(model.AppointmentStatusScheduled)).Inc()
	log.Info("appointment booked", "appointment_id", apt.ID.String())

	return apt, nil
}

// Cancel marks the appointment CANCELLED and frees the first slot matching
// its stored window. A missing slot is tolerated.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	var freed *model.Slot

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		apt, err := tx.Appointments().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Appointments().UpdateStatus(ctx, id, model.AppointmentStatusCancelled); err != nil {
			return fmt.Errorf("failed to cancel appointment: %w", err)
		}
		apt.Status = model.AppointmentStatusCancelled

		slots, err := tx.Slots().ListByDoctor(ctx, apt.DoctorID)
		if err != nil {
			return fmt.Errorf("failed to list slots: %w", err)
		}
		if freed = findSlot(slots, apt.AppointmentTime, apt.EndTime()); freed != nil {
			freed.Booked = false
			if err := tx.Slots().Update(ctx, freed); err != nil {
				return fmt.Errorf("failed to free slot: %w", err)
			}
		}

		return event.Emit(ctx, tx.Outbox(), model.EventAppointmentCancelled, event.NewAppointmentPayload(apt, freed))
	})
	if err != nil {
		return err
	}

	s.metrics.AppointmentsTotal.WithLabelValues(string(model.AppointmentStatusCancelled)).Inc()
	if freed == nil {
		s.logger.WithContext(ctx).Warn("cancelled appointment had no matching slot", "appointment_id", id.String())
	}
	return nil
}

// Complete marks the appointment COMPLETED. Slot state is not touched.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		apt, err := tx.Appointments().Get(ctx, id)
		if err != nil {
			return err
		}
		if err := tx.Appointments().UpdateStatus(ctx, id, model.AppointmentStatusCompleted); err != nil {
			return fmt.Errorf("failed to complete appointment: %w", err)
		}
		apt.Status = model.AppointmentStatusCompleted

		return event.Emit(ctx, tx.Outbox(), model.EventAppointmentCompleted, event.NewAppointmentPayload(apt, nil))
	})
	if err != nil {
		return err
	}

	s.metrics.AppointmentsTotal.WithLabelValues(string(model.AppointmentStatusCompleted)).Inc()
	return nil
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	apts, err := s.store.Appointments().ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return apts, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	apts, err := s.store.Appointments().ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return apts, nil
}
