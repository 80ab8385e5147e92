package doctor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/pkg/errors"
)

type Service struct {
	store repository.Store
}

func NewService(store repository.Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	if !req.Specialization.Valid() {
		return nil, errors.Validation("Invalid specialization")
	}
	doctor := &model.Doctor{
		Name:           req.Name,
		Specialization: req.Specialization,
	}
	if err := s.store.Doctors().Create(ctx, doctor); err != nil {
		return nil, fmt.Errorf("failed to create doctor: %w", err)
	}
	return doctor, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return s.store.Doctors().Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.Doctor, error) {
	doctors, err := s.store.Doctors().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

// ListBySpecialization matches the enumerated name exactly.
func (s *Service) ListBySpecialization(ctx context.Context, specialization string) ([]*model.Doctor, error) {
	spec, ok := model.ParseSpecialization(specialization)
	if !ok {
		return nil, errors.Validation("Invalid specialization")
	}
	doctors, err := s.store.Doctors().ListBySpecialization(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}

func (s *Service) Update(ctx context.Context, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	if req.ID == nil || *req.ID == uuid.Nil {
		return nil, errors.Validation("Doctor id is required")
	}
	if !req.Specialization.Valid() {
		return nil, errors.Validation("Invalid specialization")
	}

	doctor := &model.Doctor{
		Base:           model.Base{ID: *req.ID},
		Name:           req.Name,
		Specialization: req.Specialization,
	}
	if err := s.store.Doctors().Update(ctx, doctor); err != nil {
		return nil, err
	}
	return s.store.Doctors().Get(ctx, doctor.ID)
}

// Delete removes a doctor and its slots. Doctors referenced by appointments
// are kept and a Conflict is returned.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Doctors().Get(ctx, id); err != nil {
			return err
		}
		count, err := tx.Appointments().CountByDoctor(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return errors.Conflict("Doctor has appointments", nil)
		}
		return tx.Doctors().Delete(ctx, id)
	})
}
