// Package cache adds a read-through doctor cache in front of a repository.Store.
package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type Config struct {
	DoctorTTL       time.Duration
	CleanupInterval time.Duration
}

// Store decorates a repository.Store. Doctor lookups by id are served from
// cache; every doctor write evicts the entry after the write succeeds. Inside
// transactions the cache is never filled, and written keys are evicted again
// once the outermost transaction returns, so a reader that refilled the entry
// from the pre-commit row is discarded.
type Store struct {
	repository.Store
	cache    *gocache.Cache
	populate bool
	// pending is non-nil inside a transaction.
	pending *[]string
}

func NewStore(inner repository.Store, cfg Config) *Store {
	return &Store{
		Store:    inner,
		cache:    gocache.New(cfg.DoctorTTL, cfg.CleanupInterval),
		populate: true,
	}
}

func (s *Store) Doctors() repository.DoctorRepository {
	return &doctorRepository{
		DoctorRepository: s.Store.Doctors(),
		cache:            s.cache,
		populate:         s.populate,
		pending:          s.pending,
	}
}

func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.pending != nil {
		return s.Store.WithTx(ctx, func(tx repository.Store) error {
			return fn(&Store{Store: tx, cache: s.cache, pending: s.pending})
		})
	}

	var written []string
	err := s.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(&Store{Store: tx, cache: s.cache, pending: &written})
	})
	for _, key := range written {
		s.cache.Delete(key)
	}
	return err
}

// Flush drops every cached entry.
func (s *Store) Flush() {
	s.cache.Flush()
}

type doctorRepository struct {
	repository.DoctorRepository
	cache    *gocache.Cache
	populate bool
	pending  *[]string
}

func doctorKey(id uuid.UUID) string {
	return "doctor:" + id.String()
}

func (r *doctorRepository) evict(id uuid.UUID) {
	key := doctorKey(id)
	r.cache.Delete(key)
	if r.pending != nil {
		*r.pending = append(*r.pending, key)
	}
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	if cached, ok := r.cache.Get(doctorKey(id)); ok {
		doctor := cached.(model.Doctor)
		return &doctor, nil
	}

	doctor, err := r.DoctorRepository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.populate {
		r.cache.SetDefault(doctorKey(id), *doctor)
	}
	return doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	if err := r.DoctorRepository.Update(ctx, doctor); err != nil {
		return err
	}
	r.evict(doctor.ID)
	return nil
}

func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.DoctorRepository.Delete(ctx, id); err != nil {
		return err
	}
	r.evict(id)
	return nil
}
