// Package memory is a process-local repository.Store used for tests and for
// running the service without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/pkg/errors"
)

type state struct {
	doctors      map[uuid.UUID]model.Doctor
	patients     map[uuid.UUID]model.Patient
	slots        map[uuid.UUID]model.Slot
	appointments map[uuid.UUID]model.Appointment
	outbox       map[uuid.UUID]model.OutboxEvent
}

func newState() *state {
	return &state{
		doctors:      map[uuid.UUID]model.Doctor{},
		patients:     map[uuid.UUID]model.Patient{},
		slots:        map[uuid.UUID]model.Slot{},
		appointments: map[uuid.UUID]model.Appointment{},
		outbox:       map[uuid.UUID]model.OutboxEvent{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.doctors {
		c.doctors[k] = v
	}
	for k, v := range s.patients {
		c.patients[k] = v
	}
	for k, v := range s.slots {
		c.slots[k] = v
	}
	for k, v := range s.appointments {
		c.appointments[k] = v
	}
	for k, v := range s.outbox {
		c.outbox[k] = v
	}
	return c
}

// Store keeps every table in maps behind a single mutex. WithTx holds the
// lock for the whole callback and restores a snapshot on failure.
type Store struct {
	mu    *sync.Mutex
	data  *state
	inTx  bool
	clock func() time.Time

	// failNext, when set, makes the named operation fail once. Tests use it
	// to exercise rollback.
	failNext map[string]error
}

func NewStore() *Store {
	return &Store{
		mu:       &sync.Mutex{},
		data:     newState(),
		clock:    func() time.Time { return time.Now().UTC() },
		failNext: map[string]error{},
	}
}

// FailNext makes the next call of op ("slots.update", "appointments.create",
// ...) return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[op] = err
}

// lock acquires the mutex unless the caller already holds it inside WithTx.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) injected(op string) error {
	if err, ok := s.failNext[op]; ok {
		delete(s.failNext, op)
		return err
	}
	return nil
}

func (s *Store) Doctors() repository.DoctorRepository           { return &doctorRepository{s} }
func (s *Store) Patients() repository.PatientRepository         { return &patientRepository{s} }
func (s *Store) Slots() repository.SlotRepository               { return &slotRepository{s} }
func (s *Store) Appointments() repository.AppointmentRepository { return &appointmentRepository{s} }
func (s *Store) Outbox() repository.OutboxRepository            { return &outboxRepository{s} }

func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &Store{mu: s.mu, data: s.data, inTx: true, clock: s.clock, failNext: s.failNext}

	defer func() {
		if p := recover(); p != nil {
			*s.data = *snapshot
			panic(p)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

type doctorRepository struct{ s *Store }

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	defer r.s.lock()()
	if err := r.s.injected("doctors.create"); err != nil {
		return err
	}
	doctor.Touch(r.s.clock())
	if _, exists := r.s.data.doctors[doctor.ID]; exists {
		return errors.Conflict("Doctor already exists", nil)
	}
	r.s.data.doctors[doctor.ID] = *doctor
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	defer r.s.lock()()
	doctor, ok := r.s.data.doctors[id]
	if !ok {
		return nil, errors.NotFound("Doctor", nil)
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	defer r.s.lock()()
	existing, ok := r.s.data.doctors[doctor.ID]
	if !ok {
		return errors.NotFound("Doctor", nil)
	}
	doctor.CreatedAt = existing.CreatedAt
	doctor.UpdatedAt = r.s.clock()
	r.s.data.doctors[doctor.ID] = *doctor
	return nil
}

// Delete mirrors the schema: slots cascade, appointments restrict.
func (r *doctorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.lock()()
	if _, ok := r.s.data.doctors[id]; !ok {
		return errors.NotFound("Doctor", nil)
	}
	for _, apt := range r.s.data.appointments {
		if apt.DoctorID == id {
			return errors.Conflict("Doctor has appointments", nil)
		}
	}
	for slotID, slot := range r.s.data.slots {
		if slot.DoctorID == id {
			delete(r.s.data.slots, slotID)
		}
	}
	delete(r.s.data.doctors, id)
	return nil
}

func (r *doctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	return r.filter(func(*model.Doctor) bool { return true }), nil
}

func (r *doctorRepository) ListBySpecialization(ctx context.Context, spec model.Specialization) ([]*model.Doctor, error) {
	return r.filter(func(d *model.Doctor) bool { return d.Specialization == spec }), nil
}

func (r *doctorRepository) filter(keep func(*model.Doctor) bool) []*model.Doctor {
	defer r.s.lock()()
	doctors := []*model.Doctor{}
	for _, d := range r.s.data.doctors {
		d := d
		if keep(&d) {
			doctors = append(doctors, &d)
		}
	}
	sort.Slice(doctors, func(i, j int) bool {
		if doctors[i].Name != doctors[j].Name {
			return doctors[i].Name < doctors[j].Name
		}
		return doctors[i].ID.String() < doctors[j].ID.String()
	})
	return doctors
}

type patientRepository struct{ s *Store }

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	defer r.s.lock()()
	patient.Touch(r.s.clock())
	if _, exists := r.s.data.patients[patient.ID]; exists {
		return errors.Conflict("Patient already exists", nil)
	}
	r.s.data.patients[patient.ID] = *patient
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	defer r.s.lock()()
	patient, ok := r.s.data.patients[id]
	if !ok {
		return nil, errors.NotFound("Patient", nil)
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	defer r.s.lock()()
	patients := []*model.Patient{}
	for _, p := range r.s.data.patients {
		p := p
		patients = append(patients, &p)
	}
	sort.Slice(patients, func(i, j int) bool {
		if patients[i].Name != patients[j].Name {
			return patients[i].Name < patients[j].Name
		}
		return patients[i].ID.String() < patients[j].ID.String()
	})
	return patients, nil
}

type slotRepository struct{ s *Store }

func (r *slotRepository) CreateBatch(ctx context.Context, slots []*model.Slot) error {
	defer r.s.lock()()
	if err := r.s.injected("slots.create"); err != nil {
		return err
	}
	now := r.s.clock()
	for _, slot := range slots {
		if _, ok := r.s.data.doctors[slot.DoctorID]; !ok {
			return errors.NotFound("Doctor", nil)
		}
		slot.Touch(now)
		r.s.data.slots[slot.ID] = *slot
	}
	return nil
}

func (r *slotRepository) Get(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	defer r.s.lock()()
	slot, ok := r.s.data.slots[id]
	if !ok {
		return nil, errors.NotFound("Availability slot", nil)
	}
	return &slot, nil
}

func (r *slotRepository) Update(ctx context.Context, slot *model.Slot) error {
	defer r.s.lock()()
	if err := r.s.injected("slots.update"); err != nil {
		return err
	}
	existing, ok := r.s.data.slots[slot.ID]
	if !ok {
		return errors.NotFound("Availability slot", nil)
	}
	slot.DoctorID = existing.DoctorID
	slot.CreatedAt = existing.CreatedAt
	slot.UpdatedAt = r.s.clock()
	r.s.data.slots[slot.ID] = *slot
	return nil
}

func (r *slotRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Slot, error) {
	return r.filter(func(s *model.Slot) bool { return s.DoctorID == doctorID }), nil
}

func (r *slotRepository) ListByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*model.Slot, error) {
	day := date.Format(model.DateLayout)
	return r.filter(func(s *model.Slot) bool {
		return s.DoctorID == doctorID && s.StartTime.Date() == day
	}), nil
}

func (r *slotRepository) filter(keep func(*model.Slot) bool) []*model.Slot {
	defer r.s.lock()()
	slots := []*model.Slot{}
	for _, s := range r.s.data.slots {
		s := s
		if keep(&s) {
			slots = append(slots, &s)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		if !slots[i].StartTime.Equal(slots[j].StartTime) {
			return slots[i].StartTime.Before(slots[j].StartTime)
		}
		return slots[i].ID.String() < slots[j].ID.String()
	})
	return slots
}

type appointmentRepository struct{ s *Store }

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	defer r.s.lock()()
	if err := r.s.injected("appointments.create"); err != nil {
		return err
	}
	_, doctorOK := r.s.data.doctors[appointment.DoctorID]
	_, patientOK := r.s.data.patients[appointment.PatientID]
	if !doctorOK || !patientOK {
		return errors.NotFound("Doctor or Patient", nil)
	}
	appointment.Touch(r.s.clock())
	r.s.data.appointments[appointment.ID] = *appointment
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	defer r.s.lock()()
	apt, ok := r.s.data.appointments[id]
	if !ok {
		return nil, errors.NotFound("Appointment", nil)
	}
	return &apt, nil
}

func (r *appointmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	defer r.s.lock()()
	if err := r.s.injected("appointments.update_status"); err != nil {
		return err
	}
	apt, ok := r.s.data.appointments[id]
	if !ok {
		return errors.NotFound("Appointment", nil)
	}
	apt.Status = status
	apt.UpdatedAt = r.s.clock()
	r.s.data.appointments[id] = apt
	return nil
}

func (r *appointmentRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Appointment, error) {
	return r.filter(func(a *model.Appointment) bool { return a.DoctorID == doctorID }), nil
}

func (r *appointmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	return r.filter(func(a *model.Appointment) bool { return a.PatientID == patientID }), nil
}

func (r *appointmentRepository) CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	return len(r.filter(func(a *model.Appointment) bool { return a.DoctorID == doctorID })), nil
}

func (r *appointmentRepository) filter(keep func(*model.Appointment) bool) []*model.Appointment {
	defer r.s.lock()()
	apts := []*model.Appointment{}
	for _, a := range r.s.data.appointments {
		a := a
		if keep(&a) {
			apts = append(apts, &a)
		}
	}
	sort.Slice(apts, func(i, j int) bool {
		if !apts[i].AppointmentTime.Equal(apts[j].AppointmentTime) {
			return apts[i].AppointmentTime.Before(apts[j].AppointmentTime)
		}
		return apts[i].ID.String() < apts[j].ID.String()
	})
	return apts
}

type outboxRepository struct{ s *Store }

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	defer r.s.lock()()
	if err := r.s.injected("outbox.create"); err != nil {
		return err
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	now := r.s.clock()
	event.CreatedAt = now
	event.UpdatedAt = now
	event.Status = model.OutboxStatusPending
	r.s.data.outbox[event.ID] = *event
	return nil
}

func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	defer r.s.lock()()
	events := []*model.OutboxEvent{}
	for _, e := range r.s.data.outbox {
		e := e
		if e.Status == model.OutboxStatusPending {
			events = append(events, &e)
		}
	}
	sort.Slice(events, func(i, j int) bool {
		if !events[i].CreatedAt.Equal(events[j].CreatedAt) {
			return events[i].CreatedAt.Before(events[j].CreatedAt)
		}
		return events[i].ID.String() < events[j].ID.String()
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	defer r.s.lock()()
	e, ok := r.s.data.outbox[id]
	if !ok {
		return nil
	}
	now := r.s.clock()
	e.Status = status
	e.ErrorMessage = errorMessage
	e.UpdatedAt = now
	if status == model.OutboxStatusProcessed {
		e.ProcessedAt = &now
	}
	r.s.data.outbox[id] = e
	return nil
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	defer r.s.lock()()
	var n int64
	for id, e := range r.s.data.outbox {
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(r.s.data.outbox, id)
			n++
		}
	}
	return n, nil
}
