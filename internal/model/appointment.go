package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "SCHEDULED"
	AppointmentStatusCancelled AppointmentStatus = "CANCELLED"
	AppointmentStatusCompleted AppointmentStatus = "COMPLETED"
)

// AppointmentDurationMinutes is assigned to every new appointment.
const AppointmentDurationMinutes = 30

type Appointment struct {
	Base
	DoctorID        uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	PatientID       uuid.UUID         `db:"patient_id" json:"patient_id"`
	AppointmentTime LocalTime         `db:"appointment_time" json:"appointment_time"`
	Duration        int               `db:"duration" json:"duration"`
	Status          AppointmentStatus `db:"status" json:"status"`
}

// MarshalJSON adds doctor and patient refs shaped like the booking request
// alongside the flat ids.
func (a Appointment) MarshalJSON() ([]byte, error) {
	type plain Appointment
	return json.Marshal(struct {
		plain
		Doctor  EntityRef `json:"doctor"`
		Patient EntityRef `json:"patient"`
	}{
		plain:   plain(a),
		Doctor:  EntityRef{ID: a.DoctorID},
		Patient: EntityRef{ID: a.PatientID},
	})
}

// EndTime is the appointment start plus its stored duration.
func (a *Appointment) EndTime() LocalTime {
	return a.AppointmentTime.Add(time.Duration(a.Duration) * time.Minute)
}

type BookAppointmentRequest struct {
	Doctor          EntityRef  `json:"doctor"`
	Patient         EntityRef  `json:"patient"`
	AppointmentTime *LocalTime `json:"appointment_time" binding:"required"`
}
