package event

import (
	"github.com/google/uuid"

	"github.com/jwalitptl/booking-api/internal/model"
)

// AppointmentPayload is written for booked, cancelled and completed events.
type AppointmentPayload struct {
	AppointmentID   uuid.UUID               `json:"appointment_id"`
	DoctorID        uuid.UUID               `json:"doctor_id"`
	PatientID       uuid.UUID               `json:"patient_id"`
	AppointmentTime model.LocalTime         `json:"appointment_time"`
	Duration        int                     `json:"duration"`
	Status          model.AppointmentStatus `json:"status"`
	SlotID          *uuid.UUID              `json:"slot_id,omitempty"`
}

func NewAppointmentPayload(apt *model.Appointment, slot *model.Slot) AppointmentPayload {
	p := AppointmentPayload{
		AppointmentID:   apt.ID,
		DoctorID:        apt.DoctorID,
		PatientID:       apt.PatientID,
		AppointmentTime: apt.AppointmentTime,
		Duration:        apt.Duration,
		Status:          apt.Status,
	}
	if slot != nil {
		id := slot.ID
		p.SlotID = &id
	}
	return p
}

type AvailabilityPayload struct {
	DoctorID  uuid.UUID       `json:"doctor_id"`
	StartTime model.LocalTime `json:"start_time"`
	EndTime   model.LocalTime `json:"end_time"`
	SlotIDs   []uuid.UUID     `json:"slot_ids"`
}
