package model

import (
	"time"

	"github.com/google/uuid"
)

// SlotDuration is the fixed length of every availability slot.
const SlotDuration = 30 * time.Minute

// Slot is a doctor availability window.
type Slot struct {
	Base
	DoctorID  uuid.UUID `db:"doctor_id" json:"doctor_id"`
	StartTime LocalTime `db:"start_time" json:"start_time"`
	EndTime   LocalTime `db:"end_time" json:"end_time"`
	Booked    bool      `db:"booked" json:"booked"`
}

// Matches reports whether the slot covers exactly [start, end).
func (s *Slot) Matches(start, end LocalTime) bool {
	return s.StartTime.Equal(start) && s.EndTime.Equal(end)
}

// Label renders the slot as HH:MM-HH:MM.
func (s *Slot) Label() string {
	return s.StartTime.Format(ClockLayout) + "-" + s.EndTime.Format(ClockLayout)
}

type AvailabilityRequest struct {
	StartTime *LocalTime `json:"start_time"`
	EndTime   *LocalTime `json:"end_time"`
}
