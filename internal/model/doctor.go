package model

import (
	"strings"

	"github.com/google/uuid"
)

type Specialization string

const (
	SpecializationCardiology      Specialization = "CARDIOLOGY"
	SpecializationDermatology     Specialization = "DERMATOLOGY"
	SpecializationNeurology       Specialization = "NEUROLOGY"
	SpecializationPediatrics      Specialization = "PEDIATRICS"
	SpecializationOrthopedics     Specialization = "ORTHOPEDICS"
	SpecializationGeneralPractice Specialization = "GENERAL_PRACTICE"
	SpecializationPsychiatry      Specialization = "PSYCHIATRY"
	SpecializationOncology        Specialization = "ONCOLOGY"
)

var specializations = map[Specialization]struct{}{
	SpecializationCardiology:      {},
	SpecializationDermatology:     {},
	SpecializationNeurology:       {},
	SpecializationPediatrics:      {},
	SpecializationOrthopedics:     {},
	SpecializationGeneralPractice: {},
	SpecializationPsychiatry:      {},
	SpecializationOncology:        {},
}

func (s Specialization) Valid() bool {
	_, ok := specializations[s]
	return ok
}

// ParseSpecialization matches exactly against the enumerated names.
func ParseSpecialization(s string) (Specialization, bool) {
	spec := Specialization(strings.TrimSpace(s))
	return spec, spec.Valid()
}

type Doctor struct {
	Base
	Name           string         `db:"name" json:"name"`
	Specialization Specialization `db:"specialization" json:"specialization"`
}

type CreateDoctorRequest struct {
	Name           string         `json:"name" binding:"required,max=255"`
	Specialization Specialization `json:"specialization" binding:"required,specialization"`
}

type UpdateDoctorRequest struct {
	ID             *uuid.UUID     `json:"id"`
	Name           string         `json:"name" binding:"required,max=255"`
	Specialization Specialization `json:"specialization" binding:"required,specialization"`
}
