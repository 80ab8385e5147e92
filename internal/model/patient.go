package model

type Patient struct {
	Base
	Name string `db:"name" json:"name"`
}

type CreatePatientRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}
