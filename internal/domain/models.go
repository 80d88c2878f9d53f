package domain

import "time"

type CBCReport struct {
	ID         string    `json:"id"`
	UserEmail  string    `json:"user_email"`
	Hemoglobin float64   `json:"hemoglobin"`
	RBC        *float64  `json:"rbc,omitempty"`
	Hematocrit *float64  `json:"hematocrit,omitempty"`
	MCV        *float64  `json:"mcv,omitempty"`
	MCH        *float64  `json:"mch,omitempty"`
	MCHC       *float64  `json:"mchc,omitempty"`
	RDW        *float64  `json:"rdw,omitempty"`
	WBC        *float64  `json:"wbc,omitempty"`
	Platelets  *float64  `json:"platelets,omitempty"`
	Lab        string    `json:"lab,omitempty"`
	ReportDate string    `json:"report_date,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type SymptomEntry struct {
	ID        string         `json:"id"`
	UserEmail string         `json:"user_email"`
	Symptoms  map[string]any `json:"symptoms"`
	CreatedAt time.Time      `json:"created_at"`
}
