package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// Dates travel as ISO 2006-01-02 strings and times of day as 4-digit
// HHMM strings; both are parsed at this boundary only.

type RegisterPatientRequest struct {
	NationalID string `json:"national_id"`
	FullName   string `json:"full_name"`
	BirthDate  string `json:"birth_date"`
}

type PatientResponse struct {
	ID         uuid.UUID `json:"id"`
	NationalID string    `json:"national_id"`
	FullName   string    `json:"full_name"`
	BirthDate  string    `json:"birth_date"`
	Age        int       `json:"age,omitempty"`

	FutureAppointments []AppointmentSlice `json:"future_appointments,omitempty"`
}

// AppointmentSlice is the compact slot form embedded in patient rows.
type AppointmentSlice struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type ScheduleAppointmentRequest struct {
	NationalID string `json:"national_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

type CancelAppointmentRequest struct {
	NationalID string `json:"national_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
}

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	NationalID  string    `json:"national_id"`
	PatientName string    `json:"patient_name,omitempty"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
