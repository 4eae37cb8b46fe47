package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/clinic-agenda/internal/agenda"
)

const wireDate = "2006-01-02"

func registerPatientHandler(reg *agenda.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterPatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		birthDate, err := time.ParseInLocation(wireDate, req.BirthDate, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_birth_date", "birth_date must be YYYY-MM-DD")
			return
		}

		p, err := reg.Register(r.Context(), req.NationalID, req.FullName, birthDate)
		if err != nil {
			handleRegistryError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, PatientResponse{
			ID:         p.ID,
			NationalID: p.NationalID,
			FullName:   p.FullName,
			BirthDate:  p.BirthDate.Format(wireDate),
		})
	}
}

func deletePatientHandler(reg *agenda.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nationalID := chi.URLParam(r, "nationalID")

		if err := reg.Remove(r.Context(), nationalID); err != nil {
			handleRegistryError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listPatientsHandler(reg *agenda.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderBy := agenda.OrderByNationalID
		if r.URL.Query().Get("order_by") == "name" {
			orderBy = agenda.OrderByName
		}

		patients, err := reg.ListPatients(r.Context(), orderBy)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		now := time.Now()
		resp := make([]PatientResponse, 0, len(patients))
		for _, p := range patients {
			row := PatientResponse{
				ID:         p.ID,
				NationalID: p.NationalID,
				FullName:   p.FullName,
				BirthDate:  p.BirthDate.Format(wireDate),
				Age:        p.AgeAt(now),
			}
			for _, a := range p.FutureAppointments {
				row.FutureAppointments = append(row.FutureAppointments, AppointmentSlice{
					Date:      a.Date.Format(wireDate),
					StartTime: agenda.FormatMinutes(a.StartMin),
					EndTime:   agenda.FormatMinutes(a.EndMin),
				})
			}
			resp = append(resp, row)
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func scheduleAppointmentHandler(svc *agenda.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScheduleAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := time.ParseInLocation(wireDate, req.Date, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		appt, err := svc.Schedule(r.Context(), req.NationalID, date, req.StartTime, req.EndTime)
		if err != nil {
			handleSchedulerError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, AppointmentResponse{
			ID:         appt.ID,
			NationalID: req.NationalID,
			Date:       appt.Date.Format(wireDate),
			StartTime:  agenda.FormatMinutes(appt.StartMin),
			EndTime:    agenda.FormatMinutes(appt.EndMin),
		})
	}
}

func cancelAppointmentHandler(svc *agenda.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CancelAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := time.ParseInLocation(wireDate, req.Date, time.Local)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		if err := svc.Cancel(r.Context(), req.NationalID, date, req.StartTime); err != nil {
			handleSchedulerError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func listAppointmentsHandler(svc *agenda.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			appts []agenda.AppointmentDetail
			err   error
		)

		fromStr := r.URL.Query().Get("from")
		toStr := r.URL.Query().Get("to")

		if fromStr != "" || toStr != "" {
			from, perr := time.ParseInLocation(wireDate, fromStr, time.Local)
			if perr != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "from must be YYYY-MM-DD")
				return
			}
			to, perr := time.ParseInLocation(wireDate, toStr, time.Local)
			if perr != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "to must be YYYY-MM-DD")
				return
			}
			appts, err = svc.ListByRange(r.Context(), from, to)
		} else {
			appts, err = svc.List(r.Context())
		}

		if err != nil {
			handleSchedulerError(w, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for _, a := range appts {
			row := AppointmentResponse{
				ID:        a.ID,
				Date:      a.Date.Format(wireDate),
				StartTime: agenda.FormatMinutes(a.StartMin),
				EndTime:   agenda.FormatMinutes(a.EndMin),
			}
			if a.Patient != nil {
				row.NationalID = a.Patient.NationalID
				row.PatientName = a.Patient.FullName
			}
			resp = append(resp, row)
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func handleRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, agenda.ErrDuplicateNationalID):
		writeError(w, http.StatusConflict, "duplicate_national_id", err.Error())
	case errors.Is(err, agenda.ErrInvalidNationalID):
		writeError(w, http.StatusBadRequest, "invalid_national_id", err.Error())
	case errors.Is(err, agenda.ErrNameTooShort):
		writeError(w, http.StatusBadRequest, "invalid_name", err.Error())
	case errors.Is(err, agenda.ErrUnderMinAge):
		writeError(w, http.StatusBadRequest, "under_min_age", err.Error())
	case errors.Is(err, agenda.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, agenda.ErrHasFutureAppointments):
		writeError(w, http.StatusConflict, "has_future_appointments", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func handleSchedulerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, agenda.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, agenda.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, agenda.ErrBadTimeFormat):
		writeError(w, http.StatusBadRequest, "invalid_time", err.Error())
	case errors.Is(err, agenda.ErrInvalidTimeRange),
		errors.Is(err, agenda.ErrInvalidDateRange):
		writeError(w, http.StatusBadRequest, "invalid_range", err.Error())
	case errors.Is(err, agenda.ErrNotQuarterHour):
		writeError(w, http.StatusBadRequest, "invalid_granularity", err.Error())
	case errors.Is(err, agenda.ErrOutsideWorkingHours):
		writeError(w, http.StatusBadRequest, "outside_working_hours", err.Error())
	case errors.Is(err, agenda.ErrNotInFuture):
		writeError(w, http.StatusBadRequest, "not_in_future", err.Error())
	case errors.Is(err, agenda.ErrTimeUnavailable):
		writeError(w, http.StatusConflict, "time_unavailable", err.Error())
	case errors.Is(err, agenda.ErrAlreadyBooked):
		writeError(w, http.StatusConflict, "already_booked", err.Error())
	case errors.Is(err, agenda.ErrPastAppointment):
		writeError(w, http.StatusConflict, "past_appointment", err.Error())
	case errors.Is(err, agenda.ErrPatientBusy):
		writeError(w, http.StatusConflict, "patient_busy", "another booking for this patient is in progress, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
