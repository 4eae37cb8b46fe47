// Package cli implements the interactive console menu. It is a thin
// surface: every string is parsed here, handed to the registry or the
// scheduler, and any failure is rendered as a single line before the
// same menu is shown again.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hackgods/clinic-agenda/internal/agenda"
)

// consoleDate is the date layout users type at the prompt. It exists
// only inside this package; everything past the boundary is time.Time.
const consoleDate = "02/01/2006"

type Menu struct {
	in        *bufio.Scanner
	out       io.Writer
	registry  *agenda.Registry
	scheduler *agenda.Service
}

func NewMenu(in io.Reader, out io.Writer, registry *agenda.Registry, scheduler *agenda.Service) *Menu {
	return &Menu{
		in:        bufio.NewScanner(in),
		out:       out,
		registry:  registry,
		scheduler: scheduler,
	}
}

// Run drives the main menu until the user exits or input ends.
func (m *Menu) Run(ctx context.Context) error {
	for {
		fmt.Fprint(m.out, `
================================
 Clinic Agenda
================================
 1 - Patient registry
 2 - Appointment calendar
 3 - Exit
`)
		choice, ok := m.prompt("Choose an option: ")
		if !ok {
			return nil
		}

		switch choice {
		case "1":
			if err := m.patientMenu(ctx); err != nil {
				return err
			}
		case "2":
			if err := m.agendaMenu(ctx); err != nil {
				return err
			}
		case "3":
			fmt.Fprintln(m.out, "Goodbye.")
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid option, try again.")
		}
	}
}

func (m *Menu) patientMenu(ctx context.Context) error {
	for {
		fmt.Fprint(m.out, `
================================
 Patient registry
================================
 1 - Register new patient
 2 - Delete patient
 3 - List patients (by national id)
 4 - List patients (by name)
 5 - Back to main menu
`)
		choice, ok := m.prompt("Choose an option: ")
		if !ok {
			return nil
		}

		switch choice {
		case "1":
			m.registerPatient(ctx)
		case "2":
			m.deletePatient(ctx)
		case "3":
			m.listPatients(ctx, agenda.OrderByNationalID)
		case "4":
			m.listPatients(ctx, agenda.OrderByName)
		case "5":
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid option, try again.")
		}
	}
}

func (m *Menu) agendaMenu(ctx context.Context) error {
	for {
		fmt.Fprint(m.out, `
================================
 Appointment calendar
================================
 1 - Schedule appointment
 2 - Cancel appointment
 3 - List full agenda
 4 - List agenda by period
 5 - Back to main menu
`)
		choice, ok := m.prompt("Choose an option: ")
		if !ok {
			return nil
		}

		switch choice {
		case "1":
			m.scheduleAppointment(ctx)
		case "2":
			m.cancelAppointment(ctx)
		case "3":
			m.listAgenda(ctx)
		case "4":
			m.listAgendaByPeriod(ctx)
		case "5":
			return nil
		default:
			fmt.Fprintln(m.out, "Invalid option, try again.")
		}
	}
}

func (m *Menu) registerPatient(ctx context.Context) {
	fmt.Fprintln(m.out, "Register patient")

	nationalID, ok := m.prompt("National id: ")
	if !ok {
		return
	}
	name, ok := m.prompt("Full name: ")
	if !ok {
		return
	}
	birthStr, ok := m.prompt("Birth date (DD/MM/YYYY): ")
	if !ok {
		return
	}

	birthDate, err := time.ParseInLocation(consoleDate, birthStr, time.Local)
	if err != nil {
		m.showError(fmt.Errorf("birth date must be DD/MM/YYYY"))
		return
	}

	p, err := m.registry.Register(ctx, nationalID, name, birthDate)
	if err != nil {
		m.showError(err)
		return
	}

	fmt.Fprintf(m.out, "Patient %s registered.\n", p.FullName)
}

func (m *Menu) deletePatient(ctx context.Context) {
	fmt.Fprintln(m.out, "Delete patient")

	nationalID, ok := m.prompt("National id: ")
	if !ok {
		return
	}

	if err := m.registry.Remove(ctx, nationalID); err != nil {
		m.showError(err)
		return
	}

	fmt.Fprintln(m.out, "Patient deleted.")
}

func (m *Menu) listPatients(ctx context.Context, orderBy agenda.PatientOrder) {
	patients, err := m.registry.ListPatients(ctx, orderBy)
	if err != nil {
		m.showError(err)
		return
	}

	renderPatients(m.out, patients, time.Now())
}

func (m *Menu) scheduleAppointment(ctx context.Context) {
	fmt.Fprintln(m.out, "Schedule appointment")

	nationalID, ok := m.prompt("Patient national id: ")
	if !ok {
		return
	}
	dateStr, ok := m.prompt("Date (DD/MM/YYYY): ")
	if !ok {
		return
	}
	start, ok := m.prompt("Start time (HHMM): ")
	if !ok {
		return
	}
	end, ok := m.prompt("End time (HHMM): ")
	if !ok {
		return
	}

	date, err := time.ParseInLocation(consoleDate, dateStr, time.Local)
	if err != nil {
		m.showError(fmt.Errorf("date must be DD/MM/YYYY"))
		return
	}

	appt, err := m.scheduler.Schedule(ctx, nationalID, date, start, end)
	if err != nil {
		m.showError(err)
		return
	}

	fmt.Fprintf(m.out, "Appointment scheduled for %s, %s to %s.\n",
		appt.Date.Format(consoleDate),
		agenda.FormatMinutes(appt.StartMin),
		agenda.FormatMinutes(appt.EndMin),
	)
}

func (m *Menu) cancelAppointment(ctx context.Context) {
	fmt.Fprintln(m.out, "Cancel appointment")

	nationalID, ok := m.prompt("Patient national id: ")
	if !ok {
		return
	}
	dateStr, ok := m.prompt("Date (DD/MM/YYYY): ")
	if !ok {
		return
	}
	start, ok := m.prompt("Start time (HHMM): ")
	if !ok {
		return
	}

	date, err := time.ParseInLocation(consoleDate, dateStr, time.Local)
	if err != nil {
		m.showError(fmt.Errorf("date must be DD/MM/YYYY"))
		return
	}

	if err := m.scheduler.Cancel(ctx, nationalID, date, start); err != nil {
		m.showError(err)
		return
	}

	fmt.Fprintln(m.out, "Appointment cancelled.")
}

func (m *Menu) listAgenda(ctx context.Context) {
	appts, err := m.scheduler.List(ctx)
	if err != nil {
		m.showError(err)
		return
	}

	renderAgenda(m.out, appts)
}

func (m *Menu) listAgendaByPeriod(ctx context.Context) {
	fromStr, ok := m.prompt("From date (DD/MM/YYYY): ")
	if !ok {
		return
	}
	toStr, ok := m.prompt("To date (DD/MM/YYYY): ")
	if !ok {
		return
	}

	from, err := time.ParseInLocation(consoleDate, fromStr, time.Local)
	if err != nil {
		m.showError(fmt.Errorf("from date must be DD/MM/YYYY"))
		return
	}
	to, err := time.ParseInLocation(consoleDate, toStr, time.Local)
	if err != nil {
		m.showError(fmt.Errorf("to date must be DD/MM/YYYY"))
		return
	}

	appts, err := m.scheduler.ListByRange(ctx, from, to)
	if err != nil {
		m.showError(err)
		return
	}

	renderAgenda(m.out, appts)
}

// prompt prints the label and reads one trimmed line. The second return
// is false when input has ended.
func (m *Menu) prompt(label string) (string, bool) {
	fmt.Fprint(m.out, label)
	if !m.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(m.in.Text()), true
}

func (m *Menu) showError(err error) {
	fmt.Fprintf(m.out, "Error: %v\n", err)
}
