package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/hackgods/clinic-agenda/internal/agenda"
)

func renderPatients(out io.Writer, patients []agenda.PatientSummary, now time.Time) {
	if len(patients) == 0 {
		fmt.Fprintln(out, "No patients registered.")
		return
	}

	fmt.Fprintln(out, "------------------------------------------------------------")
	fmt.Fprintf(out, "%-12s %-28s %-10s %s\n", "National id", "Name", "Birth", "Age")
	fmt.Fprintln(out, "------------------------------------------------------------")

	for _, p := range patients {
		fmt.Fprintf(out, "%-12s %-28s %-10s %d\n",
			p.NationalID,
			p.FullName,
			p.BirthDate.Format(consoleDate),
			p.AgeAt(now),
		)

		if len(p.FutureAppointments) == 0 {
			fmt.Fprintln(out, "             no upcoming appointments")
			continue
		}
		for _, a := range p.FutureAppointments {
			fmt.Fprintf(out, "             booked for %s, %s to %s\n",
				a.Date.Format(consoleDate),
				agenda.FormatMinutes(a.StartMin),
				agenda.FormatMinutes(a.EndMin),
			)
		}
	}
}

func renderAgenda(out io.Writer, appts []agenda.AppointmentDetail) {
	if len(appts) == 0 {
		fmt.Fprintln(out, "No appointments in this period.")
		return
	}

	fmt.Fprintln(out, "-------------------------------------------------------")
	fmt.Fprintf(out, "%-12s %-6s %-6s %s\n", "Date", "Start", "End", "Patient")
	fmt.Fprintln(out, "-------------------------------------------------------")

	for _, a := range appts {
		name := ""
		if a.Patient != nil {
			name = a.Patient.FullName
		}
		fmt.Fprintf(out, "%-12s %-6s %-6s %s\n",
			a.Date.Format(consoleDate),
			agenda.FormatMinutes(a.StartMin),
			agenda.FormatMinutes(a.EndMin),
			name,
		)
	}
}
