package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-console/internal/model"
)

func diagnosisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnosis",
		Short: "Browse the diagnosis history",
	}
	cmd.AddCommand(diagnosisListCmd())
	return cmd
}

func diagnosisListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded diagnoses in insertion order",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filters model.DiagnosisFilters
			filters.PatientID, _ = cmd.Flags().GetInt("patient")
			filters.DoctorID, _ = cmd.Flags().GetInt("doctor")
			appointmentID, _ := cmd.Flags().GetInt("appointment")

			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			records := a.diagnoses.List(filters)
			if appointmentID != 0 {
				records = a.diagnoses.ByAppointment(appointmentID)
			}
			return printDiagnoses(cmd.OutOrStdout(), records)
		},
	}
	cmd.Flags().Int("patient", 0, "only this patient")
	cmd.Flags().Int("doctor", 0, "only this doctor")
	cmd.Flags().Int("appointment", 0, "only this appointment, other filters are ignored")
	return cmd
}

func printDiagnoses(w io.Writer, records []*model.Diagnosis) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "No diagnoses.")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tAPPOINTMENT\tPATIENT\tDOCTOR\tRECORDED\tCOMPLAINT\tDIAGNOSIS\tMEDICATION")
	for _, d := range records {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
			d.ID, d.AppointmentID, d.PatientID, d.DoctorID, model.FormatDateTime(d.RecordedAt),
			d.Complaint, d.Diagnosis, d.Medication)
	}
	return tw.Flush()
}
