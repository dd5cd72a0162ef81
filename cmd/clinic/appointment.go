package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-console/internal/model"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

func appointmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointment",
		Aliases: []string{"appt"},
		Short:   "Schedule and process appointments",
	}
	cmd.AddCommand(appointmentScheduleCmd())
	cmd.AddCommand(appointmentProcessCmd())
	cmd.AddCommand(appointmentListCmd())
	cmd.AddCommand(appointmentNextCmd())
	cmd.AddCommand(appointmentHistoryCmd())
	return cmd
}

func appointmentScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Add an appointment to the end of the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			patientID, _ := cmd.Flags().GetInt("patient")
			doctorID, _ := cmd.Flags().GetInt("doctor")
			raw, _ := cmd.Flags().GetString("at")

			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			at, err := model.ParseDateTime(raw, a.loc)
			if err != nil {
				return apperrors.NewBadRequest("invalid --at", err)
			}

			apt, err := a.appointments.Schedule(cmd.Context(), patientID, doctorID, at)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Scheduled appointment %d for %s\n", apt.ID, model.FormatDateTime(apt.ScheduledAt))
			return nil
		},
	}
	cmd.Flags().Int("patient", 0, "patient id")
	cmd.Flags().Int("doctor", 0, "doctor id")
	cmd.Flags().String("at", "", "local date-time, e.g. 2030-01-01T09:00")
	for _, name := range []string{"patient", "doctor", "at"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func appointmentProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Complete the appointment at the head of the queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			complaint, _ := cmd.Flags().GetString("complaint")
			diagnosis, _ := cmd.Flags().GetString("diagnosis")
			medication, _ := cmd.Flags().GetString("medication")

			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			apt, err := a.appointments.ProcessNext(cmd.Context(), complaint, diagnosis, medication)
			if apt != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Processed appointment %d (patient %d, doctor %d)\n", apt.ID, apt.PatientID, apt.DoctorID)
			}
			return err
		},
	}
	cmd.Flags().String("complaint", "", "patient complaint")
	cmd.Flags().String("diagnosis", "", "diagnosis")
	cmd.Flags().String("medication", "", "prescribed medication")
	return cmd
}

func appointmentListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending appointments in queue order",
		RunE: func(cmd *cobra.Command, args []string) error {
			var filters model.AppointmentFilters
			filters.DoctorID, _ = cmd.Flags().GetInt("doctor")
			filters.PatientID, _ = cmd.Flags().GetInt("patient")

			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			return printAppointments(cmd.OutOrStdout(), a.appointments.List(filters), "No pending appointments.")
		},
	}
	cmd.Flags().Int("doctor", 0, "only this doctor")
	cmd.Flags().Int("patient", 0, "only this patient")
	return cmd
}

func appointmentNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Show the appointment that will be processed next",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			apt, err := a.appointments.Peek()
			if err != nil {
				return err
			}
			return printAppointments(cmd.OutOrStdout(), []*model.Appointment{apt}, "")
		},
	}
}

func appointmentHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List completed appointments in processing order",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			return printAppointments(cmd.OutOrStdout(), a.appointments.History(), "No completed appointments.")
		},
	}
}

func printAppointments(w io.Writer, appointments []*model.Appointment, empty string) error {
	if len(appointments) == 0 {
		fmt.Fprintln(w, empty)
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tPATIENT\tDOCTOR\tTIME\tSTATUS\tCOMPLAINT\tDIAGNOSIS\tMEDICATION")
	for _, a := range appointments {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.PatientID, a.DoctorID, model.FormatDateTime(a.ScheduledAt), a.Status(),
			a.Complaint, a.Diagnosis, a.Medication)
	}
	return tw.Flush()
}
