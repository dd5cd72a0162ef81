package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-console/internal/model"
	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

func patientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patient",
		Short: "Manage the patient index",
	}
	cmd.AddCommand(patientRegisterCmd())
	cmd.AddCommand(patientListCmd())
	cmd.AddCommand(patientGetCmd())
	cmd.AddCommand(patientFindCmd())
	cmd.AddCommand(patientRemoveCmd())
	cmd.AddCommand(patientUpdateCmd())
	return cmd
}

func patientRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := &model.RegisterPatientRequest{}
			req.Name, _ = cmd.Flags().GetString("name")
			req.Age, _ = cmd.Flags().GetInt("age")
			req.Address, _ = cmd.Flags().GetString("address")
			req.Phone, _ = cmd.Flags().GetString("phone")
			req.Username, _ = cmd.Flags().GetString("username")
			req.Password, _ = cmd.Flags().GetString("password")

			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.patients.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered patient %d (%s)\n", p.ID, p.Name)
			return nil
		},
	}
	cmd.Flags().String("name", "", "full name")
	cmd.Flags().Int("age", 0, "age in years")
	cmd.Flags().String("address", "", "postal address")
	cmd.Flags().String("phone", "", "phone number")
	cmd.Flags().String("username", "", "login name, must be unique")
	cmd.Flags().String("password", "", "login password")
	for _, name := range []string{"name", "address", "phone", "username", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func patientListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List patients in registration order",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			patients := a.patients.All()
			if sorted, _ := cmd.Flags().GetBool("sorted"); sorted {
				patients = a.patients.AllSorted()
			}
			return printPatients(cmd.OutOrStdout(), patients)
		},
	}
	cmd.Flags().Bool("sorted", false, "order by ascending id")
	return cmd
}

func patientGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("patient", args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.patients.FindByID(id)
			if err != nil {
				return err
			}
			return printPatients(cmd.OutOrStdout(), []*model.Patient{p})
		},
	}
}

func patientFindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find a patient by name substring or username",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			username, _ := cmd.Flags().GetString("username")
			if (name == "") == (username == "") {
				return apperrors.NewBadRequest("exactly one of --name or --username is required", nil)
			}

			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			var p *model.Patient
			if name != "" {
				p, err = a.patients.FindByName(name)
			} else {
				p, err = a.patients.FindByUsername(username)
			}
			if err != nil {
				return err
			}
			return printPatients(cmd.OutOrStdout(), []*model.Patient{p})
		},
	}
	cmd.Flags().String("name", "", "case-insensitive name substring")
	cmd.Flags().String("username", "", "exact username")
	return cmd
}

func patientRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a patient from the index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("patient", args[0])
			if err != nil {
				return err
			}

			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			removed, err := a.patients.RemoveByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !removed {
				return apperrors.NewNotFound(fmt.Sprintf("patient %d", id), nil)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed patient %d\n", id)
			return nil
		},
	}
}

func patientUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a patient's address, phone or password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg("patient", args[0])
			if err != nil {
				return err
			}

			req := &model.UpdateProfileRequest{}
			if cmd.Flags().Changed("address") {
				v, _ := cmd.Flags().GetString("address")
				req.Address = &v
			}
			if cmd.Flags().Changed("phone") {
				v, _ := cmd.Flags().GetString("phone")
				req.Phone = &v
			}
			if cmd.Flags().Changed("password") {
				v, _ := cmd.Flags().GetString("password")
				req.Password = &v
			}

			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.patients.UpdateProfile(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			return printPatients(cmd.OutOrStdout(), []*model.Patient{p})
		},
	}
	cmd.Flags().String("address", "", "new postal address")
	cmd.Flags().String("phone", "", "new phone number")
	cmd.Flags().String("password", "", "new login password")
	return cmd
}

func printPatients(w io.Writer, patients []*model.Patient) error {
	if len(patients) == 0 {
		fmt.Fprintln(w, "No patients.")
		return nil
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tAGE\tADDRESS\tPHONE\tUSERNAME")
	for _, p := range patients {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\t%s\n", p.ID, p.Name, p.Age, p.Address, p.Phone, p.Username)
	}
	return tw.Flush()
}
