package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	apperrors "github.com/jwalitptl/clinic-console/pkg/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "clinic",
		Short:         "Clinic console: patients, appointment queue and diagnoses",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.PersistentFlags().String("config", "", "config file (default ./config.yaml or ./config/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory of the file store, overrides storage.data_dir")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(patientCmd())
	rootCmd.AddCommand(appointmentCmd())
	rootCmd.AddCommand(diagnosisCmd())
	return rootCmd
}

// printError lists every rejection cause on its own line.
func printError(w io.Writer, err error) {
	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) && appErr.Code == apperrors.ErrValidationRejected {
		fmt.Fprintf(w, "Error: %s\n", appErr.Message)
		for _, cause := range apperrors.Causes(err) {
			fmt.Fprintf(w, "  - %s\n", cause)
		}
		return
	}
	fmt.Fprintf(w, "Error: %s\n", err)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func parseIDArg(name, s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequest(fmt.Sprintf("invalid %s id %q", name, s), err)
	}
	return id, nil
}
