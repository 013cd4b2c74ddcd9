package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/sprinkler-crm/customers"
	"github.com/jrsteele09/sprinkler-crm/internal/config"
	apperrors "github.com/jrsteele09/sprinkler-crm/internal/errors"
)

func importCmd() *cobra.Command {
	var dev bool
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Bulk import customers from a CSV file",
		Long: "Reads customers from a CSV file with a header row (first_name, last_name, phone, address, " +
			"latitude, longitude), validates every row and creates the valid ones for the signed in user.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return oops.In("import").Wrapf(err, "Refusing to start")
			}
			setupLogger(cfg)

			f, err := os.Open(args[0])
			if err != nil {
				return oops.In("import").With("file", args[0]).Wrapf(err, "Opening import file")
			}
			defer f.Close()

			return runImport(cmd.Context(), cfg, f, dev, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&dev, "dev", false, "import as the developer user (ENV=DEV only)")
	return cmd
}

func runImport(ctx context.Context, cfg config.Config, in io.Reader, dev bool, out io.Writer) error {
	records, err := customers.ReadCSV(in)
	if err != nil {
		return oops.In("import").Wrapf(err, "Reading CSV")
	}

	a, err := newApp(cfg)
	if err != nil {
		return oops.In("import").Wrapf(err, "Failed to build the application")
	}
	defer a.Close()

	userID, err := importUser(ctx, a, dev)
	if err != nil {
		return err
	}

	report, err := customers.ImportRecords(ctx, a.stores.Customers, userID, records)
	for _, p := range report.Rejected {
		_, _ = fmt.Fprintf(out, "row %d rejected:\n", p.Row)
		for _, msg := range p.Errors {
			_, _ = fmt.Fprintf(out, "  - %s\n", msg)
		}
	}
	_, _ = fmt.Fprintf(out, "imported %d of %d rows\n", len(report.Imported), len(records))
	if err != nil {
		return oops.In("import").With("rows", len(records)).Wrapf(err, "Creating customers")
	}
	return nil
}

// importUser resolves the owner of imported rows from the persisted session,
// or the developer user when asked for and allowed.
func importUser(ctx context.Context, a *app, dev bool) (string, error) {
	sessions := a.stores.Sessions
	if dev {
		session, err := sessions.SignInDev()
		if err != nil {
			return "", oops.In("import").Wrapf(err, "Developer import")
		}
		return session.User.ID, nil
	}

	if err := sessions.Initialize(ctx); err != nil {
		return "", oops.In("import").Wrapf(err, "Loading session")
	}
	state := sessions.Snapshot()
	if !state.IsAuthenticated() {
		return "", oops.In("import").Wrapf(apperrors.ErrNoSession, "Sign in with 'sprinkler serve' before importing")
	}
	return state.User.ID, nil
}
