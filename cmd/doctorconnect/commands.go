package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zatekoja/doctorconnect/internal/booking"
	"github.com/zatekoja/doctorconnect/internal/directory"
	"github.com/zatekoja/doctorconnect/internal/domain/entities"
	"github.com/zatekoja/doctorconnect/internal/session"
	apperrors "github.com/zatekoja/doctorconnect/pkg/errors"
)

var errNotSignedIn = errors.New("not signed in: set DOCTORCONNECT_EMAIL and DOCTORCONNECT_PASSWORD")

func whoamiCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user := current().sessions.Current()
			if user == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> %s (id %s, home %s)\n",
				user.Name, user.Email, user.Role, user.ID, session.LandingPath(user.Role))
			return nil
		},
	}
}

func registerCmd(current func() *app) *cobra.Command {
	var reg entities.Registration
	var role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account; the password is read from DOCTORCONNECT_PASSWORD",
		Args:  cobra.NoArgs,
		// the configured credentials belong to the account being created
		Annotations: map[string]string{skipSignInAnnotation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			reg.Role = entities.Role(strings.ToUpper(role))
			reg.Password = a.cfg.Auth.Password
			user, err := a.sessions.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s as %s (id %s)\n", user.Email, user.Role, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&reg.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", string(entities.RolePatient), "PATIENT or DOCTOR")
	return cmd
}

func doctorsCmd(current func() *app) *cobra.Command {
	var (
		specialty, city, sortMode string
		minPrice, maxPrice        float64
		onlyVerified              bool
	)

	cmd := &cobra.Command{
		Use:   "doctors",
		Short: "List doctors, filtered and sorted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			mode, err := entities.ParseSortMode(sortMode)
			if err != nil {
				return apperrors.NewValidationError(err.Error())
			}

			engine := directory.NewEngine(a.client, directory.Options{
				TextDelay:   a.cfg.Debounce.Text,
				ToggleDelay: a.cfg.Debounce.Toggle,
				Logger:      a.logger,
				Metrics:     a.metrics,
			})
			defer engine.Close()

			if err := engine.Load(cmd.Context()); err != nil {
				return err
			}

			engine.SetSpecialty(specialty)
			engine.SetCity(city)
			if cmd.Flags().Changed("min-price") {
				engine.SetMinPriceRON(entities.PriceBound(minPrice))
			}
			if cmd.Flags().Changed("max-price") {
				engine.SetMaxPriceRON(entities.PriceBound(maxPrice))
			}
			engine.SetOnlyVerified(onlyVerified)
			engine.SetSort(mode)
			engine.Settle()

			st := engine.State()
			if st.Err != nil {
				return st.Err
			}
			if st.View == nil {
				return errors.New("doctor list was not loaded")
			}
			printDoctors(cmd.OutOrStdout(), *st.View)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&specialty, "specialty", "", "specialty contains (case-insensitive)")
	f.StringVar(&city, "city", "", "city contains (case-insensitive)")
	f.Float64Var(&minPrice, "min-price", 0, "lowest starting price, RON")
	f.Float64Var(&maxPrice, "max-price", 0, "highest top price, RON")
	f.BoolVar(&onlyVerified, "verified", false, "only verified doctors")
	f.StringVar(&sortMode, "sort", string(entities.SortRelevance), "relevance, rating, priceAsc or priceDesc")
	return cmd
}

func printDoctors(out io.Writer, v directory.View) {
	fmt.Fprintf(out, "%d doctors\n", v.Count)
	if v.Count == 0 {
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSPECIALTY\tCITY\tPRICE\tRATING\tVERIFIED")
	for _, d := range v.Doctors {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s - %s\t%s\t%s\n",
			d.ID, d.FullName, d.Specialty, d.City,
			entities.FormatPriceRON(d.PriceMinCents), entities.FormatPriceRON(d.PriceMaxCents),
			formatRating(d), yesNo(d.Verified))
	}
	w.Flush()
}

func doctorCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor <id>",
		Short: "Show one doctor's profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := current().profiles.GetProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", profile.FullName, profile.ID)
			fmt.Fprintf(out, "  %s, %s\n", profile.Specialty, profile.City)
			fmt.Fprintf(out, "  %s - %s, rating %s, verified %s\n",
				entities.FormatPriceRON(profile.PriceMinCents), entities.FormatPriceRON(profile.PriceMaxCents),
				formatRating(profile.DoctorRecord), yesNo(profile.Verified))
			if profile.Bio != "" {
				fmt.Fprintf(out, "  %s\n", profile.Bio)
			}
			return nil
		},
	}
}

func bookCmd(current func() *app) *cobra.Command {
	var date, clock string

	cmd := &cobra.Command{
		Use:   "book <doctorId>",
		Short: "Request an appointment; prompts for date and time unless given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			out := cmd.OutOrStdout()
			workflow := booking.NewWorkflow(a.sessions, a.client, booking.Options{
				LoginPath: a.cfg.Auth.LoginPath,
				Logger:    a.logger,
				Metrics:   a.metrics,
			})
			defer workflow.Close()

			attempt := workflow.Start(args[0])
			st := attempt.State()
			if st.NeedsLogin() {
				return fmt.Errorf("%w (login at %s)", errNotSignedIn, st.Redirect)
			}
			if st.Err != nil {
				return st.Err
			}

			in := bufio.NewReader(cmd.InOrStdin())
			if date == "" {
				date = prompt(in, out, "Choose date (YYYY-MM-DD): ")
			}
			if date != "" && clock == "" {
				clock = prompt(in, out, "Choose time (HH:MM, 24h): ")
			}

			st = attempt.Capture(cmd.Context(), booking.When{Date: date, Time: clock})
			switch st.Status {
			case booking.StatusSucceeded:
				fmt.Fprintf(out, "appointment requested with %s on %s at %s (pending)\n", st.DoctorID, st.Request.Date, st.Request.Time)
				return nil
			case booking.StatusFailed:
				return fmt.Errorf("booking failed: %s", st.Reason)
			case booking.StatusIdle:
				fmt.Fprintln(out, "booking cancelled")
				return nil
			}
			return cmd.Context().Err()
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "appointment date, YYYY-MM-DD")
	cmd.Flags().StringVar(&clock, "time", "", "appointment time, HH:MM (24h)")
	return cmd
}

// prompt reads one line; EOF or a blank line withholds the answer
func prompt(in *bufio.Reader, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return strings.TrimSpace(line)
}

func appointmentsCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "appointments",
		Short: "List appointment requests addressed to the signed-in doctor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			inbox, err := current().inbox.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if inbox.SessionLoading {
				fmt.Fprintln(out, "Loading user...")
				return nil
			}
			if len(inbox.Appointments) == 0 {
				fmt.Fprintln(out, "No appointments found.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPATIENT\tDATE\tTIME\tSTATUS")
			for _, ap := range inbox.Appointments {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", ap.ID, ap.PatientID, ap.Date, ap.Time, ap.Status)
			}
			return w.Flush()
		},
	}
}

func logoutCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			if a.sessions.Current() == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
				return nil
			}
			a.sessions.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func formatRating(d entities.DoctorRecord) string {
	if d.RatingCount <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f (%d)", d.RatingAvg, d.RatingCount)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
