package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"readiness-backend/internal/readiness"
)

type evaluator interface {
	ShiftCompliance(ctx context.Context, q readiness.Query) (*readiness.ComplianceReport, error)
	ShiftCoverage(ctx context.Context, q readiness.Query) (*readiness.CoverageReport, error)
	Setup(ctx context.Context, orgID string) (*readiness.SetupSummary, error)
}

type archiver interface {
	Snapshot(ctx context.Context, q readiness.Query) (*readiness.SnapshotManifest, error)
}

type deps struct {
	eval     evaluator
	archiver archiver
}

// shiftFlags are shared by every per-shift command.
type shiftFlags struct {
	org     string
	site    string
	station string
	date    string
	shift   string
	debug   bool
	timeout time.Duration
}

func (f *shiftFlags) query() readiness.Query {
	q := readiness.Query{
		OrgID:     readiness.NormalizeID(f.org),
		Date:      strings.TrimSpace(f.date),
		ShiftCode: readiness.ShiftCode(strings.TrimSpace(f.shift)),
		Debug:     f.debug,
	}
	if f.site != "" {
		site := readiness.NormalizeID(f.site)
		q.SiteID = &site
	}
	if f.station != "" {
		station := readiness.NormalizeID(f.station)
		q.StationID = &station
	}
	return q
}

func shiftCodeList() string {
	codes := make([]string, len(readiness.ShiftCodes))
	for i, c := range readiness.ShiftCodes {
		codes[i] = string(c)
	}
	return strings.Join(codes, ", ")
}

func newRootCmd(out io.Writer, open func(ctx context.Context) (*deps, error)) *cobra.Command {
	flags := &shiftFlags{}

	root := &cobra.Command{
		Use:   "readiness-cli",
		Short: "Evaluate shift readiness",
		Long:  `Computes legal compliance, station coverage and setup readiness for an organization and prints the result as JSON.`,
	}
	root.SilenceUsage = true

	root.PersistentFlags().StringVar(&flags.org, "org", "", "Organization ID (required)")
	root.PersistentFlags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "Evaluation timeout")
	root.MarkPersistentFlagRequired("org")

	run := func(fn func(ctx context.Context, d *deps) (any, error)) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			d, err := open(ctx)
			if err != nil {
				return err
			}
			v, err := fn(ctx, d)
			if err != nil {
				return describe(err)
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		}
	}

	shiftCmd := func(use, short string, fn func(ctx context.Context, d *deps, q readiness.Query) (any, error)) *cobra.Command {
		cmd := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, d *deps) (any, error) {
				return fn(ctx, d, flags.query())
			}),
		}
		cmd.Flags().StringVar(&flags.site, "site", "", "Site ID (default: all sites)")
		cmd.Flags().StringVar(&flags.date, "date", time.Now().Format(readiness.DateLayout), "Shift date (YYYY-MM-DD)")
		cmd.Flags().StringVar(&flags.shift, "shift", "", "Shift code: "+shiftCodeList())
		cmd.Flags().BoolVar(&flags.debug, "debug", false, "Include intermediate counts")
		cmd.MarkFlagRequired("shift")
		return cmd
	}

	var withRows bool
	complianceCmd := shiftCmd("compliance", "Legal readiness of the rostered employees",
		func(ctx context.Context, d *deps, q readiness.Query) (any, error) {
			report, err := d.eval.ShiftCompliance(ctx, q)
			if err != nil {
				return nil, err
			}
			if withRows {
				return report.MatrixPayload(), nil
			}
			return report.Payload(), nil
		})
	complianceCmd.Flags().BoolVar(&withRows, "rows", false, "Include one row per (employee, requirement)")

	coverageCmd := shiftCmd("coverage", "Station coverage of the rostered employees",
		func(ctx context.Context, d *deps, q readiness.Query) (any, error) {
			report, err := d.eval.ShiftCoverage(ctx, q)
			if err != nil {
				return nil, err
			}
			return report.Payload(), nil
		})
	coverageCmd.Flags().StringVar(&flags.station, "station", "", "Evaluate a single station")

	snapshotCmd := shiftCmd("snapshot", "Evaluate a shift and archive both payloads",
		func(ctx context.Context, d *deps, q readiness.Query) (any, error) {
			return d.archiver.Snapshot(ctx, q)
		})

	setupCmd := &cobra.Command{
		Use:   "setup",
		Short: "Master-data setup readiness of the organization",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, d *deps) (any, error) {
			return d.eval.Setup(ctx, readiness.NormalizeID(flags.org))
		}),
	}

	root.AddCommand(complianceCmd, coverageCmd, setupCmd, snapshotCmd)
	return root
}

// runCLI executes root, then runs cleanup whether or not the command
// failed, and returns the process exit code.
func runCLI(root *cobra.Command, cleanup func()) int {
	err := root.Execute()
	cleanup()
	if err != nil {
		return 1
	}
	return 0
}

// describe turns evaluation errors into one readable line.
func describe(err error) error {
	var verr *readiness.ValidationError
	if errors.As(err, &verr) {
		parts := make([]string, 0, len(verr.Fields))
		for _, flag := range []struct{ field, flag string }{
			{"org_id", "--org"}, {"site_id", "--site"}, {"station_id", "--station"},
			{"date", "--date"}, {"shift_code", "--shift"},
		} {
			if msg, ok := verr.Fields[flag.field]; ok {
				parts = append(parts, flag.flag+" "+msg)
			}
		}
		return fmt.Errorf("invalid arguments: %s", strings.Join(parts, "; "))
	}

	var serr *readiness.StepError
	if errors.As(err, &serr) {
		return fmt.Errorf("%s: %w", serr.Message(), serr.Err)
	}
	return err
}
