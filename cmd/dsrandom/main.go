package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"detkit/internal/config"
	"detkit/internal/dataset"
	"detkit/internal/logging"
	"detkit/internal/regress"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	exitMismatch = 1
	exitUsage    = 2
)

// exitError carries the process exit code for an error returned by a
// command. Errors without one are usage errors.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

var errMismatch = errors.New("datasets do not match")

type options struct {
	configPath string
	seed       int64
	mode       string
	file       string
	firstOnly  bool
	driver     string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return 0
	}
	if errors.Is(err, errMismatch) {
		return exitMismatch
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUsage
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "dsrandom <name:dtype:d1,d2,...>...",
		Short: "Create or compare seeded random datasets in a container file",
		Long: `dsrandom writes reproducible pseudo-random arrays into a container file
(create) or regenerates them from the same seed and checks them against
a stored container (compare). Specs are processed in sorted order.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			logging.Init("dsrandom", cfg.Log.Level)
			if !cmd.Flags().Changed("seed") {
				opts.seed = cfg.Datasets.Seed
			}
			if !cmd.Flags().Changed("driver") {
				opts.driver = cfg.Datasets.Driver
			}
			if !cmd.Flags().Changed("first-only") {
				opts.firstOnly = !cfg.CheckAll()
			}
			return execute(cmd.Context(), stdout, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "detkit.yaml", "Path to the detkit configuration file")
	cmd.Flags().Int64Var(&opts.seed, "seed", config.DefaultSeed, "Random seed for reproducibility")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Mode of operation: create or compare")
	cmd.Flags().StringVar(&opts.file, "file", "", "Container file to create (create) or check (compare)")
	cmd.Flags().BoolVar(&opts.firstOnly, "first-only", false, "Compare only the first sorted dataset")
	cmd.Flags().StringVar(&opts.driver, "driver", config.DefaultDriver, "SQLite driver: sqlite3 (cgo) or sqlite (pure Go)")
	_ = cmd.MarkFlagRequired("mode")
	return cmd
}

func execute(ctx context.Context, stdout io.Writer, opts options, args []string) error {
	if opts.mode != "create" && opts.mode != "compare" {
		return fmt.Errorf("invalid --mode %q (choose from create, compare)", opts.mode)
	}
	if opts.file == "" {
		return fmt.Errorf("--file must be specified in %s mode", opts.mode)
	}

	specs, err := dataset.ParseSpecs(args)
	if err != nil {
		return err
	}

	ropts := regress.Options{Seed: opts.seed, Driver: opts.driver, Mode: regress.ModeAll}
	if opts.firstOnly {
		ropts.Mode = regress.ModeFirst
	}
	if ctx == nil {
		ctx = context.Background()
	}

	switch opts.mode {
	case "create":
		sorted, err := regress.Create(ctx, opts.file, specs, ropts)
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		raw := make([]string, len(sorted))
		for i, s := range sorted {
			raw[i] = s.Raw
		}
		fmt.Fprintf(stdout, "Container '%s' created successfully with datasets [%s].\n", opts.file, strings.Join(raw, ", "))
		return nil

	default:
		report, err := regress.Compare(ctx, opts.file, specs, ropts)
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		for _, res := range report.Results {
			if res.Match {
				fmt.Fprintf(stdout, "Dataset '%s' matches.\n", res.Name)
			} else {
				log.Warn().Str("dataset", res.Name).Str("reason", res.Reason).Msg("dataset differs from reference")
				fmt.Fprintf(stdout, "Dataset '%s' does not match.\n", res.Name)
			}
		}
		if !report.Match() {
			return errMismatch
		}
		return nil
	}
}
