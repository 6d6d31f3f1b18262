package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"detkit/internal/config"
	"detkit/internal/geometry"
	"detkit/internal/logging"
	"detkit/internal/scan"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const exitUsage = 2

// runtimeError marks failures that happen after the arguments were
// accepted. Anything else returned by Execute is a usage error.
type runtimeError struct{ err error }

func (e *runtimeError) Error() string { return e.err.Error() }
func (e *runtimeError) Unwrap() error { return e.err }

type options struct {
	configPath string
	manager    string
	roots      []string
	format     string
	cellWidth  float64
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
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var re *runtimeError
	if errors.As(err, &re) {
		return 1
	}
	return exitUsage
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "geonav <geometry-file>",
		Short: "Print local and global edge coordinates of detector modules",
		Long: `geonav loads a detector geometry description, walks the grandchildren of
each root node and prints two boundary points per module in local and
global coordinates. Running "geonav <file>" is the same as "geonav scan <file>".`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			logging.Init("geonav", cfg.Log.Level)
			if opts.manager == "" {
				opts.manager = cfg.Geometry.Manager
			}
			if len(opts.roots) == 0 {
				opts.roots = cfg.Geometry.Roots
			}
			if !cmd.Flags().Changed("cell-width") {
				opts.cellWidth = cfg.Geometry.CellWidth
			}
			if opts.format != "text" && opts.format != "json" {
				return fmt.Errorf("invalid --format %q (choose from text, json)", opts.format)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(stdout, args[0], opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "detkit.yaml", "Path to the detkit configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.manager, "manager", "", "Name of the geometry inside the file (default from config: EDepSimGeometry)")
	rootCmd.PersistentFlags().StringArrayVar(&opts.roots, "root", nil, "Root node path to scan; repeatable (default: both ECAL endcaps)")
	rootCmd.PersistentFlags().StringVar(&opts.format, "format", "text", "Output format: text or json")

	scanCmd := &cobra.Command{
		Use:   "scan <geometry-file>",
		Short: "Print two boundary points per module below each root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(stdout, args[0], opts)
		},
	}

	modulesCmd := &cobra.Command{
		Use:   "modules <geometry-file>",
		Short: "List module sizes and cell counts below each root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModules(stdout, args[0], opts)
		},
	}
	modulesCmd.Flags().Float64Var(&opts.cellWidth, "cell-width", config.DefaultCellWidth, "Cell pitch used to count cells across a module")

	rootCmd.AddCommand(scanCmd, modulesCmd)
	return rootCmd
}

func openManager(path, name string) (*geometry.Manager, error) {
	f, err := geometry.Load(path)
	if err != nil {
		return nil, err
	}
	m, err := f.Get(name)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("file", path).Str("manager", name).Msg("geometry loaded")
	return m, nil
}

func runScan(stdout io.Writer, path string, opts options) error {
	w, err := scan.NewEdgeWriter(opts.format, stdout)
	if err != nil {
		return err
	}
	m, err := openManager(path, opts.manager)
	if err != nil {
		return &runtimeError{err}
	}
	if err := scan.NewScanner(m).Scan(opts.roots, w.Write); err != nil {
		return &runtimeError{err}
	}
	return nil
}

func runModules(stdout io.Writer, path string, opts options) error {
	if opts.cellWidth <= 0 {
		return fmt.Errorf("--cell-width must be positive, got %v", opts.cellWidth)
	}
	m, err := openManager(path, opts.manager)
	if err != nil {
		return &runtimeError{err}
	}
	s := scan.NewScanner(m)
	for _, root := range opts.roots {
		mods, err := s.Modules(root, opts.cellWidth)
		if err != nil {
			return &runtimeError{err}
		}
		if opts.format == "json" {
			if err := json.NewEncoder(stdout).Encode(mods); err != nil {
				return &runtimeError{err}
			}
			continue
		}
		fmt.Fprintf(stdout, "%s\n", root)
		if err := scan.WriteModules(stdout, mods); err != nil {
			return &runtimeError{err}
		}
	}
	return nil
}
