// Command ascii2nc converts a lon/lat/value text table into a NetCDF file
// with CF cell bounds.
//
// Usage:
//
//	ascii2nc [flags] INPUT OUTPUT
//	ascii2nc inspect FILE
//
// Examples:
//
//	ascii2nc topg.xy topg.nc
//	ascii2nc --n_lat 180 --n_lon 360 --cell-area tas.xy.gz tas.nc
//	ascii2nc --synthetic grid.xy stripes.nc
//	ascii2nc --config run.yaml https://example.org/topg.xy topg.nc
//	ascii2nc inspect topg.nc
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/geal-ai/ascii2nc"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes by failure kind.
const (
	exitOther     = 1
	exitUsage     = 2
	exitMalformed = 3
	exitGrid      = 4
	exitIO        = 5
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp(os.Stdin, os.Stdout, os.Stderr).rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// app holds the flag values and the resolved settings of one invocation.
type app struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	configPath  string
	nLat, nLon  int
	synthetic   bool
	stripeWidth int
	cellArea    bool
	varName     string
	varUnits    string
	varStdName  string
	maxBytes    int64
	timeout     time.Duration
	verbose     bool
	logFormat   string

	cfg    *ascii2nc.Config
	logger *zap.Logger
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr}
}

func (a *app) rootCmd() *cobra.Command {
	def := ascii2nc.DefaultConfig()
	root := &cobra.Command{
		Use:   "ascii2nc [flags] INPUT OUTPUT",
		Short: "Convert a lon/lat/value table to NetCDF with cell bounds",
		Long: `ascii2nc reads a whitespace-delimited table of "lon lat value" rows,
longitude varying fastest, and writes a NetCDF file holding the grid, its
cell corners (longitude_bnds, latitude_bnds) and the value field.

INPUT is a file path (optionally gzip-compressed), "-" for stdin, or an
http(s) URL. OUTPUT is replaced if it exists.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(2)(cmd, args); err != nil {
				return usageError{err}
			}
			return nil
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: a.convert,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML config file; explicitly set flags override it")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "Log at debug level")
	pf.StringVar(&a.logFormat, "log-format", def.Logging.Format, "Log encoding: json or console")

	f := root.Flags()
	f.IntVar(&a.nLat, "n_lat", def.NLat, "Number of latitude samples")
	f.IntVar(&a.nLon, "n_lon", def.NLon, "Number of longitude samples")
	f.BoolVar(&a.synthetic, "synthetic", false, "Accept coordinate-only tables and write a stripe test field")
	f.IntVar(&a.stripeWidth, "stripe-width", def.Synthetic.StripeWidth, "Stripe width in cells for --synthetic")
	f.BoolVar(&a.cellArea, "cell-area", false, "Also write a cell_area variable in m2")
	f.StringVar(&a.varName, "var-name", def.Variable.Name, "Name of the value variable")
	f.StringVar(&a.varUnits, "var-units", def.Variable.Units, "units attribute of the value variable")
	f.StringVar(&a.varStdName, "var-standard-name", def.Variable.StandardName, "standard_name attribute of the value variable")
	f.Int64Var(&a.maxBytes, "max-bytes", def.Fetch.MaxBytes, "Largest accepted remote or decompressed input, in bytes")
	f.DurationVar(&a.timeout, "timeout", 120*time.Second, "Timeout for remote inputs")

	root.AddCommand(a.inspectCmd())
	return root
}

// setup resolves the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg := ascii2nc.DefaultConfig()
	if a.configPath != "" {
		var err error
		if cfg, err = ascii2nc.LoadConfig(a.configPath); err != nil {
			return err
		}
	}

	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("n_lat") {
		cfg.NLat = a.nLat
	}
	if changed("n_lon") {
		cfg.NLon = a.nLon
	}
	if changed("synthetic") {
		cfg.Synthetic.Enabled = a.synthetic
	}
	if changed("stripe-width") {
		cfg.Synthetic.StripeWidth = a.stripeWidth
	}
	if changed("cell-area") {
		cfg.CellArea = a.cellArea
	}
	if changed("var-name") {
		cfg.Variable.Name = a.varName
	}
	if changed("var-units") {
		cfg.Variable.Units = a.varUnits
	}
	if changed("var-standard-name") {
		cfg.Variable.StandardName = a.varStdName
	}
	if changed("max-bytes") {
		cfg.Fetch.MaxBytes = a.maxBytes
	}
	if changed("timeout") {
		cfg.Fetch.Timeout = a.timeout.String()
	}
	if changed("log-format") {
		cfg.Logging.Format = a.logFormat
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

func buildLogger(lc ascii2nc.LoggingConfig) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if lc.Level != "" {
		lvl, err := zapcore.ParseLevel(lc.Level)
		if err != nil {
			return nil, err
		}
		config.Level = zap.NewAtomicLevelAt(lvl)
	}
	if lc.Format == "console" {
		config.Encoding = "console"
		config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	return config.Build()
}

func (a *app) convert(cmd *cobra.Command, args []string) error {
	input, output := args[0], args[1]

	conv := ascii2nc.NewConverter(a.cfg)
	conv.Logger = a.logger
	conv.Fetcher.Stdin = cmd.InOrStdin()
	conv.History = commandLine(cmd, args)

	res, err := conv.Convert(cmd.Context(), input, output)
	if err != nil {
		return err
	}
	a.logger.Info("converted",
		zap.String("input", input),
		zap.String("output", output),
		zap.Int("n_lon", res.NLon),
		zap.Int("n_lat", res.NLat))
	fmt.Fprintln(cmd.OutOrStdout(), summary(output, res))
	return nil
}

// commandLine reconstructs the invocation for the history attribute. Flags
// appear in name order.
func commandLine(cmd *cobra.Command, args []string) string {
	parts := []string{cmd.Root().Name()}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		parts = append(parts, "--"+f.Name, f.Value.String())
	})
	return strings.Join(append(parts, args...), " ")
}

// summary is the one-line report printed after a conversion.
func summary(output string, res *ascii2nc.Result) string {
	b := res.Bounds
	return fmt.Sprintf("%s: %dx%d cells (lon x lat), dlon=%g dlat=%g, lat axis [%g, %g], %d lon corners wrapped, %d lat corners clamped, synthetic=%t",
		output, res.NLon, res.NLat, b.DeltaLon, b.DeltaLat, b.LatMin, b.LatMax, b.Wrapped, b.Clamped, res.Synthetic)
}

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE",
		Short: "Print the dimensions, variables and attributes of a NetCDF file",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.ExactArgs(1)(cmd, args); err != nil {
				return usageError{err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := ascii2nc.ReadDataset(args[0])
			if err != nil {
				return err
			}
			defer ds.Close()
			printDataset(cmd.OutOrStdout(), args[0], ds)
			return nil
		},
	}
}

func printDataset(w io.Writer, name string, ds *ascii2nc.Dataset) {
	fmt.Fprintf(w, "%s\n", name)
	fmt.Fprintln(w, "dimensions:")
	names, lengths := ds.Dims()
	for i, n := range names {
		fmt.Fprintf(w, "\t%s = %d\n", n, lengths[i])
	}
	fmt.Fprintln(w, "variables:")
	for _, v := range ds.Variables() {
		fmt.Fprintf(w, "\t%s(%s)\n", v, strings.Join(ds.VarDims(v), ", "))
		for _, at := range ds.Attributes(v) {
			val, _ := ds.Attribute(v, at)
			fmt.Fprintf(w, "\t\t%s:%s = %q\n", v, at, val)
		}
	}
	if global := ds.Attributes(""); len(global) > 0 {
		fmt.Fprintln(w, "global attributes:")
		for _, at := range global {
			val, _ := ds.Attribute("", at)
			fmt.Fprintf(w, "\t\t:%s = %q\n", at, val)
		}
	}
}

// usageError marks bad arguments and flags.
type usageError struct{ err error }

func (u usageError) Error() string { return u.err.Error() }
func (u usageError) Unwrap() error { return u.err }

func exitCode(err error) int {
	var u usageError
	switch {
	case errors.As(err, &u), errors.Is(err, ascii2nc.ErrConfig):
		return exitUsage
	case errors.Is(err, ascii2nc.ErrMalformedInput):
		return exitMalformed
	case errors.Is(err, ascii2nc.ErrInvalidGrid):
		return exitGrid
	case errors.Is(err, ascii2nc.ErrIO):
		return exitIO
	}
	return exitOther
}
