package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"opengeo/internal/config"
	"opengeo/internal/gdal"
	"opengeo/internal/logging"
)

var (
	cfgPath  string
	gdalMode string
	logLevel string
	workers  int

	cfg    *config.Config
	logger *zap.Logger
)

// Execute runs the CLI. Ctrl-C cancels the running command and any GDAL
// tool it started.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	defer shutdown()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	cfg, logger = nil, nil

	root := &cobra.Command{
		Use:               "opengeo",
		Short:             "Geospatial raster and vector utilities built on GDAL",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{fmt.Errorf("%w\nRun '%s --help' for usage.", err, cmd.CommandPath())}
	})

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (YAML)")
	root.PersistentFlags().StringVar(&gdalMode, "gdal-mode", "", "GDAL execution: auto, local or docker")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().IntVar(&workers, "workers", 0, "parallel workers for batch and focal commands (default: CPUs)")

	root.AddCommand(
		rasterCmd(),
		vectorCmd(),
		rasterizeCmd(),
		proximityCmd(),
		focalCmd(),
		classifyCmd(),
		filesCmd(),
		configCmd(),
	)
	return root
}

func setup(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("gdal-mode") {
		c.GDAL.Mode = strings.ToLower(gdalMode)
	}
	if flags.Changed("log-level") {
		c.Logging.Level = strings.ToLower(logLevel)
	}
	if flags.Changed("workers") {
		c.Processing.Workers = workers
	}
	if err := c.Validate(); err != nil {
		return usageError{err}
	}

	l, err := logging.New(c.Logging)
	if err != nil {
		return err
	}
	cfg, logger = c, l

	ctx := logging.WithLogger(cmd.Context(), l)
	cmd.SetContext(ctx)

	return gdal.Initialize(ctx, gdal.Options{
		Mode:    c.GDAL.Mode,
		Image:   c.GDAL.Image,
		WorkDir: c.GDAL.WorkDir,
		TempDir: c.Processing.TempDir,
	})
}

func shutdown() {
	gdal.Shutdown()
	if logger != nil {
		_ = logger.Sync()
	}
}

type usageError struct {
	error
}

func (e usageError) Unwrap() error {
	return e.error
}

// IsUsageError reports whether err comes from bad arguments or flags rather
// than from running the command.
func IsUsageError(err error) bool {
	var ue usageError
	if errors.As(err, &ue) {
		return true
	}
	msg := err.Error()
	for _, prefix := range []string{"unknown command", "unknown flag", "required flag"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

func exactArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.ExactArgs(n))
}

func minimumArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.MinimumNArgs(n))
}

func wrapArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return usageError{fmt.Errorf("%w\nRun '%s --help' for usage.", err, cmd.CommandPath())}
		}
		return nil
	}
}

// parseFloatArg parses a positional number.
func parseFloatArg(name, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, usageError{fmt.Errorf("%s must be a number, got %q", name, value)}
	}
	return v, nil
}

func parseIntArg(name, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, usageError{fmt.Errorf("%s must be an integer, got %q", name, value)}
	}
	return v, nil
}

// workerCount is the configured pool size.
func workerCount() int {
	if cfg == nil {
		return 0
	}
	return cfg.Processing.Workers
}
