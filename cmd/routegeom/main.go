// Command routegeom builds transit route polylines from stop indices and
// exports or serves them.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/erzurum-ulasim/routegeom/internal/appconf"
	"github.com/erzurum-ulasim/routegeom/internal/export"
	"github.com/erzurum-ulasim/routegeom/internal/logging"
	"github.com/erzurum-ulasim/routegeom/internal/stopindex"
)

const defaultConfigFile = "routegeom.yml"

type rootOptions struct {
	configPath string
	dotenv     string
	env        string
	logLevel   string
	verbose    bool

	cfg    *appconf.FileConfig
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand(os.Stderr).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(logOut io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "routegeom",
		Short:         "Build transit route geometry from stop indices",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd, logOut)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", defaultConfigFile, "Path to the YAML run file")
	flags.StringVar(&opts.dotenv, "dotenv", ".env", "Path to a .env file loaded before the run file")
	flags.StringVar(&opts.env, "env", "", "Environment: development, test or production")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log every HTTP request")

	root.AddCommand(
		newBuildCommand(opts),
		newSplitCommand(opts),
		newCodesCommand(),
		newServeCommand(opts),
	)
	return root
}

// setup loads the environment and run file, applies flag overrides and
// creates the logger.
func (o *rootOptions) setup(cmd *cobra.Command, logOut io.Writer) error {
	if err := appconf.LoadDotEnv(o.dotenv); err != nil {
		return err
	}

	cfg, err := appconf.LoadFromFile(o.configPath)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		if cfg, err = appconf.Parse(nil); err != nil {
			return err
		}
	default:
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("env") {
		cfg.Server.Env = o.env
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("verbose") {
		cfg.Server.Verbose = o.verbose
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	o.cfg = cfg
	o.logger = logging.NewStructuredLogger(logOut, logging.ParseLevel(cfg.LogLevel))
	slog.SetDefault(o.logger)
	return nil
}

func newBuildCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Load the stop sources, build every line and write the exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			coreApp, err := BuildApplication(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				logging.LogError(opts.logger, "build failed", err)
				return err
			}
			return ExportResult(cmd.Context(), coreApp)
		},
	}
}

func newSplitCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "split [trace files...]",
		Short: "Split recorded traces at their turnaround and write the exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			coreApp, err := SplitTraces(cmd.Context(), opts.cfg, args, opts.logger)
			if err != nil {
				logging.LogError(opts.logger, "split failed", err)
				return err
			}
			return ExportResult(cmd.Context(), coreApp)
		},
	}
}

func newCodesCommand() *cobra.Command {
	var minDigits int
	cmd := &cobra.Command{
		Use:   "codes FILE",
		Short: "Print the stop id leading each line of a file, one per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := export.Open(args[0])
			if err != nil {
				return err
			}
			defer logging.SafeCloseWithLogging(rc, slog.Default(), args[0])

			ids, err := stopindex.ExtractIDs(rc, minDigits)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			for _, id := range ids {
				if _, err := fmt.Fprintln(out, id); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&minDigits, "min-digits", 5, "Minimum number of digits of a stop id")
	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Build every line and serve the result over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				opts.cfg.Server.Port = port
			}
			if err := opts.cfg.Validate(); err != nil {
				return err
			}

			coreApp, err := BuildApplication(cmd.Context(), opts.cfg, opts.logger)
			if err != nil {
				logging.LogError(opts.logger, "build failed", err)
				return err
			}
			if len(opts.cfg.Export.Outputs) > 0 {
				if err := ExportResult(cmd.Context(), coreApp); err != nil {
					return err
				}
			}

			srv, api := CreateServer(coreApp, coreApp.Config)
			return Run(cmd.Context(), srv, api, opts.logger)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 4000, "API server port")
	return cmd
}
