// Package cmd provides the CLI commands for chatsift.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/chatsift/internal/config"
	sifterrors "github.com/Aman-CERP/chatsift/internal/errors"
	"github.com/Aman-CERP/chatsift/internal/logging"
	"github.com/Aman-CERP/chatsift/internal/output"
	"github.com/Aman-CERP/chatsift/pkg/version"
)

// Persistent flags shared by every subcommand.
var (
	cfgFile      string
	flagProvider string
	flagColor    string
	quietMode    bool
	debugMode    bool
)

// NewRootCmd creates the root command for the chatsift CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chatsift",
		Short: "Search and inspect exported chat archives",
		Long: `chatsift works on chat archive exports (OpenAI and Claude JSON)
from the command line: ranked full-text search, conversation and message
lookups, archive statistics, and conversion to other formats.

Archives are streamed one conversation at a time, so arbitrarily large
exports stay cheap to search. Nothing is indexed or persisted.`,
		Example: `  # Search an export for keyword matches
  chatsift search export.json goroutines channels

  # Show one conversation by id or id prefix
  chatsift show export.json 67d1a2b4

  # Convert an archive to markdown
  chatsift export export.json --format markdown --out archive.md`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		// ArbitraryArgs lets RunE turn unknown subcommands into structured
		// usage errors instead of cobra's plain ones.
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return sifterrors.New(sifterrors.ErrCodeConfigInvalid,
					fmt.Sprintf("unknown command %q", args[0]), nil).
					WithSuggestion("run 'chatsift --help' to list commands")
			}
			return cmd.Help()
		},
	}

	cmd.SetVersionTemplate("chatsift version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: user then project config)")
	cmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "Archive schema: auto, openai, claude")
	cmd.PersistentFlags().StringVar(&flagColor, "color", "", "Color output: auto, always, never")
	cmd.PersistentFlags().BoolVarP(&quietMode, "quiet", "q", false, "Suppress status output (results still print)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging with a stderr mirror")

	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return sifterrors.New(sifterrors.ErrCodeConfigInvalid, err.Error(), nil).
			WithSuggestion(fmt.Sprintf("run '%s --help' for usage", cmd.CommandPath()))
	})

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newMessageCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newExportCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprint(os.Stderr, sifterrors.FormatForCLI(err))
		return sifterrors.ExitCode(err)
	}
	return sifterrors.ExitOK
}

// runtime bundles what every command run needs: the effective config, a
// logger, a stdout writer for results, and a stderr writer for status.
type runtime struct {
	cfg     *config.Config
	log     *slog.Logger
	out     *output.Writer
	status  *output.Writer
	cleanup func()
}

// initRuntime loads configuration, applies persistent flag overrides, and
// wires logging and the output writers. Callers must defer rt.cleanup().
func initRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		ToStderr:   cfg.Logging.ToStderr,
	}
	if debugMode {
		logCfg.Level = "debug"
		logCfg.ToStderr = true
	}
	log, cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		return nil, err
	}

	outOpts := []output.Option{output.WithColorMode(cfg.Output.Color)}
	if cfg.Output.Width > 0 {
		outOpts = append(outOpts, output.WithWidth(cfg.Output.Width))
	}

	// Quiet only mutes the status stream; results still print.
	statusOpts := append([]output.Option{output.WithQuiet(quietMode)}, outOpts...)

	return &runtime{
		cfg:     cfg,
		log:     log,
		out:     output.New(cmd.OutOrStdout(), outOpts...),
		status:  output.New(cmd.ErrOrStderr(), statusOpts...),
		cleanup: cleanup,
	}, nil
}

// statusWriter builds a stderr writer without loading configuration, for
// commands that must keep working when the config file itself is broken.
func statusWriter(cmd *cobra.Command) *output.Writer {
	mode := flagColor
	if mode == "" {
		mode = "auto"
	}
	return output.New(cmd.ErrOrStderr(), output.WithColorMode(mode), output.WithQuiet(quietMode))
}

// loadConfig resolves the effective configuration: files and environment
// first, then persistent flags on top.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			wd = "."
		}
		cfg, err = config.Load(wd)
	}
	if err != nil {
		return nil, err
	}

	if flagProvider != "" {
		cfg.Provider = flagProvider
	}
	if flagColor != "" {
		cfg.Output.Color = flagColor
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
