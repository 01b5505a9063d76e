// Package cmd provides the CLI commands for nlpfinder.
package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/nlpfinder/internal/config"
	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
	"github.com/Aman-CERP/nlpfinder/internal/logging"
	"github.com/Aman-CERP/nlpfinder/internal/profiling"
	"github.com/Aman-CERP/nlpfinder/pkg/version"
)

// Commands choose their log sink through this annotation.
const (
	annotationLogMode = "nlpfinder/log-mode"

	// logModeStderr mirrors records to stderr as well as the log file.
	logModeStderr = "stderr"
	// logModeSelf leaves logging setup to the command itself.
	logModeSelf = "self"
)

var (
	debugMode      bool
	configDir      string
	loggingCleanup func()

	profileOpts profiling.Options
	profile     *profiling.Session
)

// NewRootCmd creates the root command for the nlpfinder CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nlpfinder",
		Short: "Semantic search over the files in a directory",
		Long: `nlpfinder indexes a directory of text, code and PDF files into a
vector index using an embedding service (Ollama by default), then finds
files by meaning rather than by keyword.

Start with:
  nlpfinder index ~/Documents
  nlpfinder search "quarterly revenue projections"`,
		Version:            version.Version,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  startProfilingAndLogging,
		PersistentPostRunE: stopProfilingAndLogging,
	}

	cmd.SetVersionTemplate("nlpfinder version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging (also mirrored to stderr)")
	cmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory holding .nlpfinder.yaml and .env (default: current directory)")
	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newFilesCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newPreviewCmd())
	cmd.AddCommand(newOpenCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return execute(NewRootCmd(), os.Stderr)
}

// execute runs root and prints any error in CLI form to errOut.
func execute(root *cobra.Command, errOut io.Writer) error {
	err := root.Execute()
	// PersistentPostRunE is skipped when RunE fails.
	_ = stopProfiling()
	stopLogging()
	if err != nil {
		_, _ = fmt.Fprint(errOut, nferrors.FormatForCLI(err))
	}
	return err
}

func resolveConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}
	return os.Getwd()
}

// loadConfig loads the layered configuration for --config-dir.
func loadConfig() (*config.Config, error) {
	dir, err := resolveConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return config.Load(dir)
}

// logLevel picks the level from --debug, then config, then info.
func logLevel(cfg *config.Config) string {
	switch {
	case debugMode:
		return "debug"
	case cfg != nil && cfg.Logging.Level != "":
		return cfg.Logging.Level
	default:
		return "info"
	}
}

func startProfilingAndLogging(cmd *cobra.Command, args []string) error {
	if profileOpts.Enabled() {
		s, err := profiling.Start(profileOpts)
		if err != nil {
			return err
		}
		profile = s
	}
	return setupLogging(cmd, args)
}

func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	err := stopProfiling()
	stopLogging()
	return err
}

func stopProfiling() error {
	if profile == nil {
		return nil
	}
	err := profile.Stop()
	profile = nil
	if err != nil {
		return fmt.Errorf("failed to write profiles: %w", err)
	}
	return nil
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	mode := cmd.Annotations[annotationLogMode]
	if mode == logModeSelf {
		return nil
	}

	logCfg := logging.DefaultConfig()
	cfg, err := loadConfig()
	if err != nil {
		// The command reports the config error itself.
		cfg = nil
	}
	logCfg.Level = logLevel(cfg)
	if cfg != nil {
		logCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
		logCfg.MaxFiles = cfg.Logging.MaxFiles
	}
	logCfg.WriteToStderr = debugMode || mode == logModeStderr

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Debug("command_started",
		slog.String("command", cmd.CommandPath()),
		slog.String("log_file", logCfg.FilePath))
	return nil
}

func stopLogging() {
	if loggingCleanup != nil {
		slog.SetDefault(slog.New(slog.DiscardHandler))
		loggingCleanup()
		loggingCleanup = nil
	}
}
