package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/nlpfinder/internal/config"
	nferrors "github.com/Aman-CERP/nlpfinder/internal/errors"
	"github.com/Aman-CERP/nlpfinder/internal/output"
)

// projectFileHeader is written above the defaults by `config init`.
const projectFileHeader = `# nlpfinder project configuration.
#
# Precedence, lowest to highest:
#   defaults < user config < this file < .env < environment variables
#
# Environment overrides include OLLAMA_BASE_URL, EMBEDDING_MODEL,
# LLM_MODEL, MAX_FILE_SIZE_MB and NLPFINDER_* (for example
# NLPFINDER_TOP_K, NLPFINDER_DATA_DIR, NLPFINDER_STORE_BACKEND).
#
# chunk_overlap must be smaller than chunk_size. similarity_threshold is
# a cosine similarity between 0 and 1. store.backend is flat or hnsw.

`

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create configuration files",
		Long: `Inspect and create configuration files.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/nlpfinder/config.yaml)
  3. Project config (.nlpfinder.yaml in --config-dir)
  4. .env in --config-dir
  5. Environment variables`,
		Example: `  nlpfinder config show
  nlpfinder config show --json
  nlpfinder config init
  nlpfinder config init --user`,
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				cfg  *config.Config
				desc string
			)
			switch source {
			case "merged":
				var err error
				if cfg, err = loadConfig(); err != nil {
					return err
				}
				desc = "merged (defaults + user + project + .env + env)"
			case "defaults":
				cfg = config.NewConfig()
				desc = "defaults"
			default:
				return nferrors.ValidationError(fmt.Sprintf("invalid source: %s (use: merged, defaults)", source), nil)
			}

			if jsonOutput {
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal config: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n%s", desc, data)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, defaults")

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		force bool
		user  bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the defaults",
		Long: `Write .nlpfinder.yaml with every default spelled out, in --config-dir
or, with --user, at the user config path. An existing file is kept
unless --force is given, in which case it is backed up first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.GetUserConfigPath()
			if !user {
				dir, err := resolveConfigDir()
				if err != nil {
					return err
				}
				path = filepath.Join(dir, config.ProjectFileName)
			}
			return runConfigInit(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file (a backup is kept)")
	cmd.Flags().BoolVar(&user, "user", false, "Write the user config instead of the project file")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print configuration file paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := resolveConfigDir()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "user:    %s\n", config.GetUserConfigPath())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "project: %s\n", filepath.Join(dir, config.ProjectFileName))
			return nil
		},
	}
}

func runConfigInit(cmd *cobra.Command, path string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	if _, err := os.Stat(path); err == nil {
		if !force {
			return nferrors.ConfigError("configuration file already exists", nil).
				WithDetail("path", path).
				WithSuggestion("Use --force to overwrite it (a backup is kept)")
		}
		backup, err := config.BackupFile(path)
		if err != nil {
			return err
		}
		out.Statusf(">", "Backup: %s", backup)
	}

	data, err := yaml.Marshal(config.NewConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(projectFileHeader), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Successf("Wrote %s", path)
	out.Status("", "Run 'nlpfinder config show' to see the merged result")
	return nil
}
