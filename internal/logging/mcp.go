package logging

import (
	"log/slog"
)

// SetupMCPMode initializes logging for the MCP stdio server.
// Stdout carries JSON-RPC frames, so records go to the log file only.
func SetupMCPMode(level string) (func(), error) {
	if level == "" {
		level = "info"
	}
	cfg := Config{
		Level:         level,
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	slog.Info("mcp_logging_initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))

	return cleanup, nil
}
