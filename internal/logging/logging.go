// Package logging sets up structured logging shared by every chain
// indexer. Grounded on okx-cdk-erigon's turbo/logging/logging.go
// (console + lumberjack-rotated file handler, level filtering per sink),
// trimmed to a single config-driven entrypoint since this process has no
// urfave/cobra dual-CLI surface to bind flags from.
package logging

import (
	"os"
	"path/filepath"

	"github.com/ledgerwatch/log/v3"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures where and how verbosely to log.
type Options struct {
	ConsoleLevel log.Lvl
	DirLevel     log.Lvl
	// LogDir, if non-empty, also writes rotated plain-text log files there.
	LogDir     string
	FilePrefix string
	JSON       bool
}

// New builds a logger per opts. Matches
// turbo/logging/logging.go's initSeparatedLogging shape: a console handler
// always present, and a MultiHandler fanning out to a lumberjack-backed
// file handler when a log directory is configured.
func New(opts Options) log.Logger {
	logger := log.New()

	format := log.TerminalFormatNoColor()
	consoleHandler := log.LvlFilterHandler(opts.ConsoleLevel, log.StreamHandler(os.Stderr, format))
	logger.SetHandler(consoleHandler)

	if opts.LogDir == "" {
		logger.Info("console logging only")
		return logger
	}

	if err := os.MkdirAll(opts.LogDir, 0o764); err != nil {
		logger.Warn("failed to create log dir, console logging only", "err", err)
		return logger
	}

	rotated := &lumberjack.Logger{
		Filename:   filepath.Join(opts.LogDir, opts.FilePrefix+".log"),
		MaxSize:    100, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}
	fileHandler := log.StreamHandler(rotated, log.TerminalFormatNoColor())
	logger.SetHandler(log.MultiHandler(consoleHandler, log.LvlFilterHandler(opts.DirLevel, fileHandler)))
	logger.Info("logging to file system", "log_dir", opts.LogDir, "file_prefix", opts.FilePrefix)
	return logger
}
