package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tartampluch/go-heatmap/internal/cli"
	"github.com/tartampluch/go-heatmap/internal/config"
	"github.com/tartampluch/go-heatmap/internal/i18n"
)

// main delegates to runMain so that deferred calls run before os.Exit.
func main() {
	os.Exit(runMain())
}

// runMain manages the application lifecycle, argument parsing, and exit codes.
func runMain() int {
	// -------------------------------------------------------------------------
	// 1. Environment & CLI Argument Parsing
	// -------------------------------------------------------------------------
	// Records emitted before the flags are known are dropped.
	slog.SetDefault(slog.New(slog.DiscardHandler))

	// Real environment variables win over the .env file.
	dotEnvErr := godotenv.Load(config.EnvFile)
	if errors.Is(dotEnvErr, fs.ErrNotExist) {
		dotEnvErr = nil
	}

	// Messages follow the POSIX locale; unknown languages fall back to English.
	tr := i18n.New(i18n.LanguageFromEnv(os.Getenv))

	opts, err := cli.Parse(os.Args[1:], os.Stderr, tr)
	if errors.Is(err, flag.ErrHelp) {
		return config.ExitCodeSuccess
	}
	if err != nil {
		return cli.Report(os.Stderr, err, tr, config.ColorAuto)
	}

	if opts.Version {
		printVersion()
		return config.ExitCodeSuccess
	}

	// -------------------------------------------------------------------------
	// 2. Logging Initialization
	// -------------------------------------------------------------------------
	// The real handler replaces the discard one as soon as --debug is known.
	logCloser := setupLogging(opts.Debug)
	if logCloser != nil {
		defer func() {
			_ = logCloser.Close() // Best effort close
		}()
	}

	// Deferred until now so the warning reaches the log file.
	if dotEnvErr != nil {
		slog.Warn(config.ErrDotEnv,
			config.LogKeyComponent, config.CompMain,
			config.LogKeyError, dotEnvErr,
		)
	}

	// -------------------------------------------------------------------------
	// 3. Context & Signal Handling
	// -------------------------------------------------------------------------
	// Create a root context that cancels on SIGINT (Ctrl+C) or SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// With SIGPIPE delivered to a channel, writes to a closed stdout fail with
	// EPIPE instead of killing the process.
	pipe := make(chan os.Signal, config.ChannelBufferSize)
	signal.Notify(pipe, syscall.SIGPIPE)
	defer signal.Stop(pipe)

	logStartupInfo()

	// -------------------------------------------------------------------------
	// 4. Application Logic
	// -------------------------------------------------------------------------
	// Run errors are reported on stderr; stdout only ever carries the grid.
	app := cli.NewApp(os.Stdout, os.Getenv)
	code := cli.Report(os.Stderr, app.Run(ctx, opts), tr, opts.Color)

	slog.Info(config.MsgAppStop, config.LogKeyComponent, config.CompMain)
	return code
}

// printVersion outputs the build information to stdout.
func printVersion() {
	fmt.Printf(config.MsgVersionOutput,
		config.AppName,
		config.Version,
		runtime.GOOS,
		runtime.GOARCH,
	)
}

// logStartupInfo logs environment details useful for debugging.
func logStartupInfo() {
	slog.Info(config.MsgAppStarting,
		config.LogKeyComponent, config.CompMain,
		slog.Group(config.LogKeyBuild,
			slog.String(config.LogKeyApp, config.AppName),
			slog.String(config.LogKeyVersion, config.Version),
			slog.String(config.LogKeyCommit, config.Commit),
			slog.String(config.LogKeyBuilt, config.Date),
			slog.String(config.LogKeyGoVer, runtime.Version()),
		),
		slog.Group(config.LogKeyEnv,
			slog.String(config.LogKeyOS, runtime.GOOS),
			slog.String(config.LogKeyArch, runtime.GOARCH),
			slog.Int(config.LogKeyPID, os.Getpid()),
		),
	)
}

// setupLogging configures the default slog logger. Stdout carries the
// heatmap, so records go to the log file and, in debug mode, to stderr.
func setupLogging(debugMode bool) io.Closer {
	var writers []io.Writer
	var logFile *os.File

	// 1. Stderr only in debug mode.
	if debugMode {
		writers = append(writers, os.Stderr)
	}

	// 2. Attempt to set up a file writer in the user's cache directory.
	if logPath, err := getLogFilePath(); err == nil {
		// O_TRUNC resets logs on restart to prevent indefinite growth.
		// Use centralized permission constants for security.
		f, err := os.OpenFile(logPath, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, config.FilePermUserRW)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		} else if debugMode {
			fmt.Fprintf(os.Stderr, config.MsgLogWarning, config.ErrLogFile, logPath, err)
		}
	}

	// 3. Level and source locations follow the debug flag.
	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: debugMode,
	}

	// With no writer at all, io.MultiWriter discards every record.
	logger := slog.New(slog.NewJSONHandler(io.MultiWriter(writers...), opts))
	slog.SetDefault(logger)

	if logFile == nil {
		return nil
	}
	return logFile
}

// getLogFilePath determines the platform-specific cache directory for logs.
func getLogFilePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCacheDir, err)
	}

	appDir := filepath.Join(cacheDir, config.AppID)
	if err := os.MkdirAll(appDir, config.DirPermUserRWX); err != nil {
		return "", fmt.Errorf("%s: %w", config.ErrCreateDir, err)
	}

	return filepath.Join(appDir, config.LogFileName), nil
}
