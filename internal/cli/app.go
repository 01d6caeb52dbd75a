// Package cli runs the heatmap command: it loads a data source, resolves the
// requested range and prints the grid, or serves it over HTTP.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/tartampluch/go-heatmap/internal/config"
	"github.com/tartampluch/go-heatmap/internal/heatmap"
	"github.com/tartampluch/go-heatmap/internal/i18n"
	"github.com/tartampluch/go-heatmap/internal/server"
	"github.com/tartampluch/go-heatmap/internal/source"
	"github.com/tartampluch/go-heatmap/internal/style"
	"golang.org/x/term"
)

// App holds the process-level dependencies of a run.
type App struct {
	Stdout  io.Writer
	Getenv  func(string) string
	Clock   heatmap.Clock
	Fetcher source.ICalFetcher
}

// NewApp wires the real clock and HTTP fetcher.
func NewApp(stdout io.Writer, getenv func(string) string) *App {
	return &App{
		Stdout:  stdout,
		Getenv:  getenv,
		Clock:   heatmap.RealClock{},
		Fetcher: source.NewFeedFetcher(),
	}
}

// Run executes opts. The data source is closed before anything is rendered.
func (a *App) Run(ctx context.Context, opts *Options) error {
	src := opts.Src
	if src == "" && a.Getenv != nil {
		src = a.Getenv(config.EnvDataPath)
	}
	if src == "" {
		return heatmap.ErrNoSourceOfData
	}

	if opts.Serve {
		return a.serve(ctx, src, opts.Port)
	}

	store, err := a.load(ctx, src)
	if err != nil {
		return err
	}

	var styler heatmap.Styler = heatmap.PlainStyler{}
	if ColorEnabled(opts.Color, a.Stdout) {
		styler = style.NewANSI()
	}
	r := heatmap.NewRenderer(store, styler)

	if opts.All {
		return r.RenderAll(a.Stdout)
	}

	from, to, err := heatmap.ResolveRange(opts.Query(), store, a.Clock)
	if err != nil {
		return err
	}
	return r.RenderDateRange(a.Stdout, from, to)
}

func (a *App) load(ctx context.Context, src string) (*heatmap.YearData, error) {
	start := time.Now()

	s, err := source.Open(ctx, src, a.Fetcher)
	if err != nil {
		return nil, err
	}

	store, err := heatmap.Build(ctx, s)
	if cerr := s.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("%s: %w", config.ErrCloseSource, cerr)
	}
	if err != nil {
		return nil, err
	}

	slog.Info(config.MsgImportDone,
		config.LogKeyComponent, config.CompCLI,
		config.LogKeyYears, len(store.Years()),
		config.LogKeyDuration, time.Since(start).Milliseconds(),
	)
	return store, nil
}

// serve starts the HTTP server first so that requests get 503 while loading.
func (a *App) serve(ctx context.Context, src, port string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := server.NewHeatmapServer(port, a.Clock)
	done := make(chan error, config.ChannelBufferSize)
	go func() {
		done <- srv.Start(ctx)
	}()

	store, err := a.load(ctx, src)
	if err != nil {
		cancel()
		<-done
		return err
	}
	srv.Update(store)

	return <-done
}

// ColorEnabled resolves a --color mode against the writer it applies to.
func ColorEnabled(mode string, w io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Report prints err to w and returns the process exit code. A closed output
// pipe is not an error worth reporting.
func Report(w io.Writer, err error, tr *i18n.Translator, colorMode string) int {
	if err == nil {
		return config.ExitCodeSuccess
	}
	if errors.Is(err, syscall.EPIPE) {
		slog.Debug(config.MsgBrokenPipe, config.LogKeyComponent, config.CompCLI)
		return config.ExitCodeSuccess
	}

	slog.Error(config.ErrAppFailed,
		config.LogKeyComponent, config.CompCLI,
		config.LogKeyError, err,
	)

	// The tag is a fixed prefix that scripts match on; only the message is localized.
	tag := style.ErrorTag(config.ErrTag, ColorEnabled(colorMode, w))
	_, _ = fmt.Fprintf(w, "%s: %s\n", tag, describe(err, tr))
	return config.ExitCodeError
}

// describe localizes the kind of err and appends its cause.
func describe(err error, tr *i18n.Translator) string {
	var e *heatmap.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	msg := tr.Msg(e.Kind.TranslationKey(), e.Kind.String())
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}
