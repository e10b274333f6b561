package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/ashwch/strinput/internal/engine"
	"github.com/ashwch/strinput/internal/i18n"
	"github.com/ashwch/strinput/internal/settings"
	"github.com/ashwch/strinput/internal/text"
	"github.com/ashwch/strinput/internal/ui"
	"github.com/ashwch/strinput/internal/user"
	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var version = "dev"

// environment is read before flags; any flag given on the command line
// wins over its variable.
type environment struct {
	Settings    string `env:"STRINPUT_SETTINGS"`
	UI          string `env:"STRINPUT_UI" envDefault:"auto"`
	Locale      string `env:"STRINPUT_LOCALE"`
	Verbose     bool   `env:"STRINPUT_VERBOSE"`
	MetricsAddr string `env:"STRINPUT_METRICS_ADDR"`
}

type options struct {
	Settings    string
	UI          string
	Locale      string
	MetricsAddr string
	Verbose     bool
	Watch       bool
	Listing     bool
	Version     bool
}

func main() {
	opts, line, err := parseArgs(os.Args[1:], os.Environ())
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if opts.Version {
		fmt.Println(version)
		return
	}
	if err := run(opts, line); err != nil {
		fmt.Fprintf(os.Stderr, "strinput: %v\n", err)
		os.Exit(1)
	}
}

func parseArgs(args []string, environ []string) (options, []string, error) {
	var envCfg environment
	if err := env.ParseWithOptions(&envCfg, env.Options{Environment: env.ToMap(environ)}); err != nil {
		return options{}, nil, fmt.Errorf("could not read environment: %w", err)
	}

	fs := pflag.NewFlagSet("strinput", pflag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.SetInterspersed(false)

	var opts options
	fs.StringVar(&opts.Settings, "settings", envCfg.Settings, "settings file (.json, .toml, .yaml)")
	fs.StringVar(&opts.UI, "ui", envCfg.UI, "option picker: "+strings.Join(ui.Backends(), "|"))
	fs.StringVar(&opts.Locale, "locale", envCfg.Locale, "locale used when settings say auto: en|hi|...")
	fs.StringVar(&opts.MetricsAddr, "metrics-addr", envCfg.MetricsAddr, "serve prometheus metrics on this address")
	fs.BoolVarP(&opts.Verbose, "verbose", "v", envCfg.Verbose, "log engine diagnostics to stderr")
	fs.BoolVarP(&opts.Watch, "watch", "w", false, "reload settings as soon as the file changes")
	fs.BoolVar(&opts.Listing, "listing", false, "print the command tree and exit")
	fs.BoolVar(&opts.Version, "version", false, "print version")

	if err := fs.Parse(args); err != nil {
		return options{}, nil, err
	}
	opts.UI = ui.NormalizeBackend(opts.UI)
	if opts.Locale != "" {
		opts.Locale = i18n.NormalizeLocale(opts.Locale)
	}
	return opts, fs.Args(), nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func run(opts options, line []string) error {
	logger, err := newLogger(opts.Verbose)
	if err != nil {
		return fmt.Errorf("could not build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if opts.Locale != "" {
		if err := os.Setenv(i18n.LocaleEnv, opts.Locale); err != nil {
			return err
		}
	}

	store, err := openStore(opts.Settings)
	if err != nil {
		return err
	}

	// The first interrupt cancels running commands, a second one exits.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		<-ctx.Done()
		stop()
	}()

	styled := term.IsTerminal(int(os.Stdout.Fd()))
	tty := newTerminal(os.Stdout, styled, logger)
	loop := engine.NewLoopExecutor()
	centerOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithConsole(tty),
		engine.WithExecutor(loop),
	}

	var metricsServer *http.Server
	if opts.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		centerOpts = append(centerOpts, engine.WithMetrics(reg))
		metricsServer = serveMetrics(opts.MetricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	center, err := engine.New(store, demoHosts(), centerOpts...)
	if err != nil {
		return err
	}

	if opts.Listing {
		for _, entry := range center.Listing("  ", line) {
			fmt.Fprintln(os.Stdout, entry)
		}
		return nil
	}

	if opts.Watch {
		watcher, err := engine.NewSettingsWatcher(center, store.Path)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	in := bufio.NewReader(os.Stdin)
	pick := picker(opts.UI, in, os.Stdout)
	if len(line) > 0 {
		dispatchLine(ctx, center, loop, tty, pick, line)
		return nil
	}
	return repl(ctx, center, loop, tty, pick, in, os.Stdout, term.IsTerminal(int(os.Stdin.Fd())))
}

func openStore(path string) (*settings.FileStore, error) {
	if strings.TrimSpace(path) != "" {
		return settings.NewFileStore(path), nil
	}
	store, err := settings.DefaultFileStore()
	if err != nil {
		return nil, fmt.Errorf("could not resolve settings path: %w", err)
	}
	return store, nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}

// repl dispatches one line at a time until end of input. A line starting
// with "?" prints completions for the rest of the line instead.
func repl(ctx context.Context, center *engine.Center, loop *engine.LoopExecutor, tty *terminal, pick pickFunc, in *bufio.Reader, out io.Writer, prompt bool) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		if prompt {
			fmt.Fprint(out, "> ")
		}
		raw, err := in.ReadString('\n')
		if raw != "" {
			if rest, ok := strings.CutPrefix(strings.TrimSpace(raw), "?"); ok {
				complete(ctx, center, tty, strings.Fields(rest))
			} else if tokens := strings.Fields(raw); len(tokens) > 0 {
				dispatchLine(ctx, center, loop, tty, pick, tokens)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
}

func complete(ctx context.Context, center *engine.Center, tty *terminal, tokens []string) {
	suggestions := center.Complete(ctx, tokens, tty)
	if len(suggestions) > 0 {
		tty.SendMessage(text.New(strings.Join(suggestions, "  ")))
	}
}

// dispatchLine runs tokens and, when the engine offered alternatives for
// an unknown root, lets the user pick one and runs the line again with
// the chosen root. Sync-required commands run here, on the input
// goroutine, while async ones finish.
func dispatchLine(ctx context.Context, center *engine.Center, loop *engine.LoopExecutor, tty *terminal, pick pickFunc, tokens []string) {
	for attempt := 0; attempt < 2; attempt++ {
		center.Dispatch(ctx, tokens, tty)
		loop.RunUntil(center.Idle())

		offer, ok := tty.takeOffer()
		if !ok || attempt > 0 {
			return
		}
		choice, picked, err := pick(offer.title, offer.choices)
		if err != nil || !picked {
			if err != nil {
				msgs := i18n.LoadCatalog(center.Settings().Locale)
				tty.SendMessage(text.Colored(text.Red, msgs.Dispatch.PickFailed))
			}
			tty.PlayFeedback(user.FailedPick)
			return
		}
		tty.PlayFeedback(user.SuccessfulPick)
		tokens = append([]string{choice}, tokens[1:]...)
	}
}

type pickFunc func(title string, choices []string) (string, bool, error)

func picker(backend string, in io.Reader, out io.Writer) pickFunc {
	return func(title string, choices []string) (string, bool, error) {
		if ui.IsInteractiveBackend(backend) && term.IsTerminal(int(os.Stdin.Fd())) {
			choice, used, err := ui.PickOption(backend, title, choices)
			if used {
				return choice, choice != "", err
			}
		}
		return ui.PickPlain(in, out, title, choices)
	}
}

type offer struct {
	title   string
	choices []string
}

// terminal is the console user with an option picker behind SendOptions.
type terminal struct {
	*user.Console
	logger *zap.Logger

	mu      sync.Mutex
	pending *offer
}

func newTerminal(out io.Writer, styled bool, logger *zap.Logger) *terminal {
	console := user.NewConsole(out, styled)
	console.Label = "Terminal"
	return &terminal{Console: console, logger: logger}
}

func (t *terminal) SendOptions(title string, choices []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = &offer{title: title, choices: append([]string(nil), choices...)}
}

func (t *terminal) takeOffer() (offer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == nil || len(t.pending.choices) == 0 {
		t.pending = nil
		return offer{}, false
	}
	o := *t.pending
	t.pending = nil
	return o, true
}

func (t *terminal) PlayFeedback(signal user.Feedback) {
	t.logger.Debug("feedback", zap.Stringer("signal", signal))
}
