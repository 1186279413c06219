// Command tailorbook runs the tailoring shop state store: a long-running serve
// mode with connectivity tracking and metrics, plus one-shot maintenance
// commands for backups, search and dashboard figures.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tailorbook/internal/blob"
	"tailorbook/internal/config"
	"tailorbook/internal/connectivity"
	"tailorbook/internal/core"
	"tailorbook/internal/infra/persistence"
	"tailorbook/pkg/domain"
)

var (
	exitFunc   = os.Exit
	loadConfig = config.Load
)

const usage = `usage: tailorbook <command> [flags]

commands:
  serve         track connectivity and expose /metrics and /debug/vars
  stats         print dashboard figures as JSON
  search        print customers matching -q as JSON
  backup        write the current state to the blob store
  list-backups  list stored backups
  restore       replace the state with the backup named by -key
  add-customer  register a customer from -name, -mobile and -tag
`

func main() {
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr))
}

func cli(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = fmt.Fprint(stderr, usage)
		return 2
	}
	cmd, rest := args[0], args[1:]
	fs := flag.NewFlagSet("tailorbook "+cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)
	query := fs.String("q", "", "search query (search)")
	key := fs.String("key", "", "backup key (restore)")
	name := fs.String("name", "", "customer name (add-customer)")
	mobile := fs.String("mobile", "", "10 digit mobile number (add-customer)")
	tag := fs.String("tag", "", "VIP, Regular or Walk-in (add-customer)")
	if err := fs.Parse(rest); err != nil {
		return 2
	}

	cfg, err := loadConfig()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}
	logger := newLogger(cfg.Log.Level, stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var run func(context.Context, *app) error
	switch cmd {
	case "serve":
		run = serve
	case "stats":
		run = func(_ context.Context, a *app) error {
			return writeJSON(stdout, core.Stats(a.store.State(), time.Now()))
		}
	case "search":
		run = func(_ context.Context, a *app) error {
			return writeJSON(stdout, core.SearchCustomers(a.store.State(), *query))
		}
	case "backup":
		run = func(ctx context.Context, a *app) error {
			info, err := a.store.Backup(ctx, a.blobs)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(stdout, info.Key)
			return err
		}
	case "list-backups":
		run = func(ctx context.Context, a *app) error {
			infos, err := core.ListBackups(ctx, a.blobs)
			if err != nil {
				return err
			}
			for _, info := range infos {
				if _, err := fmt.Fprintf(stdout, "%s\t%d\n", info.Key, info.Size); err != nil {
					return err
				}
			}
			return nil
		}
	case "restore":
		run = func(ctx context.Context, a *app) error {
			if strings.TrimSpace(*key) == "" {
				return errors.New("restore requires -key")
			}
			state, err := a.store.Restore(ctx, a.blobs, *key)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(stdout, "restored %d customers, %d measurements, %d orders\n", len(state.Customers), len(state.Measurements), len(state.Orders))
			return err
		}
	case "add-customer":
		run = func(ctx context.Context, a *app) error {
			c, err := a.service.CreateCustomer(ctx, core.CustomerInput{Name: *name, Mobile: *mobile, Tag: domain.CustomerTag(*tag)})
			if err != nil {
				return err
			}
			return writeJSON(stdout, c)
		}
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n%s", cmd, usage)
		return 2
	}

	a, err := openApp(ctx, cfg, logger, cmd == "serve")
	if err != nil {
		logger.Error("startup failed", "error", err)
		return 1
	}
	defer a.close()
	if err := run(ctx, a); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("command failed", "command", cmd, "error", err)
		return 1
	}
	return 0
}

type app struct {
	cfg     config.Config
	logger  *slog.Logger
	adapter *persistence.Adapter
	store   *core.Store
	service *core.Service
	blobs   blob.Store
	metrics *core.ExpvarMetricsRecorder
	prom    *prometheus.Registry
}

func openApp(ctx context.Context, cfg config.Config, logger *slog.Logger, probeOnFirstRun bool) (*app, error) {
	reg := prometheus.NewRegistry()
	prom, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	expv := core.NewExpvarMetricsRecorder("")
	metrics := core.MultiMetrics{expv, prom}

	opts := []persistence.Option{persistence.WithLogger(logger)}
	if probeOnFirstRun {
		probe := connectivity.TCPProbe{Addr: cfg.Connectivity.Addr, Timeout: cfg.Connectivity.Timeout}
		opts = append(opts, persistence.WithOnlineProbe(probe.Online))
	}
	adapter, err := core.OpenStorage(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	blobs, err := core.OpenBlobStore(ctx, cfg.Blob)
	if err != nil {
		_ = adapter.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	store, err := core.NewStore(ctx, adapter, core.WithStoreLogger(logger), core.WithPersistObserver(metrics))
	if err != nil {
		_ = adapter.Close()
		return nil, err
	}
	service := core.NewService(store,
		core.WithLogger(logger),
		core.WithMetricsRecorder(metrics),
		core.WithAuditRecorder(core.NewLogAuditRecorder(logger)),
	)
	return &app{
		cfg:     cfg,
		logger:  logger,
		adapter: adapter,
		store:   store,
		service: service,
		blobs:   blobs,
		metrics: expv,
		prom:    reg,
	}, nil
}

func (a *app) close() {
	if err := a.adapter.Close(); err != nil {
		a.logger.Warn("close storage", "error", err)
	}
}

func serve(ctx context.Context, a *app) error {
	probe := connectivity.TCPProbe{Addr: a.cfg.Connectivity.Addr, Timeout: a.cfg.Connectivity.Timeout}
	observer := connectivity.NewObserver(probe, a.store, a.cfg.Connectivity.Interval, a.logger)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.prom, promhttp.HandlerOpts{}))
	mux.Handle("/debug/vars", expvar.Handler())
	srv := &http.Server{Addr: a.cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errs := make(chan error, 1)
	go func() {
		a.logger.Info("metrics listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()
	unsubscribe := a.store.Subscribe(func(s core.AppState) {
		a.logger.Debug("state committed", "customers", len(s.Customers), "orders", len(s.Orders), "online", s.IsOnline)
	})
	defer unsubscribe()

	observerDone := make(chan error, 1)
	go func() { observerDone <- observer.Run(ctx) }()

	var err error
	select {
	case <-ctx.Done():
	case err = <-errs:
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if err == nil {
		<-observerDone
	}
	return err
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
