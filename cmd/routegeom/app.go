package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/erzurum-ulasim/routegeom/internal/app"
	"github.com/erzurum-ulasim/routegeom/internal/appconf"
	"github.com/erzurum-ulasim/routegeom/internal/clock"
	"github.com/erzurum-ulasim/routegeom/internal/export"
	"github.com/erzurum-ulasim/routegeom/internal/logging"
	"github.com/erzurum-ulasim/routegeom/internal/metrics"
	"github.com/erzurum-ulasim/routegeom/internal/pipeline"
	"github.com/erzurum-ulasim/routegeom/internal/restapi"
	"github.com/erzurum-ulasim/routegeom/internal/routes"
	"github.com/erzurum-ulasim/routegeom/internal/stopindex"
	"github.com/erzurum-ulasim/routegeom/internal/webui"
)

// BuildApplication loads the configured stop sources and traces, builds every
// line and returns the application serving the result.
func BuildApplication(ctx context.Context, cfg *appconf.FileConfig, logger *slog.Logger) (*app.Application, error) {
	ctx = logging.WithLogger(ctx, logger)
	m := metrics.NewWithLogger(logger)

	p, err := pipeline.New(cfg.PipelineOptions(), m, clock.RealClock{}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	loaded, err := pipeline.Load(ctx, cfg.Loader(), cfg.Input.Sources, cfg.Indexing(), cfg.Build.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to load stop sources: %w", err)
	}

	traces, err := loadTraces(cfg.Input.Traces)
	if err != nil {
		return nil, err
	}
	plan := cfg.Plan(loaded)
	plan.Traces = traces
	plan.SplitTraces = true

	res, err := p.Run(ctx, loaded.Index, loaded.Report, plan)
	if err != nil {
		return nil, err
	}
	stampGeneratedAt(cfg, res, logger)
	pipeline.LogReport(logger, res)

	return &app.Application{
		Config:   cfg.ToAppConfig(),
		Run:      cfg,
		Logger:   logger,
		Clock:    clock.RealClock{},
		Metrics:  m,
		Pipeline: p,
		Index:    loaded.Index,
		Result:   res,
	}, nil
}

// SplitTraces splits the given trace files, plus the configured ones, at
// their turnarounds without loading any stops.
func SplitTraces(ctx context.Context, cfg *appconf.FileConfig, files []string, logger *slog.Logger) (*app.Application, error) {
	m := metrics.NewWithLogger(logger)
	p, err := pipeline.New(cfg.PipelineOptions(), m, clock.RealClock{}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	traces, err := loadTraces(append(append([]string{}, cfg.Input.Traces...), files...))
	if err != nil {
		return nil, err
	}
	if len(traces) == 0 {
		return nil, errors.New("no traces to split")
	}

	indexing := cfg.Indexing()
	idx := stopindex.NewBuilder(indexing.Bounds, indexing.Policy).Build()
	res, err := p.Run(ctx, idx, stopindex.Report{}, pipeline.Plan{Traces: traces, SplitTraces: true})
	if err != nil {
		return nil, err
	}
	stampGeneratedAt(cfg, res, logger)
	pipeline.LogReport(logger, res)

	return &app.Application{
		Config:   cfg.ToAppConfig(),
		Run:      cfg,
		Logger:   logger,
		Clock:    clock.RealClock{},
		Metrics:  m,
		Pipeline: p,
		Index:    idx,
		Result:   res,
	}, nil
}

func loadTraces(paths []string) ([]routes.Polyline, error) {
	var traces []routes.Polyline
	for _, path := range paths {
		lines, err := export.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read trace file: %w", err)
		}
		traces = append(traces, lines...)
	}
	return traces, nil
}

// stampGeneratedAt replaces the export time with the pinned one when the
// configured variable is set.
func stampGeneratedAt(cfg *appconf.FileConfig, res *pipeline.Result, logger *slog.Logger) {
	env := cfg.Export.GeneratedAtEnv
	if env == "" || os.Getenv(env) == "" {
		return
	}
	pinned := clock.NewPinnedClock(env, "", time.Local)
	res.Collection.GeneratedAt = pinned.Now()
	logger.Debug("generated_at_pinned", slog.String("env", env), slog.Time("generated_at", res.Collection.GeneratedAt))
}

// ExportResult writes every configured output and the metrics textfile.
func ExportResult(ctx context.Context, coreApp *app.Application) error {
	cfg := coreApp.Run
	exporters, err := cfg.Exporters()
	if err != nil {
		return err
	}
	for i, e := range exporters {
		start := time.Now()
		if err := e.Export(ctx, coreApp.Result.Collection); err != nil {
			return fmt.Errorf("failed to export %s: %w", cfg.Export.Outputs[i].Path, err)
		}
		logging.LogOperation(coreApp.Logger, "export_written",
			slog.String("format", cfg.Export.Outputs[i].Format),
			slog.String("path", cfg.Export.Outputs[i].Path),
			slog.Int("lines", len(coreApp.Result.Collection.Lines)),
			slog.Duration("duration", time.Since(start)))
	}

	if path := cfg.Export.MetricsTextfile; path != "" && coreApp.Metrics != nil {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create metrics directory: %w", err)
		}
		if err := coreApp.Metrics.WriteTextfile(path); err != nil {
			return fmt.Errorf("failed to write metrics textfile: %w", err)
		}
	}
	return nil
}

// exportDir is the directory of the first configured output, served under
// /exports/.
func exportDir(cfg *appconf.FileConfig) string {
	if len(cfg.Export.Outputs) == 0 {
		return ""
	}
	return filepath.Dir(cfg.Export.Outputs[0].Path)
}

// CreateServer wires the API and web UI into an HTTP server.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RestAPI) {
	api := restapi.NewRestAPI(coreApp)

	mux := http.NewServeMux()
	api.SetRoutes(mux)
	ui := &webui.WebUI{Application: coreApp}
	if coreApp.Run != nil {
		ui.ExportDir = exportDir(coreApp.Run)
	}
	ui.SetWebUIRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(mux),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(coreApp.Logger.Handler(), slog.LevelError),
	}
	return srv, api
}

// Run serves until ctx is canceled, then shuts the server down gracefully.
func Run(ctx context.Context, srv *http.Server, api *restapi.RestAPI, logger *slog.Logger) error {
	defer api.Shutdown()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return <-errCh
}
