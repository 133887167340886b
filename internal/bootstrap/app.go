package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/profilewatch/profile-ui-api/config"
	"github.com/profilewatch/profile-ui-api/internal/data"
	"github.com/profilewatch/profile-ui-api/internal/events"
	httpx "github.com/profilewatch/profile-ui-api/internal/http"
	"github.com/profilewatch/profile-ui-api/internal/scheduler"
	"github.com/profilewatch/profile-ui-api/internal/service"
	"github.com/profilewatch/profile-ui-api/internal/worker"
)

// App holds the wired services for one profilewatch process. Which of them
// actually run is decided by the SERVICES config at Run time.
type App struct {
	cfg    config.AppConfig
	logger *slog.Logger

	redis redis.UniversalClient
	bus   *events.Bus

	profiles *service.ProfileService
	tasks    *service.TaskService
	jobs     *data.JobRepo
	posts    *data.PostRepo
	profRepo *data.ProfileRepo
	registry *data.RedisWorkerRegistry
}

// AppDeps groups the shared infrastructure an App is built on.
type AppDeps struct {
	Config      config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewApp wires repositories and services over the shared database and redis
// connections.
func NewApp(deps AppDeps) *App {
	if deps.DB == nil {
		panic("database connection is required")
	}
	if deps.RedisClient == nil {
		panic("redis client is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tp := data.RealTimeProvider{}
	jobs := data.NewJobRepo(deps.DB, data.JobRepoConfig{Logger: logger, TimeProvider: tp})
	posts := data.NewPostRepo(deps.DB)
	profRepo := data.NewProfileRepo(deps.DB, tp)
	registry := data.NewRedisWorkerRegistry(deps.RedisClient)
	bus := events.NewBus(deps.RedisClient, logger)

	profiles := service.NewProfileService(service.ProfileServiceOptions{
		Profiles: profRepo,
		Posts:    posts,
		Logger:   logger,
	})
	tasks := service.NewTaskService(service.TaskServiceOptions{
		Jobs:     jobs,
		Registry: registry,
		Events:   bus,
		Logger:   logger,
	})

	return &App{
		cfg:      deps.Config,
		logger:   logger,
		redis:    deps.RedisClient,
		bus:      bus,
		profiles: profiles,
		tasks:    tasks,
		jobs:     jobs,
		posts:    posts,
		profRepo: profRepo,
		registry: registry,
	}
}

// Run starts the enabled services and blocks until a termination signal
// arrives or one of them fails.
func (a *App) Run(ctx context.Context) error {
	enabled, err := a.cfg.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	if enabled[config.ServiceModeHTTP] {
		group.Go(func() error { return a.runHTTPServer(ctx) })
	}
	if enabled[config.ServiceModeWorker] {
		runner, err := a.buildWorker()
		if err != nil {
			return err
		}
		group.Go(func() error { return runWorker(ctx, runner) })
	}
	if enabled[config.ServiceModeScheduler] {
		sched, err := scheduler.New(scheduler.Options{
			Profiles: a.profiles,
			Tasks:    a.tasks,
			Spec:     a.cfg.Scheduler.Cron,
			Logger:   a.logger,
		})
		if err != nil {
			return err
		}
		group.Go(func() error {
			if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("scheduler: %w", err)
			}
			return nil
		})
	}

	return group.Wait()
}

// runHTTPServer serves the API until the context is canceled, then shuts the
// server down gracefully.
func (a *App) runHTTPServer(ctx context.Context) error {
	handler := httpx.NewRouter(httpx.RouterServices{
		Profiles: a.profiles,
		Tasks:    a.tasks,
		Events:   httpx.BusEventSource{Bus: a.bus},
		Logger:   a.logger,
	})

	// WriteTimeout stays zero so long-lived event streams are not cut off.
	// BaseContext ties request contexts to the run context so open event
	// streams end when the process shuts down.
	server := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: a.cfg.HTTP.ReadHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server", "addr", server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

func (a *App) buildWorker() (*worker.Runner, error) {
	sites, err := LoadSites(a.cfg.Worker.SitesFile)
	if err != nil {
		return nil, err
	}

	extractor := worker.NewExtractor(worker.ExtractorOptions{
		Sessions: worker.NewRedisSessionCache(a.redis),
		Logger:   a.logger,
	})

	return worker.NewRunner(worker.RunnerOptions{
		Jobs:         a.jobs,
		Profiles:     a.profRepo,
		Posts:        a.posts,
		Registry:     a.registry,
		Extractor:    extractor,
		Events:       a.bus,
		Sites:        sites,
		Name:         a.cfg.Worker.Name,
		Lease:        a.cfg.Worker.JobLease,
		PollInterval: a.cfg.Worker.PollInterval,
		HeartbeatTTL: a.cfg.Worker.HeartbeatTTL,
		MaxPages:     a.cfg.Worker.MaxPages,
		Logger:       a.logger,
	}), nil
}

func runWorker(ctx context.Context, runner *worker.Runner) error {
	if err := runner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker: %w", err)
	}
	return nil
}
