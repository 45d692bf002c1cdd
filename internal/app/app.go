package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"ContentBriefs/internal/config"
	"ContentBriefs/internal/domain"
	"ContentBriefs/internal/guidelines"
	"ContentBriefs/internal/infrastructure/document"
	"ContentBriefs/internal/infrastructure/llm"
	"ContentBriefs/internal/infrastructure/research"
	"ContentBriefs/internal/infrastructure/scheduler"
	"ContentBriefs/internal/infrastructure/sheet"
	"ContentBriefs/internal/infrastructure/storage"
	"ContentBriefs/internal/infrastructure/telegram"
	"ContentBriefs/internal/infrastructure/validation"
	"ContentBriefs/internal/logging"
	"ContentBriefs/internal/ports"
	"ContentBriefs/internal/provider"
	"ContentBriefs/internal/server"
	"ContentBriefs/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     *slog.Logger
	db         *sql.DB
	registry   *provider.Registry
	researcher *research.Researcher
	parser     *sheet.Parser
	history    *storage.RunRepository
	service    *usecase.Service
	pruner     *usecase.HistoryPruner
}

// New builds the application. The caller owns the result and must Close it.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	registry := provider.NewRegistry()
	for _, id := range cfg.AvailableProviders() {
		registry.Register(id, llm.NewClient(id, cfg.Providers[id]))
	}
	if len(registry.Available()) == 0 {
		baseLogger.Warn("no AI provider API keys configured")
	}

	db, err := storage.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	history := storage.NewRunRepository(db, cfg.Database.Driver)

	researcher := research.NewResearcher(cfg.Research, baseLogger)
	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Researcher: researcher,
		Generator:  llm.NewGenerator(registry, guidelines.NewCatalog(cfg.Clients), baseLogger),
		Validator:  validation.New(),
		Encoder:    document.NewEncoder(),
		Assembler:  usecase.NewAssembler(cfg.Archive.Filename),
		Logger:     baseLogger.With("component", "orchestrator"),
	})

	var notifier ports.Notifier
	if n := telegram.NewNotifier(cfg.Notifications.Telegram); n != nil {
		notifier = n
	}

	service := usecase.NewService(usecase.ServiceDeps{
		Orchestrator: orchestrator,
		Repository:   history,
		Notifier:     notifier,
		Logger:       baseLogger.With("component", "service"),
	})

	pruner := usecase.NewHistoryPruner(
		scheduler.NewIntervalScheduler(cfg.History.PruneInterval),
		history,
		cfg.History.Retention,
		baseLogger.With("component", "history"),
	)

	return &Application{
		cfg:        cfg,
		logger:     baseLogger,
		db:         db,
		registry:   registry,
		researcher: researcher,
		parser:     sheet.NewParser(baseLogger),
		history:    history,
		service:    service,
		pruner:     pruner,
	}, nil
}

// Service runs batches end to end.
func (a *Application) Service() *usecase.Service { return a.service }

// Parser reads uploaded spreadsheets.
func (a *Application) Parser() ports.ItemParser { return a.parser }

// Researcher analyses client websites.
func (a *Application) Researcher() ports.Researcher { return a.researcher }

// History exposes stored runs.
func (a *Application) History() ports.RunRepository { return a.history }

// Providers lists the providers with a configured API key.
func (a *Application) Providers() []domain.ProviderID { return a.registry.Available() }

// DefaultProvider is used when a request does not name one.
func (a *Application) DefaultProvider() domain.ProviderID { return a.cfg.DefaultProvider }

// Handler builds the HTTP API.
func (a *Application) Handler() (http.Handler, error) {
	return server.New(server.Config{
		Runner:          a.service,
		Researcher:      a.researcher,
		Parser:          a.parser,
		History:         a.history,
		Providers:       a.Providers(),
		DefaultProvider: a.cfg.DefaultProvider,
		BasePath:        a.cfg.Server.BasePath,
		Logger:          a.logger,
	})
}

// Serve runs the HTTP API and the history pruner until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}

	if err := a.pruner.Start(ctx); err != nil {
		return fmt.Errorf("start history pruner: %w", err)
	}
	defer func() {
		if err := a.pruner.Stop(context.Background()); err != nil {
			a.logger.Warn("stop history pruner", "error", err)
		}
	}()

	srv := &http.Server{Addr: a.cfg.Server.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("http shutdown", "error", err)
		}
	}()

	a.logger.Info("listening", "addr", a.cfg.Server.Addr, "basePath", a.cfg.Server.BasePath, "providers", a.Providers())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases the history database.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
