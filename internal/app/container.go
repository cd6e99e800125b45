package app

import (
	"context"
	"fmt"

	"github.com/doeshing/shellgate/internal/application/doctor"
	"github.com/doeshing/shellgate/internal/application/intercept"
	"github.com/doeshing/shellgate/internal/application/session"
	"github.com/doeshing/shellgate/internal/domain"
	"github.com/doeshing/shellgate/internal/infrastructure/classifier"
	"github.com/doeshing/shellgate/internal/infrastructure/config"
	"github.com/doeshing/shellgate/internal/infrastructure/converter"
	"github.com/doeshing/shellgate/internal/infrastructure/filter"
	"github.com/doeshing/shellgate/internal/infrastructure/metrics"
	"github.com/doeshing/shellgate/internal/infrastructure/repository"
	"github.com/doeshing/shellgate/internal/infrastructure/rules"
	"github.com/doeshing/shellgate/internal/infrastructure/tracking"
	"github.com/doeshing/shellgate/internal/infrastructure/webio"
	"github.com/doeshing/shellgate/internal/pkg/logger"
	"github.com/doeshing/shellgate/internal/ports"
)

// Options tunes BuildContainer.
type Options struct {
	Verbose bool
	// ConfigPath overrides $SHELLGATE_CONFIG and the XDG location.
	ConfigPath string
}

// Container wires up application services with infrastructure adapters.
type Container struct {
	Config         domain.Config
	ConfigProvider ports.ConfigProvider
	ConfigLoader   *config.FileLoader
	Logger         *logger.ZapLogger
	Rules          *rules.RuleSet
	Classifier     *classifier.Classifier
	Converter      *converter.Converter
	Filter         *filter.ResponseFilter
	Store          ports.OperationStore
	StoreName      string
	// Metrics is nil when metrics.enabled is false.
	Metrics       *metrics.Recorder
	DoctorService *doctor.Service
}

// BuildContainer constructs the dependency graph.
func BuildContainer(ctx context.Context, opts Options) (*Container, error) {
	cfgLoader := config.NewFileLoader(opts.ConfigPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Options{
		Level:   cfg.GetLogLevel(),
		Format:  cfg.Logging.Format,
		Verbose: opts.Verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	ruleSet, err := rules.Load(cfg.Rules.File)
	if err != nil {
		log.Warn("rule file rejected, using embedded rules", map[string]interface{}{
			"file":  cfg.Rules.File,
			"error": err.Error(),
		})
		ruleSet, err = rules.Default()
		if err != nil {
			return nil, err
		}
	}

	var recorder *metrics.Recorder
	if cfg.Metrics.Enabled {
		recorder = metrics.New()
	}

	store, storeName := openStore(cfg, log)

	c := &Container{
		Config:         cfg,
		ConfigProvider: cfgLoader,
		ConfigLoader:   cfgLoader,
		Logger:         log,
		Rules:          ruleSet,
		Classifier:     classifier.New(ruleSet),
		Converter:      converter.New(),
		Store:          store,
		StoreName:      storeName,
		Metrics:        recorder,
	}
	c.Filter = filter.New(ruleSet, log, c.metricsPort())
	c.DoctorService = &doctor.Service{
		ConfigProvider: cfgLoader,
		Rules:          ruleSet,
		Filter:         c.Filter,
		Tracker:        store,
		TrackerName:    storeName,
	}
	return c, nil
}

// openStore opens the configured tracker. A SQLite failure degrades to the
// in-memory tracker so interception keeps working.
func openStore(cfg domain.Config, log ports.Logger) (ports.OperationStore, string) {
	if cfg.GetTrackingBackend() == domain.TrackingBackendMemory {
		return tracking.NewMemoryTracker(), domain.TrackingBackendMemory
	}
	store, err := tracking.NewSQLiteStore(cfg.Tracking.Path)
	if err != nil {
		log.Warn("sqlite tracker unavailable, falling back to memory", map[string]interface{}{
			"path":  cfg.Tracking.Path,
			"error": err.Error(),
		})
		return tracking.NewMemoryTracker(), domain.TrackingBackendMemory
	}
	return store, domain.TrackingBackendSQLite
}

// LoadRepository snapshots the working tree at root using the configured limits.
func (c *Container) LoadRepository(ctx context.Context, root string) (*repository.Snapshot, error) {
	return repository.LoadDirectory(ctx, root, repository.LoadOptions{
		MaxFileSize: c.Config.GetMaxFileSize(),
		IgnoreDirs:  c.Config.GetIgnoreDirs(),
	})
}

// NewSession wires a Gate, its web-safe IO and a session.Service around repo.
// An empty sessionID leaves tracking off.
func (c *Container) NewSession(repo ports.RepositoryAccessor, coder ports.Coder, sessionID string) *session.Service {
	model := c.Config.Session.Model
	svc := &session.Service{
		Coder:           coder,
		Filter:          c.Filter,
		Repository:      repo,
		Tracker:         c.Store,
		Logger:          c.Logger,
		Model:           model,
		MaxContextFiles: c.Config.GetMaxContextFiles(),
	}
	svc.Gate = &intercept.Gate{
		Classifier:   c.Classifier,
		Converter:    c.Converter,
		Repository:   repo,
		Tracker:      c.Store,
		Metrics:      c.metricsPort(),
		Logger:       c.Logger,
		UserID:       c.Config.GetUserID(),
		Model:        model,
		ContextFiles: svc.ContextFilePaths,
	}
	svc.IO = webio.New(repo, c.Logger, svc.RecordWrite)
	if sessionID != "" {
		svc.SetSessionID(sessionID)
	}
	return svc
}

// Close releases the tracker and flushes the logger.
func (c *Container) Close() error {
	err := c.Store.Close()
	_ = c.Logger.Sync()
	return err
}

// metricsPort avoids handing a typed nil to components that check for nil.
func (c *Container) metricsPort() ports.MetricsRecorder {
	if c.Metrics == nil {
		return nil
	}
	return c.Metrics
}
