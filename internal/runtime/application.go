// Package runtime wires the hosting node together and manages the HTTP
// server lifecycle.
package runtime

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/AppHost-Network/host_runtime/internal/appversion"
	"github.com/AppHost-Network/host_runtime/internal/config"
	"github.com/AppHost-Network/host_runtime/internal/httpapi"
	"github.com/AppHost-Network/host_runtime/internal/manifest"
	"github.com/AppHost-Network/host_runtime/internal/registry"
	"github.com/AppHost-Network/host_runtime/pkg/logger"
)

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg        *config.Config
	log        *logger.Logger
	registry   *registry.Registry
	httpServer *http.Server
}

// NewApplication constructs a node instance with default wiring, deploying
// the configured manifest when one is given.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		FilePrefix: cfg.Logging.FilePrefix,
	}).WithField("instance", uuid.NewString())

	reg := registry.New()
	if cfg.Deploy.ManifestPath != "" {
		av, err := DeployVersion(cfg.Deploy, log)
		if err != nil {
			return nil, fmt.Errorf("deploy configured version: %w", err)
		}
		if err := reg.Register(av); err != nil {
			return nil, fmt.Errorf("register configured version: %w", err)
		}
		log.Infof("deployed version %s from %s", av.Key(), cfg.Deploy.ManifestPath)
	}

	api := httpapi.New(reg, log, cfg.Server)
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Application{
		cfg:        cfg,
		log:        log,
		registry:   reg,
		httpServer: httpSrv,
	}, nil
}

// DeployVersion builds a version descriptor from a manifest on disk and the
// deployed artifact root.
func DeployVersion(cfg config.DeployConfig, log *logger.Logger) (*appversion.AppVersion, error) {
	m, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	return appversion.NewBuilder().
		Key(appversion.VersionKey{AppID: m.Application, VersionID: m.Version}).
		Manifest(m).
		RootDirectory(cfg.RootDirectory).
		PublicRoot(m.PublicRoot).
		Environment(&appversion.Environment{Variables: m.Env}).
		SessionsConfig(appversion.SessionsConfig{
			Enabled:          m.Sessions.Enabled,
			AsyncPersistence: m.Sessions.AsyncPersistence,
			AsyncQueueName:   m.Sessions.AsyncQueueName,
		}).
		Logger(log).
		Build()
}

// Registry returns the node's version registry.
func (a *Application) Registry() *registry.Registry {
	return a.registry
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.log.Infof("introspection server listening on %s", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the HTTP server.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return a.httpServer.Shutdown(shutdownCtx)
}
