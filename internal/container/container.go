package container

import (
	"fmt"
	"net/http"

	"go-photo-engine/internal/cache"
	"go-photo-engine/internal/catalog"
	"go-photo-engine/internal/config"
	"go-photo-engine/internal/engine"
	"go-photo-engine/internal/local"
	"go-photo-engine/internal/logger"
	"go-photo-engine/internal/observer"
	"go-photo-engine/internal/remote"
	"go-photo-engine/internal/sampler"
	"go-photo-engine/internal/storage"
	"go-photo-engine/internal/transport"
)

// Container holds all application dependencies. Everything is constructed
// explicitly from config; no shared global state.
type Container struct {
	config       *config.Config
	artifacts    *cache.LRU
	styles       *catalog.Catalog
	localEngine  *local.Engine
	orchestrator *engine.Orchestrator
	metrics      *observer.MetricsObserver
	handler      http.Handler
}

// NewContainer builds the full dependency graph
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		loaded, err := config.LoadFromEnv()
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	styles := catalog.Default()
	artifacts := cache.New(cfg.CacheCapacity, cfg.CacheMaxBytes, cfg.CacheTTL)

	// Artifact storage: Azure blob when credentials are present, process
	// memory otherwise
	var artifactStore storage.ArtifactStore
	if cfg.AzureConfigured() {
		azureStore, err := storage.NewAzureArtifactStore(
			cfg.AzureStorageAccount, cfg.AzureStorageKey, cfg.AzureArtifactContainer)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize azure artifact store: %w", err)
		}
		artifactStore = azureStore
	} else {
		artifactStore = storage.NewMemoryArtifactStore()
	}

	localEngine, err := local.NewEngine(
		local.NewSyntheticRunner(), artifacts, artifactStore, styles,
		cfg.LocalConcurrency, logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local engine: %w", err)
	}

	remoteClient := remote.NewClient(cfg.RemoteEndpoint, cfg.RemoteAPIKey, cfg.RemoteTimeout, styles)

	conditions := sampler.NewProbeSampler(cfg.NetworkProbeURL)

	metrics := observer.NewMetricsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)

	orchestrator, err := engine.NewOrchestrator(engine.Deps{
		Plan:      engine.Plan,
		Local:     localEngine,
		Remote:    remoteClient,
		Sampler:   conditions,
		Artifacts: artifacts,
		Styles:    styles,
		Events:    events,
		Logger:    logger.Logger,
		MaxStyles: cfg.MaxStylesPerRequest,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orchestrator: %w", err)
	}

	fetcher := storage.NewHTTPImageFetcher(cfg.ImageFetchTimeout, cfg.MaxRequestBodySize)
	handler := transport.NewHandler(orchestrator, fetcher, metrics, cfg)

	return &Container{
		config:       cfg,
		artifacts:    artifacts,
		styles:       styles,
		localEngine:  localEngine,
		orchestrator: orchestrator,
		metrics:      metrics,
		handler:      handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Orchestrator returns the processing orchestrator
func (c *Container) Orchestrator() *engine.Orchestrator {
	return c.orchestrator
}

// Close releases engine resources
func (c *Container) Close() {
	c.localEngine.Close()
}
