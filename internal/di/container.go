package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"app-deployer/internal/adapter/httpapi"
	"app-deployer/internal/application/port/input"
	"app-deployer/internal/application/port/output"
	"app-deployer/internal/infrastructure/callback"
	"app-deployer/internal/infrastructure/config"
	"app-deployer/internal/infrastructure/hosting"
	"app-deployer/internal/infrastructure/hosting/github"
	"app-deployer/internal/infrastructure/hosting/memhost"
	"app-deployer/internal/infrastructure/llm/langchain"
	"app-deployer/internal/infrastructure/llm/openrouter"
	"app-deployer/internal/infrastructure/logger"
	"app-deployer/internal/infrastructure/registry"
	"app-deployer/internal/infrastructure/telemetry"
	"app-deployer/internal/usecase/generator"
	"app-deployer/internal/usecase/notifier"
	"app-deployer/internal/usecase/pipeline"
	"app-deployer/internal/usecase/publisher"
)

const (
	ServiceName = "app-deployer"
	Version     = "1.0.0"
)

type Container struct {
	Config   config.Config
	Logger   output.LoggerPort
	Pipeline input.PipelineRunner
	Handler  http.Handler

	closers []func(context.Context) error
}

func NewContainer(ctx context.Context, cfg config.Config) (*Container, error) {
	log, err := logger.NewLoggerAdapter(logger.Config{Level: cfg.Log.Level, Dir: cfg.Log.Dir, Name: "deployer"})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	c := &Container{Config: cfg, Logger: log}

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    ServiceName,
		ServiceVersion: Version,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to init telemetry: %w", err)
	}
	c.closers = append(c.closers, shutdownTracing)

	backend, err := newGenerationBackend(cfg.LLM, log)
	if err != nil {
		c.Close(ctx)
		return nil, err
	}

	deployments, err := newRegistry(ctx, cfg.Database, log)
	if err != nil {
		c.Close(ctx)
		return nil, err
	}
	if closer, ok := deployments.(interface{ Close() error }); ok {
		c.closers = append(c.closers, func(context.Context) error { return closer.Close() })
	}

	genCfg := generator.DefaultConfig(cfg.LLM.Model)
	genCfg.Temperature = float32(cfg.LLM.Temperature)
	genCfg.MaxTokens = cfg.LLM.MaxTokens
	genCfg.Timeout = cfg.LLM.Timeout
	gen := generator.New(backend, generator.DefaultBuilders(), log.WithField("component", "generator"), genCfg)

	pubCfg := publisher.DefaultConfig()
	pubCfg.NamePrefix = cfg.Publish.NamePrefix
	pubCfg.MaxAttempts = cfg.Publish.RetryAttempts
	pubCfg.RetryDelay = cfg.Publish.RetryDelay
	pubCfg.OutputDir = cfg.Publish.OutputDir
	pub := publisher.New(newHosting(cfg.GitHub, log), log.WithField("component", "publisher"), pubCfg)

	cb := callback.NewClient(&http.Client{}, log.WithField("component", "callback"))
	notify := notifier.New(cb, log.WithField("component", "notifier"), cfg.Notify.Timeout)

	c.Pipeline = pipeline.New(gen, pub, notify, deployments, log, pipeline.Config{SharedSecret: cfg.Server.SharedSecret})

	handler := httpapi.NewHandler(c.Pipeline, log.WithField("component", "http"), httpapi.Config{
		Version:         Version,
		PipelineTimeout: cfg.Server.PipelineTimeout,
	})
	c.Handler = httpapi.NewRouter(handler, httpapi.RouterConfig{ServiceName: ServiceName, AccessLog: true})

	log.Info("Container ready",
		"llmProvider", cfg.LLM.Provider,
		"generationBackend", backend != nil,
		"hostingProvider", cfg.GitHub.Provider,
		"persistentRegistry", cfg.Database.URL != "")
	return c, nil
}

// newGenerationBackend returns nil when no API key is configured; the
// generator then relies on deterministic builders and the fallback page.
func newGenerationBackend(cfg config.LLMConfig, log output.LoggerPort) (output.GenerationBackend, error) {
	if cfg.APIKey == "" {
		log.Warn("No LLM API key configured, generation limited to built-in templates")
		return nil, nil
	}

	switch cfg.Provider {
	case config.ProviderLangchain:
		adapter, err := langchain.New(langchain.Config{
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
			Timeout: cfg.Timeout,
		}, log.WithField("component", "langchain"))
		if err != nil {
			return nil, fmt.Errorf("failed to create langchain backend: %w", err)
		}
		return adapter, nil
	default:
		llmCfg := openrouter.DefaultConfig(cfg.APIKey, cfg.Model)
		llmCfg.BaseURL = cfg.BaseURL
		llmCfg.Timeout = cfg.Timeout
		llmCfg.Logger = log.WithField("component", "openrouter")
		return openrouter.NewOpenRouterAdapter(llmCfg), nil
	}
}

// newHosting returns nil when no provider can be built, which makes every
// publish degrade to local output.
func newHosting(cfg config.GitHubConfig, log output.LoggerPort) output.HostingPort {
	if cfg.Provider == config.ProviderMemory {
		log.Warn("Using in-memory hosting, resources are not published remotely")
		owner := cfg.Username
		if owner == "" {
			owner = "local"
		}
		return memhost.New(owner)
	}

	if cfg.Token == "" {
		log.Warn("No GitHub token configured, publishing to local output only")
		return nil
	}

	ghCfg := github.DefaultConfig(cfg.Token)
	ghCfg.Owner = cfg.Username
	ghCfg.BaseURL = cfg.APIURL
	ghCfg.Timeout = cfg.Timeout
	ghCfg.EnablePages = cfg.EnablePages
	ghLog := log.WithField("component", "github")

	return hosting.NewLazy(func() (output.HostingPort, error) {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		adapter, err := github.New(ctx, ghCfg, ghLog)
		if err != nil {
			ghLog.Error("GitHub client unavailable", "error", err)
			return nil, err
		}
		return adapter, nil
	})
}

func newRegistry(ctx context.Context, cfg config.DatabaseConfig, log output.LoggerPort) (output.DeploymentRegistry, error) {
	if cfg.URL == "" {
		return registry.NewMemory(), nil
	}
	pg, err := registry.OpenPostgres(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open deployment registry: %w", err)
	}
	log.Info("Deployment registry connected")
	return pg, nil
}

func (c *Container) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Logger != nil {
		_ = c.Logger.Close()
	}
	return errors.Join(errs...)
}
