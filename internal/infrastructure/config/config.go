package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"app-deployer/internal/application/port/output"
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderLangchain  = "langchain"
	ProviderMemory     = "memory"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	GitHub    GitHubConfig    `yaml:"github"`
	Publish   PublishConfig   `yaml:"publish"`
	Notify    NotifyConfig    `yaml:"notify"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	SharedSecret    string        `yaml:"shared_secret"`
	PipelineTimeout time.Duration `yaml:"pipeline_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

type GitHubConfig struct {
	// Provider is "github" or "memory" for dry runs.
	Provider    string        `yaml:"provider"`
	Token       string        `yaml:"token"`
	Username    string        `yaml:"username"`
	APIURL      string        `yaml:"api_url"`
	Timeout     time.Duration `yaml:"timeout"`
	EnablePages bool          `yaml:"enable_pages"`
}

type PublishConfig struct {
	NamePrefix    string        `yaml:"name_prefix"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	OutputDir     string        `yaml:"output_dir"`
}

type NotifyConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8000",
			PipelineTimeout: 10 * time.Minute,
			ShutdownTimeout: 15 * time.Second,
		},
		LLM: LLMConfig{
			Provider:    ProviderOpenRouter,
			BaseURL:     "https://openrouter.ai/api/v1",
			Model:       "arliai/qwq-32b-arliai-rpr-v1:free",
			Temperature: 0.6,
			MaxTokens:   4000,
			Timeout:     2 * time.Minute,
		},
		GitHub: GitHubConfig{
			Provider:    "github",
			APIURL:      "https://api.github.com/",
			Timeout:     30 * time.Second,
			EnablePages: true,
		},
		Publish: PublishConfig{
			NamePrefix:    "llm-app",
			RetryAttempts: 5,
			RetryDelay:    time.Second,
			OutputDir:     "out",
		},
		Notify: NotifyConfig{Timeout: 30 * time.Second},
		Log:    LogConfig{Level: "info", Dir: "log"},
	}
}

// Load starts from Default, applies the YAML file at path when path is not
// empty, then applies environment overrides.
func Load(path string, env output.ConfigPort) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if env != nil {
		cfg.applyEnv(env)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(env output.ConfigPort) {
	c.Server.Host = env.GetWithDefault("HOST", c.Server.Host)
	c.Server.Port = env.GetWithDefault("PORT", c.Server.Port)
	c.Server.SharedSecret = env.GetWithDefault("SHARED_SECRET", c.Server.SharedSecret)
	c.Server.PipelineTimeout = env.GetDuration("PIPELINE_TIMEOUT", c.Server.PipelineTimeout)

	c.LLM.Provider = env.GetWithDefault("LLM_PROVIDER", c.LLM.Provider)
	c.LLM.APIKey = env.GetWithDefault("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = env.GetWithDefault("OPENAI_API_BASE", c.LLM.BaseURL)
	c.LLM.Model = env.GetWithDefault("OPENAI_MODEL", c.LLM.Model)
	c.LLM.Temperature = env.GetFloat("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.MaxTokens = env.GetInt("LLM_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.Timeout = env.GetDuration("LLM_TIMEOUT", c.LLM.Timeout)

	c.GitHub.Provider = env.GetWithDefault("HOSTING_PROVIDER", c.GitHub.Provider)
	c.GitHub.Token = env.GetWithDefault("GITHUB_TOKEN", c.GitHub.Token)
	c.GitHub.Username = env.GetWithDefault("GITHUB_USERNAME", c.GitHub.Username)
	c.GitHub.APIURL = env.GetWithDefault("GITHUB_API_URL", c.GitHub.APIURL)
	c.GitHub.EnablePages = env.GetBool("GITHUB_ENABLE_PAGES", c.GitHub.EnablePages)

	c.Publish.RetryAttempts = env.GetInt("PUBLISH_RETRY_ATTEMPTS", c.Publish.RetryAttempts)
	c.Publish.RetryDelay = env.GetDuration("PUBLISH_RETRY_DELAY", c.Publish.RetryDelay)
	c.Publish.OutputDir = env.GetWithDefault("OUTPUT_DIR", c.Publish.OutputDir)

	c.Notify.Timeout = env.GetDuration("NOTIFY_TIMEOUT", c.Notify.Timeout)

	c.Log.Level = env.GetWithDefault("LOG_LEVEL", c.Log.Level)
	c.Log.Dir = env.GetWithDefault("LOG_DIR", c.Log.Dir)

	c.Database.URL = env.GetWithDefault("DATABASE_URL", c.Database.URL)
	c.Telemetry.OTLPEndpoint = env.GetWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", c.Telemetry.OTLPEndpoint)
}

func (c Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case ProviderOpenRouter, ProviderLangchain:
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	switch c.GitHub.Provider {
	case "github", ProviderMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown hosting provider %q", c.GitHub.Provider))
	}
	if c.Publish.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("publish.retry_attempts must be at least 1, got %d", c.Publish.RetryAttempts))
	}
	if c.Publish.RetryDelay < 0 {
		errs = append(errs, errors.New("publish.retry_delay must not be negative"))
	}
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	return errors.Join(errs...)
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, c.Server.Port)
}

// HasGenerationBackend reports whether a credential for the completion
// service is configured.
func (c Config) HasGenerationBackend() bool {
	return c.LLM.APIKey != ""
}
