package main

import (
	"golang.org/x/time/rate"

	"deepcli/internal/config"
	"deepcli/internal/errors"
	"deepcli/internal/llm"
	"deepcli/internal/logging"
	"deepcli/internal/performance"
	"deepcli/internal/toolmanager"
	"deepcli/internal/tools/builtin"
)

// App wires the application components together. Tools are registered as
// factories so nothing touches the network until a tool actually runs.
type App struct {
	Config  *config.Config
	Logger  logging.Logger
	Monitor *performance.Monitor
	Client  *llm.Client
	Batcher *llm.Batcher
	Manager *toolmanager.Manager
}

// NewApp builds the component graph from the config file at path ("" means
// the default search locations).
func NewApp(path string) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))
	logger := logging.NewComponentLogger("cli")
	monitor := performance.NewMonitor()

	client := llm.NewClient(llm.Config{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}, logging.NewComponentLogger("llm"))

	retry := errors.DefaultRetryConfig()
	if cfg.RetryAttempts > 0 {
		retry.MaxAttempts = cfg.RetryAttempts
	}
	batcher, err := llm.NewBatcher(llm.BatcherConfig{
		MaxBatchSize: cfg.MaxBatchSize,
		BatchTimeout: cfg.BatchTimeout,
		Retry:        retry,
		CacheSize:    cfg.CacheSize,
		CacheTTL:     cfg.CacheTTL,
		RateLimit:    rate.Limit(cfg.RateLimit),
	}, client, logging.NewComponentLogger("batcher"), monitor)
	if err != nil {
		return nil, err
	}

	registry, err := builtin.DefaultRegistry(batcher, client)
	if err != nil {
		return nil, err
	}
	manager := toolmanager.NewManager(registry, logging.NewComponentLogger("toolmanager"), monitor)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Monitor: monitor,
		Client:  client,
		Batcher: batcher,
		Manager: manager,
	}, nil
}
