// Package main provides runtime assembly for decision runs.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vinayprograms/agentkit/llm"
	"github.com/vinayprograms/agentkit/logging"
	"github.com/vinayprograms/agentkit/telemetry"

	"github.com/guangxiangdebizi/tradingagents/internal/config"
	"github.com/guangxiangdebizi/tradingagents/internal/events"
	"github.com/guangxiangdebizi/tradingagents/internal/graph"
	"github.com/guangxiangdebizi/tradingagents/internal/marketdata"
	"github.com/guangxiangdebizi/tradingagents/internal/reasoning"
	"github.com/guangxiangdebizi/tradingagents/internal/roles"
	"github.com/guangxiangdebizi/tradingagents/internal/session"
	"github.com/guangxiangdebizi/tradingagents/internal/snapshot"
	"github.com/guangxiangdebizi/tradingagents/internal/supervisor"
)

// runtime assembles the components a command needs to execute runs.
type runtime struct {
	cfg *config.Config

	// Components
	quick     llm.Provider
	deep      llm.Provider
	gateway   *reasoning.Gateway
	catalog   *roles.Catalog
	executor  *graph.StageExecutor
	collector *marketdata.Collector
	journals  *session.FileStore
	snapshots *snapshot.Store
	publisher events.Publisher
	telem     telemetry.Exporter
	sup       *supervisor.Supervisor

	// Progress sink for interactive commands; nil when quiet.
	progress io.Writer

	// Storage
	storagePath string

	// Cleanup
	closers []func()
}

// newRuntime creates a runtime from loaded configuration.
func newRuntime(cfg *config.Config) *runtime {
	return &runtime{
		cfg:         cfg,
		storagePath: cfg.StoragePath(),
	}
}

// setup initializes all runtime components. Returns error on failure.
func (rt *runtime) setup() error {
	if err := os.MkdirAll(rt.storagePath, 0755); err != nil {
		return fmt.Errorf("creating storage directory: %w", err)
	}

	if err := rt.createProviders(); err != nil {
		return err
	}
	if err := rt.loadCatalog(); err != nil {
		return err
	}
	rt.createGateway()
	rt.createExecutor()
	rt.setupMarketData()
	if err := rt.setupStores(); err != nil {
		return err
	}
	if err := rt.setupEvents(); err != nil {
		return err
	}
	if err := rt.setupTelemetry(); err != nil {
		return err
	}
	rt.createSupervisor()
	return nil
}

// createProviders creates the quick and deep tier model providers. A
// config without a [deep_llm] section runs both tiers on one provider.
func (rt *runtime) createProviders() error {
	var err error
	rt.quick, err = buildProvider(rt.cfg.LLM, rt.cfg.GetAPIKey())
	if err != nil {
		return fmt.Errorf("creating quick-tier provider: %w", err)
	}

	deepCfg := rt.cfg.GetDeepLLM()
	if deepCfg.Provider == rt.cfg.LLM.Provider && deepCfg.Model == rt.cfg.LLM.Model && deepCfg.BaseURL == rt.cfg.LLM.BaseURL {
		rt.deep = rt.quick
		return nil
	}
	rt.deep, err = buildProvider(deepCfg, rt.cfg.GetDeepAPIKey())
	if err != nil {
		return fmt.Errorf("creating deep-tier provider: %w", err)
	}
	return nil
}

// buildProvider creates one LLM provider from a config tier.
func buildProvider(tier config.LLMConfig, envKey string) (llm.Provider, error) {
	providerName := tier.Provider
	if providerName == "" {
		providerName = llm.InferProviderFromModel(tier.Model)
	}
	if providerName == "" && tier.Model == "" {
		return nil, fmt.Errorf("model not configured")
	}

	return llm.NewProvider(llm.ProviderConfig{
		Provider:    providerName,
		Model:       tier.Model,
		APIKey:      resolveAPIKey(providerName, envKey),
		MaxTokens:   tier.MaxTokens,
		BaseURL:     tier.BaseURL,
		RetryConfig: parseRetryConfig(tier.MaxRetries, tier.RetryBackoff),
	})
}

// loadCatalog builds the role catalog, applying prompt overrides when
// a roles directory is configured.
func (rt *runtime) loadCatalog() error {
	rt.catalog = roles.NewCatalog()
	if dir := rt.cfg.Trading.RolesDir; dir != "" {
		if err := rt.catalog.LoadOverrides(dir); err != nil {
			return fmt.Errorf("loading role overrides: %w", err)
		}
	}
	return nil
}

// createGateway wraps the providers with the shared limiter, per-call
// timeout, and retry policy.
func (rt *runtime) createGateway() {
	rt.gateway = reasoning.NewGateway(reasoning.GatewayConfig{
		Quick:       rt.quick,
		Deep:        rt.deep,
		Limiter:     reasoning.NewLimiter(rt.cfg.Limits.MaxConcurrent),
		CallTimeout: rt.cfg.LLM.GetCallTimeout(),
		MaxRetries:  rt.cfg.LLM.MaxRetries,
		InitBackoff: rt.cfg.LLM.GetRetryBackoff(),
		Logger:      logging.New().WithComponent("reasoning"),
	})
}

// createExecutor creates the stage executor.
func (rt *runtime) createExecutor() {
	rt.executor = graph.NewStageExecutor(rt.gateway, rt.catalog, logging.New().WithComponent("graph"))
}

// setupMarketData selects the market data provider and collector.
func (rt *runtime) setupMarketData() {
	var provider marketdata.Provider
	switch rt.cfg.Data.Kind {
	case "fixtures":
		provider = marketdata.NewFixtureProvider(rt.cfg.Data.FixturesDir)
	default:
		provider = marketdata.NewHTTPProvider(rt.cfg.Data.BaseURL, rt.cfg.GetDataAPIKey())
	}
	timeout := time.Duration(rt.cfg.Data.Timeout) * time.Second
	rt.collector = marketdata.NewCollector(provider, timeout, logging.New().WithComponent("marketdata"))
}

// setupStores opens the journal and snapshot stores under the storage root.
func (rt *runtime) setupStores() error {
	journals, err := session.NewFileStore(filepath.Join(rt.storagePath, "journals"))
	if err != nil {
		return fmt.Errorf("opening journal store: %w", err)
	}
	rt.journals = journals

	snapshots, err := snapshot.NewStore(filepath.Join(rt.storagePath, "snapshots"))
	if err != nil {
		return fmt.Errorf("opening snapshot store: %w", err)
	}
	rt.snapshots = snapshots
	return nil
}

// setupEvents connects the NATS publisher when a broker is configured.
func (rt *runtime) setupEvents() error {
	if !rt.cfg.Events.Enabled {
		rt.publisher = events.Nop{}
		return nil
	}
	pub, err := events.NewNATSPublisher(rt.cfg.Events.URL, rt.cfg.Events.Prefix)
	if err != nil {
		return fmt.Errorf("connecting event broker: %w", err)
	}
	rt.publisher = pub
	rt.addCloser(func() { pub.Close() })
	return nil
}

// setupTelemetry creates the telemetry exporter.
func (rt *runtime) setupTelemetry() error {
	var err error
	if rt.cfg.Telemetry.Enabled {
		rt.telem, err = telemetry.NewExporter(rt.cfg.Telemetry.Protocol, rt.cfg.Telemetry.Endpoint)
		if err != nil {
			return fmt.Errorf("creating telemetry exporter: %w", err)
		}
	} else {
		rt.telem = telemetry.NewNoopExporter()
	}
	rt.addCloser(func() { rt.telem.Close() })
	return nil
}

// createSupervisor assembles the run supervisor. When a progress sink
// is attached, run events are mirrored to it on their way out.
func (rt *runtime) createSupervisor() {
	publisher := rt.publisher
	if rt.progress != nil {
		publisher = &progressTee{next: publisher, out: rt.progress, telem: rt.telem}
	}
	rt.sup = supervisor.New(supervisor.Config{
		Executor:  rt.executor,
		Collector: rt.collector,
		Journals:  rt.journals,
		Snapshots: rt.snapshots,
		Events:    publisher,
		Logger:    logging.New().WithComponent("supervisor"),
	})
}

// cleanup runs all registered cleanup functions.
func (rt *runtime) cleanup() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// addCloser registers a cleanup function.
func (rt *runtime) addCloser(fn func()) {
	rt.closers = append(rt.closers, fn)
}
