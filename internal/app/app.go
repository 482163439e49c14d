package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/specialistvlad/flowgridgo/internal/config"
	"github.com/specialistvlad/flowgridgo/internal/ctxlog"
	"github.com/specialistvlad/flowgridgo/internal/history"
	"github.com/specialistvlad/flowgridgo/internal/registry"
	"github.com/specialistvlad/flowgridgo/internal/secrets"
)

// App is the assembled engine: loaded flows, registered modules, the run
// history store, and the secret providers, behind the operations the CLI
// and API call.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	registry  *registry.Registry
	config    *config.Model
	converter config.Converter
	cfg       *Config
	store     history.Store
	providers []secrets.Provider

	// runWG tracks background runs started by DispatchAsync so a shutdown
	// can wait for them to drain.
	runWG sync.WaitGroup
}

// NewApp boots the engine: logger first, then flows, then modules, then the
// parity check between manifests and Go handlers. Startup errors panic;
// entrypoints recover and turn them into exit codes, so a broken deployment
// never limps into serving.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)

	var configPaths []string
	if cfg.FlowsPath != "" {
		configPaths = append(configPaths, cfg.FlowsPath)
	}
	if cfg.ModulesPath != "" {
		configPaths = append(configPaths, cfg.ModulesPath)
	}

	cfgModel, converter, err := loader.Load(ctx, configPaths...)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Flow configuration loaded.", "flows", len(cfgModel.Flows))

	// Each module contributes a Go half (handlers) and an HCL half (the
	// embedded manifest); both land before validation.
	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
		manifestName := fmt.Sprintf("%T/manifest.hcl", mod)
		if err := loader.LoadManifest(ctx, manifestName, mod.Manifest(), cfgModel); err != nil {
			panic(fmt.Errorf("failed to load manifest for module %T: %w", mod, err))
		}
	}
	reg.AdoptDefinitions(cfgModel)
	logger.Debug("Modules registered.", "count", len(modules))

	// A manifest that disagrees with its Go struct is a programming error,
	// not an operational one.
	if err := reg.ValidateRegistry(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Manifest parity check passed.")

	store := newStore(cfg, logger)
	providers := newProviders(cfg, logger)

	return &App{
		outW:      outW,
		logger:    logger,
		registry:  reg,
		config:    cfgModel,
		converter: converter,
		cfg:       cfg,
		store:     store,
		providers: providers,
	}
}

// newStore opens the run history backend named by the DSN. An empty DSN keeps
// history in-process only.
func newStore(cfg *Config, logger *slog.Logger) history.Store {
	if cfg.HistoryDSN == "" {
		logger.Debug("No history DSN configured, run history is disabled.")
		return history.NopStore{}
	}
	store, err := history.NewStoreFromDSN(cfg.HistoryDSN)
	if err != nil {
		panic(fmt.Errorf("failed to open history store: %w", err))
	}
	logger.Debug("Run history store opened.", "dsn", cfg.HistoryDSN)
	return store
}

// newProviders builds the secret lookup chain. The process environment always
// comes first; a dotenv file, when configured, acts as a fallback.
func newProviders(cfg *Config, logger *slog.Logger) []secrets.Provider {
	providers := []secrets.Provider{secrets.EnvProvider{}}
	if cfg.EnvFile == "" {
		return providers
	}
	fileProvider, err := secrets.NewFileProvider(cfg.EnvFile)
	if err != nil {
		panic(fmt.Errorf("failed to read env file %s: %w", cfg.EnvFile, err))
	}
	logger.Debug("Dotenv secret provider configured.", "path", cfg.EnvFile)
	return append(providers, fileProvider)
}

// Registry exposes the module registry, mainly for tests.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded configuration model.
func (a *App) Model() *config.Model {
	return a.config
}

// Store returns the run history store.
func (a *App) Store() history.Store {
	return a.store
}

// CheckSecrets reports the pre-flight status of every secret a flow declares,
// without exposing any values.
func (a *App) CheckSecrets(flowName string) ([]secrets.Status, error) {
	flow, ok := a.config.Flow(flowName)
	if !ok {
		return nil, fmt.Errorf("flow %q is not defined", flowName)
	}
	return secrets.Check(flow.SecretKeys, a.providers...), nil
}

// Close releases resources held by the application, such as the history
// store's database handle.
func (a *App) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("Failed to close history store.", "error", err)
	}
}
