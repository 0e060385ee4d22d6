package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Sumatoshi-tech/pkglister/internal/config"
	"github.com/Sumatoshi-tech/pkglister/pkg/distreg"
	"github.com/Sumatoshi-tech/pkglister/pkg/observability"
	"github.com/Sumatoshi-tech/pkglister/pkg/stdlib"
	"github.com/Sumatoshi-tech/pkglister/pkg/version"
)

// initObservability builds telemetry providers from the loaded config and
// the persistent flags. Logs go to logOutput.
func initObservability(
	cfg *config.Config,
	globals *GlobalOptions,
	mode observability.AppMode,
	logOutput io.Writer,
) (observability.Providers, error) {
	obsCfg, err := cfg.Telemetry(mode, version.Version)
	if err != nil {
		return observability.Providers{}, err
	}

	obsCfg.LogOutput = logOutput
	obsCfg.LogJSON = obsCfg.LogJSON || globals.LogJSON

	switch {
	case globals.Verbose:
		obsCfg.LogLevel = slog.LevelDebug
		obsCfg.DebugTrace = true
	case globals.Quiet:
		obsCfg.LogLevel = slog.LevelError
	}

	return observability.Init(obsCfg)
}

func shutdownObservability(providers observability.Providers) {
	err := providers.Shutdown(context.Background())
	if err != nil {
		providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

// resolveEnvironment selects the Python version and the distribution
// registry imports are resolved against. Explicit site-packages win over
// probing; a failed probe degrades to an empty registry.
func resolveEnvironment(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (stdlib.Version, *distreg.Registry, error) {
	pyVersion := stdlib.DefaultVersion
	pinned := cfg.Python.Version != ""

	if pinned {
		parsed, err := stdlib.ParseVersion(cfg.Python.Version)
		if err != nil {
			return stdlib.Version{}, nil, err
		}

		pyVersion = parsed
	}

	if len(cfg.Python.SitePackages) > 0 {
		registry, err := distreg.Load(cfg.Python.SitePackages, logger)
		if err != nil {
			return stdlib.Version{}, nil, err
		}

		return pyVersion, registry, nil
	}

	if !cfg.Python.Probe {
		return pyVersion, distreg.Empty(), nil
	}

	env, err := distreg.Probe(ctx, cfg.Python.Interpreter)
	if err != nil {
		logger.Warn("python environment unavailable, third-party imports stay unresolved", "error", err)

		return pyVersion, distreg.Empty(), nil
	}

	registry, err := distreg.Load(env.Paths, logger)
	if err != nil {
		return stdlib.Version{}, nil, fmt.Errorf("load environment of %s: %w", env.Interpreter, err)
	}

	if !pinned {
		pyVersion = env.Version
	}

	logger.Info("resolved python environment",
		"interpreter", env.Interpreter, "version", pyVersion.String(), "distributions", len(registry.Installed()))

	return pyVersion, registry, nil
}
