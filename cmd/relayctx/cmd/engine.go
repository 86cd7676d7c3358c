package cmd

import (
	"github.com/WildfireRanch/relayctx/internal/config"
	"github.com/WildfireRanch/relayctx/internal/engine"
	"github.com/WildfireRanch/relayctx/internal/retriever"
	"github.com/WildfireRanch/relayctx/internal/token"
)

// tierBackend is one opened tier backend with its engine wiring.
type tierBackend struct {
	tier      engine.Tier
	retriever retriever.Retriever
	close     func() error
}

// openBackends opens the configured, enabled tier backends under root.
// The returned cleanup closes everything opened so far even on error paths.
func openBackends(root string, cfg config.Config) ([]tierBackend, func(), error) {
	var backends []tierBackend
	cleanup := func() {
		for _, b := range backends {
			if b.close != nil {
				_ = b.close()
			}
		}
	}

	for name, ts := range cfg.Engine.Tiers {
		if !ts.Enabled {
			continue
		}
		tier, err := engine.ParseTier(name)
		if err != nil {
			cleanup()
			return nil, nil, err
		}

		var b tierBackend
		b.tier = tier
		switch ts.Backend {
		case config.BackendSQLite:
			s, err := retriever.NewSQLite(config.IndexPath(root, name, ts.Backend))
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			b.retriever, b.close = s, s.Close
		case config.BackendHNSW:
			h, err := retriever.NewHNSW(retriever.StaticEmbed, retriever.StaticDimensions)
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			b.retriever, b.close = h, h.Close
		default:
			bl, err := retriever.NewBleve(config.IndexPath(root, name, config.BackendBleve))
			if err != nil {
				cleanup()
				return nil, nil, err
			}
			b.retriever, b.close = bl, bl.Close
		}
		backends = append(backends, b)
	}
	return backends, cleanup, nil
}

// buildEngine assembles an engine from the loaded configuration. The
// returned cleanup closes the tier backends.
func buildEngine(root string, cfg config.Config) (*engine.Engine, func(), error) {
	backends, cleanup, err := openBackends(root, cfg)
	if err != nil {
		return nil, nil, err
	}

	retrievers := make(map[engine.Tier]retriever.Retriever, len(backends))
	for _, b := range backends {
		retrievers[b.tier] = b.retriever
	}

	overrides := make(map[engine.Tier]engine.TierConfig, len(cfg.Engine.Tiers))
	for name, ts := range cfg.Engine.Tiers {
		if !ts.Enabled {
			continue
		}
		tier, err := engine.ParseTier(name)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		overrides[tier] = engine.TierConfig{TopK: ts.TopK, MinScore: ts.MinScore}
	}

	eng, err := engine.New(engine.Config{
		Retrievers:    retrievers,
		TierOverrides: overrides,
		DefaultTier: engine.TierConfig{
			TopK:     cfg.Engine.DefaultTier.TopK,
			MinScore: cfg.Engine.DefaultTier.MinScore,
		},
		MaxContextTokens:    cfg.Engine.MaxContextTokens,
		Counter:             buildCounter(cfg),
		IsolateTierFailures: cfg.Engine.IsolateTierFailures,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return eng, cleanup, nil
}

// buildCounter selects the token counter and wraps it with the LRU memo
// unless caching is disabled.
func buildCounter(cfg config.Config) token.Counter {
	var counter token.Counter
	switch cfg.Engine.Counter {
	case config.CounterTiktoken:
		counter = token.NewTiktoken()
	default:
		counter = token.NewHeuristic()
	}
	if cfg.Engine.CounterCache >= 0 {
		if cached, err := token.NewCached(counter, cfg.Engine.CounterCache); err == nil {
			counter = cached
		}
	}
	return counter
}
