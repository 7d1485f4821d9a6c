package engine

import (
	"log/slog"

	"github.com/minimem/minimem/internal/config"
	"github.com/minimem/minimem/internal/embed"
)

// resolveProvider implements §7's ProviderError fallback rule: an
// unconfigured or unrecognized provider degrades to "none" (keyword-
// only search) with a warning rather than failing the engine.
// Concrete remote providers (OpenAI, Gemini) are out of scope per the
// spec's Non-goals; "static" is the deterministic in-process provider
// used for keyword-presence-style testing and local-only setups.
func resolveProvider(cfg config.EngineConfig) embed.Provider {
	var base embed.Provider
	switch cfg.ProviderID {
	case "", "none":
		base = embed.None{}
	case "static":
		base = embed.NewStatic()
	default:
		slog.Warn("engine_unknown_provider_falling_back_to_none", slog.String("providerId", cfg.ProviderID))
		base = embed.None{}
	}
	if base.ID() == "none" {
		return base
	}
	size := cfg.CacheLRUSize
	return embed.NewCached(base, size)
}
