package provider

import (
	"sort"

	"learning-engine/internal/common/config"
	"learning-engine/internal/common/logger"
)

// Factory builds and selects providers from configuration.
type Factory struct {
	providers map[string]Provider
	def       string
	logger    logger.Logger
}

func NewFactory(cfg config.AIConfig, log logger.Logger) *Factory {
	providers := make(map[string]Provider, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		switch name {
		case "openai":
			providers[name] = NewOpenAI(pc)
		case "gemini":
			providers[name] = NewGemini(pc)
		case "anthropic":
			providers[name] = NewAnthropic(pc)
		case "cohere":
			providers[name] = NewCohere(pc)
		default:
			log.Warn("unknown provider in configuration, skipping", map[string]interface{}{
				"provider": name,
			})
		}
	}

	return &Factory{
		providers: providers,
		def:       cfg.DefaultProvider,
		logger:    log.WithFields(map[string]interface{}{"component": "provider-factory"}),
	}
}

// Get returns the named provider, or nil if not configured.
func (f *Factory) Get(name string) Provider {
	return f.providers[name]
}

// Default returns the configured default provider. If the default is
// disabled, the first enabled provider (by name, for determinism) is used;
// if nothing is enabled the disabled default is still returned so callers
// always hold a concrete provider.
func (f *Factory) Default() Provider {
	def := f.providers[f.def]
	if def != nil && def.Enabled() {
		return def
	}

	names := make([]string, 0, len(f.providers))
	for name := range f.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if p := f.providers[name]; p.Enabled() {
			f.logger.Info("configured default provider disabled, using fallback", map[string]interface{}{
				"default":  f.def,
				"fallback": name,
			})
			return p
		}
	}
	if def == nil && len(names) > 0 {
		return f.providers[names[0]]
	}
	return def
}

// AnyEnabled reports whether at least one provider is enabled.
func (f *Factory) AnyEnabled() bool {
	for _, p := range f.providers {
		if p.Enabled() {
			return true
		}
	}
	return false
}
