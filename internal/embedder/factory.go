package embedder

import (
	"fmt"
	"os"
	"strings"

	"github.com/qsearch/qsearch/internal/config"
)

// New creates an embedder for the configured provider. The model and
// dimension come from the workspace config so every component agrees on the
// vector shape.
func New(cfg *config.Config) (Embedder, error) {
	cache := NewCache(defaultCacheSize)

	switch strings.ToLower(cfg.Provider) {
	case ProviderOllama, "":
		return NewOllamaProvider(os.Getenv(EnvOllamaHost), cfg.Model, cfg.Dimension, cache), nil
	case ProviderOpenAI:
		return NewOpenAIProvider(os.Getenv(EnvOpenAIAPIKey), cfg.Model, cfg.Dimension, cache)
	case ProviderMock:
		return NewMock(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}
}
