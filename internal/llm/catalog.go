package llm

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ModelInfo describes one selectable model.
type ModelInfo struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// Catalog maps a provider name to the models it offers.
type Catalog struct {
	Providers map[string][]ModelInfo `yaml:"providers"`
}

// DefaultCatalog is used when no catalog file is configured.
func DefaultCatalog() *Catalog {
	return &Catalog{Providers: map[string][]ModelInfo{
		"google": {
			{ID: "gemini-2.5-flash-lite", Name: "Gemini 2.5 Flash Lite", Description: "Lightweight, fast model"},
			{ID: "gemini-2.0-flash-exp", Name: "Gemini 2.0 Flash (Experimental)", Description: "Latest experimental model"},
			{ID: "gemini-2.0-flash-lite", Name: "Gemini 2.0 Flash Lite", Description: "Lightweight, fast model"},
			{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Description: "Most capable model"},
			{ID: "gemini-1.5-flash", Name: "Gemini 1.5 Flash", Description: "Fast and efficient"},
		},
	}}
}

// LoadCatalog reads a YAML catalog file. An empty path returns the default
// catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing model catalog: %w", err)
	}
	if len(c.Providers) == 0 {
		return nil, fmt.Errorf("model catalog %s lists no providers", path)
	}
	return &c, nil
}

// Models returns the models for a provider, or an empty slice when the
// provider is unknown.
func (c *Catalog) Models(provider string) []ModelInfo {
	return c.Providers[provider]
}

// Has reports whether the catalog lists the given model under the provider.
func (c *Catalog) Has(provider, modelID string) bool {
	for _, m := range c.Providers[provider] {
		if m.ID == modelID {
			return true
		}
	}
	return false
}
