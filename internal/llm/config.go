// Package llm wraps the model provider used to write replacement quiz
// questions for duplicates.
package llm

import (
	"fmt"
	"strings"
)

// ModelTier selects a model by cost and capability.
type ModelTier string

const (
	TierLite     ModelTier = "lite"
	TierStandard ModelTier = "standard"
	TierAdvanced ModelTier = "advanced"
)

// ParseTier accepts a tier name in any case. An empty name is TierStandard.
func ParseTier(name string) (ModelTier, error) {
	switch tier := ModelTier(strings.ToLower(strings.TrimSpace(name))); tier {
	case "":
		return TierStandard, nil
	case TierLite, TierStandard, TierAdvanced:
		return tier, nil
	default:
		return "", &ConfigError{Message: fmt.Sprintf("unknown model tier %q", name)}
	}
}

// Provider names a model backend.
type Provider string

const ProviderGemini Provider = "gemini"

// DefaultTemperature keeps generated questions close to the lesson material.
const DefaultTemperature float32 = 0.4

// Config maps tiers to model names for one provider.
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32
}

// DefaultConfig returns the Gemini tier mapping.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Temperature: DefaultTemperature,
	}
}

// GetModel returns the model for tier. A tier with no model falls back to
// the standard model and then the lite one; "" means nothing is configured.
func (c *Config) GetModel(tier ModelTier) string {
	for _, t := range []ModelTier{tier, TierStandard, TierLite} {
		if model := c.Models[t]; model != "" {
			return model
		}
	}
	return ""
}

// WithModel returns a copy of c that uses model for tier.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	out := *c
	out.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		out.Models[k] = v
	}
	out.Models[tier] = model
	return &out
}
