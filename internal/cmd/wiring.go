package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/logging"

	"github.com/coinlens/coinlens/internal/ailink"
	"github.com/coinlens/coinlens/internal/ailink/prompt"
	"github.com/coinlens/coinlens/internal/config"
	"github.com/coinlens/coinlens/internal/estimate"
	"github.com/coinlens/coinlens/internal/observability"
)

// estimationStack is everything an estimate needs, built from config.
type estimationStack struct {
	Prompts  prompt.Registry
	AILink   *ailink.Service
	Estimate *estimate.Service
}

func buildEstimationStack(cfg *config.Config, logger *logging.Logger) (*estimationStack, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		logger = observability.Active()
	}
	prompts, err := prompt.LoadRegistry(cfg.AILink.PromptsDir)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	ai := ailink.NewService(cfg.AILink, prompts)
	svc, err := estimate.NewService(estimate.Options{
		Config:          cfg.Estimate,
		Estimator:       ai,
		Prompts:         prompts,
		Logger:          logger,
		RawCaptureLimit: cfg.AILink.RawCaptureLimit(),
	})
	if err != nil {
		return nil, fmt.Errorf("build estimate service: %w", err)
	}
	return &estimationStack{Prompts: prompts, AILink: ai, Estimate: svc}, nil
}

// estimationRole is the ailink role estimates are routed through.
func estimationRole(cfg *config.Config) string {
	if cfg != nil && cfg.Estimate.PromptRole != "" {
		return cfg.Estimate.PromptRole
	}
	return estimate.AttributesPromptSlug
}

// checkProviderResolution resolves the estimation provider without a network call.
func checkProviderResolution(cfg *config.Config, prompts prompt.Registry) (*ailink.ResolvedProvider, error) {
	p, err := prompts.Get(estimate.AttributesPromptSlug)
	if err != nil {
		return nil, err
	}
	resolved, err := ailink.NewRegistry(cfg.AILink).Resolve(estimationRole(cfg), p, cfg.Estimate.Model)
	if err != nil {
		return nil, err
	}
	if resolved.Credential.APIKey == "" && resolved.Provider.AIProvider == "gemini" {
		return resolved, fmt.Errorf("provider %s has no api key (set %s)", resolved.ProviderID, config.GeminiAPIKeyEnv)
	}
	return resolved, nil
}
