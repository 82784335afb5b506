package config

import (
	"github.com/spf13/viper"
)

// DefaultModel is the model used by the built-in gemini provider.
const DefaultModel = "gemini-1.5-flash-latest"

// DefaultProviderID names the built-in gemini provider instance.
const DefaultProviderID = "gemini"

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "90s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 16<<20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// Health check defaults
	v.SetDefault("health.enabled", true)

	// Debug defaults
	v.SetDefault("debug.enabled", false)
	v.SetDefault("debug.pprof_enabled", false)

	// Estimation defaults
	v.SetDefault("estimate.timeout", "60s")
	v.SetDefault("estimate.max_image_bytes", 8<<20)
	v.SetDefault("estimate.max_image_edge", 1024)
	v.SetDefault("estimate.max_image_pixels", 40_000_000)
	v.SetDefault("estimate.prompt_role", "coin-estimate")
	v.SetDefault("estimate.model", "")

	// AILink defaults
	v.SetDefault("ailink.default_provider", DefaultProviderID)
	v.SetDefault("ailink.default_timeout", "60s")
	v.SetDefault("ailink.prompts_dir", "")
	v.SetDefault("ailink.debug.capture_raw_enabled", false)
	v.SetDefault("ailink.debug.capture_raw_max_bytes", 4096)
	v.SetDefault("ailink.debug.trace_file", "")
	v.SetDefault("ailink.providers", map[string]any{
		DefaultProviderID: map[string]any{
			"enabled":     true,
			"ai_provider": "gemini",
			"models":      map[string]any{"default": DefaultModel},
			"capabilities": map[string]any{
				"images":      true,
				"json_schema": true,
			},
		},
	})
	v.SetDefault("ailink.routing", map[string]any{
		"coin-estimate": DefaultProviderID,
	})
}
