package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coinlens/coinlens/internal/ailink/prompt"
	"github.com/coinlens/coinlens/internal/config"
	"github.com/coinlens/coinlens/internal/observability"
)

// doctorCheck is one diagnostic line. Checks never touch the network.
type doctorCheck struct {
	name string
	run  func(*doctorState) (string, error)
	// warnOnly checks report but never fail the run.
	warnOnly bool
}

type doctorState struct {
	ctx     context.Context
	cfg     *config.Config
	prompts prompt.Registry
}

var doctorChecks = []doctorCheck{
	{name: "Go version", warnOnly: true, run: func(*doctorState) (string, error) {
		v := runtime.Version()
		if v < "go1.23" {
			return v, fmt.Errorf("%s (recommended: go1.23+)", v)
		}
		return v, nil
	}},
	{name: "Gofulmen/Crucible", run: func(*doctorState) (string, error) {
		version := crucible.GetVersion()
		if version.Gofulmen == "" || version.Crucible == "" {
			return "", fmt.Errorf("version metadata unavailable")
		}
		return fmt.Sprintf("gofulmen v%s, crucible v%s", version.Gofulmen, version.Crucible), nil
	}},
	{name: "config directory", warnOnly: true, run: func(s *doctorState) (string, error) {
		path := config.DefaultConfigPath(s.ctx)
		if path == "" {
			return "", fmt.Errorf("cannot resolve config directory")
		}
		return fmt.Sprintf("%s (%s)", path, existenceStatus(fileExists(path))), nil
	}},
	{name: "configuration", run: func(s *doctorState) (string, error) {
		cfg, err := loadConfig(s.ctx)
		if err != nil {
			return "", err
		}
		s.cfg = cfg
		return "valid", nil
	}},
	{name: "prompts", run: func(s *doctorState) (string, error) {
		if s.cfg == nil {
			return "", fmt.Errorf("skipped (config not loaded)")
		}
		registry, err := prompt.LoadRegistry(s.cfg.AILink.PromptsDir)
		if err != nil {
			return "", err
		}
		s.prompts = registry
		if err := promptsHealthCheck(registry)(s.ctx); err != nil {
			return "", err
		}
		return fmt.Sprintf("%d loaded", len(registry.List())), nil
	}},
	{name: "estimation provider", run: func(s *doctorState) (string, error) {
		if s.cfg == nil || s.prompts == nil {
			return "", fmt.Errorf("skipped (config or prompts not loaded)")
		}
		resolved, err := checkProviderResolution(s.cfg, s.prompts)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s (%s, model %s)", resolved.ProviderID, resolved.Provider.AIProvider, resolved.Model), nil
	}},
	{name: "estimate limits", run: func(s *doctorState) (string, error) {
		if s.cfg == nil {
			return "", fmt.Errorf("skipped (config not loaded)")
		}
		e := s.cfg.Estimate
		return fmt.Sprintf("timeout %s, max image %s, max edge %dpx, max %d pixels",
			e.Timeout, formatFileSize(int64(e.MaxImageBytes)), e.MaxImageEdge, e.MaxImagePixels), nil
	}},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long:  "Check configuration, prompts and provider resolution. No network calls are made.",
	RunE: func(cmd *cobra.Command, args []string) error {
		identity := GetAppIdentity()
		bannerName := "doctor"
		if identity != nil && identity.BinaryName != "" {
			bannerName = identity.BinaryName + " doctor"
		}
		observability.CLILogger.Info("=== " + bannerName + " ===")
		observability.CLILogger.Info("")

		failures := runDoctorChecks(&doctorState{ctx: cmd.Context()})

		observability.CLILogger.Info("")
		if failures > 0 {
			observability.CLILogger.Warn(fmt.Sprintf("⚠️  %d check(s) failed. Review the output above for details.", failures))
			return fmt.Errorf("%w: %d doctor check(s) failed", config.ErrInvalid, failures)
		}
		observability.CLILogger.Info("✅ All checks passed")
		return nil
	},
}

func runDoctorChecks(state *doctorState) int {
	failures := 0
	total := len(doctorChecks)
	for i, check := range doctorChecks {
		label := fmt.Sprintf("[%d/%d] Checking %s...", i+1, total, check.name)
		detail, err := check.run(state)
		switch {
		case err == nil:
			observability.CLILogger.Info(fmt.Sprintf("%s ✅ %s", label, detail))
		case check.warnOnly:
			observability.CLILogger.Warn(fmt.Sprintf("%s ⚠️  %v", label, err))
		default:
			observability.CLILogger.Error(fmt.Sprintf("%s ❌ %v", label, err), zap.String("check", check.name))
			failures++
		}
	}
	return failures
}

var doctorInitForce bool

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath(cmd.Context())
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}

		if _, err := os.Stat(configPath); err == nil && !doctorInitForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(buildInitConfig()), 0644); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		observability.CLILogger.Info("Config initialized", zap.String("path", configPath))
		return nil
	},
}

var doctorConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration status and paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath(cmd.Context())
		observability.CLILogger.Info("Configuration:")
		observability.CLILogger.Info(fmt.Sprintf("  Config file:    %s (%s)", configPath, existenceStatus(fileExists(configPath))))
		for _, path := range envFiles() {
			observability.CLILogger.Info(fmt.Sprintf("  Env file:       %s (%s)", path, existenceStatus(fileExists(path))))
		}
		observability.CLILogger.Info(fmt.Sprintf("  %s: %s", config.GeminiAPIKeyEnv, envStatus(config.GeminiAPIKeyEnv)))

		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}
		observability.CLILogger.Info(fmt.Sprintf("  Default provider: %s", cfg.AILink.DefaultProvider))
		observability.CLILogger.Info(fmt.Sprintf("  Prompt role:      %s", estimationRole(cfg)))
		if dir := strings.TrimSpace(cfg.AILink.PromptsDir); dir != "" {
			observability.CLILogger.Info(fmt.Sprintf("  Prompts dir:      %s (%s)", dir, existenceStatus(fileExists(dir))))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorInitCmd)
	doctorCmd.AddCommand(doctorConfigCmd)

	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "overwrite existing config file")
}

// formatFileSize returns a human-readable file size
func formatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

// buildInitConfig renders a starter config. The API key stays in the environment.
func buildInitConfig() string {
	lines := []string{
		"# coinlens config - created by 'coinlens doctor init'",
		"estimate:",
		"  timeout: 60s",
		"  max_image_edge: 1024",
		"  max_image_pixels: 40000000",
		"ailink:",
		"  default_provider: " + config.DefaultProviderID,
		"  providers:",
		"    " + config.DefaultProviderID + ":",
		"      enabled: true",
		"      ai_provider: gemini",
		"      models:",
		"        default: " + config.DefaultModel,
		"      credentials:",
		"        - label: default",
		"          enabled: true",
		"          # api_key: \"\"  # or set " + config.GeminiAPIKeyEnv,
		"  routing:",
		"    coin-estimate: " + config.DefaultProviderID,
	}
	return strings.Join(lines, "\n") + "\n"
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func existenceStatus(exists bool) string {
	if exists {
		return "exists"
	}
	return "missing"
}

func envStatus(name string) string {
	if strings.TrimSpace(os.Getenv(name)) != "" {
		return "(set)"
	}
	return "(not set)"
}
