package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coinlens/coinlens/internal/config"
	"github.com/coinlens/coinlens/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display environment, configuration, and version information.",
	Run: func(cmd *cobra.Command, args []string) {
		version := crucible.GetVersion()
		log := observability.CLILogger

		log.Info("=== Environment Information ===")
		log.Info("")

		// Application Info
		identity := GetAppIdentity()
		log.Info("Application:")
		log.Info("  Name:       " + identity.BinaryName)
		log.Info("  Version:    " + versionInfo.Version)
		log.Info("  Commit:     " + versionInfo.Commit)
		log.Info("  Built:      " + versionInfo.BuildDate)
		log.Info("")

		// SSOT Info
		log.Info("SSOT:")
		log.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		log.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		log.Info("")

		// Runtime Info
		log.Info("Runtime:")
		log.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		log.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		log.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		log.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		log.Info("")

		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return
		}

		// Configuration
		log.Info("Configuration:")
		log.Info("  Server Host:    "+cfg.Server.Host, zap.String("host", cfg.Server.Host))
		log.Info(fmt.Sprintf("  Server Port:    %d", cfg.Server.Port), zap.Int("port", cfg.Server.Port))
		log.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		log.Info("  Log Profile:    "+cfg.Logging.Profile, zap.String("log_profile", cfg.Logging.Profile))
		log.Info(fmt.Sprintf("  Metrics Port:   %d", cfg.Metrics.Port), zap.Int("metrics_port", cfg.Metrics.Port))
		configPath := config.DefaultConfigPath(cmd.Context())
		log.Info("  Config File:    "+configPath, zap.String("config_file", configPath))
		log.Info("")

		// Estimation
		log.Info("Estimation:")
		log.Info("  Timeout:        " + cfg.Estimate.Timeout.String())
		log.Info("  Max Image:      " + formatFileSize(int64(cfg.Estimate.MaxImageBytes)))
		log.Info(fmt.Sprintf("  Max Edge:       %dpx", cfg.Estimate.MaxImageEdge))
		log.Info(fmt.Sprintf("  Max Pixels:     %d", cfg.Estimate.MaxImagePixels))
		log.Info("  Prompt Role:    " + estimationRole(cfg))
		if cfg.Estimate.Model != "" {
			log.Info("  Model Override: " + cfg.Estimate.Model)
		}
		log.Info("")

		// AILink Provider Configuration
		log.Info("AILink:")
		log.Info("  Default Provider: " + cfg.AILink.DefaultProvider)
		log.Info("  Default Timeout:  " + cfg.AILink.DefaultTimeout.String())
		providerID := strings.TrimSpace(cfg.AILink.DefaultProvider)
		if providerID == "" {
			providerID = "(unset)"
		}
		providerCfg, ok := cfg.AILink.Providers[providerID]
		if !ok {
			log.Info(fmt.Sprintf("  %s: (not configured)", providerID))
		} else {
			log.Info(fmt.Sprintf("  %s.enabled: %t", providerID, providerCfg.Enabled))
			log.Info(fmt.Sprintf("  %s.ai_provider: %s", providerID, providerCfg.AIProvider))
			log.Info(fmt.Sprintf("  %s.base_url: %s", providerID, providerCfg.BaseURL))
			log.Info(fmt.Sprintf("  %s.model: %s", providerID, providerCfg.Models["default"]))
			if len(providerCfg.Credentials) > 0 && strings.TrimSpace(providerCfg.Credentials[0].APIKey) != "" {
				log.Info(fmt.Sprintf("  %s.credentials[0].api_key: (set)", providerID))
			} else {
				log.Info(fmt.Sprintf("  %s.credentials[0].api_key: (not set)", providerID))
			}
		}
		log.Info("")

		log.Info("=== End Environment Information ===")
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
