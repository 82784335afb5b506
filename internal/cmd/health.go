package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coinlens/coinlens/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Run a self-health check to verify the application can start successfully.",
	RunE: func(cmd *cobra.Command, args []string) error {
		observability.CLILogger.Info("Running health check...")

		// Check 1: Version info available
		if versionInfo.Version == "" {
			observability.CLILogger.Error("❌ FAIL: Version information missing")
			return fmt.Errorf("version information missing")
		}
		observability.CLILogger.Debug("Version check passed", zap.String("version", versionInfo.Version))
		observability.CLILogger.Info("✅ Version information available")

		// Check 2: Configuration loads and validates
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			observability.CLILogger.Error("❌ FAIL: Configuration invalid", zap.Error(err))
			return err
		}
		observability.CLILogger.Info("✅ Configuration valid")

		// Check 3: Estimation stack builds
		stack, err := buildEstimationStack(cfg, observability.CLILogger)
		if err != nil {
			observability.CLILogger.Error("❌ FAIL: Estimation service", zap.Error(err))
			return err
		}
		if err := promptsHealthCheck(stack.Prompts)(cmd.Context()); err != nil {
			observability.CLILogger.Error("❌ FAIL: Prompts", zap.Error(err))
			return err
		}
		observability.CLILogger.Info("✅ Estimation service ready")

		// Overall status
		observability.CLILogger.Info("")
		observability.CLILogger.Info("✅ All health checks passed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
