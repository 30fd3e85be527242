package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/solodeploy/internal/engine"
	"github.com/danieljhkim/solodeploy/internal/health"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe the application health endpoint",
	Long: `Probe the configured health endpoint once, without the post-launch startup
delay. Exits non-zero when the endpoint is unreachable or returns a non-2xx
status.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, paths, err := loadSetup()
		if err != nil {
			return err
		}
		eng, closer, err := newEngine(cfg, paths)
		if err != nil {
			return err
		}
		defer closer()

		report, err := eng.Health(context.Background())
		if err != nil {
			return err
		}

		if jsonOutput {
			if outErr := outputJSON(report); outErr != nil {
				return outErr
			}
		}

		if report.Status != health.Healthy {
			return fmt.Errorf("%w: %s is unhealthy: %s", engine.ErrHealthCheck, cfg.HealthURL(), report.Detail)
		}
		if !jsonOutput {
			PrintSuccess(fmt.Sprintf("%s is healthy (%d)", cfg.HealthURL(), report.StatusCode))
		}
		return nil
	},
}
