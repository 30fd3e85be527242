package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/solodeploy/internal/engine"
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running application instance",
	Long: `Terminate the instance recorded in the deployment state.

The process gets SIGTERM, a grace period, then SIGKILL if it is still alive.
A recorded pid whose process already died is cleaned up silently.`,
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

		result, err := eng.Stop(context.Background())
		if err != nil {
			if errors.Is(err, engine.ErrNotRunning) {
				if jsonOutput {
					return outputJSON(map[string]bool{"wasRunning": false})
				}
				PrintInfo(fmt.Sprintf("%s is not running", cfg.AppName))
				return nil
			}
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		if result.WasRunning {
			PrintSuccess(fmt.Sprintf("Stopped %s (pid %d)", cfg.AppName, result.PID))
		} else {
			PrintInfo(fmt.Sprintf("%s was already dead (stale pid %d cleared)", cfg.AppName, result.PID))
		}
		return nil
	},
}
