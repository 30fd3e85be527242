package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/solodeploy/internal/engine"
)

var (
	statusProbe        bool
	statusHistoryLimit int
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show deployment status",
	Long: `Display the recorded deployment state for the configured application:
whether an instance is running, which release it serves, and where its
artifacts live. Use --probe for a live health check and --history to list
recent deploys.`,
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

		req := &engine.StatusRequest{
			Probe:        statusProbe,
			HistoryLimit: statusHistoryLimit,
		}

		result, err := eng.Status(context.Background(), req)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintLabelValue("App", result.App)
		if !result.Deployed {
			PrintEmptyState("never deployed")
			return nil
		}

		running := "stopped"
		if result.Running {
			running = fmt.Sprintf("running (pid %d)", result.PID)
		}
		PrintLabelValue("Instance", running)
		PrintLabelValue("Release", result.ReleaseID)
		PrintLabelValue("Last outcome", result.LastOutcome)
		if !result.DeployedAt.IsZero() {
			PrintLabelValue("Deployed at", result.DeployedAt.Format(time.RFC3339))
		}
		PrintLabelValue("Workspace", result.Workspace)
		PrintLabelValue("Log file", result.LogFile)
		PrintLabelValue("Data store", result.DBFile)

		if result.Health != nil {
			detail := string(result.Health.Status)
			if result.Health.StatusCode != 0 {
				detail = fmt.Sprintf("%s (%d)", result.Health.Status, result.Health.StatusCode)
			}
			PrintLabelValue("Health", detail)
		}

		if len(result.History) > 0 {
			PrintSection("Recent Deploys")
			rows := make([][]string, 0, len(result.History))
			for _, rel := range result.History {
				errKind := rel.ErrorKind
				if errKind == "" {
					errKind = "-"
				}
				rows = append(rows, []string{
					rel.ID,
					rel.Outcome,
					errKind,
					rel.FinishedAt.Local().Format("2006-01-02 15:04:05"),
				})
			}
			PrintTable([]string{"RELEASE", "OUTCOME", "ERROR", "FINISHED"}, rows)
		}
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusProbe, "probe", false, "Run a live health probe against the instance")
	statusCmd.Flags().IntVar(&statusHistoryLimit, "history", 0, "Show the N most recent deploys")
}
