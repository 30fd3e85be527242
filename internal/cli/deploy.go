package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/solodeploy/internal/engine"
	"github.com/danieljhkim/solodeploy/internal/health"
	"github.com/danieljhkim/solodeploy/internal/planner"
	"github.com/danieljhkim/solodeploy/internal/store"
)

var (
	deployDryRun       bool
	deployStrictHealth bool
)

// stageReporter prints pipeline progress as stages execute.
type stageReporter struct{}

func (stageReporter) StageStarted(stage planner.Stage, detail string) {
	PrintStep(fmt.Sprintf("%s: %s", stage, detail))
}

func (stageReporter) StageFinished(stage planner.Stage, detail string) {
	PrintSuccess(fmt.Sprintf("%s: %s", stage, detail))
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Provision the host and (re)launch the application",
	Long: `Run the full deploy pipeline for the configured application.

The pipeline prepares the workspace directory, builds the runtime environment
and installs packages, initializes the data store on first deploy, replaces any
running instance, and probes the health endpoint. An unhealthy probe leaves the
instance running and reports a degraded deploy; pass --strict-health to fail
instead.`,
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

		if !jsonOutput && !deployDryRun {
			eng.SetReporter(stageReporter{})
		}

		req := &engine.DeployRequest{
			DryRun:       deployDryRun,
			StrictHealth: deployStrictHealth,
		}

		result, err := eng.Deploy(context.Background(), req)
		if err != nil {
			if jsonOutput && result != nil {
				_ = outputJSON(result)
			}
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		if deployDryRun {
			PrintSection("Deploy Plan")
			for _, step := range result.Plan.Steps {
				PrintInfo(fmt.Sprintf("  %-10s %-8s %s", step.Stage, step.Action, step.Detail))
			}
			return nil
		}

		for _, warning := range result.Warnings {
			PrintWarning(warning)
		}

		switch result.Outcome {
		case store.OutcomeSuccess:
			PrintSuccess(fmt.Sprintf("Deployed %s (pid %d)", cfg.AppName, result.PID))
		case store.OutcomeDegraded:
			PrintWarning(fmt.Sprintf("Deployed %s (pid %d) but the health probe failed", cfg.AppName, result.PID))
			if result.Health != nil && result.Health.Detail != "" {
				PrintLabelValue("Probe", result.Health.Detail)
			}
		}
		PrintLabelValue("Release", result.ReleaseID)
		if result.Health != nil && result.Health.Status == health.Healthy {
			PrintLabelValue("Health", fmt.Sprintf("healthy (%d)", result.Health.StatusCode))
		}
		return nil
	},
}

func init() {
	deployCmd.Flags().BoolVar(&deployDryRun, "dry-run", false, "Show the stage plan without executing it")
	deployCmd.Flags().BoolVar(&deployStrictHealth, "strict-health", false, "Treat an unhealthy post-launch probe as a failure")
}
