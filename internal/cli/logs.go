package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/solodeploy/internal/logtail"
)

var (
	logsLines  int
	logsFollow bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show application log output",
	Long: `Print the tail of the application log. With --follow, keep streaming new
output until interrupted; the stream survives the log rotation a deploy
performs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadSetup()
		if err != nil {
			return err
		}

		lines, err := logtail.Tail(cfg.LogFile, logsLines)
		if err != nil {
			return fmt.Errorf("failed to read log %s: %w", cfg.LogFile, err)
		}
		if lines == nil && !logsFollow {
			PrintEmptyState(fmt.Sprintf("no log at %s", cfg.LogFile))
			return nil
		}
		for _, line := range lines {
			fmt.Println(line)
		}

		if !logsFollow {
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return logtail.Follow(ctx, cfg.LogFile, os.Stdout)
	},
}

func init() {
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "Number of trailing lines to show")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Stream new log output")
}
