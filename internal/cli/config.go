package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/solodeploy/internal/config"
	"github.com/danieljhkim/solodeploy/internal/fsops"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the deploy configuration",
	Long:  `Inspect the effective deploy configuration or write a starter file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration the deploy pipeline would run with: the config
file layered over defaults, with derived paths filled in.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadSetup()
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(cfg)
		}

		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Write a commented starter deploy.toml to the default location (or the path
given with --config). Refuses to overwrite an existing file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := config.DefaultPaths()
		if err != nil {
			return fmt.Errorf("failed to get config paths: %w", err)
		}
		if err := paths.EnsureDirectories(); err != nil {
			return fmt.Errorf("failed to ensure directories: %w", err)
		}

		target := configPath
		if target == "" {
			target = paths.Config
		}

		if _, err := os.Stat(target); err == nil {
			return fmt.Errorf("config file already exists at %s", target)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to check config file: %w", err)
		}

		fs := fsops.NewRealFS()
		if err := fs.AtomicWrite(target, []byte(config.Sample), 0644); err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}

		PrintSuccess(fmt.Sprintf("Wrote starter configuration to %s", target))
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
