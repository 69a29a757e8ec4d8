/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ssargent/bsfedit/pkg/config"
)

func newInitCmd() *cobra.Command {
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file",
		Long: `Create a bsfedit configuration file with a generated API key.

This command will:
- Write the config file (default is the user config dir)
- Generate an API key for the REST API
- Enable snapshot history unless --no-history is given

Examples:
  bsfedit init
  bsfedit init --config ./bsfedit.yaml --history-dir ./history`,
		// The config file may not exist yet
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			historyDir, _ := cmd.Flags().GetString("history-dir")
			noHistory, _ := cmd.Flags().GetBool("no-history")
			force, _ := cmd.Flags().GetBool("force")

			if configPath == "" {
				configPath = config.GetDefaultConfigPath()
			}
			if config.ConfigExists(configPath) && !force {
				cmd.Printf("Configuration already exists at %s. Use --force to overwrite it.\n", configPath)
				return nil
			}

			if noHistory {
				historyDir = ""
			} else if historyDir == "" {
				historyDir = config.DefaultConfig().History.Dir
			}

			cfg, err := config.BootstrapConfig(configPath, historyDir)
			if err != nil {
				return err
			}

			cmd.Printf("✅ Configuration written to %s\n", configPath)
			cmd.Printf("API key: %s\n", cfg.Server.APIKey)
			if cfg.History.Enabled {
				cmd.Printf("History: %s\n", cfg.History.Dir)
			}
			cmd.Printf("\nYou can now start the server with:\n")
			cmd.Printf("  bsfedit serve strings.bsf --config %s\n", configPath)
			return nil
		},
	}

	initCmd.Flags().String("history-dir", "", "Directory for snapshot history (default is the user cache dir)")
	initCmd.Flags().Bool("no-history", false, "Do not record snapshot history")
	initCmd.Flags().Bool("force", false, "Overwrite an existing configuration")
	return initCmd
}
