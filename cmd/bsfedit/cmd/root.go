/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/bsfedit/pkg/config"
	"github.com/ssargent/bsfedit/pkg/di"
	"github.com/ssargent/bsfedit/pkg/logging"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

var container *di.Container

// SetContainer injects the dependency container used by every command
func SetContainer(c *di.Container) {
	container = c
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bsfedit",
		Short: "bsfedit - BSF string table editor",
		Long: `bsfedit reads, edits and writes BSF string tables: the little-endian
binary key/value files that start with the BZBT signature.

Files can be converted to and from JSON, YAML and MessagePack, edited
from the command line or an interactive shell, or served over a REST API.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default is the user config dir)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("lenient", false, "Accept unexpected header words and reserved bytes when reading BSF files")
	rootCmd.PersistentFlags().StringP("output", "o", outputTable, "Output format: table or json")

	rootCmd.AddCommand(
		newDumpCmd(),
		newGetCmd(),
		newSetCmd(),
		newDeleteCmd(),
		newMoveCmd(),
		newSearchCmd(),
		newImportCmd(),
		newConvertCmd(),
		newValidateCmd(),
		newHistoryCmd(),
		newShellCmd(),
		newServeCmd(),
		newInitCmd(),
	)

	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration, applies flag overrides and builds the logger
func setup(cmd *cobra.Command, args []string) error {
	if container == nil {
		return errors.New("dependency container not initialized")
	}

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}
	if cmd.Flags().Changed("lenient") {
		cfg.Codec.Lenient, _ = cmd.Flags().GetBool("lenient")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	switch output, _ := cmd.Flags().GetString("output"); output {
	case outputTable, outputJSON:
	default:
		return fmt.Errorf("invalid output format %q: use table or json", output)
	}

	logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	container.SetConfig(cfg)
	container.SetLogger(logger)
	return nil
}

// loadConfig reads the config file at path. An empty path means the default
// location, which may be missing.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadConfig(path)
	}
	path = config.GetDefaultConfigPath()
	if config.ConfigExists(path) {
		return config.LoadConfig(path)
	}
	return config.DefaultConfig(), nil
}

func jsonOutput(cmd *cobra.Command) bool {
	output, _ := cmd.Flags().GetString("output")
	return output == outputJSON
}
