package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"lcm-hq/intellimap/pkg/cli"
)

var (
	// Global flags
	cfgFile  string
	envFile  string
	logLevel string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "intellimap",
	Short: "IntelliMap - map record data onto target fields with Azure OpenAI",
	Long: `IntelliMap normalizes JSON, delimited dictionary and key=value records and maps
them onto a catalog of target fields using an Azure OpenAI chat deployment.

Requests are rate limited per minute and per hour, retried with exponential
backoff, and the model output is repaired when it is not valid JSON.

Configuration comes from a YAML file (--config) and INTELLIMAP_* environment
variables, which override file values. A .env file fills in variables that are
not already set.`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadEnvFile,
}

// Execute runs the root command and exits with the error's exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults plus environment when empty)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadEnvFile loads the dotenv file. Variables already set are kept. A
// missing default file is ignored; a missing explicit one is an error.
func loadEnvFile(cmd *cobra.Command, _ []string) error {
	if envFile == "" {
		return nil
	}
	if _, err := os.Stat(envFile); errors.Is(err, fs.ErrNotExist) {
		if cmd.Flags().Changed("env-file") {
			return cli.NewConfigError("env-file", fmt.Sprintf("%s does not exist", envFile))
		}
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return cli.NewConfigError("env-file", err.Error())
	}
	return nil
}
