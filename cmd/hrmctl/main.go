// Command hrmctl runs the HR server and its maintenance tasks from the shell.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"cityhr/internal/platform/config"
	"cityhr/internal/platform/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		envFile  string
		logLevel string
	)
	cfg := &config.Config{}
	root := &cobra.Command{
		Use:           "hrmctl",
		Short:         "Municipal HR management server and tools",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if envFile != "" {
				if err := config.LoadEnvFile(envFile); err != nil {
					return err
				}
			}
			*cfg = config.Load()
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			logging.NewWithWriter(cmd.ErrOrStderr(), cfg.LogFormat, cfg.LogLevel)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "load variables from this file before the environment")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")

	root.AddCommand(
		newServeCmd(cfg),
		newMigrateCmd(cfg),
		newBackupCmd(cfg),
		newRestoreCmd(cfg),
		newUserCmd(cfg),
		newReportCmd(cfg),
		newOCRCmd(cfg),
	)
	return root
}
