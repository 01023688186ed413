package cmd

import (
	"fmt"
	"os"

	"github.com/jmehdipour/teams-notify/cmd/worker"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	rootCmd = &cobra.Command{
		Use:   "teams-notify",
		Short: "Post records to a Microsoft Teams incoming webhook",
	}
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(worker.NewWorkerCmd())
}
