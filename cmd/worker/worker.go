package worker

import "github.com/spf13/cobra"

// NewWorkerCmd returns the parent "worker" command.
func NewWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run long-lived record consumers",
	}
	// attach subcommands
	cmd.AddCommand(kafkaCmd)
	cmd.AddCommand(redisCmd)

	return cmd
}
