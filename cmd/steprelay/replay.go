package main

import (
	"github.com/aretw0/steprelay/internal/cli"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <trace-id>",
	Short: "Browse a recorded trace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return cli.Replay(cmd.Context(), cli.ReplayOptions{
			TraceID: args[0],
			Config:  cfg,
			In:      cmd.InOrStdin(),
			Out:     cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().Bool("json", false, "Replay in JSON mode")
	addStoreFlags(replayCmd)
}
