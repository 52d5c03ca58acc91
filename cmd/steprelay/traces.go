package main

import (
	"github.com/aretw0/steprelay/internal/cli"
	"github.com/spf13/cobra"
)

var tracesCmd = &cobra.Command{
	Use:   "traces",
	Short: "Manage recorded traces",
}

var tracesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded traces",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return cli.ListTraces(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

var tracesRmCmd = &cobra.Command{
	Use:   "rm <trace-id>",
	Short: "Delete a recorded trace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return cli.DeleteTrace(cmd.Context(), cfg, args[0])
	},
}

func init() {
	rootCmd.AddCommand(tracesCmd)
	tracesCmd.AddCommand(tracesListCmd, tracesRmCmd)

	addStoreFlags(tracesListCmd)
	addStoreFlags(tracesRmCmd)
}
