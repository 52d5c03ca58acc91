package main

import (
	"github.com/aretw0/steprelay/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <program.grid>",
	Short: "Run a program under the interactive observer",
	Long: `Starts the program and shows every step in the terminal.

Commands: n [count] step, f [count] fast-forward 5 x count, b [count] back, r rewind,
a toggle auto-advance, i <value> supply input, q quit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return cli.Run(cmd.Context(), cli.RunOptions{
			Program: args[0],
			Config:  cfg,
			In:      cmd.InOrStdin(),
			Out:     cmd.OutOrStdout(),
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Bool("json", false, "Run in JSON mode (NDJSON frames out, commands in)")
	runCmd.Flags().Bool("auto", false, "Start in auto-advance mode")
	runCmd.Flags().Duration("auto-delay", 0, "Pause between auto-advanced steps")
	runCmd.Flags().Bool("record", false, "Save the observed history as a trace")
	addEngineFlags(runCmd)
	addStoreFlags(runCmd)
}
