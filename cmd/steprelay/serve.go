package main

import (
	"github.com/aretw0/steprelay/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve <program.grid>",
	Short: "Run a program and observe it over HTTP",
	Long: `Starts the program and exposes its relay over HTTP: POST /step, GET /output,
GET /errors, POST /input, POST /finish, GET /status, GET /metrics, the
GET /events SSE feed and the GET /ws WebSocket stream.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return cli.Serve(cmd.Context(), cli.ServeOptions{
			Program: args[0],
			Config:  cfg,
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (default :8080)")
	addEngineFlags(serveCmd)
}
