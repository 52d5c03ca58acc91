package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/aretw0/steprelay"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the steprelay version and the Go runtime it was built with",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "steprelay %s (%s %s/%s)\n",
			strings.TrimSpace(steprelay.Version), runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
