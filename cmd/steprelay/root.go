package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/steprelay/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "steprelay",
	Short: "steprelay runs a program step by step under an observer",
	Long: `steprelay drives a grid program one step at a time and hands every step to an
observer: the interactive terminal session, a JSON-lines client, or remote
clients over HTTP and WebSocket.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default $"+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
}

// loadConfig reads the config file and applies the flags the user set.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	setString(cmd, "log-level", &cfg.LogLevel)
	setString(cmd, "log-format", &cfg.LogFormat)

	setUint64(cmd, "max-steps", &cfg.Engine.MaxSteps)
	setDuration(cmd, "input-timeout", &cfg.Engine.InputTimeout)

	setBool(cmd, "auto", &cfg.Observer.Auto)
	setDuration(cmd, "auto-delay", &cfg.Observer.AutoDelay)
	setBool(cmd, "record", &cfg.Observer.Record)
	if changed(cmd, "json") {
		if on, _ := cmd.Flags().GetBool("json"); on {
			cfg.Observer.Format = "json"
		}
	}

	setString(cmd, "store", &cfg.Store.Backend)
	setString(cmd, "store-path", &cfg.Store.Path)
	setString(cmd, "redis-addr", &cfg.Store.RedisAddr)

	setString(cmd, "addr", &cfg.Server.Addr)

	return cfg, cfg.Validate()
}

func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

func setString(cmd *cobra.Command, name string, dst *string) {
	if changed(cmd, name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}

func setBool(cmd *cobra.Command, name string, dst *bool) {
	if changed(cmd, name) {
		*dst, _ = cmd.Flags().GetBool(name)
	}
}

func setUint64(cmd *cobra.Command, name string, dst *uint64) {
	if changed(cmd, name) {
		*dst, _ = cmd.Flags().GetUint64(name)
	}
}

func setDuration(cmd *cobra.Command, name string, dst *time.Duration) {
	if changed(cmd, name) {
		*dst, _ = cmd.Flags().GetDuration(name)
	}
}

// addStoreFlags registers the trace store selection flags.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", "", "Trace store: memory, file or redis")
	cmd.Flags().String("store-path", "", "Directory of the file trace store")
	cmd.Flags().String("redis-addr", "", "Address of the redis trace store")
}

// addEngineFlags registers the producer limits.
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64("max-steps", 0, "Stop the program after this many steps (0 = unlimited)")
	cmd.Flags().Duration("input-timeout", 0, "Give up on an input request after this long (0 = wait forever)")
}
