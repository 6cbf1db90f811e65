// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the artifact-harvest CLI. Each
// harvesting stage is a subcommand; results go to stdout (or --output) as
// YAML or JSON and are persisted in the SQLite store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/artifact-harvest/internal/config"
	"github.com/pdiddy/artifact-harvest/internal/logging"
	"github.com/pdiddy/artifact-harvest/internal/secrets"
	"github.com/pdiddy/artifact-harvest/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Process-wide state set up by the root command before any subcommand runs.
var (
	cfg         types.Config
	logger      = zap.NewNop()
	githubToken string
)

// rootCmd is the base command for the artifact-harvest CLI.
var rootCmd = &cobra.Command{
	Use:   "artifact-harvest",
	Short: "Harvest artifact-evaluation badges, committees and repository stats",
	Long: `artifact-harvest collects artifact-evaluation metadata from the
sysartifacts and secartifacts sites, DBLP and the ACM Digital Library, and
GitHub, Zenodo and Figshare.

Every request goes through a disk cache with conditional revalidation, a
per-source circuit breaker and a retry ladder, so repeated runs are cheap
and a source that blocks us degrades the run instead of failing it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		cfg = c

		l, err := logging.New(cfg.Log.Development)
		if err != nil {
			return err
		}
		logger = l
		if used := viper.ConfigFileUsed(); used != "" {
			logger.Info("using config file", zap.String("path", used))
		}

		githubToken = secrets.GitHubToken(secrets.DefaultDir, logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./artifact-harvest.yaml or ~/.config/artifact-harvest/config.yaml)")
	pf.Int("workers", 0, "concurrent fetch workers (default 8)")
	pf.String("cache-dir", "", "cache directory (default .cache)")
	pf.String("db", "", "results database (default data/harvest.db)")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	pf.Bool("dev", false, "human-readable development logging")
	pf.StringP("output", "o", "-", "write records to this file; - is stdout")
	pf.String("format", "yaml", "record format: yaml or json")

	bind := map[string]string{
		"workers":         "workers",
		"cache.dir":       "cache-dir",
		"store.path":      "db",
		"metrics.addr":    "metrics-addr",
		"log.development": "dev",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
}

func initConfig() {
	v := viper.GetViper()
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("artifact-harvest")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "artifact-harvest"))
		}
	}

	config.ConfigureEnv(v)
	config.SetDefaults(v)

	if err := v.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "reading config %s: %v\n", cfgFile, err)
		os.Exit(1)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
