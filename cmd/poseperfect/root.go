package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-poseperfect/internal/config"
	"github.com/teslashibe/go-poseperfect/internal/log"
	"github.com/teslashibe/go-poseperfect/pkg/debug"
	"github.com/teslashibe/go-poseperfect/pkg/pose"
)

// Version is the application version.
const Version = "0.3.0"

var (
	logLevel    string
	debugMode   bool
	tracePose   bool
	traceTicks  bool
	catalogPath string
)

var rootCmd = &cobra.Command{
	Use:     "poseperfect",
	Short:   "Match the pose on each obstacle before it reaches you",
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugMode && !cmd.Flags().Changed("log-level") {
			logLevel = "debug"
		}
		log.Init(logLevel)
		debug.Enabled = debugMode
		debug.Pose = tracePose
		debug.Ticks = traceTicks
	},
	SilenceUsage: true,
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, "log-level", config.LogLevel(), "Log level (debug, info, warn, error)")
	flags.BoolVar(&debugMode, "debug", false, "Verbose logging and request logs")
	flags.BoolVar(&tracePose, "trace-pose", false, "Log every out-of-tolerance feature")
	flags.BoolVar(&traceTicks, "trace-ticks", false, "Log spawner and track activity per tick")
	flags.StringVar(&catalogPath, "catalog", config.CatalogPath(), "Pose catalog YAML file or URL (default: built-in poses)")
}

// loadCatalog reads --catalog from a file or URL, or returns the built-in poses.
func loadCatalog(ctx context.Context) (*pose.Catalog, error) {
	if catalogPath == "" {
		return pose.DefaultCatalog(), nil
	}
	var (
		c   *pose.Catalog
		err error
	)
	if strings.HasPrefix(catalogPath, "http://") || strings.HasPrefix(catalogPath, "https://") {
		c, err = pose.FetchCatalog(ctx, catalogPath)
	} else {
		c, err = pose.LoadCatalog(catalogPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	log.Info("catalog loaded", "path", catalogPath, "poses", c.Len())
	return c, nil
}
