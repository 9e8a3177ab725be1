// Package main is the entrypoint for the jamie CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jongmin-chung/jamie/internal/app"
	"github.com/jongmin-chung/jamie/internal/domain/config"
	"github.com/jongmin-chung/jamie/internal/index"
	"github.com/jongmin-chung/jamie/internal/logger"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	configPath string
	cfg        config.Config
)

func main() {
	root := &cobra.Command{
		Use:           "jamie",
		Short:         "Content pipeline for the tech blog",
		Long:          "jamie parses markdown posts, builds the search index and writes the static data the site consumes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return fmt.Errorf("config %s: %w", configPath, err)
			}
			logger.Init(cfg.Log.Level, cfg.Log.Pretty)
			return nil
		},
	}

	root.AddCommand(buildCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(searchCmd())
	root.AddCommand(cleanCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(listCmd())
	root.AddCommand(showCmd())
	root.AddCommand(newCmd())
	root.AddCommand(versionCmd())

	root.PersistentFlags().StringVar(&configPath, "config", "site.yaml", "Path to the site configuration file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the jamie version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "jamie %s\n", Version)
			return nil
		},
	}
}

// openRepository opens the index store and returns a repository over it.
// The returned func closes the store.
func openRepository() (*app.Repository, func(), error) {
	st, err := index.Open(index.OpenOptions{Path: cfg.Build.IndexPath})
	if err != nil {
		return nil, nil, fmt.Errorf("open index %s: %w", cfg.Build.IndexPath, err)
	}
	return app.NewRepository(cfg, st), func() { _ = st.Close() }, nil
}
