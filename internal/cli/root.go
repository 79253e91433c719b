// Package cli provides the command-line interface for box-browse.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rescale/box-browse/internal/logging"
)

var (
	// Global flags
	cfgFile    string
	token      string
	apiBaseURL string
	verbose    bool
	debug      bool
	quiet      bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// Version information - set by main package at startup
var (
	Version   = "v0.1.0-dev"
	BuildTime = "2026-10-14"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "box-browse",
		Short: "Browse, search and organise Box folders",
		Long: `box-browse ` + Version + ` - Built: ` + BuildTime + `
Command-line browser for Box.

List and search folders page by page, create folders, move and copy
items, create shared links and fetch thumbnails. Authenticates with a
developer token.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultCLILogger()
			switch {
			case verbose || debug:
				logging.SetGlobalLevel(zerolog.DebugLevel)
			case quiet:
				logging.SetGlobalLevel(zerolog.WarnLevel)
			default:
				logging.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Box developer token (overrides config and environment)")
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api-url", "", "Box API base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors, hide progress bars")

	rootCmd.Version = Version + " (" + BuildTime + ")"

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newLsCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newMkdirCmd())
	rootCmd.AddCommand(newMoveCmd())
	rootCmd.AddCommand(newCopyCmd())
	rootCmd.AddCommand(newShareCmd())
	rootCmd.AddCommand(newThumbnailCmd())
	rootCmd.AddCommand(newConfigCmd())

	AddShortcuts(rootCmd)
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}
