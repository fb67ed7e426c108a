package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/bind/internal/config"
	"github.com/vango-dev/bind/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌┐ ┬┌┐┌┌┬┐
  ├┴┐││││ ││
  └─┘┴┘└┘─┴┘
`

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	root := &cobra.Command{
		Use:   "bind",
		Short: "Reactive HTML rendering with dependency tracking",
		Long: `bind renders HTML from a graph of reactive nodes.

Nodes re-render only when state they track changes, and their output
is patched into the live document in place, keeping focus, input
state and event wiring intact.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to "+config.ConfigFileName+" (default ./"+config.ConfigFileName+" if present)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		serveCmd(&configPath),
		renderCmd(&configPath),
		versionCmd(),
	)
	return root
}

// loadConfig reads the config at path. With no path it falls back to
// ./bind.json and then to defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if _, err := os.Stat(config.ConfigFileName); os.IsNotExist(err) {
		return config.New(), nil
	}
	return config.Load(".")
}

func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
