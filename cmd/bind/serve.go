package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/bind/internal/config"
	"github.com/vango-dev/bind/internal/demo"
	"github.com/vango-dev/bind/pkg/anchor"
	"github.com/vango-dev/bind/pkg/dom"
	"github.com/vango-dev/bind/pkg/events"
	"github.com/vango-dev/bind/pkg/reactive"
	"github.com/vango-dev/bind/pkg/server"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo application live",
		Long: `Serve the demo application over HTTP.

Each browser tab gets its own live session. Events are sent to the
server over a WebSocket and the resulting document mutations are
streamed back.

Examples:
  bind serve
  bind serve --port=8080
  bind serve --config=deploy/bind.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from bind.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from bind.json)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	srv, err := server.New(cfg, demo.Shell, mountDemo)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	printBanner()
	success("Serving on %s", cfg.URL())
	if cfg.Metrics.Enabled {
		info("Metrics at %s%s", cfg.URL(), cfg.Metrics.Path)
	}
	if cfg.PublishEnabled() {
		info("Publishing slots to s3://%s/%s", cfg.Publish.Bucket, cfg.Publish.Prefix)
	}

	return srv.ListenAndServe(ctx)
}

func mountDemo(doc *dom.Document, g *reactive.Graph, r *events.Router, slots *anchor.Registry) error {
	_, err := demo.Mount(doc, g, r, slots)
	return err
}
