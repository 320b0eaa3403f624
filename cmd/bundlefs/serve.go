package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/desertwitch/bundlefs/internal/logging"
	"github.com/desertwitch/bundlefs/internal/webserver"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(opts *programOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "serve <address>",
		Short: "run the HTTP resource server",
		Long: `serve runs the HTTP resource server on the given address (e.g.
:8000). Files are available under /files/, the diagnostics dashboard
under / and its metrics under /metrics.json. Clients accepting gzip
receive compressed content, with pre-compressed bundle entries passing
through untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			fsys, err := newFS(opts)
			if err != nil {
				return err
			}

			rbuf := logging.NewRingBuffer(opts.ringSize, os.Stderr)

			server, err := webserver.NewResourceServer(fsys, rbuf, Version)
			if err != nil {
				return fmt.Errorf("failed to set up server: %w", err)
			}
			defer server.Close()

			srv := server.Serve(args[0])

			awaitShutdown()
			rbuf.Println("shutting down")

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("failed to shut down: %w", err)
			}

			return nil
		},
	}
}
