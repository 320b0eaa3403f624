package main

import (
	"fmt"
	"os"

	"bazil.org/fuse"
	"github.com/desertwitch/bundlefs/internal/fusefs"
	"github.com/desertwitch/bundlefs/internal/logging"
	"github.com/spf13/cobra"
)

func mountCmd(opts *programOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "mount <mountpoint>",
		Short: "mount the virtual filesystem read-only over FUSE",
		Long: `mount exposes the virtual filesystem read-only at the given
mountpoint. Bundle entries stored gzip-compressed appear with their
plain contents. SIGTERM or SIGINT unmounts gracefully.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			fsys, err := newFS(opts)
			if err != nil {
				return err
			}

			mountpoint := args[0]
			rbuf := logging.NewRingBuffer(opts.ringSize, os.Stderr)

			errChan := make(chan error, 1)
			go func() {
				errChan <- fusefs.New(fsys, rbuf).Mount(mountpoint)
			}()

			go func() {
				awaitShutdown()
				fuse.Unmount(mountpoint) //nolint:errcheck,gosec
			}()

			if err := <-errChan; err != nil {
				return fmt.Errorf("fs serve error: %w", err)
			}

			return nil
		},
	}
}
