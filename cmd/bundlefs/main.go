/*
bundlefs serves a dual-backend virtual filesystem: a resource tree
compiled into the binary (the bundle), or a real on-disk directory
when a data root is given. Files stored gzip-compressed in the bundle
are inflated on the fly, and any content can be served gzip-compressed
on the fly.

The following subcommands are available:
  - "ls" lists a directory of the virtual filesystem
  - "cat" prints a file, optionally transforming it
  - "serve" runs the HTTP resource server with its dashboard
  - "mount" mounts the virtual filesystem read-only over FUSE

While serving or mounted, the following signals are observed:
  - SIGTERM or SIGINT (CTRL+C) shuts down gracefully
  - SIGUSR1 forces a garbage collection (within Go)
  - SIGUSR2 dumps a diagnostic stacktrace to standard error (stderr)
*/
package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"

	"github.com/desertwitch/bundlefs"
	"github.com/desertwitch/bundlefs/assets"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"
)

const stackTraceBuffer = 1 << 24

// Version is the program version (filled in from the Makefile).
var Version string

type programOpts struct {
	dataRoot string
	ringSize int
}

func rootCmd() *cobra.Command {
	opts := &programOpts{}

	cmd := &cobra.Command{
		Use:   "bundlefs",
		Short: "a dual-backend virtual filesystem for bundled resources",
		Long: `bundlefs accesses files either from a resource tree compiled into the
binary or from a real directory tree when --dataroot is given. Bundle
entries stored gzip-compressed are inflated on the fly; any content can
also be served gzip-compressed on the fly.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.dataRoot, "dataroot", "d", "",
		"Serve from this directory tree instead of the compiled-in bundle")
	cmd.PersistentFlags().IntVar(&opts.ringSize, "ring-buffer", 64,
		"Number of event log lines retained for the dashboard")

	cmd.AddCommand(lsCmd(opts), catCmd(opts), serveCmd(opts), mountCmd(opts))

	return cmd
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newFS assembles the virtual filesystem per the global options.
func newFS(opts *programOpts) (*bundlefs.FS, error) {
	tree, err := assets.Tree()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if opts.dataRoot != "" {
		return bundlefs.NewFS(tree, bundlefs.WithDataRoot(opts.dataRoot)), nil
	}

	return bundlefs.NewFS(tree), nil
}

// awaitShutdown blocks until SIGINT or SIGTERM, servicing the
// diagnostic signals in the meantime.
func awaitShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, unix.SIGINT, unix.SIGTERM, unix.SIGUSR1, unix.SIGUSR2)

	for sig := range sigChan {
		switch sig {
		case unix.SIGUSR1:
			runtime.GC()
			debug.FreeOSMemory()
			fmt.Fprintln(os.Stderr, "(signal) garbage collection forced")

		case unix.SIGUSR2:
			buf := make([]byte, stackTraceBuffer)
			n := runtime.Stack(buf, true)
			fmt.Fprintf(os.Stderr, "(signal) stacktrace:\n%s\n", buf[:n])

		default:
			return
		}
	}
}
