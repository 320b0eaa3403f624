package main

import (
	"fmt"
	"io"

	"github.com/desertwitch/bundlefs"
	"github.com/desertwitch/bundlefs/bundle"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func lsCmd(opts *programOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <path>",
		Short: "list a directory of the virtual filesystem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, err := newFS(opts)
			if err != nil {
				return err
			}

			return runLs(cmd.OutOrStdout(), fsys, args[0])
		},
	}
}

func runLs(out io.Writer, fsys *bundlefs.FS, dirpath string) error {
	dir, err := fsys.OpenDir(dirpath)
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer dir.Close() //nolint:errcheck

	for {
		ent, err := dir.ReadNext()
		if err != nil {
			return nil //nolint:nilerr // end of sequence
		}

		switch ent.Kind {
		case bundle.KindDir:
			fmt.Fprintf(out, "d %10s  %s/\n", "-", ent.Name)

		case bundle.KindFile:
			size, gzipped := "?", " "

			if f, err := dir.Open(ent.Name, false, false); err == nil {
				size = humanize.IBytes(uint64(f.Size()))
				if f.Gzipped() {
					gzipped = "z"
				}
				f.Close() //nolint:errcheck,gosec
			}

			fmt.Fprintf(out, "%s %10s  %s\n", gzipped, size, ent.Name)

		default:
			fmt.Fprintf(out, "? %10s  %s\n", "-", ent.Name)
		}
	}
}

func catCmd(opts *programOpts) *cobra.Command {
	var argGunzip bool
	var argGzip bool

	cmd := &cobra.Command{
		Use:   "cat <path>",
		Short: "print a file of the virtual filesystem",
		Long: `cat prints a single file of the virtual filesystem to standard
output. With --gunzip, a bundle entry stored gzip-compressed is
inflated first; with --gzip, the content is deflated instead. The two
flags are mutually exclusive.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, err := newFS(opts)
			if err != nil {
				return err
			}

			return runCat(cmd.OutOrStdout(), fsys, args[0], argGunzip, argGzip)
		},
	}

	cmd.Flags().BoolVar(&argGunzip, "gunzip", false, "Inflate gzip-stored bundle content")
	cmd.Flags().BoolVar(&argGzip, "gzip", false, "Deflate the content before printing")
	cmd.MarkFlagsMutuallyExclusive("gunzip", "gzip")

	return cmd
}

func runCat(out io.Writer, fsys *bundlefs.FS, filepath string, gunzip, gz bool) error {
	f, err := fsys.Open(filepath, gunzip, gz)
	if err != nil {
		return err //nolint:wrapcheck
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(out, f); err != nil {
		return fmt.Errorf("failed to print %q: %w", filepath, err)
	}

	return nil
}
