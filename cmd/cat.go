package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/streamkit/ranged/pkg/ranged"
	"github.com/streamkit/ranged/pkg/source"
)

var catCmd = &cobra.Command{
	Use:     "cat <uri> [range]",
	Short:   "Print an object, or a byte range of it, to stdout",
	Example: "ranged cat s3://example-bucket/path/to/video.mp4 0-1023 > head.bin",
	Args:    cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		src, err := source.Open(ctx, args[0])
		if err != nil {
			die("could not open %s: %v", args[0], err)
		}
		if closer, ok := src.(io.Closer); ok {
			defer func() {
				_ = closer.Close()
			}()
		}
		header := ""
		if len(args) > 1 {
			header = "bytes=" + args[1]
		}
		res, err := ranged.Resolve(ctx, header, src)
		if err != nil {
			die("could not resolve range for %s: %v", args[0], err)
		}
		if res.Status == http.StatusRequestedRangeNotSatisfiable {
			die("range %q not satisfiable for %s (size %d)", header, args[0], res.Size)
		}
		if !res.HasBody() {
			return
		}
		sess := ranged.NewSession()
		if _, err := sess.Stream(ctx, os.Stdout, src, res.Span); err != nil {
			_, _ = os.Stderr.WriteString(fmt.Sprintf("could not download object: %v\n", err))
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(catCmd)
}
