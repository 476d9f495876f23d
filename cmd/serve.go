package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/streamkit/ranged/pkg/ranged"
	"github.com/streamkit/ranged/pkg/source"
)

type serveConfig struct {
	Listen       string `yaml:"listen"`
	Root         string `yaml:"root"`
	ChunkSize    int    `yaml:"chunk_size"`
	RateLimitBps int    `yaml:"rate_limit_bps"`
}

var serveCmd = &cobra.Command{
	Use:     "serve [root]",
	Short:   "Serve files under a directory or remote prefix with byte-range support",
	Example: "ranged serve ./media\n  ranged serve s3://example-bucket/videos",
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := serveConfig{
			Listen:    "127.0.0.1:0",
			ChunkSize: ranged.DefaultChunkSize,
		}
		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			die("Could not parse command flag config: %v\n", err)
		}
		if configPath != "" {
			if err := loadServeConfig(expandPath(configPath), &cfg); err != nil {
				die("Could not load config %s: %v\n", configPath, err)
			}
		}
		if listen, _ := cmd.Flags().GetString("listen"); cmd.Flags().Changed("listen") {
			cfg.Listen = listen
		}
		if len(args) > 0 {
			cfg.Root = args[0]
		}
		if cfg.Root == "" {
			die("No root to serve: pass a directory or remote prefix, or set root in the config file\n")
		}

		handler, err := rootHandler(cfg)
		if err != nil {
			die("Could not serve %s: %v\n", cfg.Root, err)
		}
		listener, err := net.Listen("tcp", cfg.Listen)
		if err != nil {
			die("Failed to bind port: %v\n", err)
		}
		fmt.Printf("Serving %s on http://%s\n", cfg.Root, listener.Addr().String())
		if err := http.Serve(listener, handler); err != nil {
			slog.Error("Error running HTTP server", "error", err)
		}
	},
}

func loadServeConfig(path string, cfg *serveConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// rootHandler picks the backend by what root is: a local directory is
// served through a billy filesystem, anything else is treated as a remote
// object prefix.
func rootHandler(cfg serveConfig) (http.Handler, error) {
	opts := sessionOptions(cfg)
	root := cfg.Root
	if dir, err := isDir(expandPath(root)); err != nil {
		return nil, err
	} else if dir {
		fs := osfs.New(expandPath(root))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			src, err := source.OpenBilly(fs, path.Clean(r.URL.Path))
			if errors.Is(err, source.ErrDoesNotExist) {
				w.WriteHeader(http.StatusNotFound)
				return
			} else if err != nil {
				slog.Warn("could not open file", "path", r.URL.Path, "error", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			defer func() {
				_ = src.Close()
			}()
			ranged.ServeSource(w, r, src, opts...)
		}), nil
	}

	prefix := strings.TrimSuffix(root, "/")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		src, err := source.Open(r.Context(), prefix+r.URL.Path)
		if errors.Is(err, source.ErrDoesNotExist) {
			w.WriteHeader(http.StatusNotFound)
			return
		} else if err != nil {
			slog.Warn("could not open object", "path", r.URL.Path, "error", err)
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if closer, ok := src.(io.Closer); ok {
			defer func() {
				_ = closer.Close()
			}()
		}
		ranged.ServeSource(w, r, src, opts...)
	}), nil
}

func sessionOptions(cfg serveConfig) []ranged.SessionOption {
	chunkSize := cfg.ChunkSize
	if cfg.RateLimitBps > 0 && chunkSize > cfg.RateLimitBps {
		// a chunk may not exceed the limiter's burst
		chunkSize = cfg.RateLimitBps
	}
	opts := []ranged.SessionOption{
		ranged.WithChunkSize(chunkSize),
		ranged.WithNotifier(ranged.NotifierFunc(func(e ranged.Event) {
			slog.Debug("range progress", "uid", e.UID, "start", e.Start, "reloaded", e.Reloaded, "finished", e.Finished)
		})),
	}
	if cfg.RateLimitBps > 0 {
		opts = append(opts, ranged.WithRateLimit(cfg.RateLimitBps))
	}
	return opts
}

func init() {
	serveCmd.Flags().StringP("listen", "l", "127.0.0.1:0", "address to listen on")
	serveCmd.Flags().StringP("config", "c", "", "path to a YAML config file")
	rootCmd.AddCommand(serveCmd)
}
