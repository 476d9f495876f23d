package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mitchellh/go-homedir"
)

func die(fstring string, args ...interface{}) {
	if !strings.HasSuffix(fstring, "\n") {
		fstring += "\n"
	}
	_, _ = os.Stderr.WriteString(fmt.Sprintf(fstring, args...))
	os.Exit(1)
}

func setupLogging() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelError,
	})))
	if os.Getenv("RANGED_LOGGING") == "DEBUG" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			AddSource: true,
			Level:     slog.LevelDebug,
		})))
	}
}

func expandPath(path string) string {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return expanded
}

func isDir(path string) (bool, error) {
	stat, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return stat.IsDir(), nil
}
