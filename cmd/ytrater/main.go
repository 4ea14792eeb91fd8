// cmd/ytrater/main.go
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/briangreenhill/ytrater/internal/config"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	out        io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{out: out}

	root := &cobra.Command{
		Use:           "ytrater",
		Short:         "Rate YouTube videos from their comments",
		Long:          "ytrater fetches a video's top-level comments, asks Gemini for a 0-5 score and caches the result.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(out)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.yt_rater/config.toml, or $"+config.EnvConfigPath+")")

	root.AddCommand(
		newRunCmd(opts),
		newConfigCmd(opts),
		newCacheCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(opts.out, "ytrater", version)
		},
	}
}

// newLogger builds the root logger from the [log] section
func newLogger(c config.LogConfig, w io.Writer) zerolog.Logger {
	if strings.EqualFold(c.Format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	level, err := zerolog.ParseLevel(strings.ToLower(c.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
