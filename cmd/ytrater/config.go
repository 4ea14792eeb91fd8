package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/briangreenhill/ytrater/internal/config"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the config file path, or its contents with --show",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Load creates the file with defaults on first use
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if !show {
				fmt.Fprintln(opts.out, cfg.Path())
				return nil
			}
			b, err := os.ReadFile(cfg.Path())
			if err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "# %s\n%s", cfg.Path(), b)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&show, "show", "s", false, "print the config file contents")

	cmd.AddCommand(&cobra.Command{
		Use:     "set <section.key> <value>",
		Short:   "Persist one config key",
		Example: "  ytrater config set gemini.api_key YOUR_KEY\n  ytrater config set cache.expiration_days 3",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Set(opts.configPath, args[0], args[1]); err != nil {
				return err
			}
			// re-read so a bad value is reported now rather than at the next run
			if _, err := config.Load(opts.configPath); err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "%s updated\n", args[0])
			return nil
		},
	})
	return cmd
}
