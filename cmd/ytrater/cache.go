package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/briangreenhill/ytrater/cache"
	"github.com/briangreenhill/ytrater/internal/config"
)

func newCacheCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cache",
		Short: "List cached scores",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			store, err := cache.NewFileCache(cfg.Cache.File, cfg.CacheExpiration())
			if err != nil {
				return err
			}

			entries := store.Entries()
			if len(entries) == 0 {
				fmt.Fprintf(opts.out, "no cached scores in %s\n", store.Path())
				return nil
			}

			tw := tabwriter.NewWriter(opts.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SCORE\tUPDATED\tSTATUS\tURL")
			for _, l := range entries {
				status := "fresh"
				if l.Expired {
					status = "expired"
				}
				fmt.Fprintf(tw, "%.2f\t%s\t%s\t%s\n", l.Entry.Score, humanize.Time(l.Entry.LastUpdated), status, l.URL)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(opts.out, "%s entries, expire after %d days\n", humanize.Comma(int64(len(entries))), cfg.Cache.ExpirationDays)
			return nil
		},
	}
}
