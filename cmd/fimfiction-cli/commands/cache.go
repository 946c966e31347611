package commands

import (
	"fmt"
	"log/slog"
	"time"

	"fimfiction/lib/bundle"
	"fimfiction/lib/model"
	"fimfiction/lib/storycache"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	cacheKind      string
	cacheOlderThan time.Duration
)

var cacheSchemas = map[string]*bundle.Schema{
	model.StorySchema.Name(): model.StorySchema,
	model.UserSchema.Name():  model.UserSchema,
}

func init() {
	cacheListCmd.Flags().StringVar(&cacheKind, "kind", model.StorySchema.Name(), "The kind of record to list, story or user.")
	cachePruneCmd.Flags().DurationVar(&cacheOlderThan, "older-than", 30*24*time.Hour, "Drop records fetched longer ago than this.")
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}

func withCache(cmd *cobra.Command, fn func(storycache.Cache) error) error {
	cache, ok, err := openCache(cmd.Context())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no cache_path in the config")
	}
	defer cache.Close()
	return fn(cache)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspects the story cache.",
}

var cacheListCmd = &cobra.Command{
	Use:   "list [--kind story|user]",
	Short: "Lists cached records, most recently fetched first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, ok := cacheSchemas[cacheKind]
		if !ok {
			return fmt.Errorf("unknown kind %q", cacheKind)
		}
		return withCache(cmd, func(cache storycache.Cache) error {
			entries, err := cache.List(cmd.Context(), schema)
			if err != nil {
				return err
			}

			idKey, _ := schema.KeyByID("id")
			t := newTable()
			t.AppendHeader(table.Row{"ID", "Name", "Fetched"})
			for _, entry := range entries {
				name := bundle.GetOr(entry.Record, model.StoryTitle, "")
				if schema == model.UserSchema {
					name = bundle.GetOr(entry.Record, model.UserName, "")
				}
				t.AppendRow(table.Row{
					bundle.GetOr[any](entry.Record, idKey, nil),
					name,
					entry.FetchedAt.Format(time.DateTime),
				})
			}
			t.Render()
			return nil
		})
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune [--older-than <duration>]",
	Short: "Drops records that were fetched too long ago.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCache(cmd, func(cache storycache.Cache) error {
			n, err := cache.Prune(cmd.Context(), time.Now().Add(-cacheOlderThan))
			if err != nil {
				return err
			}
			slog.Info("pruned cache", "dropped", n)
			return nil
		})
	},
}
