package commands

import (
	"fmt"
	"log/slog"
	"time"

	"fimfiction/lib/bundle"
	"fimfiction/lib/model"
	"fimfiction/lib/scrapers/fimfiction/search"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	searchFull  bool
	searchCache bool
)

func init() {
	searchCmd.Flags().BoolVar(&searchFull, "full", false, "Read every field of the stories instead of only their ids.")
	searchCmd.Flags().BoolVar(&searchCache, "cache", false, "Store the stories found in the cache.")
	rootCmd.AddCommand(searchCmd)
}

func optionalText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// printStories writes a table of stories, fields a story doesn't know
// stay empty.
func printStories(stories []*bundle.Record) {
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Title", "Author", "Words", "Likes", "Updated"})
	for _, story := range stories {
		row := table.Row{
			bundle.GetOr[any](story, model.StoryID, nil),
			bundle.GetOr(story, model.StoryTitle, ""),
			"",
			optionalText(bundle.GetOr[any](story, model.StoryWordCount, nil)),
			optionalText(bundle.GetOr[any](story, model.StoryLikeCount, nil)),
			"",
		}
		if author, err := bundle.Get[*bundle.Record](story, model.StoryAuthor); err == nil {
			row[2] = bundle.GetOr(author, model.UserName, "")
		}
		if updated, err := bundle.Get[time.Time](story, model.StoryDateUpdated); err == nil {
			row[5] = updated.Format(time.DateOnly)
		}
		t.AppendRow(row)
	}
	t.Render()
}

var searchCmd = &cobra.Command{
	Use:   "search <url>",
	Short: "Reads a search result or story page, the url may be relative to the base url.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := search.IDOnly
		if searchFull {
			mode = search.Full
		}

		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		result, err := client.Search(cmd.Context(), args[0], mode)
		if err != nil {
			return err
		}

		list := bundle.GetOr(result, model.SearchResultStories, bundle.List{})
		stories := make([]*bundle.Record, len(list))
		for i, v := range list {
			stories[i] = v.(*bundle.Record)
		}
		if user, err := bundle.Get[bundle.Optional](result, model.SearchResultLoggedInUser); err == nil {
			if u, ok := user.Get(); ok {
				slog.Info("logged in", "user", bundle.GetOr[any](u.(*bundle.Record), model.UserID, nil))
			}
		}
		printStories(stories)

		if !searchCache {
			return nil
		}
		cache, ok, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("--cache needs cache_path in the config")
		}
		defer cache.Close()
		for _, story := range stories {
			_, err = cache.Update(cmd.Context(), story)
			if err != nil {
				return err
			}
		}
		slog.Info("cached stories", "count", len(stories))
		return nil
	},
}
