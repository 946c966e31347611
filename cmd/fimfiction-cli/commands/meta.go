package commands

import (
	"fmt"
	"os"
	"time"

	"fimfiction/lib/bundle"
	"fimfiction/lib/model"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var metaJSON bool

func init() {
	metaCmd.Flags().BoolVar(&metaJSON, "json", false, "Print the story record as json.")
	rootCmd.AddCommand(metaCmd)
}

func printChapters(story *bundle.Record) {
	t := newTable()
	t.AppendHeader(table.Row{"ID", "Chapter", "Words", "Modified"})
	for _, v := range bundle.GetOr(story, model.StoryChapters, bundle.List{}) {
		chapter := v.(*bundle.Record)
		modified := ""
		if date, err := bundle.Get[time.Time](chapter, model.ChapterDateModified); err == nil {
			modified = date.Format(time.DateOnly)
		}
		t.AppendRow(table.Row{
			bundle.GetOr[any](chapter, model.ChapterID, nil),
			bundle.GetOr(chapter, model.ChapterTitle, ""),
			optionalText(bundle.GetOr[any](chapter, model.ChapterWordCount, nil)),
			modified,
		})
	}
	t.Render()
}

var metaCmd = &cobra.Command{
	Use:   "meta <story id>",
	Short: "Reads a story and its chapters from the api, the story is cached if a cache is configured.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		story, err := client.StoryMeta(cmd.Context(), id)
		if err != nil {
			return err
		}

		cache, ok, err := openCache(cmd.Context())
		if err != nil {
			return err
		}
		if ok {
			defer cache.Close()
			story, err = cache.Update(cmd.Context(), story)
			if err != nil {
				return err
			}
		}

		if metaJSON {
			out, err := bundle.Marshal(story)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(out))
			return nil
		}
		printStories([]*bundle.Record{story})
		printChapters(story)
		return nil
	},
}
