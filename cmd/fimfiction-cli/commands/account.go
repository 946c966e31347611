package commands

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"fimfiction/lib/bundle"
	"fimfiction/lib/formatted"
	"fimfiction/lib/model"

	"github.com/spf13/cobra"
)

var (
	shelfRemove bool
	chapterHTML bool
)

func init() {
	shelfCmd.Flags().BoolVar(&shelfRemove, "remove", false, "Remove the story from the shelf instead.")
	chapterCmd.Flags().BoolVar(&chapterHTML, "html", false, "Print html instead of bbcode.")
	rootCmd.AddCommand(likeCmd, dislikeCmd, shelfCmd, toggleReadCmd, chapterCmd)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %q: %w", arg, err)
	}
	return id, nil
}

func rateCommand(use string, rating model.Rating) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <story id>",
		Short: fmt.Sprintf("Rates a story with %s.", rating.Name()),
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
			updated, err := client.SetRating(cmd.Context(), model.NewStory().MustSet(model.StoryID, id), rating)
			if err != nil {
				return err
			}
			slog.Info(
				"rated story",
				"likes", bundle.GetOr[any](updated, model.StoryLikeCount, nil),
				"dislikes", bundle.GetOr[any](updated, model.StoryDislikeCount, nil),
				"rating", bundle.GetOr[any](updated, model.StoryRating, nil),
			)
			return nil
		},
	}
}

var likeCmd = rateCommand("like", model.RatingLike)
var dislikeCmd = rateCommand("dislike", model.RatingDislike)

var shelfCmd = &cobra.Command{
	Use:   "shelf <story id> <shelf id> [--remove]",
	Short: "Adds a story to or removes it from one of your shelves.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		storyID, err := parseID(args[0])
		if err != nil {
			return err
		}
		shelfID, err := parseID(args[1])
		if err != nil {
			return err
		}
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}
		updated, err := client.SetShelf(
			cmd.Context(),
			model.NewStory().MustSet(model.StoryID, storyID),
			model.NewShelf().MustSet(model.ShelfID, shelfID),
			!shelfRemove,
		)
		if err != nil {
			return err
		}
		slog.Info(
			"updated shelves",
			"added", len(bundle.GetOr(updated, model.StoryShelvesAdded, bundle.Set{})),
			"not_added", len(bundle.GetOr(updated, model.StoryShelvesNotAdded, bundle.Set{})),
		)
		return nil
	},
}

var toggleReadCmd = &cobra.Command{
	Use:   "toggle-read <chapter id>",
	Short: "Flips the read state of a chapter.",
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
		chapter, err := client.ToggleUnread(cmd.Context(), model.NewChapter().MustSet(model.ChapterID, id))
		if err != nil {
			return err
		}
		slog.Info("toggled chapter", "unread", bundle.GetOr(chapter, model.ChapterUnread, false))
		return nil
	},
}

var chapterCmd = &cobra.Command{
	Use:   "chapter <chapter id> [--html]",
	Short: "Prints the text of a chapter.",
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
		chapter, err := client.ChapterContent(cmd.Context(), model.NewChapter().MustSet(model.ChapterID, id))
		if err != nil {
			return err
		}
		content, err := bundle.Get[formatted.Text](chapter, model.ChapterContent)
		if err != nil {
			return err
		}
		if chapterHTML {
			fmt.Fprintln(os.Stdout, content.HTML())
		} else {
			fmt.Fprintln(os.Stdout, content.BBCode())
		}
		return nil
	},
}
