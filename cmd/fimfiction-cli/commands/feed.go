package commands

import (
	"github.com/spf13/cobra"
)

var feedUser int64

func init() {
	feedCmd.Flags().Int64Var(&feedUser, "user", 0, "The user whose tracking feed is read, the logged in user if not given.")
	rootCmd.AddCommand(feedCmd)
}

var feedCmd = &cobra.Command{
	Use:   "feed [--user <id>]",
	Short: "Lists the tracked stories that have unread chapters.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient(cmd.Context())
		if err != nil {
			return err
		}

		userID := feedUser
		if userID == 0 {
			session, err := client.CurrentSession(cmd.Context())
			if err != nil {
				return err
			}
			userID, err = session.UserID()
			if err != nil {
				return err
			}
		}

		stories, err := client.UnreadFeed(cmd.Context(), userID)
		if err != nil {
			return err
		}
		printStories(stories)
		return nil
	},
}
