package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"social-client/internal/views"
)

var profileCmd = &cobra.Command{
	Use:   "profile <user-id>",
	Short: "Show a user's profile and follow state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close(ctx)
		if err := a.requireSession(); err != nil {
			return err
		}

		view := views.NewProfileView(a.users, a.social, a.logger)
		if err := view.Load(ctx, args[0]); err != nil {
			return err
		}

		snapshot := view.Snapshot()
		following := ""
		if snapshot.IsFollowing {
			following = " (following)"
		}
		fmt.Printf("%s @%s%s\n", snapshot.User.DisplayName(), snapshot.User.Username, following)
		fmt.Printf("%d followers, %d following\n", snapshot.Followers, snapshot.Following)
		return nil
	},
}

var followCmd = &cobra.Command{
	Use:   "follow <user-id>",
	Short: "Follow a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runFollow(true),
}

var unfollowCmd = &cobra.Command{
	Use:   "unfollow <user-id>",
	Short: "Unfollow a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runFollow(false),
}

func runFollow(follow bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close(ctx)
		if err := a.requireSession(); err != nil {
			return err
		}

		view := views.NewProfileView(a.users, a.social, a.logger)
		if err := view.Load(ctx, args[0]); err != nil {
			return err
		}
		if follow {
			return view.Follow(ctx)
		}
		return view.Unfollow(ctx)
	}
}

func init() {
	rootCmd.AddCommand(profileCmd, followCmd, unfollowCmd)
}
