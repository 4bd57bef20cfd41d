package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"social-client/internal/models"
	"social-client/internal/views"
)

var commentsCmd = &cobra.Command{
	Use:   "comments <post-id>",
	Short: "Show a post's comment section",
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

		if parentID, _ := cmd.Flags().GetString("replies"); parentID != "" {
			replies, _, err := a.comments.Replies(ctx, parentID, a.cfg.FeedLimit, "")
			if err != nil {
				return err
			}
			printComments(replies)
			return nil
		}

		view := views.NewCommentsView(a.comments, args[0], a.cfg.FeedLimit, a.logger)
		if err := view.Load(ctx); err != nil {
			return err
		}
		printComments(view.Comments())
		return nil
	},
}

func printComments(comments []models.Comment) {
	for _, comment := range comments {
		author := comment.AuthorID
		if comment.Author != nil {
			author = comment.Author.DisplayName()
		}
		fmt.Printf("[%s] %s (%d likes)\n    %s\n", comment.ID, author, comment.LikeCount, comment.Content)
	}
}

var commentCmd = &cobra.Command{
	Use:   "comment <post-id> <content>",
	Short: "Comment on a post",
	Args:  cobra.ExactArgs(2),
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

		parentID, _ := cmd.Flags().GetString("reply-to")
		view := views.NewCommentsView(a.comments, args[0], a.cfg.FeedLimit, a.logger)
		comment, err := view.Add(ctx, args[1], parentID)
		if err != nil {
			return err
		}

		fmt.Printf("Commented %s\n", comment.ID)
		return nil
	},
}

func init() {
	commentsCmd.Flags().String("replies", "", "list the replies to the given comment id instead")
	commentCmd.Flags().String("reply-to", "", "parent comment id when replying")
	rootCmd.AddCommand(commentsCmd, commentCmd)
}
