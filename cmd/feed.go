package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"social-client/internal/models"
	"social-client/internal/views"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show the home timeline",
	Args:  cobra.NoArgs,
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

		pages, _ := cmd.Flags().GetInt("pages")
		view := views.NewFeedView(a.posts, a.media, a.cfg.FeedLimit, a.logger)
		if err := view.Load(ctx); err != nil {
			return err
		}
		for i := 1; i < pages; i++ {
			if err := view.LoadMore(ctx); err != nil {
				return err
			}
		}

		for _, post := range view.Posts() {
			printPost(post)
		}
		return nil
	},
}

var postCmd = &cobra.Command{
	Use:   "post <content>",
	Short: "Publish a post, optionally with an attachment",
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

		var attachment io.Reader
		filename := ""
		if path, _ := cmd.Flags().GetString("attach"); path != "" {
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()
			attachment = file
			filename = filepath.Base(path)
		}

		view := views.NewFeedView(a.posts, a.media, a.cfg.FeedLimit, a.logger)
		post, err := view.CreatePost(ctx, args[0], attachment, filename)
		if err != nil {
			return err
		}

		fmt.Printf("Posted %s\n", post.ID)
		return nil
	},
}

var likeCmd = &cobra.Command{
	Use:   "like <post-id>",
	Short: "Toggle a like on a post",
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

		view := views.NewFeedView(a.posts, a.media, a.cfg.FeedLimit, a.logger)
		if err := view.Load(ctx); err != nil {
			return err
		}
		return view.ToggleLike(ctx, args[0])
	},
}

var deletePostCmd = &cobra.Command{
	Use:   "delete-post <post-id>",
	Short: "Delete one of your posts",
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
		return a.posts.Delete(ctx, args[0])
	},
}

func init() {
	feedCmd.Flags().Int("pages", 1, "number of pages to fetch")
	postCmd.Flags().String("attach", "", "path of a media file to attach")
	rootCmd.AddCommand(feedCmd, postCmd, likeCmd, deletePostCmd)
}

func printPost(post models.Post) {
	author := post.AuthorID
	if post.Author != nil {
		author = post.Author.DisplayName()
	}
	liked := " "
	if post.IsLiked {
		liked = "*"
	}
	fmt.Printf("[%s] %s%s (%d likes, %d comments)\n    %s\n",
		post.ID, author, liked, post.LikeCount, post.CommentCount, post.Content)
	if post.MediaURL != nil {
		fmt.Printf("    media: %s\n", *post.MediaURL)
	}
}
