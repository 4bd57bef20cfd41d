package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"social-client/internal/views"
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Show the notification inbox",
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

		view := views.NewNotificationsView(a.notifications, a.cfg.FeedLimit, a.logger)
		if err := view.Load(ctx); err != nil {
			return err
		}

		if readID, _ := cmd.Flags().GetString("read"); readID != "" {
			return view.MarkRead(ctx, readID)
		}
		if readAll, _ := cmd.Flags().GetBool("read-all"); readAll {
			return view.MarkAllRead(ctx)
		}

		fmt.Printf("%d unread\n", view.UnreadCount())
		for _, n := range view.Notifications() {
			marker := "*"
			if n.IsRead {
				marker = " "
			}
			fmt.Printf("%s [%s] %s: %s\n", marker, n.ID, n.Type, n.Content)
		}
		return nil
	},
}

func init() {
	notificationsCmd.Flags().String("read", "", "mark one notification read")
	notificationsCmd.Flags().Bool("read-all", false, "mark every notification read")
	rootCmd.AddCommand(notificationsCmd)
}
