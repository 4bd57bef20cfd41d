package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"social-client/internal/messaging"
	"social-client/internal/realtime"
	"social-client/internal/views"
)

var chatCmd = &cobra.Command{
	Use:   "chat [user-id]",
	Short: "Open a direct-message conversation",
	Long: `chat opens the realtime channel, resolves the shared room with the
given user and enters an interactive loop. Lines you type are sent as
messages; incoming messages, typing and presence render as they arrive.
Type /quit to leave. Without a user id it lists the people you follow,
the candidates for a conversation.`,
	Args: cobra.MaximumNArgs(1),
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

		if len(args) == 0 {
			return listContacts(ctx, a)
		}

		peer, err := a.users.Profile(ctx, args[0])
		if err != nil {
			return err
		}

		channel := realtime.NewManager(a.cfg.Realtime, a.logger, a.emitter)
		if err := channel.Connect(ctx, a.store.Token()); err != nil {
			return err
		}
		defer channel.Close()
		if err := channel.Authenticate(ctx, a.store.UserID()); err != nil {
			return err
		}

		controller := messaging.NewController(a.chat, channel, a.store.UserID(), a.logger,
			messaging.WithHistoryLimit(a.cfg.ChatHistory))
		controller.OnUpdate(func() { renderConversation(controller.Snapshot()) })

		if err := controller.SelectPeer(ctx, peer); err != nil {
			return err
		}
		defer controller.Deselect(ctx)

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if line == "/quit" {
				break
			}

			controller.InputChanged(ctx)
			if _, err := controller.Send(ctx, line); err != nil {
				fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
			}
		}
		return scanner.Err()
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func listContacts(ctx context.Context, a *app) error {
	contacts := views.NewContactsView(a.social)
	if err := contacts.Load(ctx, a.store.UserID()); err != nil {
		return err
	}
	if contacts.Empty() {
		fmt.Println("You aren't following anyone yet. Follow someone to start a conversation.")
		return nil
	}

	fmt.Println("Start a conversation with:")
	for _, c := range contacts.Contacts() {
		fmt.Printf("  %s  %s\n", c.ID, c.Username)
	}
	return nil
}

func renderConversation(snapshot messaging.Snapshot) {
	fmt.Printf("\n--- %s", snapshot.Peer.DisplayName())
	if snapshot.PeerOnline {
		fmt.Print(" [online]")
	}
	if snapshot.PeerTyping {
		fmt.Print(" [typing...]")
	}
	fmt.Printf(" (%s) ---\n", snapshot.State)

	for _, message := range snapshot.Messages {
		prefix := "them"
		if message.SenderID != snapshot.Peer.ID {
			prefix = "you"
		}
		if message.Provisional() {
			prefix += " (sending)"
		}
		fmt.Printf("%s: %s\n", prefix, message.Content)
	}
}
