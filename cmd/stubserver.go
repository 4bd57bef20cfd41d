package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"social-client/internal/observability"
	"social-client/internal/stubserver"
)

var stubServerCmd = &cobra.Command{
	Use:   "stub-server",
	Short: "Run the in-memory backend stub for local development",
	Long: `stub-server serves every backend endpoint the client uses from one
in-memory process, realtime channel included. State is lost on exit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := observability.NewLogger("development", "info")
		if err != nil {
			return err
		}

		server := stubserver.New(logger)
		if seed, _ := cmd.Flags().GetBool("seed"); seed {
			alice := server.SeedUser("alice", "alice@example.com", "password")
			bob := server.SeedUser("bob", "bob@example.com", "password")
			server.SeedFollow(alice.ID, bob.ID)
			server.SeedFollow(bob.ID, alice.ID)
			server.SeedPost(bob.ID, "hello from the stub")
			fmt.Printf("seeded %s and %s, password \"password\"\n", alice.Email, bob.Email)
		}

		addr, _ := cmd.Flags().GetString("addr")
		fmt.Printf("stub backend listening on %s\n", addr)
		return server.Router().Run(addr)
	},
}

func init() {
	stubServerCmd.Flags().String("addr", ":3008", "listen address")
	stubServerCmd.Flags().Bool("seed", true, "seed demo users and posts")
	rootCmd.AddCommand(stubServerCmd)
}
