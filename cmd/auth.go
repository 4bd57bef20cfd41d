package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"social-client/internal/api"
)

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in and persist the session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}

		creds, err := a.auth.Login(ctx, args[0], password)
		if err != nil {
			return err
		}
		if err := a.store.SetSession(creds); err != nil {
			return err
		}

		fmt.Printf("Logged in as %s\n", creds.User.DisplayName())
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <username> <email>",
	Short: "Create an account and log in",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		confirm, err := promptPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		firstName, _ := cmd.Flags().GetString("first-name")
		lastName, _ := cmd.Flags().GetString("last-name")

		creds, err := a.auth.Register(ctx, api.RegisterParams{
			Username:  args[0],
			Email:     args[1],
			Password:  password,
			FirstName: firstName,
			LastName:  lastName,
		})
		if err != nil {
			return err
		}
		if err := a.store.SetSession(creds); err != nil {
			return err
		}

		fmt.Printf("Registered and logged in as %s\n", creds.User.DisplayName())
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the persisted session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		if err := a.store.Clear(); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		snapshot := a.store.Current()
		if !snapshot.Authenticated {
			fmt.Println("Not logged in")
			return nil
		}
		fmt.Printf("%s (%s) id=%s\n", snapshot.User.DisplayName(), snapshot.User.Email, snapshot.User.ID)
		return nil
	},
}

func init() {
	registerCmd.Flags().String("first-name", "", "first name")
	registerCmd.Flags().String("last-name", "", "last name")
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

// promptPassword reads a masked password, falling back to plain line input
// when stdin is not a terminal.
func promptPassword(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
