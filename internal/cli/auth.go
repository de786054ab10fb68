package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/ppiankov/nyaya/internal/api"
	"github.com/ppiankov/nyaya/internal/model"
	"github.com/spf13/cobra"
)

var (
	loginEmail       string
	loginPassword    string
	signupName       string
	signupProfession string
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check which backend host is reachable",
	Long: `Ping probes the configured backend and then each fallback host, and
reports the first one that answers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		base, err := a.client.Probe(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %v\n", err)
			return errors.New("backend unreachable")
		}
		fmt.Fprintf(os.Stderr, "✓ Backend reachable: %s\n", base)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session",
	Long: `Login signs in with email and password. The password is read from
--password, NYAYA_PASSWORD, or prompted for.

Example:
  nyaya login --email advocate@example.in`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		email, password, err := credentials()
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		user, err := a.client.Login(ctx, email, password)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(os.Stderr, "✓ Logged in as %s\n", displayName(user, email))
		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		email, password, err := credentials()
		if err != nil {
			return err
		}
		if signupName == "" {
			if signupName, err = prompt("Name: "); err != nil {
				return err
			}
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()

		user, err := a.client.Signup(ctx, model.SignupRequest{
			Name:       signupName,
			Email:      email,
			Password:   password,
			Profession: signupProfession,
		})
		if err != nil {
			return describe(err)
		}

		if a.session.Authenticated() {
			fmt.Fprintf(os.Stderr, "✓ Account created, logged in as %s\n", displayName(user, email))
		} else {
			fmt.Fprintf(os.Stderr, "✓ Account created for %s. Verify your email, then run 'nyaya login'.\n", email)
		}
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := a.client.Logout(ctx); err != nil {
			// Local credentials are gone either way
			fmt.Fprintf(os.Stderr, "⚠ Server logout failed: %v\n", describe(err))
		}
		fmt.Fprintln(os.Stderr, "✓ Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.requireLogin(); err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		user, err := a.client.Me(ctx)
		if err != nil {
			if errors.Is(err, api.ErrLoginRequired) {
				return errors.New("session expired: run 'nyaya login'")
			}
			return describe(err)
		}

		if a.printer.Format() == "json" {
			return a.printer.JSON(user)
		}
		fmt.Printf("%s <%s>\n", displayName(user, user.Email), user.Email)
		if user.Profession != "" {
			fmt.Printf("Profession: %s\n", user.Profession)
		}
		if user.Plan != "" {
			fmt.Printf("Plan:       %s\n", user.Plan)
		}
		return nil
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List your active sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.requireLogin(); err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		sessions, err := a.client.Sessions(ctx)
		if err != nil {
			return describe(err)
		}
		return a.printer.Sessions(sessions)
	},
}

var sessionsRevokeCmd = &cobra.Command{
	Use:   "revoke <session-id>",
	Short: "Sign out one of your sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		if err := a.requireLogin(); err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if err := a.client.RevokeSession(ctx, args[0]); err != nil {
			return describe(err)
		}
		fmt.Fprintf(os.Stderr, "✓ Revoked session %s\n", args[0])
		return nil
	},
}

// credentials collects email and password from flags, environment or stdin
func credentials() (email, password string, err error) {
	email, password = loginEmail, loginPassword
	if email == "" {
		email = os.Getenv("NYAYA_EMAIL")
	}
	if password == "" {
		password = os.Getenv("NYAYA_PASSWORD")
	}
	if email == "" {
		if email, err = prompt("Email: "); err != nil {
			return "", "", err
		}
	}
	if password == "" {
		if password, err = prompt("Password: "); err != nil {
			return "", "", err
		}
	}
	if email == "" || password == "" {
		return "", "", errors.New("email and password are required")
	}
	return email, password, nil
}

func displayName(user *model.User, fallback string) string {
	if user == nil {
		return fallback
	}
	if user.Name != "" {
		return user.Name
	}
	if user.Email != "" {
		return user.Email
	}
	return fallback
}

func init() {
	rootCmd.AddCommand(pingCmd, loginCmd, signupCmd, logoutCmd, whoamiCmd, sessionsCmd)
	sessionsCmd.AddCommand(sessionsRevokeCmd)

	for _, c := range []*cobra.Command{loginCmd, signupCmd} {
		c.Flags().StringVar(&loginEmail, "email", "", "account email (or NYAYA_EMAIL)")
		c.Flags().StringVar(&loginPassword, "password", "", "account password (or NYAYA_PASSWORD)")
	}
	signupCmd.Flags().StringVar(&signupName, "name", "", "full name")
	signupCmd.Flags().StringVar(&signupProfession, "profession", "", "lawyer, student, judge, ...")
}
