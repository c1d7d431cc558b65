package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"artmarket/internal/models"

	"github.com/spf13/cobra"
)

// NewLoginCommand creates the login command.
func NewLoginCommand(opts *RootOptions) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			if username == "" {
				username = prompt("Username: ")
			}
			if password == "" {
				password = prompt("Password: ")
			}

			user, err := rt.app.ProcessLogin(cmd.Context(), username, password)
			if err != nil {
				return errors.New(describeError(err))
			}

			return render(cmd.OutOrStdout(), opts, user, func(w io.Writer) {
				fmt.Fprintf(w, "signed in as %s\n", user.Username)
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	return cmd
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(opts *RootOptions) *cobra.Command {
	var req models.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			if err := rt.app.ProcessRegister(cmd.Context(), req); err != nil {
				return errors.New(describeError(err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "account created, run 'artmarket login' to sign in")
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "account password")
	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			rt.app.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

// NewProfileUpdateCommand creates the profile update subcommand body.
func newProfileUpdateCommand(opts *RootOptions) *cobra.Command {
	var email, firstName, lastName, bio, picturePath string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Edit your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			fields := map[string]string{}
			for key, value := range map[string]string{
				"email":      email,
				"first_name": firstName,
				"last_name":  lastName,
				"bio":        bio,
			} {
				if value != "" {
					fields[key] = value
				}
			}
			picture, cleanup, err := openUpload("profile_picture", picturePath)
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := rt.app.ProcessProfileUpdate(cmd.Context(), fields, picture)
			if err != nil {
				return errors.New(describeError(err))
			}
			return render(cmd.OutOrStdout(), opts, user, func(w io.Writer) {
				printUser(w, *user)
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "new email address")
	cmd.Flags().StringVar(&firstName, "first-name", "", "new first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "new last name")
	cmd.Flags().StringVar(&bio, "bio", "", "new bio")
	cmd.Flags().StringVar(&picturePath, "picture", "", "path to a new profile picture")
	return cmd
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			user, err := rt.app.ProcessProfileRefresh(cmd.Context())
			if err != nil {
				return errors.New(describeError(err))
			}
			return render(cmd.OutOrStdout(), opts, user, func(w io.Writer) {
				printUser(w, *user)
			})
		},
	}
}

// prompt reads one line from standard input.
func prompt(label string) string {
	fmt.Fprint(os.Stderr, label)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
