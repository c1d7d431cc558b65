package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"artmarket/internal/models"

	"github.com/spf13/cobra"
)

// NewLikeCommand creates the like command.
func NewLikeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "like <post-id>",
		Short: "Toggle the like on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(cmd, opts, args[0], func(rt *runtime, id int) (models.Post, error) {
				return rt.app.ProcessLikeToggle(cmd.Context(), id)
			})
		},
	}
}

// NewSaveCommand creates the save command.
func NewSaveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "save <post-id>",
		Short: "Toggle the save on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(cmd, opts, args[0], func(rt *runtime, id int) (models.Post, error) {
				return rt.app.ProcessSaveToggle(cmd.Context(), id)
			})
		},
	}
}

// runToggle is the shared body of the like and save commands: toggle,
// then show the post's authoritative state.
func runToggle(cmd *cobra.Command, opts *RootOptions, rawID string, toggle func(*runtime, int) (models.Post, error)) error {
	id, err := strconv.Atoi(rawID)
	if err != nil {
		return fmt.Errorf("invalid post id %q", rawID)
	}
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	post, err := toggle(rt, id)
	if err != nil {
		return errors.New(describeError(err))
	}
	return render(cmd.OutOrStdout(), opts, post, func(w io.Writer) {
		printPost(w, post)
	})
}

// NewCommentCommand creates the comment command group.
func NewCommentCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Read and write post comments",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <post-id>",
		Short: "List a post's comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid post id %q", args[0])
			}
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			comments, err := rt.app.ProcessComments(cmd.Context(), id)
			if err != nil {
				return errors.New(describeError(err))
			}
			return render(cmd.OutOrStdout(), opts, comments, func(w io.Writer) {
				if len(comments) == 0 {
					fmt.Fprintln(w, "no comments")
					return
				}
				for _, c := range comments {
					fmt.Fprintf(w, "#%d %s: %s\n", c.ID, c.User.Username, c.Content)
				}
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <post-id> <content...>",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid post id %q", args[0])
			}
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			comment, err := rt.app.ProcessAddComment(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return errors.New(describeError(err))
			}
			return render(cmd.OutOrStdout(), opts, comment, func(w io.Writer) {
				fmt.Fprintf(w, "comment #%d added\n", comment.ID)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <comment-id>",
		Short: "Delete one of your comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid comment id %q", args[0])
			}
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			if err := rt.app.ProcessDeleteComment(cmd.Context(), id); err != nil {
				return errors.New(describeError(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted comment #%d\n", id)
			return nil
		},
	})

	return cmd
}

// NewFollowCommand creates the follow command.
func NewFollowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "follow <username>",
		Short: "Toggle following a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			following, err := rt.app.ProcessFollowToggle(cmd.Context(), args[0], nil)
			if err != nil {
				return errors.New(describeError(err))
			}
			if following {
				fmt.Fprintf(cmd.OutOrStdout(), "now following %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "unfollowed %s\n", args[0])
			}
			return nil
		},
	}
}

// NewSearchCommand creates the user search command.
func NewSearchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search for users",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			users, err := rt.app.ProcessSearch(cmd.Context(), args[0])
			if err != nil {
				return errors.New(describeError(err))
			}
			return render(cmd.OutOrStdout(), opts, users, func(w io.Writer) {
				if len(users) == 0 {
					fmt.Fprintln(w, "no users found")
					return
				}
				for _, u := range users {
					printUser(w, u)
				}
			})
		},
	}
}

// NewProfileCommand creates the profile command group.
func NewProfileCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile <username>",
		Short: "Show a user's profile and listings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			user, err := rt.app.ProcessProfile(cmd.Context(), args[0])
			if err != nil {
				return errors.New(describeError(err))
			}
			posts, err := rt.app.ProcessUserPosts(cmd.Context(), args[0])
			if err != nil {
				return errors.New(describeError(err))
			}

			payload := struct {
				User  models.User   `json:"user"`
				Posts []models.Post `json:"posts"`
			}{User: user, Posts: posts}
			return render(cmd.OutOrStdout(), opts, payload, func(w io.Writer) {
				printUser(w, user)
				printPosts(w, posts)
			})
		},
	}

	cmd.AddCommand(newProfileUpdateCommand(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "followers <username>",
		Short: "List a user's followers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserList(cmd, opts, args[0], func(rt *runtime, username string) ([]models.User, error) {
				return rt.app.ProcessFollowers(cmd.Context(), username)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "following <username>",
		Short: "List the users someone follows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserList(cmd, opts, args[0], func(rt *runtime, username string) ([]models.User, error) {
				return rt.app.ProcessFollowing(cmd.Context(), username)
			})
		},
	})

	return cmd
}

// runUserList is the shared body of the followers and following commands.
func runUserList(cmd *cobra.Command, opts *RootOptions, username string, list func(*runtime, string) ([]models.User, error)) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}

	users, err := list(rt, username)
	if err != nil {
		return errors.New(describeError(err))
	}
	return render(cmd.OutOrStdout(), opts, users, func(w io.Writer) {
		if len(users) == 0 {
			fmt.Fprintln(w, "nobody here")
			return
		}
		for _, u := range users {
			printUser(w, u)
		}
	})
}

// NewActivityCommand creates the activity command listing likes and saves.
func NewActivityCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "activity",
		Short: "Show your liked and saved posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			likes, saves, err := rt.app.ProcessActivity(cmd.Context())
			if err != nil {
				return errors.New(describeError(err))
			}

			payload := struct {
				Likes []models.Activity `json:"likes"`
				Saves []models.Activity `json:"saves"`
			}{Likes: likes, Saves: saves}
			return render(cmd.OutOrStdout(), opts, payload, func(w io.Writer) {
				fmt.Fprintln(w, "liked:")
				for _, a := range likes {
					printPost(w, a.Post)
				}
				fmt.Fprintln(w, "saved:")
				for _, a := range saves {
					printPost(w, a.Post)
				}
			})
		},
	}
}
