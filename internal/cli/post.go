package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"artmarket/internal/api"
	"artmarket/internal/models"

	"github.com/spf13/cobra"
)

// NewPostCommand creates the post command group for managing listings.
func NewPostCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "post",
		Short: "Manage artwork listings",
	}
	cmd.AddCommand(newPostShowCommand(opts))
	cmd.AddCommand(newPostCreateCommand(opts))
	cmd.AddCommand(newPostUpdateCommand(opts))
	cmd.AddCommand(newPostDeleteCommand(opts))
	return cmd
}

func newPostShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one listing",
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

			post, err := rt.app.ProcessPost(cmd.Context(), id)
			if err != nil {
				return errors.New(describeError(err))
			}
			return render(cmd.OutOrStdout(), opts, post, func(w io.Writer) {
				printPost(w, post)
			})
		},
	}
}

func newPostCreateCommand(opts *RootOptions) *cobra.Command {
	var title, description, price, category, imagePath string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new listing",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}

			draft, err := buildDraft(title, description, price, category)
			if err != nil {
				return err
			}
			image, cleanup, err := openUpload("image", imagePath)
			if err != nil {
				return err
			}
			defer cleanup()

			post, err := rt.app.ProcessPostCreate(cmd.Context(), draft, image)
			if err != nil {
				return errors.New(describeError(err))
			}
			return render(cmd.OutOrStdout(), opts, post, func(w io.Writer) {
				fmt.Fprintf(w, "published post #%d\n", post.ID)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "listing title")
	cmd.Flags().StringVar(&description, "description", "", "listing description")
	cmd.Flags().StringVar(&price, "price", "", "price, e.g. 120.50")
	cmd.Flags().StringVar(&category, "category", "", "listing category")
	cmd.Flags().StringVar(&imagePath, "image", "", "path to the artwork image")
	return cmd
}

func newPostUpdateCommand(opts *RootOptions) *cobra.Command {
	var title, description, price, category, imagePath string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an existing listing",
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

			draft, err := buildDraft(title, description, price, category)
			if err != nil {
				return err
			}
			image, cleanup, err := openUpload("image", imagePath)
			if err != nil {
				return err
			}
			defer cleanup()

			post, err := rt.app.ProcessPostUpdate(cmd.Context(), id, draft, image)
			if err != nil {
				return errors.New(describeError(err))
			}
			return render(cmd.OutOrStdout(), opts, post, func(w io.Writer) {
				fmt.Fprintf(w, "updated post #%d\n", post.ID)
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "listing title")
	cmd.Flags().StringVar(&description, "description", "", "listing description")
	cmd.Flags().StringVar(&price, "price", "", "price, e.g. 120.50")
	cmd.Flags().StringVar(&category, "category", "", "listing category")
	cmd.Flags().StringVar(&imagePath, "image", "", "path to the artwork image")
	return cmd
}

func newPostDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a listing",
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

			if err := rt.app.ProcessPostDelete(cmd.Context(), id); err != nil {
				return errors.New(describeError(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted post #%d\n", id)
			return nil
		},
	}
}

// buildDraft assembles a listing draft from flag values.
func buildDraft(title, description, price, category string) (api.PostDraft, error) {
	amount, err := models.ParseMoney(price)
	if err != nil {
		return api.PostDraft{}, fmt.Errorf("invalid price %q", price)
	}
	return api.PostDraft{
		Title:       title,
		Description: description,
		Price:       amount,
		Category:    category,
	}, nil
}

// openUpload opens a file for a multipart upload. An empty path yields a
// nil upload and a no-op cleanup.
func openUpload(field, path string) (*api.Upload, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	upload := &api.Upload{Field: field, Name: filepath.Base(path), Content: f}
	return upload, func() { f.Close() }, nil
}
