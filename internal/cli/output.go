package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"artmarket/internal/api"
	"artmarket/internal/models"
)

// render writes v either as indented JSON or through the provided text
// renderer, depending on the global format flag.
func render(w io.Writer, opts *RootOptions, v any, text func(io.Writer)) error {
	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

// describeError turns the client error taxonomy into a user-facing
// message. Field-level validation errors list every field.
func describeError(err error) string {
	var validation *api.ValidationError
	if errors.As(err, &validation) {
		lines := []string{}
		if validation.Msg != "" {
			lines = append(lines, validation.Msg)
		}
		keys := make([]string, 0, len(validation.Fields))
		for k := range validation.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("  %s: %s", k, validation.Fields[k]))
		}
		if len(lines) == 0 {
			return "invalid input"
		}
		return strings.Join(lines, "\n")
	}

	var conflict *api.ConflictError
	if errors.As(err, &conflict) {
		return conflict.Msg
	}

	var notFound *api.NotFoundError
	if errors.As(err, &notFound) {
		return notFound.Error()
	}

	if errors.Is(err, api.ErrNoToken) || errors.Is(err, api.ErrAuthExpired) {
		return "not signed in: run 'artmarket login'"
	}

	return err.Error()
}

// printPost renders one feed entry.
func printPost(w io.Writer, p models.Post) {
	status := ""
	if p.IsSold {
		status = "  [SOLD]"
	}
	marks := ""
	if p.IsLiked {
		marks += " liked"
	}
	if p.IsSaved {
		marks += " saved"
	}
	fmt.Fprintf(w, "#%d  %s — %s by %s%s\n", p.ID, p.Title, p.Price, p.User.Username, status)
	if p.Description != "" {
		fmt.Fprintf(w, "    %s\n", p.Description)
	}
	fmt.Fprintf(w, "    %d likes, %d comments%s\n", p.LikesCount, p.CommentsCount, marks)
}

// printPosts renders a post list.
func printPosts(w io.Writer, posts []models.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "no posts")
		return
	}
	for _, p := range posts {
		printPost(w, p)
	}
}

// printUser renders one user line.
func printUser(w io.Writer, u models.User) {
	follow := ""
	if u.IsFollowing {
		follow = "  [following]"
	}
	fmt.Fprintf(w, "%s  (%d followers, %d following)%s\n", u.Username, u.FollowersCount, u.FollowingCount, follow)
	if u.Bio != "" {
		fmt.Fprintf(w, "    %s\n", u.Bio)
	}
}

// printOrder renders one placed order with its lines.
func printOrder(w io.Writer, o models.Order) {
	fmt.Fprintf(w, "order #%d  %s  total %s\n", o.ID, o.Status, o.TotalAmount)
	for _, item := range o.Items {
		fmt.Fprintf(w, "    %dx #%d %s — %s\n", item.Quantity, item.Post.ID, item.Post.Title, item.Price)
	}
}

// printCart renders the cart contents and the recomputed total.
func printCart(w io.Writer, items []models.CartItem, total models.Money) {
	if len(items) == 0 {
		fmt.Fprintln(w, "cart is empty")
		return
	}
	for _, item := range items {
		fmt.Fprintf(w, "%dx #%d %s — %s\n", item.Quantity, item.Post.ID, item.Post.Title, item.Post.Price)
	}
	fmt.Fprintf(w, "total: %s\n", total)
}
