package api

import (
	"context"

	"artmarket/internal/models"
)

// Auth performs authentication and profile operations.
type Auth interface {
	// Login exchanges credentials for a bearer token and fetches the
	// profile of the authenticated user. On any failure nothing about the
	// current session changes.
	Login(ctx context.Context, username, password string) (string, *models.User, error)
	// Register creates an account. It does not establish a session.
	Register(ctx context.Context, req models.RegisterRequest) error
	// Me fetches the current user's profile.
	Me(ctx context.Context) (*models.User, error)
	// UpdateMe patches profile fields, optionally replacing the profile
	// picture via a multipart payload.
	UpdateMe(ctx context.Context, fields map[string]string, picture *Upload) (*models.User, error)
}

// PostDraft carries the writable fields of a post.
type PostDraft struct {
	Title       string
	Description string
	Price       models.Money
	Category    string
}

// Posts wraps the artwork listings and the like/save toggles.
type Posts interface {
	List(ctx context.Context) ([]models.Post, error)
	Get(ctx context.Context, id int) (models.Post, error)
	Create(ctx context.Context, draft PostDraft, image *Upload) (models.Post, error)
	Update(ctx context.Context, id int, draft PostDraft, image *Upload) (models.Post, error)
	Delete(ctx context.Context, id int) error
	ToggleLike(ctx context.Context, postID int) error
	ToggleSave(ctx context.Context, postID int) error
	Liked(ctx context.Context) ([]models.Activity, error)
	Saved(ctx context.Context) ([]models.Activity, error)
}

// Comments wraps the per-post comment collection.
type Comments interface {
	ListForPost(ctx context.Context, postID int) ([]models.Comment, error)
	Create(ctx context.Context, postID int, content string) (models.Comment, error)
	Delete(ctx context.Context, id int) error
}

// Users wraps profile lookup, search and the follow graph.
type Users interface {
	Search(ctx context.Context, query string) ([]models.User, error)
	Get(ctx context.Context, username string) (models.User, error)
	Posts(ctx context.Context, username string) ([]models.Post, error)
	Followers(ctx context.Context, username string) ([]models.User, error)
	Following(ctx context.Context, username string) ([]models.User, error)
	// ToggleFollow flips the follow state server-side and reports the
	// resulting state.
	ToggleFollow(ctx context.Context, username string) (bool, error)
	IsFollowing(ctx context.Context, username string) (bool, error)
}

// Cart wraps the shopping cart, checkout and order history.
type Cart interface {
	Items(ctx context.Context) ([]models.CartItem, error)
	Add(ctx context.Context, postID, quantity int) error
	Remove(ctx context.Context, postID int) error
	Checkout(ctx context.Context) (models.Order, error)
	Orders(ctx context.Context) ([]models.Order, error)
	SaveAddress(ctx context.Context, addr models.Address) error
}
