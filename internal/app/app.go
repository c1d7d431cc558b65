// Package app provides the core application logic of the marketplace
// client. Each Process method implements one user intent: it validates
// input locally, calls the resource clients, and reconciles the derived
// state store with the authoritative backend responses. The package
// integrates with the session package for the token lifecycle and uses
// the logger package for event logging.
package app

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"artmarket/internal/api"
	"artmarket/internal/models"
	"artmarket/internal/pkg/logger"
	"artmarket/internal/session"
	"artmarket/internal/store"

	"go.uber.org/zap"
)

// Predefined errors for invalid arguments that are not tied to one field.
var (
	// ErrMissingCredentials indicates that either the username or password is not provided.
	ErrMissingCredentials = errors.New("app: missing username or password")
	// ErrEmptyComment indicates an attempt to post a comment with no content.
	ErrEmptyComment = errors.New("app: comment content is empty")
)

// App encapsulates the client-side application logic and its dependencies:
// the session manager, the resource clients, the derived-state store and a
// logger.
type App struct {
	session  *session.Session
	auth     api.Auth
	posts    api.Posts
	comments api.Comments
	users    api.Users
	cart     api.Cart
	store    *store.Store
	log      *logger.Logger
}

// NewApp creates and returns a new App instance with the provided
// dependencies.
func NewApp(sess *session.Session, auth api.Auth, posts api.Posts, comments api.Comments, users api.Users, cart api.Cart, st *store.Store, l *logger.Logger) *App {
	return &App{
		session:  sess,
		auth:     auth,
		posts:    posts,
		comments: comments,
		users:    users,
		cart:     cart,
		store:    st,
		log:      l,
	}
}

// Store exposes the derived-state store to the view layer.
func (app *App) Store() *store.Store {
	return app.store
}

// Session exposes the session manager to the view layer.
func (app *App) Session() *session.Session {
	return app.session
}

// ProcessLogin authenticates the user and establishes the session. On any
// failure the prior session is left untouched and nothing is persisted.
func (app *App) ProcessLogin(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	token, user, err := app.auth.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	if err := app.session.Establish(token, user); err != nil {
		return nil, err
	}
	app.log.Info("session established", zap.String("username", user.Username))
	return user, nil
}

// ProcessRegister creates an account after local field validation.
// Registration never establishes a session; the user logs in afterwards.
func (app *App) ProcessRegister(ctx context.Context, req models.RegisterRequest) error {
	fields := map[string]string{}
	if req.Username == "" {
		fields["username"] = "username is required"
	}
	if req.Email == "" {
		fields["email"] = "email is required"
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		fields["email"] = "email is not a valid address"
	}
	if len(req.Password) < 8 {
		fields["password"] = "password must be at least 8 characters"
	}
	if len(fields) > 0 {
		return &api.ValidationError{Fields: fields}
	}

	return app.auth.Register(ctx, req)
}

// Logout clears the session and every dependent cache. It is idempotent.
func (app *App) Logout() {
	app.session.Clear()
	app.store.Clear()
	app.log.Info("session cleared")
}

// ProcessProfileRefresh re-fetches the signed-in user's profile and
// updates the cached copy.
func (app *App) ProcessProfileRefresh(ctx context.Context) (*models.User, error) {
	user, err := app.auth.Me(ctx)
	if err != nil {
		return nil, err
	}
	if err := app.session.SetUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ProcessProfileUpdate patches profile fields, optionally replacing the
// profile picture, and refreshes the cached user from the response.
func (app *App) ProcessProfileUpdate(ctx context.Context, fields map[string]string, picture *api.Upload) (*models.User, error) {
	user, err := app.auth.UpdateMe(ctx, fields, picture)
	if err != nil {
		return nil, err
	}
	if err := app.session.SetUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// ProcessFeedRefresh fetches the feed and installs it into the store. It
// reports whether the in-memory list changed; an unchanged payload is a
// no-op so pollers do not churn the view.
func (app *App) ProcessFeedRefresh(ctx context.Context) (bool, error) {
	gen := app.store.Generation()
	posts, err := app.posts.List(ctx)
	if err != nil {
		return false, err
	}
	return app.store.ReplacePosts(gen, posts), nil
}

// FeedPoller returns a poller that keeps the feed fresh at the given
// interval until its context is cancelled. onChange, when non-nil, runs
// after every refresh that actually changed the feed; unchanged payloads
// stay silent.
func (app *App) FeedPoller(interval time.Duration, onChange func()) *store.Poller {
	return store.NewPoller(interval, func(ctx context.Context) error {
		changed, err := app.ProcessFeedRefresh(ctx)
		if err != nil {
			return err
		}
		if changed && onChange != nil {
			onChange()
		}
		return nil
	}, app.log)
}

// ProcessLikeToggle flips the like state of a post and then re-fetches
// authoritative state, so the flag and likes_count cannot drift.
func (app *App) ProcessLikeToggle(ctx context.Context, postID int) (models.Post, error) {
	if err := app.posts.ToggleLike(ctx, postID); err != nil {
		return models.Post{}, err
	}
	return app.refreshedPost(ctx, postID)
}

// ProcessSaveToggle flips the save state of a post and re-fetches.
func (app *App) ProcessSaveToggle(ctx context.Context, postID int) (models.Post, error) {
	if err := app.posts.ToggleSave(ctx, postID); err != nil {
		return models.Post{}, err
	}
	return app.refreshedPost(ctx, postID)
}

// refreshedPost reloads the feed and returns the post's current record,
// falling back to a single fetch when the post is not in the feed.
func (app *App) refreshedPost(ctx context.Context, postID int) (models.Post, error) {
	if _, err := app.ProcessFeedRefresh(ctx); err != nil {
		return models.Post{}, err
	}
	if post, ok := app.store.Post(postID); ok {
		return post, nil
	}
	return app.posts.Get(ctx, postID)
}

// ProcessComments fetches a post's comments and merges them into the
// store, deduplicated by comment id.
func (app *App) ProcessComments(ctx context.Context, postID int) ([]models.Comment, error) {
	comments, err := app.comments.ListForPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	app.store.MergeComments(postID, comments)
	return app.store.Comments(postID), nil
}

// ProcessAddComment posts a comment and appends the stored record.
func (app *App) ProcessAddComment(ctx context.Context, postID int, content string) (models.Comment, error) {
	if content == "" {
		return models.Comment{}, ErrEmptyComment
	}
	comment, err := app.comments.Create(ctx, postID, content)
	if err != nil {
		return models.Comment{}, err
	}
	app.store.AddComment(comment)
	return comment, nil
}

// ProcessDeleteComment removes a comment on the backend and locally.
func (app *App) ProcessDeleteComment(ctx context.Context, commentID int) error {
	if err := app.comments.Delete(ctx, commentID); err != nil {
		return err
	}
	app.store.DeleteComment(commentID)
	return nil
}

// ProcessAddToCart adds an artwork to the cart. Because sold status can
// change between page load and purchase, it re-fetches the post's current
// state immediately before the add, and still treats a sold conflict from
// the add itself as authoritative. On a conflict the feed is refreshed so
// the view reflects the backend's state; success is never assumed.
func (app *App) ProcessAddToCart(ctx context.Context, postID, quantity int) error {
	if quantity <= 0 {
		return &api.ValidationError{Fields: map[string]string{"quantity": "quantity must be positive"}}
	}

	post, err := app.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post.IsSold {
		app.resyncFeed(ctx)
		return &api.ConflictError{Msg: "artwork is already sold"}
	}

	if err := app.cart.Add(ctx, postID, quantity); err != nil {
		var conflict *api.ConflictError
		if errors.As(err, &conflict) {
			app.resyncFeed(ctx)
		}
		return err
	}

	return app.ProcessCartRefresh(ctx)
}

// ProcessRemoveFromCart deletes a post's cart entry and re-syncs the
// whole cart from the backend.
func (app *App) ProcessRemoveFromCart(ctx context.Context, postID int) error {
	if err := app.cart.Remove(ctx, postID); err != nil {
		return err
	}
	return app.ProcessCartRefresh(ctx)
}

// ProcessCartRefresh replaces the cart collection with the backend's
// payload; the store recomputes the total from price times quantity.
func (app *App) ProcessCartRefresh(ctx context.Context) error {
	items, err := app.cart.Items(ctx)
	if err != nil {
		return err
	}
	app.store.ReplaceCart(items)
	return nil
}

// ProcessCheckout places an order, then re-syncs both the cart (emptied
// by the backend) and the feed (purchased artworks are now sold).
func (app *App) ProcessCheckout(ctx context.Context) (models.Order, error) {
	order, err := app.cart.Checkout(ctx)
	if err != nil {
		return models.Order{}, err
	}
	if err := app.ProcessCartRefresh(ctx); err != nil {
		return order, err
	}
	app.resyncFeed(ctx)
	return order, nil
}

// ProcessSaveAddress validates and stores a shipping address.
func (app *App) ProcessSaveAddress(ctx context.Context, addr models.Address) error {
	fields := map[string]string{}
	if addr.Street == "" {
		fields["street"] = "street is required"
	}
	if addr.City == "" {
		fields["city"] = "city is required"
	}
	if addr.ZipCode == "" {
		fields["zipCode"] = "zip code is required"
	}
	if addr.Country == "" {
		fields["country"] = "country is required"
	}
	if len(fields) > 0 {
		return &api.ValidationError{Fields: fields}
	}
	return app.cart.SaveAddress(ctx, addr)
}

// ProcessOrders lists the user's placed orders.
func (app *App) ProcessOrders(ctx context.Context) ([]models.Order, error) {
	return app.cart.Orders(ctx)
}

// ProcessFollowToggle flips the follow state for a user. When the caller
// is looking at that user's profile page, the profile's follower count is
// adjusted optimistically in place; dialog views re-fetch the follower
// and following lists instead so their contents stay authoritative.
func (app *App) ProcessFollowToggle(ctx context.Context, username string, profile *models.User) (bool, error) {
	following, err := app.users.ToggleFollow(ctx, username)
	if err != nil {
		return false, err
	}

	if profile != nil && profile.Username == username {
		profile.IsFollowing = following
		if following {
			profile.FollowersCount++
		} else if profile.FollowersCount > 0 {
			profile.FollowersCount--
		}
	}
	return following, nil
}

// ProcessFollowers re-fetches a user's follower list.
func (app *App) ProcessFollowers(ctx context.Context, username string) ([]models.User, error) {
	return app.users.Followers(ctx, username)
}

// ProcessFollowing re-fetches the list of users someone follows.
func (app *App) ProcessFollowing(ctx context.Context, username string) ([]models.User, error) {
	return app.users.Following(ctx, username)
}

// ProcessProfile fetches a user's public profile.
func (app *App) ProcessProfile(ctx context.Context, username string) (models.User, error) {
	return app.users.Get(ctx, username)
}

// ProcessUserPosts lists a user's own listings.
func (app *App) ProcessUserPosts(ctx context.Context, username string) ([]models.Post, error) {
	return app.users.Posts(ctx, username)
}

// ProcessSearch finds users matching the query.
func (app *App) ProcessSearch(ctx context.Context, query string) ([]models.User, error) {
	return app.users.Search(ctx, query)
}

// ProcessPostCreate validates and publishes a new listing, then refreshes
// the feed so the new post appears with backend-assigned identifiers.
func (app *App) ProcessPostCreate(ctx context.Context, draft api.PostDraft, image *api.Upload) (models.Post, error) {
	if err := validateDraft(draft); err != nil {
		return models.Post{}, err
	}
	post, err := app.posts.Create(ctx, draft, image)
	if err != nil {
		return models.Post{}, err
	}
	app.resyncFeed(ctx)
	return post, nil
}

// ProcessPostUpdate validates and updates an existing listing.
func (app *App) ProcessPostUpdate(ctx context.Context, id int, draft api.PostDraft, image *api.Upload) (models.Post, error) {
	if err := validateDraft(draft); err != nil {
		return models.Post{}, err
	}
	post, err := app.posts.Update(ctx, id, draft, image)
	if err != nil {
		return models.Post{}, err
	}
	app.resyncFeed(ctx)
	return post, nil
}

// ProcessPostDelete removes a listing and refreshes the feed.
func (app *App) ProcessPostDelete(ctx context.Context, id int) error {
	if err := app.posts.Delete(ctx, id); err != nil {
		return err
	}
	app.resyncFeed(ctx)
	return nil
}

// ProcessPost fetches a single post.
func (app *App) ProcessPost(ctx context.Context, id int) (models.Post, error) {
	return app.posts.Get(ctx, id)
}

// ProcessActivity lists the user's like and save records.
func (app *App) ProcessActivity(ctx context.Context) (likes, saves []models.Activity, err error) {
	likes, err = app.posts.Liked(ctx)
	if err != nil {
		return nil, nil, err
	}
	saves, err = app.posts.Saved(ctx)
	if err != nil {
		return nil, nil, err
	}
	return likes, saves, nil
}

// resyncFeed refreshes the feed and only logs failures: it runs after a
// mutation already succeeded or already produced its own error, and that
// outcome is the one the caller must see.
func (app *App) resyncFeed(ctx context.Context) {
	if _, err := app.ProcessFeedRefresh(ctx); err != nil {
		app.log.Warn("feed resync failed", zap.Error(err))
	}
}

// validateDraft checks the locally enforceable listing invariants.
func validateDraft(draft api.PostDraft) error {
	fields := map[string]string{}
	if draft.Title == "" {
		fields["title"] = "title is required"
	}
	if draft.Price <= 0 {
		fields["price"] = "price must be positive"
	}
	if len(fields) > 0 {
		return &api.ValidationError{Fields: fields}
	}
	return nil
}
