package api

import (
	"context"
	"net/http"
	"net/url"

	"artmarket/internal/models"
)

// UsersClient implements Users against the marketplace backend.
type UsersClient struct {
	c *Client
}

// NewUsersClient returns the users resource client.
func NewUsersClient(c *Client) *UsersClient {
	return &UsersClient{c: c}
}

// Search finds users whose name matches the query.
func (u *UsersClient) Search(ctx context.Context, query string) ([]models.User, error) {
	var users []models.User
	endpoint := u.c.apiURL("/users/search/?query=" + url.QueryEscape(query))
	if err := u.c.getJSON(ctx, endpoint, "user", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Get fetches a user's public profile.
func (u *UsersClient) Get(ctx context.Context, username string) (models.User, error) {
	var user models.User
	endpoint := u.c.apiURL("/users/" + url.PathEscape(username) + "/")
	if err := u.c.getJSON(ctx, endpoint, "user", &user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Posts lists a user's listings.
func (u *UsersClient) Posts(ctx context.Context, username string) ([]models.Post, error) {
	var posts []models.Post
	endpoint := u.c.apiURL("/users/" + url.PathEscape(username) + "/posts/")
	if err := u.c.getJSON(ctx, endpoint, "post", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Followers lists the accounts following the given user.
func (u *UsersClient) Followers(ctx context.Context, username string) ([]models.User, error) {
	var users []models.User
	endpoint := u.c.apiURL("/users/" + url.PathEscape(username) + "/followers/")
	if err := u.c.getJSON(ctx, endpoint, "user", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Following lists the accounts the given user follows.
func (u *UsersClient) Following(ctx context.Context, username string) ([]models.User, error) {
	var users []models.User
	endpoint := u.c.apiURL("/users/" + url.PathEscape(username) + "/following/")
	if err := u.c.getJSON(ctx, endpoint, "user", &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ToggleFollow flips the follow state on the single idempotent toggle
// endpoint. The backend acknowledges with 201 when a follow was created
// and 200 when an existing follow was removed.
func (u *UsersClient) ToggleFollow(ctx context.Context, username string) (bool, error) {
	payload := map[string]string{"username": username}

	var following bool
	err := u.c.do(ctx, request{
		method:      http.MethodPost,
		url:         u.c.apiURL("/follows/toggle/"),
		body:        jsonBody(payload),
		contentType: "application/json",
		resource:    "user",
		out:         nil,
		statusHook: func(status int) {
			following = status == http.StatusCreated
		},
	})
	if err != nil {
		return false, err
	}
	return following, nil
}

// IsFollowing reports whether the current user follows the given one.
func (u *UsersClient) IsFollowing(ctx context.Context, username string) (bool, error) {
	var state models.FollowState
	endpoint := u.c.apiURL("/follows/check/" + url.PathEscape(username) + "/")
	if err := u.c.getJSON(ctx, endpoint, "user", &state); err != nil {
		return false, err
	}
	return state.IsFollowing, nil
}
