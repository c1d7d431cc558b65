package api

import (
	"context"
	"net/http"

	"artmarket/internal/models"
)

// AuthClient implements Auth against the marketplace backend.
type AuthClient struct {
	c *Client
}

// NewAuthClient returns the auth resource client.
func NewAuthClient(c *Client) *AuthClient {
	return &AuthClient{c: c}
}

// Login posts the credentials and, on success, fetches the profile using
// the fresh token before anything is stored. The caller establishes the
// session only once both calls have succeeded, so a failed login leaves
// the prior session untouched.
func (a *AuthClient) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	var tokenResp models.TokenResponse
	err := a.c.postJSON(ctx, a.c.apiURL("/login/"), models.LoginRequest{
		Username: username,
		Password: password,
	}, true, "user", &tokenResp)
	if err != nil {
		return "", nil, err
	}

	var user models.User
	err = a.c.do(ctx, request{
		method:   http.MethodGet,
		url:      a.c.apiURL("/me/"),
		token:    tokenResp.AccessToken,
		resource: "user",
		out:      &user,
	})
	if err != nil {
		return "", nil, err
	}
	return tokenResp.AccessToken, &user, nil
}

// Register creates an account. The user must log in afterwards.
func (a *AuthClient) Register(ctx context.Context, req models.RegisterRequest) error {
	return a.c.postJSON(ctx, a.c.apiURL("/register/"), req, true, "user", nil)
}

// Me fetches the signed-in user's profile.
func (a *AuthClient) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := a.c.getJSON(ctx, a.c.apiURL("/me/"), "user", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateMe patches the profile. The payload is multipart because a
// profile picture may ride along with the text fields.
func (a *AuthClient) UpdateMe(ctx context.Context, fields map[string]string, picture *Upload) (*models.User, error) {
	var user models.User
	err := a.c.sendMultipart(ctx, http.MethodPatch, a.c.apiURL("/me/"), fields, picture, "", "user", &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
