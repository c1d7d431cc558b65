package api

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"artmarket/internal/apitest"
	"artmarket/internal/models"
	"artmarket/internal/pkg/logger"
	"artmarket/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testClient wires a base client against the fake backend with a fresh
// session and an auth-failure counter.
func testClient(t *testing.T, srv *apitest.Server) (*Client, *session.Session, *int) {
	l, err := logger.CreateLogger("error")
	require.NoError(t, err)

	sess := session.New(filepath.Join(t.TempDir(), "session.json"), l)
	client := NewClient(srv.APIURL(), srv.EcommerceURL(), sess, 5*time.Second, 100, l)

	failures := 0
	client.SetAuthFailureHandler(func() {
		failures++
		sess.Clear()
	})
	return client, sess, &failures
}

// signIn establishes a session for a seeded user.
func signIn(t *testing.T, srv *apitest.Server, sess *session.Session, username string) {
	user := models.User{Username: username}
	require.NoError(t, sess.Establish(srv.GenerateToken(username, time.Hour), &user))
}

func TestLogin(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.MustAddUser("vermeer", "pearl1665", "vermeer@example.com")

	client, _, failures := testClient(t, srv)
	auth := NewAuthClient(client)

	token, user, err := auth.Login(context.Background(), "vermeer", "pearl1665")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	require.NotNil(t, user)
	assert.Equal(t, "vermeer", user.Username)
	assert.Zero(t, *failures)
}

func TestLoginBadCredentials(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.MustAddUser("vermeer", "pearl1665", "vermeer@example.com")

	client, sess, failures := testClient(t, srv)
	signIn(t, srv, sess, "vermeer")
	before := sess.Token()

	auth := NewAuthClient(client)
	_, _, err := auth.Login(context.Background(), "vermeer", "wrong")

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Msg, "Invalid credentials")
	// Rejected credentials are not an expired session: nothing is torn down.
	assert.Zero(t, *failures)
	assert.Equal(t, before, sess.Token())
}

func TestNoTokenShortCircuit(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()

	client, _, failures := testClient(t, srv)
	posts := NewPostsClient(client)

	_, err := posts.List(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
	assert.Equal(t, 1, *failures)
	// The short circuit happens before any network traffic.
	assert.Zero(t, srv.Requests())
}

func TestRejectedTokenFiresAuthFailure(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.MustAddUser("vermeer", "pearl1665", "vermeer@example.com")

	client, sess, failures := testClient(t, srv)
	require.NoError(t, sess.Establish("garbage-token", nil))

	posts := NewPostsClient(client)
	_, err := posts.List(context.Background())

	assert.ErrorIs(t, err, ErrAuthExpired)
	assert.Equal(t, 1, *failures)
	assert.Empty(t, sess.Token())
}

func TestGetPostNotFound(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.MustAddUser("vermeer", "pearl1665", "vermeer@example.com")

	client, sess, _ := testClient(t, srv)
	signIn(t, srv, sess, "vermeer")

	_, err := NewPostsClient(client).Get(context.Background(), 999)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "post", notFound.Resource)
}

func TestSoldArtworkMapsToConflict(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.MustAddUser("vermeer", "pearl1665", "vermeer@example.com")
	srv.MustAddUser("collector", "password1", "collector@example.com")
	post := srv.AddPost("vermeer", "View of Delft", "950.00")
	srv.MarkSold(post.ID)

	client, sess, failures := testClient(t, srv)
	signIn(t, srv, sess, "collector")

	err := NewCartClient(client).Add(context.Background(), post.ID, 1)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, strings.ToLower(conflict.Msg), "sold")
	// A conflict is a domain outcome, not an authorization failure.
	assert.Zero(t, *failures)
}

func TestFollowToggleReportsState(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.MustAddUser("vermeer", "pearl1665", "vermeer@example.com")
	srv.MustAddUser("collector", "password1", "collector@example.com")

	client, sess, _ := testClient(t, srv)
	signIn(t, srv, sess, "collector")
	users := NewUsersClient(client)

	following, err := users.ToggleFollow(context.Background(), "vermeer")
	require.NoError(t, err)
	assert.True(t, following)

	following, err = users.ToggleFollow(context.Background(), "vermeer")
	require.NoError(t, err)
	assert.False(t, following)

	state, err := users.IsFollowing(context.Background(), "vermeer")
	require.NoError(t, err)
	assert.False(t, state)
}

func TestCreatePostMultipart(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.MustAddUser("vermeer", "pearl1665", "vermeer@example.com")

	client, sess, _ := testClient(t, srv)
	signIn(t, srv, sess, "vermeer")

	draft := PostDraft{Title: "The Milkmaid", Price: 45000, Category: "painting"}
	image := &Upload{Field: "image", Name: "milkmaid.jpg", Content: strings.NewReader("jpeg bytes")}

	post, err := NewPostsClient(client).Create(context.Background(), draft, image)
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
	assert.Equal(t, "The Milkmaid", post.Title)
	assert.Equal(t, models.Money(45000), post.Price)
	assert.Contains(t, post.Image, "milkmaid.jpg")
}

func TestCommentsRoundTrip(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.MustAddUser("vermeer", "pearl1665", "vermeer@example.com")
	post := srv.AddPost("vermeer", "The Art of Painting", "1500.00")

	client, sess, _ := testClient(t, srv)
	signIn(t, srv, sess, "vermeer")
	comments := NewCommentsClient(client)

	created, err := comments.Create(context.Background(), post.ID, "a self portrait, of sorts")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	listed, err := comments.ListForPost(context.Background(), post.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	require.NoError(t, comments.Delete(context.Background(), created.ID))
	listed, err = comments.ListForPost(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestCheckoutMarksSoldAndEmptiesCart(t *testing.T) {
	srv := apitest.New()
	defer srv.Close()
	srv.MustAddUser("vermeer", "pearl1665", "vermeer@example.com")
	srv.MustAddUser("collector", "password1", "collector@example.com")
	post := srv.AddPost("vermeer", "The Geographer", "800.00")

	client, sess, _ := testClient(t, srv)
	signIn(t, srv, sess, "collector")
	cart := NewCartClient(client)

	require.NoError(t, cart.Add(context.Background(), post.ID, 1))

	order, err := cart.Checkout(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.Equal(t, models.Money(80000), order.TotalAmount)

	items, err := cart.Items(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)

	bought, err := NewPostsClient(client).Get(context.Background(), post.ID)
	require.NoError(t, err)
	assert.True(t, bought.IsSold)
}
