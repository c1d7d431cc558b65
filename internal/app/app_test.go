package app

import (
	"context"
	"path/filepath"
	"testing"

	"artmarket/internal/api"
	mock_api "artmarket/internal/api/mocks"
	"artmarket/internal/models"
	"artmarket/internal/pkg/logger"
	"artmarket/internal/session"
	"artmarket/internal/store"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type appMocks struct {
	auth     *mock_api.MockAuth
	posts    *mock_api.MockPosts
	comments *mock_api.MockComments
	users    *mock_api.MockUsers
	cart     *mock_api.MockCart
	session  *session.Session
	store    *store.Store
}

func newTestApp(t *testing.T) (*App, *appMocks) {
	l, err := logger.CreateLogger("error")
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	m := &appMocks{
		auth:     mock_api.NewMockAuth(ctrl),
		posts:    mock_api.NewMockPosts(ctrl),
		comments: mock_api.NewMockComments(ctrl),
		users:    mock_api.NewMockUsers(ctrl),
		cart:     mock_api.NewMockCart(ctrl),
		session:  session.New(filepath.Join(t.TempDir(), "session.json"), l),
		store:    store.New(l),
	}
	appInstance := NewApp(m.session, m.auth, m.posts, m.comments, m.users, m.cart, m.store, l)
	return appInstance, m
}

func TestProcessLoginMissingCredentials(t *testing.T) {
	appInstance, _ := newTestApp(t)

	// No mock expectations: invalid input must not reach the backend.
	_, err := appInstance.ProcessLogin(context.Background(), "", "password")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	_, err = appInstance.ProcessLogin(context.Background(), "vermeer", "")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestProcessLoginEstablishesSession(t *testing.T) {
	appInstance, m := newTestApp(t)
	user := &models.User{ID: 1, Username: "vermeer"}
	m.auth.EXPECT().Login(gomock.Any(), "vermeer", "pearl1665").Return("token-123", user, nil)

	got, err := appInstance.ProcessLogin(context.Background(), "vermeer", "pearl1665")
	require.NoError(t, err)
	assert.Equal(t, user, got)
	assert.Equal(t, "token-123", m.session.Token())
	assert.Equal(t, "vermeer", m.session.CurrentUser().Username)
}

func TestProcessLoginFailureLeavesSessionUntouched(t *testing.T) {
	appInstance, m := newTestApp(t)
	require.NoError(t, m.session.Establish("old-token", &models.User{Username: "rembrandt"}))

	m.auth.EXPECT().Login(gomock.Any(), "vermeer", "wrong").
		Return("", nil, &api.ValidationError{Msg: "Invalid credentials"})

	_, err := appInstance.ProcessLogin(context.Background(), "vermeer", "wrong")
	assert.Error(t, err)
	assert.Equal(t, "old-token", m.session.Token())
	assert.Equal(t, "rembrandt", m.session.CurrentUser().Username)
}

func TestProcessRegisterValidation(t *testing.T) {
	appInstance, _ := newTestApp(t)

	err := appInstance.ProcessRegister(context.Background(), models.RegisterRequest{
		Username: "",
		Email:    "not-an-address",
		Password: "short",
	})

	var validation *api.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "username")
	assert.Contains(t, validation.Fields, "email")
	assert.Contains(t, validation.Fields, "password")
}

func TestLogoutClearsSessionAndStore(t *testing.T) {
	appInstance, m := newTestApp(t)
	require.NoError(t, m.session.Establish("token", &models.User{Username: "vermeer"}))
	require.True(t, m.store.ReplacePosts(m.store.Generation(), []models.Post{{ID: 1}}))

	appInstance.Logout()
	assert.Empty(t, m.session.Token())
	assert.Empty(t, m.store.Posts())

	// Logging out twice is a no-op.
	appInstance.Logout()
}

func TestProcessFeedRefreshShortCircuitsUnchangedPayload(t *testing.T) {
	appInstance, m := newTestApp(t)
	feed := []models.Post{{ID: 1, Title: "View of Delft"}}
	m.posts.EXPECT().List(gomock.Any()).Return(feed, nil).Times(2)

	changed, err := appInstance.ProcessFeedRefresh(context.Background())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = appInstance.ProcessFeedRefresh(context.Background())
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestProcessLikeToggleRefetchesState(t *testing.T) {
	appInstance, m := newTestApp(t)
	refreshed := models.Post{ID: 5, IsLiked: true, LikesCount: 4}

	gomock.InOrder(
		m.posts.EXPECT().ToggleLike(gomock.Any(), 5).Return(nil),
		m.posts.EXPECT().List(gomock.Any()).Return([]models.Post{refreshed}, nil),
	)

	post, err := appInstance.ProcessLikeToggle(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, post.IsLiked)
	assert.Equal(t, 4, post.LikesCount)
}

func TestProcessAddCommentEmptyContent(t *testing.T) {
	appInstance, _ := newTestApp(t)

	_, err := appInstance.ProcessAddComment(context.Background(), 1, "")
	assert.ErrorIs(t, err, ErrEmptyComment)
}

func TestProcessCommentsDeduplicates(t *testing.T) {
	appInstance, m := newTestApp(t)
	payload := []models.Comment{
		{ID: 1, Post: models.Post{ID: 10}, Content: "lovely light"},
		{ID: 2, Post: models.Post{ID: 10}, Content: "sold yet?"},
	}
	m.comments.EXPECT().ListForPost(gomock.Any(), 10).Return(payload, nil).Times(2)

	first, err := appInstance.ProcessComments(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, first, 2)

	second, err := appInstance.ProcessComments(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, second, 2)
}

func TestProcessAddToCartChecksSoldStateFirst(t *testing.T) {
	appInstance, m := newTestApp(t)

	gomock.InOrder(
		m.posts.EXPECT().Get(gomock.Any(), 7).Return(models.Post{ID: 7, IsSold: true}, nil),
		// The sold pre-check refreshes the feed; the add is never attempted.
		m.posts.EXPECT().List(gomock.Any()).Return(nil, nil),
	)

	err := appInstance.ProcessAddToCart(context.Background(), 7, 1)
	var conflict *api.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestProcessAddToCartBackendConflictResyncsFeed(t *testing.T) {
	appInstance, m := newTestApp(t)

	gomock.InOrder(
		m.posts.EXPECT().Get(gomock.Any(), 7).Return(models.Post{ID: 7}, nil),
		m.cart.EXPECT().Add(gomock.Any(), 7, 1).
			Return(&api.ConflictError{Msg: "This artwork has already been sold"}),
		m.posts.EXPECT().List(gomock.Any()).Return(nil, nil),
	)

	err := appInstance.ProcessAddToCart(context.Background(), 7, 1)
	var conflict *api.ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestProcessAddToCartSuccessRefreshesCart(t *testing.T) {
	appInstance, m := newTestApp(t)
	items := []models.CartItem{{ID: 1, Post: models.Post{ID: 7, Price: 12050}, Quantity: 2}}

	gomock.InOrder(
		m.posts.EXPECT().Get(gomock.Any(), 7).Return(models.Post{ID: 7}, nil),
		m.cart.EXPECT().Add(gomock.Any(), 7, 2).Return(nil),
		m.cart.EXPECT().Items(gomock.Any()).Return(items, nil),
	)

	require.NoError(t, appInstance.ProcessAddToCart(context.Background(), 7, 2))
	got, total := appInstance.Store().Cart()
	assert.Len(t, got, 1)
	assert.Equal(t, models.Money(24100), total)
}

func TestProcessAddToCartInvalidQuantity(t *testing.T) {
	appInstance, _ := newTestApp(t)

	err := appInstance.ProcessAddToCart(context.Background(), 7, 0)
	var validation *api.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "quantity")
}

func TestProcessCheckoutResyncsCartAndFeed(t *testing.T) {
	appInstance, m := newTestApp(t)
	order := models.Order{ID: 3, Status: "pending", TotalAmount: 80000}

	gomock.InOrder(
		m.cart.EXPECT().Checkout(gomock.Any()).Return(order, nil),
		m.cart.EXPECT().Items(gomock.Any()).Return(nil, nil),
		m.posts.EXPECT().List(gomock.Any()).Return(nil, nil),
	)

	got, err := appInstance.ProcessCheckout(context.Background())
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	items, total := appInstance.Store().Cart()
	assert.Empty(t, items)
	assert.Zero(t, total)
}

func TestProcessFollowToggleUpdatesProfileInPlace(t *testing.T) {
	appInstance, m := newTestApp(t)
	profile := &models.User{Username: "vermeer", FollowersCount: 10}

	m.users.EXPECT().ToggleFollow(gomock.Any(), "vermeer").Return(true, nil)
	following, err := appInstance.ProcessFollowToggle(context.Background(), "vermeer", profile)
	require.NoError(t, err)
	assert.True(t, following)
	assert.True(t, profile.IsFollowing)
	assert.Equal(t, 11, profile.FollowersCount)

	m.users.EXPECT().ToggleFollow(gomock.Any(), "vermeer").Return(false, nil)
	following, err = appInstance.ProcessFollowToggle(context.Background(), "vermeer", profile)
	require.NoError(t, err)
	assert.False(t, following)
	assert.False(t, profile.IsFollowing)
	assert.Equal(t, 10, profile.FollowersCount)
}

func TestProcessFollowToggleIgnoresUnrelatedProfile(t *testing.T) {
	appInstance, m := newTestApp(t)
	other := &models.User{Username: "rembrandt", FollowersCount: 3}

	m.users.EXPECT().ToggleFollow(gomock.Any(), "vermeer").Return(true, nil)
	_, err := appInstance.ProcessFollowToggle(context.Background(), "vermeer", other)
	require.NoError(t, err)
	assert.Equal(t, 3, other.FollowersCount)
	assert.False(t, other.IsFollowing)
}

func TestProcessPostCreateValidatesDraft(t *testing.T) {
	appInstance, _ := newTestApp(t)

	_, err := appInstance.ProcessPostCreate(context.Background(), api.PostDraft{Title: "", Price: 0}, nil)
	var validation *api.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "title")
	assert.Contains(t, validation.Fields, "price")
}

func TestProcessSaveAddressValidation(t *testing.T) {
	appInstance, _ := newTestApp(t)

	err := appInstance.ProcessSaveAddress(context.Background(), models.Address{City: "Delft"})
	var validation *api.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Contains(t, validation.Fields, "street")
	assert.Contains(t, validation.Fields, "zipCode")
	assert.Contains(t, validation.Fields, "country")
	assert.NotContains(t, validation.Fields, "city")
}
