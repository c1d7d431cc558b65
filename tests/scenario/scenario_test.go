package scenario

import (
	"context"
	"errors"
	"log"
	"path/filepath"
	"testing"
	"time"

	"artmarket/internal/api"
	"artmarket/internal/apitest"
	"artmarket/internal/app"
	"artmarket/internal/models"
	"artmarket/internal/pkg/logger"
	"artmarket/internal/session"
	"artmarket/internal/store"

	"github.com/stretchr/testify/suite"
)

// ScenarioTestSuite exercises the full client stack against the in-memory
// backend: real resource clients, real session persistence, real store.
type ScenarioTestSuite struct {
	suite.Suite
	srv      *apitest.Server
	app      *app.App
	sess     *session.Session
	failures int
}

func (s *ScenarioTestSuite) SetupTest() {
	l, err := logger.CreateLogger("error")
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}

	s.srv = apitest.New()
	s.failures = 0

	s.sess = session.New(filepath.Join(s.T().TempDir(), "session.json"), l)
	st := store.New(l)

	client := api.NewClient(s.srv.APIURL(), s.srv.EcommerceURL(), s.sess, 5*time.Second, 100, l)
	client.SetAuthFailureHandler(func() {
		s.failures++
		s.sess.Clear()
		st.Clear()
	})

	s.app = app.NewApp(s.sess,
		api.NewAuthClient(client),
		api.NewPostsClient(client),
		api.NewCommentsClient(client),
		api.NewUsersClient(client),
		api.NewCartClient(client),
		st, l)
}

func (s *ScenarioTestSuite) TearDownTest() {
	s.srv.Close()
}

func (s *ScenarioTestSuite) login(username, password string) *models.User {
	user, err := s.app.ProcessLogin(context.Background(), username, password)
	s.Require().NoError(err, "Error logging in as %s", username)
	return user
}

func (s *ScenarioTestSuite) TestBrowseLikeAndComment() {
	ctx := context.Background()
	s.srv.MustAddUser("vermeer", "pearl1665", "vermeer@example.com")
	s.srv.MustAddUser("collector", "password1", "collector@example.com")
	post := s.srv.AddPost("vermeer", "View of Delft", "950.00")

	s.login("collector", "password1")

	changed, err := s.app.ProcessFeedRefresh(ctx)
	s.Require().NoError(err)
	s.Require().True(changed, "First refresh should populate the feed")
	s.Require().Len(s.app.Store().Posts(), 1)

	liked, err := s.app.ProcessLikeToggle(ctx, post.ID)
	s.Require().NoError(err)
	s.Require().True(liked.IsLiked)
	s.Require().Equal(1, liked.LikesCount)

	// A second toggle undoes the like; the re-fetched state proves it.
	unliked, err := s.app.ProcessLikeToggle(ctx, post.ID)
	s.Require().NoError(err)
	s.Require().False(unliked.IsLiked)
	s.Require().Equal(0, unliked.LikesCount)

	comment, err := s.app.ProcessAddComment(ctx, post.ID, "the light on the water")
	s.Require().NoError(err)

	// Re-fetching the thread never duplicates the new comment.
	comments, err := s.app.ProcessComments(ctx, post.ID)
	s.Require().NoError(err)
	s.Require().Len(comments, 1)
	comments, err = s.app.ProcessComments(ctx, post.ID)
	s.Require().NoError(err)
	s.Require().Len(comments, 1)
	s.Require().Equal(comment.ID, comments[0].ID)
}

func (s *ScenarioTestSuite) TestPurchaseFlow() {
	ctx := context.Background()
	s.srv.MustAddUser("vermeer", "pearl1665", "vermeer@example.com")
	s.srv.MustAddUser("collector", "password1", "collector@example.com")
	first := s.srv.AddPost("vermeer", "The Geographer", "800.00")
	second := s.srv.AddPost("vermeer", "The Astronomer", "750.00")

	s.login("collector", "password1")

	s.Require().NoError(s.app.ProcessAddToCart(ctx, first.ID, 1))
	s.Require().NoError(s.app.ProcessAddToCart(ctx, second.ID, 1))

	items, total := s.app.Store().Cart()
	s.Require().Len(items, 2)
	s.Require().Equal(models.Money(155000), total, "Total is recomputed from price times quantity")

	// Removing and re-adding restores the exact prior state and total.
	s.Require().NoError(s.app.ProcessRemoveFromCart(ctx, second.ID))
	items, total = s.app.Store().Cart()
	s.Require().Len(items, 1)
	s.Require().Equal(models.Money(80000), total)
	s.Require().NoError(s.app.ProcessAddToCart(ctx, second.ID, 1))
	items, total = s.app.Store().Cart()
	s.Require().Len(items, 2)
	s.Require().Equal(models.Money(155000), total)

	s.Require().NoError(s.app.ProcessSaveAddress(ctx, models.Address{
		Street: "Oude Delft 1", City: "Delft", ZipCode: "2611", Country: "NL",
	}))

	order, err := s.app.ProcessCheckout(ctx)
	s.Require().NoError(err)
	s.Require().Equal(models.Money(155000), order.TotalAmount)

	// Checkout empties the cart and marks the artworks sold in the feed.
	items, total = s.app.Store().Cart()
	s.Require().Empty(items)
	s.Require().Zero(total)
	for _, p := range s.app.Store().Posts() {
		s.Require().True(p.IsSold)
	}

	orders, err := s.app.ProcessOrders(ctx)
	s.Require().NoError(err)
	s.Require().Len(orders, 1)
}

func (s *ScenarioTestSuite) TestSoldRaceIsSurfacedAsConflict() {
	ctx := context.Background()
	s.srv.MustAddUser("vermeer", "pearl1665", "vermeer@example.com")
	s.srv.MustAddUser("collector", "password1", "collector@example.com")
	post := s.srv.AddPost("vermeer", "The Concert", "1200.00")

	s.login("collector", "password1")
	_, err := s.app.ProcessFeedRefresh(ctx)
	s.Require().NoError(err)

	// Another buyer wins the race after the feed was loaded.
	s.srv.MarkSold(post.ID)

	err = s.app.ProcessAddToCart(ctx, post.ID, 1)
	var conflict *api.ConflictError
	s.Require().True(errors.As(err, &conflict), "Expected a conflict, got %v", err)

	// The conflict re-synced the feed, so the view shows the sold state.
	refreshed, ok := s.app.Store().Post(post.ID)
	s.Require().True(ok)
	s.Require().True(refreshed.IsSold)

	items, _ := s.app.Store().Cart()
	s.Require().Empty(items, "A failed add must not touch the cart")
}

func (s *ScenarioTestSuite) TestFollowGraph() {
	ctx := context.Background()
	s.srv.MustAddUser("vermeer", "pearl1665", "vermeer@example.com")
	s.srv.MustAddUser("collector", "password1", "collector@example.com")

	s.login("collector", "password1")

	profile, err := s.app.ProcessProfile(ctx, "vermeer")
	s.Require().NoError(err)
	s.Require().False(profile.IsFollowing)

	following, err := s.app.ProcessFollowToggle(ctx, "vermeer", &profile)
	s.Require().NoError(err)
	s.Require().True(following)
	s.Require().Equal(1, profile.FollowersCount)

	followers, err := s.app.ProcessFollowers(ctx, "vermeer")
	s.Require().NoError(err)
	s.Require().Len(followers, 1)
	s.Require().Equal("collector", followers[0].Username)

	following, err = s.app.ProcessFollowToggle(ctx, "vermeer", &profile)
	s.Require().NoError(err)
	s.Require().False(following)

	followers, err = s.app.ProcessFollowers(ctx, "vermeer")
	s.Require().NoError(err)
	s.Require().Empty(followers)
}

func (s *ScenarioTestSuite) TestRejectedTokenClearsSession() {
	ctx := context.Background()
	s.srv.MustAddUser("vermeer", "pearl1665", "vermeer@example.com")

	s.Require().NoError(s.sess.Establish("stale-token", &models.User{Username: "vermeer"}))

	_, err := s.app.ProcessFeedRefresh(ctx)
	s.Require().ErrorIs(err, api.ErrAuthExpired)
	s.Require().Equal(1, s.failures)
	s.Require().Empty(s.sess.Token())
	s.Require().Empty(s.app.Store().Posts())

	// The next attempt short-circuits locally without any network call.
	before := s.srv.Requests()
	_, err = s.app.ProcessFeedRefresh(ctx)
	s.Require().ErrorIs(err, api.ErrNoToken)
	s.Require().Equal(before, s.srv.Requests())
}

func (s *ScenarioTestSuite) TestPollingOnlyReportsRealChanges() {
	ctx := context.Background()
	s.srv.MustAddUser("vermeer", "pearl1665", "vermeer@example.com")
	s.srv.MustAddUser("collector", "password1", "collector@example.com")
	post := s.srv.AddPost("vermeer", "Woman Reading a Letter", "600.00")

	s.login("collector", "password1")

	changed, err := s.app.ProcessFeedRefresh(ctx)
	s.Require().NoError(err)
	s.Require().True(changed)

	// Nothing happened on the backend; the poll is a no-op.
	changed, err = s.app.ProcessFeedRefresh(ctx)
	s.Require().NoError(err)
	s.Require().False(changed)

	// A concurrent sale flips is_sold, which is a real change.
	s.srv.MarkSold(post.ID)
	changed, err = s.app.ProcessFeedRefresh(ctx)
	s.Require().NoError(err)
	s.Require().True(changed)
}

func (s *ScenarioTestSuite) TestRegisterThenLogin() {
	ctx := context.Background()

	err := s.app.ProcessRegister(ctx, models.RegisterRequest{
		Username: "newcomer",
		Email:    "newcomer@example.com",
		Password: "longenough",
	})
	s.Require().NoError(err)
	s.Require().Empty(s.sess.Token(), "Registration must not establish a session")

	user := s.login("newcomer", "longenough")
	s.Require().Equal("newcomer", user.Username)
	s.Require().True(s.sess.IsAuthenticated())
}

func TestScenarioTestSuite(t *testing.T) {
	suite.Run(t, new(ScenarioTestSuite))
}
