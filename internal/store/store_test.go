package store

import (
	"testing"

	"artmarket/internal/models"
	"artmarket/internal/pkg/logger"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	l, err := logger.CreateLogger("error")
	require.NoError(t, err)
	return New(l)
}

func fakePost(id int) models.Post {
	return models.Post{
		ID:    id,
		Title: gofakeit.BookTitle(),
		User:  models.User{ID: id, Username: gofakeit.Username()},
		Price: models.Money(gofakeit.Number(100, 100000)),
	}
}

func fakeComment(id, postID int) models.Comment {
	return models.Comment{
		ID:      id,
		Post:    models.Post{ID: postID},
		User:    models.User{Username: gofakeit.Username()},
		Content: gofakeit.Sentence(5),
	}
}

func TestReplacePostsDetectsChange(t *testing.T) {
	s := testStore(t)
	feed := []models.Post{fakePost(1), fakePost(2)}

	assert.True(t, s.ReplacePosts(s.Generation(), feed))
	// A structurally identical payload must not count as a change.
	same := make([]models.Post, len(feed))
	copy(same, feed)
	assert.False(t, s.ReplacePosts(s.Generation(), same))

	changed := make([]models.Post, len(feed))
	copy(changed, feed)
	changed[0].LikesCount++
	assert.True(t, s.ReplacePosts(s.Generation(), changed))
}

func TestReplacePostsDiscardsStaleGeneration(t *testing.T) {
	s := testStore(t)
	current := []models.Post{fakePost(1)}
	require.True(t, s.ReplacePosts(s.Generation(), current))

	// A fetch started before the reset must not overwrite newer state.
	stale := s.Generation()
	s.Reset()
	assert.False(t, s.ReplacePosts(stale, []models.Post{fakePost(2), fakePost(3)}))
	assert.Empty(t, s.Posts())

	assert.True(t, s.ReplacePosts(s.Generation(), current))
	assert.Len(t, s.Posts(), 1)
}

func TestPostLookup(t *testing.T) {
	s := testStore(t)
	feed := []models.Post{fakePost(1), fakePost(7)}
	require.True(t, s.ReplacePosts(s.Generation(), feed))

	post, ok := s.Post(7)
	assert.True(t, ok)
	assert.Equal(t, feed[1].Title, post.Title)

	_, ok = s.Post(99)
	assert.False(t, ok)
}

func TestMergeCommentsDeduplicates(t *testing.T) {
	s := testStore(t)
	first := fakeComment(1, 10)
	second := fakeComment(2, 10)

	s.MergeComments(10, []models.Comment{first, second})
	// Re-fetching the same post returns overlapping payloads.
	third := fakeComment(3, 10)
	s.MergeComments(10, []models.Comment{first, second, third})

	comments := s.Comments(10)
	require.Len(t, comments, 3)
	assert.Equal(t, 1, comments[0].ID)
	assert.Equal(t, 2, comments[1].ID)
	assert.Equal(t, 3, comments[2].ID)
}

func TestAddCommentIsDupSafe(t *testing.T) {
	s := testStore(t)
	c := fakeComment(1, 10)

	s.AddComment(c)
	s.AddComment(c)
	assert.Len(t, s.Comments(10), 1)
}

func TestDeleteComment(t *testing.T) {
	s := testStore(t)
	s.MergeComments(10, []models.Comment{fakeComment(1, 10), fakeComment(2, 10)})

	s.DeleteComment(1)
	comments := s.Comments(10)
	require.Len(t, comments, 1)
	assert.Equal(t, 2, comments[0].ID)
}

func TestReplaceCartRecomputesTotal(t *testing.T) {
	s := testStore(t)
	items := []models.CartItem{
		{ID: 1, Post: models.Post{ID: 1, Price: 12050}, Quantity: 2},
		{ID: 2, Post: models.Post{ID: 2, Price: 999}, Quantity: 1},
	}

	s.ReplaceCart(items)
	got, total := s.Cart()
	assert.Len(t, got, 2)
	assert.Equal(t, models.Money(2*12050+999), total)

	// Dropping an item recomputes from scratch rather than decrementing.
	s.ReplaceCart(items[1:])
	_, total = s.Cart()
	assert.Equal(t, models.Money(999), total)

	s.ReplaceCart(nil)
	got, total = s.Cart()
	assert.Empty(t, got)
	assert.Zero(t, total)
}

func TestClearEmptiesEverything(t *testing.T) {
	s := testStore(t)
	require.True(t, s.ReplacePosts(s.Generation(), []models.Post{fakePost(1)}))
	s.MergeComments(1, []models.Comment{fakeComment(1, 1)})
	s.ReplaceCart([]models.CartItem{{ID: 1, Post: models.Post{ID: 1, Price: 100}, Quantity: 1}})

	gen := s.Generation()
	s.Clear()

	assert.Empty(t, s.Posts())
	assert.Empty(t, s.Comments(1))
	items, total := s.Cart()
	assert.Empty(t, items)
	assert.Zero(t, total)
	assert.NotEqual(t, gen, s.Generation())
}
