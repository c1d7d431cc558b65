// Package store holds the last-known server state for posts, cart and
// comments. It is the single writer for each collection: mutation actions
// feed it authoritative backend payloads and it reconciles them into view
// state. The store never invents identifiers and never accumulates
// totals locally.
package store

import (
	"reflect"
	"sync"

	"artmarket/internal/models"
	"artmarket/internal/pkg/logger"

	"go.uber.org/zap"
)

// Store is the derived-state container shared by all views.
type Store struct {
	mu       sync.RWMutex
	log      *logger.Logger
	gen      uint64
	posts    []models.Post
	comments map[int][]models.Comment
	cart     []models.CartItem
	total    models.Money
}

// New creates an empty store.
func New(l *logger.Logger) *Store {
	return &Store{
		log:      l,
		comments: make(map[int][]models.Comment),
	}
}

// Generation returns the current feed generation. A view records it when
// starting a fetch and passes it back with the result; responses that
// arrive after a Reset carry a stale generation and are discarded.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Reset bumps the generation and drops the feed. Views call it on
// teardown so superseded in-flight responses cannot overwrite newer
// state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.posts = nil
}

// Clear empties every collection, for logout. The generation bump also
// invalidates whatever is still in flight.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.posts = nil
	s.comments = make(map[int][]models.Comment)
	s.cart = nil
	s.total = 0
}

// ReplacePosts installs a freshly fetched feed. It reports whether the
// in-memory list actually changed: a payload structurally identical to
// the current one is ignored so pollers do not churn the view, and a
// result carrying a stale generation is discarded outright.
func (s *Store) ReplacePosts(gen uint64, posts []models.Post) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		s.log.Debug("discarding stale feed response",
			zap.Uint64("got", gen), zap.Uint64("want", s.gen))
		return false
	}
	if reflect.DeepEqual(s.posts, posts) {
		return false
	}
	s.posts = posts
	return true
}

// Posts returns a copy of the current feed.
func (s *Store) Posts() []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Post, len(s.posts))
	copy(out, s.posts)
	return out
}

// Post looks a feed entry up by id.
func (s *Store) Post(id int) (models.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.posts {
		if p.ID == id {
			return p, true
		}
	}
	return models.Post{}, false
}

// MergeComments folds freshly fetched comments into a post's sequence,
// deduplicating by comment id. Fetching the same post twice never
// produces duplicate entries.
func (s *Store) MergeComments(postID int, incoming []models.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int]bool, len(s.comments[postID]))
	for _, existing := range s.comments[postID] {
		seen[existing.ID] = true
	}
	for _, c := range incoming {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		s.comments[postID] = append(s.comments[postID], c)
	}
}

// AddComment appends a comment the backend just created.
func (s *Store) AddComment(c models.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()

	postID := c.Post.ID
	for _, existing := range s.comments[postID] {
		if existing.ID == c.ID {
			return
		}
	}
	s.comments[postID] = append(s.comments[postID], c)
}

// DeleteComment removes a comment by id from whichever post holds it.
func (s *Store) DeleteComment(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for postID, list := range s.comments {
		kept := list[:0]
		for _, c := range list {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		s.comments[postID] = kept
	}
}

// Comments returns a copy of a post's comment sequence.
func (s *Store) Comments(postID int) []models.Comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Comment, len(s.comments[postID]))
	copy(out, s.comments[postID])
	return out
}

// ReplaceCart swaps the entire cart collection for the backend's payload
// and recomputes the total as the sum of price times quantity. Totals are
// never incremented in place, so partial failures and rounding cannot
// compound.
func (s *Store) ReplaceCart(items []models.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart = items
	s.total = 0
	for _, item := range items {
		s.total += item.Post.Price.Mul(item.Quantity)
	}
}

// Cart returns a copy of the cart items and the recomputed total.
func (s *Store) Cart() ([]models.CartItem, models.Money) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CartItem, len(s.cart))
	copy(out, s.cart)
	return out, s.total
}
