// Package apitest provides an in-memory marketplace backend for tests.
// It implements the REST surface the client consumes with the observable
// behaviors of the real backend: bearer-token authentication, toggle
// semantics for likes, saves and follows, the sold-artwork conflict on
// cart add, and checkout marking artworks sold. State lives in maps
// guarded by one mutex; nothing touches the network beyond the
// httptest listener.
package apitest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"artmarket/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// tokenTTL is the default lifetime of minted tokens.
const tokenTTL = 3 * time.Hour

// claims are the JWT claims carried by minted tokens.
type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// account couples a public user record with its credential hash.
type account struct {
	user         models.User
	passwordHash string
}

// postRecord is the stored form of a listing.
type postRecord struct {
	post   models.Post
	author string
}

// commentRecord is the stored form of a comment.
type commentRecord struct {
	comment models.Comment
	author  string
}

// Server is the fake backend. Create it with New, point the client at
// APIURL/EcommerceURL, and Close it when done.
type Server struct {
	mu sync.Mutex
	ts *httptest.Server

	secret   []byte
	requests int

	users     map[string]*account
	posts     map[int]*postRecord
	comments  map[int]*commentRecord
	likes     map[string]map[int]bool
	saves     map[string]map[int]bool
	follows   map[string]map[string]bool
	carts     map[string]map[int]int
	orders    map[string][]models.Order
	addresses map[string][]models.Address

	nextUserID    int
	nextPostID    int
	nextCommentID int
	nextOrderID   int
}

// New starts the fake backend.
func New() *Server {
	s := &Server{
		secret:    []byte("apitest-secret"),
		users:     make(map[string]*account),
		posts:     make(map[int]*postRecord),
		comments:  make(map[int]*commentRecord),
		likes:     make(map[string]map[int]bool),
		saves:     make(map[string]map[int]bool),
		follows:   make(map[string]map[string]bool),
		carts:     make(map[string]map[int]int),
		orders:    make(map[string][]models.Order),
		addresses: make(map[string][]models.Address),
	}
	s.ts = httptest.NewServer(s.router())
	return s
}

// Close shuts the listener down.
func (s *Server) Close() {
	s.ts.Close()
}

// APIURL is the base of the main API, for client configuration.
func (s *Server) APIURL() string {
	return s.ts.URL + "/api"
}

// EcommerceURL is the base of the ecommerce endpoints.
func (s *Server) EcommerceURL() string {
	return s.ts.URL + "/ecommerce"
}

// Requests reports how many HTTP requests reached the backend. Tests use
// it to prove that token-less calls never touch the network.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// MustAddUser seeds an account and returns its public record.
func (s *Server) MustAddUser(username, password, email string) models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUserID++
	user := models.User{ID: s.nextUserID, Username: username, Email: email}
	s.users[username] = &account{user: user, passwordHash: string(hash)}
	return user
}

// AddPost seeds a listing owned by the given user. The price is a
// decimal string such as "120.50".
func (s *Server) AddPost(author, title, price string) models.Post {
	amount, err := models.ParseMoney(price)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.users[author]
	if !ok {
		panic("apitest: unknown author " + author)
	}
	s.nextPostID++
	post := models.Post{
		ID:        s.nextPostID,
		User:      acct.user,
		Title:     title,
		Price:     amount,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	s.posts[post.ID] = &postRecord{post: post, author: author}
	return post
}

// MarkSold flips a seeded post to sold, simulating a concurrent buyer.
func (s *Server) MarkSold(postID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.posts[postID]; ok {
		rec.post.IsSold = true
	}
}

// GenerateToken mints a token for a seeded user with the given lifetime.
// A negative lifetime produces an already-expired token.
func (s *Server) GenerateToken(username string, ttl time.Duration) string {
	c := claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// router wires the REST surface.
func (s *Server) router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.countRequests)

	r.Post("/api/login/", s.handleLogin)
	r.Post("/api/register/", s.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/api/me/", s.handleMe)
		r.Patch("/api/me/", s.handleMeUpdate)
		r.Get("/api/posts/", s.handlePostList)
		r.Post("/api/posts/", s.handlePostCreate)
		r.Get("/api/posts/{id}/", s.handlePostGet)
		r.Put("/api/posts/{id}/", s.handlePostUpdate)
		r.Delete("/api/posts/{id}/", s.handlePostDelete)
		r.Post("/api/like-posts/", s.handleLikeToggle)
		r.Get("/api/like-posts/", s.handleLikeList)
		r.Post("/api/save-posts/", s.handleSaveToggle)
		r.Get("/api/save-posts/", s.handleSaveList)
		r.Get("/api/comments/", s.handleCommentList)
		r.Post("/api/comments/", s.handleCommentCreate)
		r.Delete("/api/comments/{id}/", s.handleCommentDelete)
		r.Get("/api/users/search/", s.handleUserSearch)
		r.Get("/api/users/{username}/", s.handleUserGet)
		r.Get("/api/users/{username}/posts/", s.handleUserPosts)
		r.Get("/api/users/{username}/followers/", s.handleUserFollowers)
		r.Get("/api/users/{username}/following/", s.handleUserFollowing)
		r.Post("/api/follows/toggle/", s.handleFollowToggle)
		r.Get("/api/follows/check/{username}/", s.handleFollowCheck)
		r.Get("/ecommerce/cart/", s.handleCartGet)
		r.Post("/ecommerce/cart/add/", s.handleCartAdd)
		r.Post("/ecommerce/cart/remove/", s.handleCartRemove)
		r.Post("/ecommerce/checkout/", s.handleCheckout)
		r.Get("/ecommerce/orders/", s.handleOrderList)
		r.Post("/ecommerce/address/", s.handleAddressCreate)
	})

	return r
}

// countRequests tracks every request that reaches the backend.
func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

type contextKey string

const contextUsername contextKey = "apitestUsername"

// requireAuth validates the bearer token and resolves the account.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}

		c := claims{}
		token, err := jwt.ParseWithClaims(parts[1], &c, func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "Invalid token.")
			return
		}

		s.mu.Lock()
		_, known := s.users[c.Username]
		s.mu.Unlock()
		if !known {
			writeError(w, http.StatusUnauthorized, "Invalid token.")
			return
		}

		ctx := contextWith(r.Context(), c.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Please provide both username and password")
		return
	}

	s.mu.Lock()
	acct, ok := s.users[req.Username]
	s.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword([]byte(acct.passwordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: s.GenerateToken(req.Username, tokenTTL),
		TokenType:   "Bearer",
		ExpiresIn:   int(tokenTTL.Seconds()),
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Please provide email, username and password")
		return
	}

	s.mu.Lock()
	_, exists := s.users[req.Username]
	s.mu.Unlock()
	if exists {
		writeError(w, http.StatusBadRequest, "Username already exists")
		return
	}

	s.MustAddUser(req.Username, req.Password, req.Email)
	writeJSON(w, http.StatusCreated, models.Detail{Message: "User created successfully"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	s.mu.Lock()
	user := s.userViewLocked(username, username)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleMeUpdate(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	s.mu.Lock()
	acct := s.users[username]
	if v := r.FormValue("email"); v != "" {
		acct.user.Email = v
	}
	if v := r.FormValue("first_name"); v != "" {
		acct.user.FirstName = v
	}
	if v := r.FormValue("last_name"); v != "" {
		acct.user.LastName = v
	}
	if v := r.FormValue("bio"); v != "" {
		acct.user.Bio = v
	}
	if _, header, err := r.FormFile("profile_picture"); err == nil {
		acct.user.ProfilePicture = "/media/profiles/" + header.Filename
	}
	user := s.userViewLocked(username, username)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handlePostList(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	s.mu.Lock()
	posts := s.feedLocked(username, "")
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handlePostCreate(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	price, err := models.ParseMoney(r.FormValue("price"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"price": {"A valid number is required."}})
		return
	}

	s.mu.Lock()
	s.nextPostID++
	rec := &postRecord{
		post: models.Post{
			ID:          s.nextPostID,
			User:        s.users[username].user,
			Title:       r.FormValue("title"),
			Description: r.FormValue("description"),
			Category:    r.FormValue("category"),
			Price:       price,
			CreatedAt:   time.Now().UTC().Truncate(time.Second),
		},
		author: username,
	}
	if _, header, err := r.FormFile("image"); err == nil {
		rec.post.Image = "/media/posts/" + header.Filename
	}
	s.posts[rec.post.ID] = rec
	view := s.postViewLocked(username, rec)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handlePostGet(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	s.mu.Lock()
	rec, ok := s.posts[id]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	view := s.postViewLocked(username, rec)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePostUpdate(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	s.mu.Lock()
	rec, ok := s.posts[id]
	if !ok || rec.author != username {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	if v := r.FormValue("title"); v != "" {
		rec.post.Title = v
	}
	rec.post.Description = r.FormValue("description")
	rec.post.Category = r.FormValue("category")
	if price, err := models.ParseMoney(r.FormValue("price")); err == nil {
		rec.post.Price = price
	}
	if _, header, err := r.FormFile("image"); err == nil {
		rec.post.Image = "/media/posts/" + header.Filename
	}
	rec.post.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	view := s.postViewLocked(username, rec)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handlePostDelete(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	s.mu.Lock()
	rec, ok := s.posts[id]
	if !ok || rec.author != username {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	delete(s.posts, id)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLikeToggle(w http.ResponseWriter, r *http.Request) {
	s.handleActivityToggle(w, r, s.likes, "liked")
}

func (s *Server) handleSaveToggle(w http.ResponseWriter, r *http.Request) {
	s.handleActivityToggle(w, r, s.saves, "saved")
}

// handleActivityToggle implements the shared like/save toggle: a first
// post creates the record, a second removes it.
func (s *Server) handleActivityToggle(w http.ResponseWriter, r *http.Request, set map[string]map[int]bool, verb string) {
	username := usernameFrom(r)
	var req struct {
		PostID int `json:"post_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[req.PostID]; !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	if set[username] == nil {
		set[username] = make(map[int]bool)
	}
	if set[username][req.PostID] {
		delete(set[username], req.PostID)
		writeJSON(w, http.StatusOK, models.Detail{Detail: "Post un" + verb + " successfully"})
		return
	}
	set[username][req.PostID] = true
	writeJSON(w, http.StatusCreated, models.Detail{Detail: "Post " + verb + " successfully"})
}

func (s *Server) handleLikeList(w http.ResponseWriter, r *http.Request) {
	s.handleActivityList(w, r, s.likes)
}

func (s *Server) handleSaveList(w http.ResponseWriter, r *http.Request) {
	s.handleActivityList(w, r, s.saves)
}

func (s *Server) handleActivityList(w http.ResponseWriter, r *http.Request, set map[string]map[int]bool) {
	username := usernameFrom(r)

	s.mu.Lock()
	activities := []models.Activity{}
	n := 0
	for postID := range set[username] {
		if rec, ok := s.posts[postID]; ok {
			n++
			activities = append(activities, models.Activity{
				ID:   n,
				Post: s.postViewLocked(username, rec),
				User: s.users[username].user,
			})
		}
	}
	s.mu.Unlock()

	sort.Slice(activities, func(i, j int) bool { return activities[i].Post.ID < activities[j].Post.ID })
	writeJSON(w, http.StatusOK, activities)
}

func (s *Server) handleCommentList(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	filter := r.URL.Query().Get("post_id")

	s.mu.Lock()
	comments := []models.Comment{}
	for _, rec := range s.comments {
		if filter != "" && fmt.Sprint(rec.comment.Post.ID) != filter {
			continue
		}
		c := rec.comment
		if postRec, ok := s.posts[c.Post.ID]; ok {
			c.Post = s.postViewLocked(username, postRec)
		}
		comments = append(comments, c)
	}
	s.mu.Unlock()

	sort.Slice(comments, func(i, j int) bool { return comments[i].ID < comments[j].ID })
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleCommentCreate(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	var req struct {
		PostID  int    `json:"post_id"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	rec, ok := s.posts[req.PostID]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	s.nextCommentID++
	comment := models.Comment{
		ID:        s.nextCommentID,
		Post:      s.postViewLocked(username, rec),
		User:      s.users[username].user,
		Content:   req.Content,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	s.comments[comment.ID] = &commentRecord{comment: comment, author: username}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleCommentDelete(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))

	s.mu.Lock()
	rec, ok := s.comments[id]
	if !ok || rec.author != username {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	delete(s.comments, id)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUserSearch(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	query := strings.ToLower(r.URL.Query().Get("query"))

	s.mu.Lock()
	users := []models.User{}
	for name := range s.users {
		if query != "" && !strings.Contains(strings.ToLower(name), query) {
			continue
		}
		users = append(users, s.userViewLocked(username, name))
	}
	s.mu.Unlock()

	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleUserGet(w http.ResponseWriter, r *http.Request) {
	viewer := usernameFrom(r)
	target := chi.URLParam(r, "username")
	if target == "me" {
		target = viewer
	}

	s.mu.Lock()
	_, ok := s.users[target]
	if !ok {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	user := s.userViewLocked(viewer, target)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUserPosts(w http.ResponseWriter, r *http.Request) {
	viewer := usernameFrom(r)
	target := chi.URLParam(r, "username")
	if target == "me" {
		target = viewer
	}

	s.mu.Lock()
	posts := s.feedLocked(viewer, target)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleUserFollowers(w http.ResponseWriter, r *http.Request) {
	viewer := usernameFrom(r)
	target := chi.URLParam(r, "username")
	if target == "me" {
		target = viewer
	}

	s.mu.Lock()
	users := []models.User{}
	for follower, followed := range s.follows {
		if followed[target] {
			users = append(users, s.userViewLocked(viewer, follower))
		}
	}
	s.mu.Unlock()

	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleUserFollowing(w http.ResponseWriter, r *http.Request) {
	viewer := usernameFrom(r)
	target := chi.URLParam(r, "username")
	if target == "me" {
		target = viewer
	}

	s.mu.Lock()
	users := []models.User{}
	for followed := range s.follows[target] {
		users = append(users, s.userViewLocked(viewer, followed))
	}
	s.mu.Unlock()

	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleFollowToggle(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		writeError(w, http.StatusBadRequest, "Username is required")
		return
	}
	if req.Username == username {
		writeError(w, http.StatusBadRequest, "You cannot follow yourself")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[req.Username]; !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	if s.follows[username] == nil {
		s.follows[username] = make(map[string]bool)
	}
	if s.follows[username][req.Username] {
		delete(s.follows[username], req.Username)
		writeJSON(w, http.StatusOK, models.Detail{Detail: "Unfollowed " + req.Username})
		return
	}
	s.follows[username][req.Username] = true
	writeJSON(w, http.StatusCreated, models.Detail{Detail: "Following " + req.Username})
}

func (s *Server) handleFollowCheck(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	target := chi.URLParam(r, "username")
	if target == username {
		writeError(w, http.StatusBadRequest, "Cannot check follow status for yourself")
		return
	}

	s.mu.Lock()
	following := s.follows[username][target]
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, models.FollowState{IsFollowing: following})
}

func (s *Server) handleCartGet(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	s.mu.Lock()
	payload := models.CartPayload{Cart: s.cartItemsLocked(username)}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	var req struct {
		Post     int `json:"post"`
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.posts[req.Post]
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	if rec.post.IsSold {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "This artwork has already been sold"})
		return
	}
	if s.carts[username] == nil {
		s.carts[username] = make(map[int]int)
	}
	s.carts[username][req.Post] += req.Quantity
	writeJSON(w, http.StatusCreated, map[string]int{"post": req.Post, "quantity": s.carts[username][req.Post]})
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	var req struct {
		PostID int `json:"post_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	delete(s.carts[username], req.PostID)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, models.Detail{Message: "Removed from cart"})
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.cartItemsLocked(username)
	if len(items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Cart is empty"})
		return
	}

	s.nextOrderID++
	order := models.Order{
		ID:        s.nextOrderID,
		Status:    "pending",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	for _, item := range items {
		order.Items = append(order.Items, models.OrderItem{
			Post:     item.Post,
			Quantity: item.Quantity,
			Price:    item.Post.Price,
		})
		order.TotalAmount += item.Post.Price.Mul(item.Quantity)
		if rec, ok := s.posts[item.Post.ID]; ok {
			rec.post.IsSold = true
		}
	}
	s.orders[username] = append(s.orders[username], order)
	s.carts[username] = make(map[int]int)

	writeJSON(w, http.StatusCreated, models.OrderPayload{Order: order})
}

func (s *Server) handleOrderList(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	s.mu.Lock()
	orders := append([]models.Order{}, s.orders[username]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, orders)
}

func (s *Server) handleAddressCreate(w http.ResponseWriter, r *http.Request) {
	username := usernameFrom(r)
	var addr models.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if addr.Street == "" || addr.City == "" || addr.Country == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"street": {"This field is required."}})
		return
	}

	s.mu.Lock()
	s.addresses[username] = append(s.addresses[username], addr)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, addr)
}

// feedLocked builds the post list for a viewer, newest first. A non-empty
// author restricts the list to that user's posts.
func (s *Server) feedLocked(viewer, author string) []models.Post {
	posts := []models.Post{}
	for _, rec := range s.posts {
		if author != "" && rec.author != author {
			continue
		}
		posts = append(posts, s.postViewLocked(viewer, rec))
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID > posts[j].ID })
	return posts
}

// postViewLocked renders a stored post the way the backend serialises it
// for the requesting user: flags and counters are computed per viewer.
func (s *Server) postViewLocked(viewer string, rec *postRecord) models.Post {
	post := rec.post
	post.User = s.userViewLocked(viewer, rec.author)
	post.IsLiked = s.likes[viewer][post.ID]
	post.IsSaved = s.saves[viewer][post.ID]
	post.LikesCount = 0
	for _, liked := range s.likes {
		if liked[post.ID] {
			post.LikesCount++
		}
	}
	post.CommentsCount = 0
	for _, c := range s.comments {
		if c.comment.Post.ID == post.ID {
			post.CommentsCount++
		}
	}
	return post
}

// userViewLocked renders a user record with viewer-dependent fields.
func (s *Server) userViewLocked(viewer, target string) models.User {
	user := s.users[target].user
	for _, followed := range s.follows {
		if followed[target] {
			user.FollowersCount++
		}
	}
	user.FollowingCount = len(s.follows[target])
	user.IsFollowing = viewer != target && s.follows[viewer][target]
	return user
}

// cartItemsLocked renders a user's cart, sorted by post id for stable
// payloads across polls.
func (s *Server) cartItemsLocked(username string) []models.CartItem {
	items := []models.CartItem{}
	n := 0
	for postID, quantity := range s.carts[username] {
		rec, ok := s.posts[postID]
		if !ok {
			continue
		}
		n++
		items = append(items, models.CartItem{
			ID:       n,
			Post:     s.postViewLocked(username, rec),
			Quantity: quantity,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Post.ID < items[j].Post.ID })
	for i := range items {
		items[i].ID = i + 1
	}
	return items
}

func contextWith(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, contextUsername, username)
}

func usernameFrom(r *http.Request) string {
	username, _ := r.Context().Value(contextUsername).(string)
	return username
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}
