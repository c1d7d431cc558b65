// Package models defines the typed records exchanged with the marketplace
// backend. Every payload the backend returns is mapped into one of these
// structures at the resource-client boundary; dynamic JSON never crosses
// into the rest of the client.
package models

import "time"

// User represents a marketplace account as returned by the backend.
// The client only ever holds a cached copy; the backend owns the record.
type User struct {
	ID             int    `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profile_picture"`
	FollowersCount int    `json:"followers_count"`
	FollowingCount int    `json:"following_count"`
	IsFollowing    bool   `json:"is_following"`
}

// Post represents a single artwork listing in the feed.
// The is_liked/is_saved flags and both counters are computed server-side
// for the requesting user and are never flipped locally.
type Post struct {
	ID            int       `json:"id"`
	User          User      `json:"user"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Image         string    `json:"image"`
	Price         Money     `json:"price"`
	Category      string    `json:"category"`
	IsLiked       bool      `json:"is_liked"`
	IsSaved       bool      `json:"is_saved"`
	IsSold        bool      `json:"is_sold"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Comment represents a comment attached to a post.
type Comment struct {
	ID        int       `json:"id"`
	Post      Post      `json:"post"`
	User      User      `json:"user"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Activity represents a like or save record, as listed by the
// like-posts and save-posts endpoints.
type Activity struct {
	ID        int       `json:"id"`
	Post      Post      `json:"post"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// CartItem is one entry of the shopping cart: a post plus a quantity.
type CartItem struct {
	ID       int  `json:"id"`
	Post     Post `json:"post"`
	Quantity int  `json:"quantity"`
}

// CartPayload is the envelope the cart endpoints return.
type CartPayload struct {
	Cart []CartItem `json:"cart"`
}

// OrderItem is a line of a placed order with the price frozen at checkout.
type OrderItem struct {
	Post     Post  `json:"post"`
	Quantity int   `json:"quantity"`
	Price    Money `json:"price"`
}

// Order represents a placed order.
type Order struct {
	ID          int         `json:"id"`
	Status      string      `json:"status"`
	TotalAmount Money       `json:"total_amount"`
	CreatedAt   time.Time   `json:"created_at"`
	Items       []OrderItem `json:"items"`
}

// OrderPayload is the envelope the checkout endpoint returns.
type OrderPayload struct {
	Order Order `json:"order"`
}

// Address is a shipping address submitted before checkout.
type Address struct {
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	IsDefault bool   `json:"isDefault"`
}

// LoginRequest is the credentials payload for the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is the payload a successful login returns.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// RegisterRequest is the payload for account creation. Registration does
// not establish a session; the user logs in afterwards.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Detail is the generic message envelope the backend uses for
// acknowledgements ({"detail": ...} or {"message": ...}).
type Detail struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// FollowState is the payload of the follow-check endpoint.
type FollowState struct {
	IsFollowing bool `json:"is_following"`
}
