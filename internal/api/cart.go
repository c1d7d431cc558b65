package api

import (
	"context"

	"artmarket/internal/models"
)

// CartClient implements Cart against the ecommerce endpoints.
type CartClient struct {
	c *Client
}

// NewCartClient returns the cart resource client.
func NewCartClient(c *Client) *CartClient {
	return &CartClient{c: c}
}

// Items fetches the full cart. Callers replace their local collection
// with this payload and recompute the total; the backend's envelope
// carries no total worth trusting.
func (cc *CartClient) Items(ctx context.Context) ([]models.CartItem, error) {
	var payload models.CartPayload
	if err := cc.c.getJSON(ctx, cc.c.shopURL("/cart/"), "cart", &payload); err != nil {
		return nil, err
	}
	return payload.Cart, nil
}

// Add puts a post into the cart. A sold artwork surfaces as a
// ConflictError; the caller re-syncs the feed instead of retrying.
func (cc *CartClient) Add(ctx context.Context, postID, quantity int) error {
	payload := map[string]int{"post": postID, "quantity": quantity}
	return cc.c.postJSON(ctx, cc.c.shopURL("/cart/add/"), payload, false, "cart", nil)
}

// Remove deletes a post's cart entry entirely.
func (cc *CartClient) Remove(ctx context.Context, postID int) error {
	payload := map[string]int{"post_id": postID}
	return cc.c.postJSON(ctx, cc.c.shopURL("/cart/remove/"), payload, false, "cart", nil)
}

// Checkout places an order from the current cart contents and returns the
// stored order. The backend marks every purchased artwork sold and
// empties the cart.
func (cc *CartClient) Checkout(ctx context.Context) (models.Order, error) {
	var payload models.OrderPayload
	if err := cc.c.postJSON(ctx, cc.c.shopURL("/checkout/"), struct{}{}, false, "cart", &payload); err != nil {
		return models.Order{}, err
	}
	return payload.Order, nil
}

// Orders lists the current user's placed orders.
func (cc *CartClient) Orders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := cc.c.getJSON(ctx, cc.c.shopURL("/orders/"), "order", &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// SaveAddress stores a shipping address for the current user.
func (cc *CartClient) SaveAddress(ctx context.Context, addr models.Address) error {
	return cc.c.postJSON(ctx, cc.c.shopURL("/address/"), addr, false, "address", nil)
}
