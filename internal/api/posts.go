package api

import (
	"context"
	"fmt"
	"net/http"

	"artmarket/internal/models"
)

// PostsClient implements Posts against the marketplace backend.
type PostsClient struct {
	c *Client
}

// NewPostsClient returns the posts resource client.
func NewPostsClient(c *Client) *PostsClient {
	return &PostsClient{c: c}
}

// List fetches the whole feed, newest first.
func (p *PostsClient) List(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	if err := p.c.getJSON(ctx, p.c.apiURL("/posts/"), "post", &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Get fetches a single post, including its current is_sold state. The
// purchase flow calls this immediately before a cart add.
func (p *PostsClient) Get(ctx context.Context, id int) (models.Post, error) {
	var post models.Post
	if err := p.c.getJSON(ctx, p.c.apiURL(fmt.Sprintf("/posts/%d/", id)), "post", &post); err != nil {
		return models.Post{}, err
	}
	return post, nil
}

// Create publishes a new listing as a multipart payload so the artwork
// image travels with the fields.
func (p *PostsClient) Create(ctx context.Context, draft PostDraft, image *Upload) (models.Post, error) {
	var post models.Post
	err := p.c.sendMultipart(ctx, http.MethodPost, p.c.apiURL("/posts/"), draftFields(draft), image, "", "post", &post)
	if err != nil {
		return models.Post{}, err
	}
	return post, nil
}

// Update replaces a listing's fields, optionally with a new image.
func (p *PostsClient) Update(ctx context.Context, id int, draft PostDraft, image *Upload) (models.Post, error) {
	var post models.Post
	url := p.c.apiURL(fmt.Sprintf("/posts/%d/", id))
	err := p.c.sendMultipart(ctx, http.MethodPut, url, draftFields(draft), image, "", "post", &post)
	if err != nil {
		return models.Post{}, err
	}
	return post, nil
}

// Delete removes a listing owned by the current user.
func (p *PostsClient) Delete(ctx context.Context, id int) error {
	return p.c.deleteReq(ctx, p.c.apiURL(fmt.Sprintf("/posts/%d/", id)), "post")
}

// ToggleLike flips the like state of a post for the current user. The
// caller re-fetches the feed afterwards; the response body carries no
// authoritative post record.
func (p *PostsClient) ToggleLike(ctx context.Context, postID int) error {
	payload := map[string]int{"post_id": postID}
	return p.c.postJSON(ctx, p.c.apiURL("/like-posts/"), payload, false, "post", nil)
}

// ToggleSave flips the save state of a post for the current user.
func (p *PostsClient) ToggleSave(ctx context.Context, postID int) error {
	payload := map[string]int{"post_id": postID}
	return p.c.postJSON(ctx, p.c.apiURL("/save-posts/"), payload, false, "post", nil)
}

// Liked lists the current user's like records.
func (p *PostsClient) Liked(ctx context.Context) ([]models.Activity, error) {
	var activities []models.Activity
	if err := p.c.getJSON(ctx, p.c.apiURL("/like-posts/"), "post", &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// Saved lists the current user's save records.
func (p *PostsClient) Saved(ctx context.Context) ([]models.Activity, error) {
	var activities []models.Activity
	if err := p.c.getJSON(ctx, p.c.apiURL("/save-posts/"), "post", &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// draftFields flattens a draft into multipart form fields.
func draftFields(draft PostDraft) map[string]string {
	return map[string]string{
		"title":       draft.Title,
		"description": draft.Description,
		"price":       draft.Price.String(),
		"category":    draft.Category,
	}
}
