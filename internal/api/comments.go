package api

import (
	"context"
	"fmt"
	"net/url"

	"artmarket/internal/models"
)

// CommentsClient implements Comments against the marketplace backend.
type CommentsClient struct {
	c *Client
}

// NewCommentsClient returns the comments resource client.
func NewCommentsClient(c *Client) *CommentsClient {
	return &CommentsClient{c: c}
}

// ListForPost fetches the comments of one post. The store deduplicates
// by comment id, so fetching the same post twice is harmless.
func (cc *CommentsClient) ListForPost(ctx context.Context, postID int) ([]models.Comment, error) {
	var comments []models.Comment
	u := cc.c.apiURL("/comments/?post_id=" + url.QueryEscape(fmt.Sprint(postID)))
	if err := cc.c.getJSON(ctx, u, "comment", &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// Create posts a comment and returns the stored record, id included.
func (cc *CommentsClient) Create(ctx context.Context, postID int, content string) (models.Comment, error) {
	payload := map[string]any{"post_id": postID, "content": content}
	var comment models.Comment
	if err := cc.c.postJSON(ctx, cc.c.apiURL("/comments/"), payload, false, "comment", &comment); err != nil {
		return models.Comment{}, err
	}
	return comment, nil
}

// Delete removes a comment owned by the current user.
func (cc *CommentsClient) Delete(ctx context.Context, id int) error {
	return cc.c.deleteReq(ctx, cc.c.apiURL(fmt.Sprintf("/comments/%d/", id)), "comment")
}
