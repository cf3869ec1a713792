package spaceapi

import (
	"context"
	"net/http"
	"strings"
)

func (c *Client) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	body, err := c.do(c.optionalAuth(c.r(ctx)).SetPathParam("id", postID), http.MethodGet, commentsPath)
	if err != nil {
		return nil, err
	}

	return toComments(body)
}

// AddComment posts a comment and returns the full comment list of the post.
// Servers that answer with the created comment alone are followed up with a
// list call.
func (c *Client) AddComment(ctx context.Context, postID, content string) ([]Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, Validation("comment is empty")
	}

	req, err := c.authed(c.r(ctx))
	if err != nil {
		return nil, err
	}

	body, err := c.do(req.
		SetPathParam("id", postID).
		SetBody(map[string]any{"content": content}),
		http.MethodPost, commentsPath)
	if err != nil {
		return nil, err
	}

	if isSingleComment(body.Data()) {
		return c.ListComments(ctx, postID)
	}

	return toComments(body)
}

func isSingleComment(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	if _, ok := m["comments"]; ok {
		return false
	}
	if _, ok := m["post"]; ok {
		return false
	}
	_, hasContent := m["content"]
	_, hasText := m["text"]
	return hasContent || hasText
}
