package spaceapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"resty.dev/v3"
)

const (
	postsPath       = "/posts"
	publicPostsPath = "/posts/public"
	postPath        = "/posts/{id}"
	publicPostPath  = "/posts/public/{id}"
	likePath        = "/posts/{id}/like"
	commentsPath    = "/posts/{id}/comments"
	bookmarkPath    = "/posts/{id}/bookmark"
)

// Visibility selects between the endpoint variant that carries viewer
// relative fields and the unauthenticated one.
type Visibility int

const (
	Public Visibility = iota
	Authenticated
)

func (v Visibility) String() string {
	if v == Authenticated {
		return "authenticated"
	}
	return "public"
}

func (c *Client) visible(req *resty.Request, v Visibility) (*resty.Request, error) {
	if v == Authenticated {
		return c.authed(req)
	}
	return req, nil
}

func (c *Client) ListPosts(ctx context.Context, page, size int, v Visibility) (PostPage, error) {
	if page < 1 || size < 1 {
		return PostPage{}, Validation("invalid page %d of size %d", page, size)
	}

	req, err := c.visible(c.r(ctx), v)
	if err != nil {
		return PostPage{}, err
	}

	path := publicPostsPath
	if v == Authenticated {
		path = postsPath
	}

	body, err := c.do(req.
		SetQueryParam("page", strconv.Itoa(page)).
		SetQueryParam("limit", strconv.Itoa(size)),
		http.MethodGet, path)
	if err != nil {
		return PostPage{}, err
	}

	posts, err := toPosts(body)
	if err != nil {
		return PostPage{}, err
	}

	return PostPage{Posts: posts, Pagination: toPagination(body)}, nil
}

func (c *Client) GetPost(ctx context.Context, id string, v Visibility) (Post, error) {
	req, err := c.visible(c.r(ctx), v)
	if err != nil {
		return Post{}, err
	}

	path := publicPostPath
	if v == Authenticated {
		path = postPath
	}

	body, err := c.do(req.SetPathParam("id", id), http.MethodGet, path)
	if err != nil {
		return Post{}, err
	}

	return toPost(unwrap(body, "post"))
}

func (c *Client) CreatePost(ctx context.Context, content string, anonymous bool) (Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Post{}, Validation("post content is empty")
	}

	req, err := c.authed(c.r(ctx))
	if err != nil {
		return Post{}, err
	}

	body, err := c.do(req.SetBody(map[string]any{
		"content":     content,
		"isAnonymous": anonymous,
	}), http.MethodPost, postsPath)
	if err != nil {
		return Post{}, err
	}

	return toPost(unwrap(body, "post"))
}

func (c *Client) UpdatePost(ctx context.Context, id, content string) (Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Post{}, Validation("post content is empty")
	}

	req, err := c.authed(c.r(ctx))
	if err != nil {
		return Post{}, err
	}

	body, err := c.do(req.
		SetPathParam("id", id).
		SetBody(map[string]any{"content": content}),
		http.MethodPut, postPath)
	if err != nil {
		return Post{}, err
	}

	return toPost(unwrap(body, "post"))
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	req, err := c.authed(c.r(ctx))
	if err != nil {
		return err
	}

	_, err = c.do(req.SetPathParam("id", id), http.MethodDelete, postPath)
	return err
}

// LikePost toggles the viewer's like and returns the server's view of it.
func (c *Client) LikePost(ctx context.Context, id string) (LikeResult, error) {
	req, err := c.authed(c.r(ctx))
	if err != nil {
		return LikeResult{}, err
	}

	body, err := c.do(req.SetPathParam("id", id), http.MethodPost, likePath)
	if err != nil {
		return LikeResult{}, err
	}

	return toLikeResult(body)
}

// ToggleBookmark returns the ids of every post the viewer has bookmarked
// after the toggle.
func (c *Client) ToggleBookmark(ctx context.Context, id string) ([]string, error) {
	req, err := c.authed(c.r(ctx))
	if err != nil {
		return nil, err
	}

	body, err := c.do(req.SetPathParam("id", id), http.MethodPost, bookmarkPath)
	if err != nil {
		return nil, err
	}

	return toBookmarks(body), nil
}
