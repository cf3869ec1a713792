package spaceapi

import (
	"context"
	"io"
	"net/http"
)

const (
	mePath     = "/users/me"
	avatarPath = "/users/me/avatar"
)

func (c *Client) Me(ctx context.Context) (User, error) {
	req, err := c.authed(c.r(ctx))
	if err != nil {
		return User{}, err
	}

	body, err := c.do(req, http.MethodGet, mePath)
	if err != nil {
		return User{}, err
	}

	return toUser(body)
}

// UploadAvatar sends the image as the "avatar" field of a multipart form and
// returns the updated profile.
func (c *Client) UploadAvatar(ctx context.Context, fileName string, image io.Reader) (User, error) {
	req, err := c.authed(c.r(ctx))
	if err != nil {
		return User{}, err
	}

	body, err := c.do(req.SetFileReader("avatar", fileName, image), http.MethodPost, avatarPath)
	if err != nil {
		return User{}, err
	}

	return toUser(body)
}
