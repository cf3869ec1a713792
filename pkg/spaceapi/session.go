package spaceapi

import (
	"context"
	"net/http"
	"strings"
)

const (
	loginPath    = "/auth/login"
	registerPath = "/auth/register"
)

// Login exchanges credentials for a token and installs it into the client's
// AuthContext.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return Session{}, Validation("email and password are required")
	}

	return c.session(ctx, loginPath, map[string]any{
		"email":    email,
		"password": password,
	})
}

func (c *Client) Register(ctx context.Context, name, email, password string) (Session, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(email) == "" || password == "" {
		return Session{}, Validation("name, email and password are required")
	}

	return c.session(ctx, registerPath, map[string]any{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

// Logout forgets the token locally. The backend keeps no session state.
func (c *Client) Logout(ctx context.Context) error {
	return c.auth.Invalidate(ctx)
}

func (c *Client) session(ctx context.Context, path string, payload map[string]any) (Session, error) {
	body, err := c.do(c.r(ctx).SetBody(payload), http.MethodPost, path)
	if err != nil {
		return Session{}, err
	}

	token, _ := body.Search("token").Data().(string)
	if token == "" {
		return Session{}, &Error{Kind: ErrServer, Message: "no token in session response"}
	}

	user, err := toUser(body)
	if err != nil {
		return Session{}, err
	}

	if err := c.auth.SetToken(ctx, token); err != nil {
		return Session{}, err
	}

	return Session{Token: token, User: user}, nil
}
