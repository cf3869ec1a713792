package spaceapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Jeffail/gabs/v2"
	"github.com/google/uuid"
	"resty.dev/v3"
)

const requestIDHeader = "X-Request-Id"

// Client is the single HTTP adapter towards the SafeSpace REST backend.
// Every error it returns is an *Error classified into one of the kinds.
type Client struct {
	client *resty.Client
	auth   *AuthContext

	timeout     time.Duration
	fastTimeout time.Duration
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig
	}

	transport := config.TransportSettings
	if transport == nil {
		transport = DefaultConfig.TransportSettings
	}

	client := resty.NewWithTransportSettings(transport).
		SetBaseURL(config.BaseURL)

	auth := config.Auth
	if auth == nil {
		auth = NewAuthContext(nil)
	}

	c := &Client{
		client:      client,
		auth:        auth,
		timeout:     orDefault(config.Timeout, DefaultConfig.Timeout),
		fastTimeout: orDefault(config.FastTimeout, DefaultConfig.FastTimeout),
	}

	client.AddRequestMiddleware(requestID)
	for _, m := range config.RequestMiddlewares {
		client.AddRequestMiddleware(m)
	}

	client.AddResponseMiddleware(c.evictOnUnauthorized)
	for _, m := range config.ResponseMiddlewares {
		client.AddResponseMiddleware(m)
	}

	return c
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) Auth() *AuthContext {
	return c.auth
}

func requestID(_ *resty.Client, req *resty.Request) error {
	if req.Header.Get(requestIDHeader) == "" {
		req.SetHeader(requestIDHeader, uuid.NewString())
	}
	return nil
}

// evictOnUnauthorized drops the token when the server rejects it. A 401 for
// a token that was already replaced leaves the new one alone.
func (c *Client) evictOnUnauthorized(_ *resty.Client, res *resty.Response) error {
	if res.StatusCode() != http.StatusUnauthorized {
		return nil
	}

	token := res.Request.AuthToken
	if token == "" || token != c.auth.Token() {
		return nil
	}

	return c.auth.Invalidate(res.Request.Context())
}

func (c *Client) r(ctx context.Context) *resty.Request {
	return c.client.R().
		WithContext(ctx).
		SetTimeout(c.timeout).
		SetError(&errorBody{})
}

// Fast returns a view of the client that runs every call with the short
// budget reserved for reads that have a fallback.
func (c *Client) Fast() *Client {
	fast := *c
	fast.timeout = c.fastTimeout
	return &fast
}

// authed attaches the bearer token or fails without touching the network.
func (c *Client) authed(req *resty.Request) (*resty.Request, error) {
	token := c.auth.Token()
	if token == "" {
		return nil, &Error{Kind: ErrAuth, Message: "not signed in"}
	}
	return req.SetAuthToken(token), nil
}

// optionalAuth attaches the bearer token when there is one.
func (c *Client) optionalAuth(req *resty.Request) *resty.Request {
	if token := c.auth.Token(); token != "" {
		return req.SetAuthToken(token)
	}
	return req
}

// do executes the request and returns the body with canonical identities.
// An empty body yields an empty container.
func (c *Client) do(req *resty.Request, method, path string) (*gabs.Container, error) {
	res, err := req.Execute(method, path)
	if err != nil {
		if res != nil && res.StatusCode() >= http.StatusBadRequest {
			return nil, statusError(res.StatusCode(), errorMessage(res))
		}
		return nil, Classify(err)
	}

	if res.StatusCode() >= http.StatusBadRequest {
		return nil, statusError(res.StatusCode(), errorMessage(res))
	}

	body := res.Bytes()
	if len(body) == 0 {
		return gabs.New(), nil
	}

	parsed, err := gabs.ParseJSON(body)
	if err != nil {
		return nil, &Error{Kind: ErrServer, Status: res.StatusCode(), Message: "malformed response", cause: err}
	}

	canonicalIDs(parsed.Data())

	return parsed, nil
}

func errorMessage(res *resty.Response) string {
	var body *errorBody
	if e, ok := res.Error().(*errorBody); ok {
		body = e
	}
	if body == nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}

// IsAuth reports whether err is an authentication failure.
func IsAuth(err error) bool {
	return errors.Is(err, ErrAuth)
}
