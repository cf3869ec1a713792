package spaceapi

import (
	"time"

	"resty.dev/v3"
)

type ClientConfig struct {
	BaseURL string
	Auth    *AuthContext

	// Timeout is the budget of primary feed operations, FastTimeout the one
	// of aggregate reads that have a fallback.
	Timeout     time.Duration
	FastTimeout time.Duration

	TransportSettings *resty.TransportSettings

	ResponseMiddlewares []resty.ResponseMiddleware
	RequestMiddlewares  []resty.RequestMiddleware
}

var DefaultConfig = &ClientConfig{
	BaseURL:     "http://localhost:5000/api",
	Timeout:     30 * time.Second,
	FastTimeout: 3 * time.Second,

	TransportSettings: &resty.TransportSettings{
		DialerTimeout:         5 * time.Second,
		DialerKeepAlive:       30 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
	},
}
