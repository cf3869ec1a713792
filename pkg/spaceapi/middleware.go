package spaceapi

import (
	"log/slog"
	"net/url"

	"resty.dev/v3"
)

// LogResponses returns a response middleware that logs every exchange at
// debug level.
func LogResponses(logger *slog.Logger) resty.ResponseMiddleware {
	return func(_ *resty.Client, res *resty.Response) error {
		path := res.Request.URL
		if u, err := url.Parse(res.Request.URL); err == nil {
			path = u.Path
		}

		logger.Debug("api response",
			"method", res.Request.Method,
			"path", path,
			"status", res.StatusCode(),
			"duration", res.Duration(),
			"request_id", res.Request.Header.Get(requestIDHeader),
		)

		return nil
	}
}
