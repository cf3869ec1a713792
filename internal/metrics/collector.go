package metrics

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"resty.dev/v3"
)

var (
	apiLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "safespace_api_request_latency",
			Help:    "Histogram of SafeSpace API request latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"method", "path", "status_code"},
	)

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safespace_cache_lookups_total",
		Help: "Client cache lookups by cache family and result.",
	}, []string{"family", "result"})

	PlaceholderFeeds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "safespace_placeholder_feeds_total",
		Help: "Feed loads answered with placeholder posts because the backend was unreachable.",
	})

	Rollbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safespace_optimistic_rollbacks_total",
		Help: "Optimistic updates reverted after the server call failed.",
	}, []string{"action"})

	DuplicatesSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "safespace_duplicate_submissions_total",
		Help: "Mutations dropped because an identical one was in flight or just completed.",
	}, []string{"action"})
)

// APILatency returns the request latency histogram.
func APILatency() *prometheus.HistogramVec {
	return apiLatency
}

// LatencyMiddleware records the latency of every API response, labelled by
// route so that resource ids do not multiply the series.
func LatencyMiddleware(_ *resty.Client, response *resty.Response) error {
	apiLatency.WithLabelValues(
		response.Request.Method,
		route(response.Request),
		fmt.Sprintf("%d", response.StatusCode()),
	).Observe(response.Duration().Seconds())

	return nil
}

// route turns the resolved request path back into its template by replacing
// every segment filled from a path parameter with "{name}".
func route(request *resty.Request) string {
	path := request.URL
	if reqURL, err := url.Parse(request.URL); err == nil {
		path = reqURL.EscapedPath()
	}

	if len(request.PathParams) == 0 {
		return path
	}

	params := make(map[string]string, len(request.PathParams))
	for name, value := range request.PathParams {
		params[value] = "{" + name + "}"
	}

	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if name, ok := params[segment]; ok {
			segments[i] = name
		}
	}
	return strings.Join(segments, "/")
}
