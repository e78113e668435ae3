package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/relawanhub/relawan/internal/maplink"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relawan",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "relawan",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "path"})

	// MaplinkParses counts parse attempts by matched rule and outcome.
	MaplinkParses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relawan",
		Subsystem: "maplink",
		Name:      "parse_total",
		Help:      "Total map link parse attempts",
	}, []string{"rule", "result"})

	// AchievementLookups counts classifier calls by track and operation.
	AchievementLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relawan",
		Subsystem: "achievement",
		Name:      "lookups_total",
		Help:      "Total achievement classifier calls",
	}, []string{"track", "operation"})

	// GeocodeCache counts geocoder cache lookups by result: hit, miss, or error.
	GeocodeCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relawan",
		Subsystem: "geocode",
		Name:      "cache_total",
		Help:      "Total geocoder cache lookups",
	}, []string{"result"})
)

// ObserveParse records the outcome of one maplink parse.
func ObserveParse(rule string, err error) {
	if rule == "" {
		rule = "none"
	}
	MaplinkParses.WithLabelValues(rule, parseResult(err)).Inc()
}

func parseResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, maplink.ErrEmptyInput):
		return "empty"
	case errors.Is(err, maplink.ErrShortenedLink):
		return "shortened"
	case errors.Is(err, maplink.ErrUnparseable):
		return "unparseable"
	case errors.Is(err, maplink.ErrOutOfRegion):
		return "out_of_region"
	default:
		return "error"
	}
}

// ObserveLookup records one classifier call.
func ObserveLookup(track, operation string) {
	AchievementLookups.WithLabelValues(track, operation).Inc()
}

// ObserveGeocodeCache records one geocoder cache lookup.
func ObserveGeocodeCache(result string) {
	GeocodeCache.WithLabelValues(result).Inc()
}

// Middleware records request metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		path := c.Route().Path
		if path == "" {
			path = c.Path()
		}
		method := c.Method()
		status := strconv.Itoa(ResponseStatus(c, err))

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		return err
	}
}

// ResponseStatus is the status the client receives once err reaches
// fiber's error handler: the code of a *fiber.Error, 500 for any other
// error, otherwise whatever the handler wrote.
func ResponseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}

// Handler serves the Prometheus exposition format.
func Handler() fiber.Handler {
	handler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		handler(c.Context())
		return nil
	}
}
