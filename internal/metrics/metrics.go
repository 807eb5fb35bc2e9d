package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "founderconnect_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "founderconnect_http_request_duration_seconds",
			Help:    "Time spent serving HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// action is the result action, e.g. connect, none or error
	chatCommands = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "founderconnect_chat_commands_total",
			Help: "Routed chat commands by intent and result action",
		},
		[]string{"intent", "action"},
	)

	generationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "founderconnect_generation_failures_total",
			Help: "Text generation failures by kind",
		},
		[]string{"kind"},
	)

	outreachEmails = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "founderconnect_outreach_emails_total",
			Help: "Outreach emails by delivery status",
		},
		[]string{"status"},
	)

	suggestionsServed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "founderconnect_suggestions_returned",
			Help:    "Number of suggestions returned per request",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	wsClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "founderconnect_ws_clients_current",
			Help: "Currently connected websocket clients",
		},
	)
)

func ObserveChatCommand(intent, action string) {
	chatCommands.WithLabelValues(intent, action).Inc()
}

func ObserveGenerationFailure(kind string) {
	generationFailures.WithLabelValues(kind).Inc()
}

func ObserveOutreach(sent, failed int) {
	outreachEmails.WithLabelValues("sent").Add(float64(sent))
	outreachEmails.WithLabelValues("failed").Add(float64(failed))
}

func ObserveSuggestions(n int) {
	suggestionsServed.Observe(float64(n))
}

func SetWSClients(n int) {
	wsClients.Set(float64(n))
}

// Middleware records request counts and latency labeled by the matched route
// pattern, not the raw path.
func Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		route := c.Route().Path
		if route == "" {
			route = "unmatched"
		}

		httpRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
