package metrics

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Surfaces group routes by audience.
const (
	SurfacePortal   = "portal"
	SurfaceTSA      = "tsa"
	SurfaceOperator = "operator"
	SurfaceProbe    = "probe"
	SurfaceUnknown  = "unknown"
)

// HTTPMetricsMiddleware counts requests and observes their duration, labelled
// by method, route pattern, status code and surface. Unmatched routes collapse
// into a single "unknown" path so scanners cannot inflate cardinality.
func HTTPMetricsMiddleware(meterProvider metric.MeterProvider, namespace string) gin.HandlerFunc {
	meter := meterProvider.Meter(namespace)

	requests, err := meter.Int64Counter(
		fmt.Sprintf("%s_http_requests_total", namespace),
		metric.WithDescription("HTTP requests by route and status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return passthrough
	}

	duration, err := meter.Float64Histogram(
		fmt.Sprintf("%s_http_request_duration_seconds", namespace),
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return passthrough
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		surface := Surface(route)
		attrs := metric.WithAttributes(
			attribute.String("method", c.Request.Method),
			attribute.String("path", routeLabel(route)),
			attribute.String("status_code", strconv.Itoa(c.Writer.Status())),
			attribute.String("surface", surface),
		)

		ctx := c.Request.Context()
		requests.Add(ctx, 1, attrs)
		// Probes are counted but kept out of the latency distribution.
		if surface != SurfaceProbe {
			duration.Record(ctx, time.Since(start).Seconds(), attrs)
		}
	}
}

func passthrough(c *gin.Context) {
	c.Next()
}

// Surface classifies a route pattern.
func Surface(route string) string {
	switch {
	case route == "":
		return SurfaceUnknown
	case route == "/health" || route == "/ready":
		return SurfaceProbe
	case strings.HasPrefix(route, "/entry/") || strings.HasPrefix(route, "/leave/"):
		return SurfacePortal
	case strings.HasPrefix(route, "/tsa/"):
		return SurfaceTSA
	case strings.HasPrefix(route, "/v1/"):
		return SurfaceOperator
	default:
		return SurfaceUnknown
	}
}

func routeLabel(route string) string {
	if route == "" {
		return "unknown"
	}
	return route
}
