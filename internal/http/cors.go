package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	dossierHTTP "github.com/allisson/trustlog/internal/dossier/http"
)

// dossierExposedHeaders are read by consoles verifying a downloaded artifact.
var dossierExposedHeaders = []string{
	"Content-Disposition",
	"X-Dossier-SHA256",
	"X-Dossier-Records",
}

// createCORSMiddleware allows operator consoles served from another origin to
// call the /v1 API. The captive portal is same-origin and never needs it.
// Returns nil when disabled or when no usable origin is configured.
func createCORSMiddleware(enabled bool, allowOrigins string, logger *slog.Logger) gin.HandlerFunc {
	if !enabled {
		return nil
	}

	origins := parseOrigins(allowOrigins)
	if len(origins) == 0 {
		logger.Warn("cors enabled without usable origins, middleware not installed",
			slog.String("cors_allow_origins", allowOrigins))
		return nil
	}

	logger.Info("cors enabled", slog.Any("origins", origins))

	return cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Authorization",
			"Content-Type",
			"Accept-Language",
			dossierHTTP.SessionHeader,
		},
		ExposeHeaders:    append([]string{"X-Request-Id"}, dossierExposedHeaders...),
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// parseOrigins splits a comma-separated origin list. Entries that are not
// scheme://host origins are dropped, as is a trailing slash.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}

	var origins []string
	for part := range strings.SplitSeq(raw, ",") {
		origin := strings.TrimSuffix(strings.TrimSpace(part), "/")
		if origin == "" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") || u.Path != "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
