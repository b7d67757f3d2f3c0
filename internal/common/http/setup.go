package http

import (
	"net/http"

	"github.com/filmdoms/community/internal/common/httpmetrics"
	"github.com/filmdoms/community/internal/common/logger"
)

// BuildBaseHandler wraps handler with the middleware every service shares.
// Order, outermost first: security headers, recovery, trace id, body limit,
// request metrics.
func BuildBaseHandler(appName string, log *logger.Logger, maxRequestSize int64, handler http.Handler) http.Handler {
	collector := httpmetrics.New(appName)
	recovery := RecoveryMiddleware(log)
	bodyLimit := MaxRequestSizeMiddleware(maxRequestSize)

	return SecurityHeadersMiddleware(recovery(TraceIDMiddleware(bodyLimit(collector.Wrap(handler)))))
}
