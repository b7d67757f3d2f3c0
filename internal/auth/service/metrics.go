package service

import (
	"github.com/filmdoms/community/internal/observability/metrics"
)

func recordLogin(outcome loginOutcome) {
	metrics.LoginsTotal.WithLabelValues(string(outcome)).Inc()
	switch outcome {
	case loginReused:
		metrics.RefreshTokensReused.Inc()
	case loginReplaced:
		metrics.RefreshTokensReplaced.Inc()
	}
}

func recordRefresh() {
	metrics.RefreshTokensUsed.Inc()
}

func recordLogout() {
	metrics.LogoutsTotal.Inc()
}

func recordFailure(operation string, err error) {
	metrics.AuthFailuresTotal.WithLabelValues(operation, errorCode(err)).Inc()
}
