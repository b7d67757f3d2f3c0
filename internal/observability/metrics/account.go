package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AccountsJoined = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accounts_joined_total",
			Help: "Total number of accounts created",
		},
	)

	AccountsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "accounts_deleted_total",
			Help: "Total number of accounts deleted",
		},
	)

	AccountOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_operations_total",
			Help: "Total number of account operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	ImageUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "image_uploads_total",
			Help: "Total number of image uploads by result",
		},
		[]string{"result"},
	)

	ImageUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "image_upload_bytes",
			Help:    "Size of uploaded images in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)
)
