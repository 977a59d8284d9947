// Package services – domain metrics
//
// Prometheus counters for relay activity, registered on the default
// registry and exposed through the /metrics endpoint alongside the HTTP
// transport metrics.
package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	objectsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_objects_issued_total",
		Help: "Objects converted into links, by origin.",
	}, []string{"origin"})

	bytesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_bytes_stored_total",
		Help: "Payload bytes accepted into the blob store.",
	})

	downloadsServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_downloads_total",
		Help: "Successful link redemptions.",
	})

	objectsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "relay_objects_swept_total",
		Help: "Objects tombstoned by the expiry sweeper.",
	})
)
