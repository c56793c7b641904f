// Package metrics holds the Prometheus collectors for the embed cache.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// once guards registration; the default registry panics on duplicates
	once sync.Once

	// CacheLookups counts SaveEmbedData lookups by result ("hit" or "miss")
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embed_cache_lookups_total",
			Help: "Embed cache lookups by result.",
		},
		[]string{"result"},
	)

	// Resolutions counts resolver calls by outcome ("success" or "failure")
	Resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embed_resolutions_total",
			Help: "Embed resolutions by outcome.",
		},
		[]string{"outcome"},
	)

	// TableCreations counts lazy provisioning of the cache table
	TableCreations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "embed_table_creations_total",
			Help: "Cache table creations performed by this process.",
		},
	)
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			CacheLookups,
			Resolutions,
			TableCreations,
		)
	})
}
