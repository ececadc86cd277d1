package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyshelf_downloads_total",
		Help: "Download attempts by final stage",
	}, []string{"outcome"})

	counterUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyshelf_counter_updates_total",
		Help: "Download counter updates by strategy and result",
	}, []string{"strategy", "result"})

	counterConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studyshelf_counter_cas_conflicts_total",
		Help: "Compare-and-swap conflicts seen while updating download counters",
	})

	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyshelf_uploads_total",
		Help: "Upload attempts by result",
	}, []string{"result"})

	compensationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyshelf_saga_compensations_total",
		Help: "Compensating blob removals by result",
	}, []string{"result"})

	snapshotCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studyshelf_snapshot_cache_hits_total",
		Help: "Catalog snapshot cache hits",
	})

	snapshotCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studyshelf_snapshot_cache_misses_total",
		Help: "Catalog snapshot cache misses",
	})
)
