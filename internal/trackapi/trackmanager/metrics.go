package trackmanager

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsNamespace = "trackcatalog"
	metricsSubsystem = "engine"
)

// Submission outcomes.
const (
	resultCreated  = "created"
	resultUpdated  = "updated"
	resultRejected = "rejected"
	resultLinked   = "linked"
)

var (
	submissions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "track_submissions_total",
		Help:      "Track submissions by outcome and error kind.",
	}, []string{"result", "kind"})

	typeLinks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "type_links_total",
		Help:      "Requests to link a type to an existing track by outcome and error kind.",
	}, []string{"result", "kind"})

	deletedTracks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
		Name:      "deleted_tracks_total",
		Help:      "Tracks removed by genome or single track deletes.",
	})
)

// Collectors returns the engine metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{submissions, typeLinks, deletedTracks}
}
