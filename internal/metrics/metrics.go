// Package metrics defines the Prometheus instruments exported by tourline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ToursStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tourline_tours_started_total",
		Help: "Total number of tour sessions started.",
	})

	ToursFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tourline_tours_finished_total",
		Help: "Total number of tours that drained narration and finished.",
	})

	ToursStopped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tourline_tours_stopped_total",
		Help: "Total number of tours canceled by a stop signal or failure.",
	})

	LinesRevealed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tourline_lines_revealed_total",
		Help: "Total number of narration lines fully revealed.",
	})

	StreamNotices = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tourline_stream_notices_total",
		Help: "Total number of advisory error payloads carried by narration streams.",
	})

	FramesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tourline_frames_dropped_total",
		Help: "Total number of malformed narration frames silently discarded.",
	})

	SignalsDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tourline_signals_deduplicated_total",
		Help: "Total number of step signals dropped by nonce deduplication.",
	})

	NarrationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tourline_narration_duration_seconds",
		Help:    "Wall-clock duration of narration generation streams.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
	})
)
