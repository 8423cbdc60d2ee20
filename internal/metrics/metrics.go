package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerateDuration tracks the latency of card generation batches
	GenerateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "bingo_generate_duration_seconds",
			Help: "Duration of card generation requests in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
				2.5,   // 2.5s
				5.0,   // 5s
				10.0,  // 10s
			},
		},
		[]string{"status"}, // success or failure
	)

	// VerifyDuration tracks the latency of claim verification
	VerifyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "bingo_verify_duration_seconds",
			Help: "Duration of card verification requests in seconds",
			Buckets: []float64{
				0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0,
			},
		},
		[]string{"status"}, // success or failure
	)

	// CardsGenerated counts issued cards
	CardsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bingo_cards_generated_total",
			Help: "Total number of bingo cards issued",
		},
	)

	// WinningClaims counts claims that evaluated as winners
	WinningClaims = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bingo_winning_claims_total",
			Help: "Total number of winning verification claims",
		},
	)
)

// RecordGenerateDuration records the duration of a generation request
func RecordGenerateDuration(status string, duration float64) {
	GenerateDuration.WithLabelValues(status).Observe(duration)
}

// RecordVerifyDuration records the duration of a verification request
func RecordVerifyDuration(status string, duration float64) {
	VerifyDuration.WithLabelValues(status).Observe(duration)
}
