package observability

import "github.com/prometheus/client_golang/prometheus"

var (
	submissionsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "intake_bot",
		Subsystem: "flow",
		Name:      "submissions_completed_total",
		Help:      "Completed intake submissions persisted to the store.",
	})
	promoRedemptions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intake_bot",
		Subsystem: "promo",
		Name:      "redemptions_total",
		Help:      "Promo redemption attempts by outcome.",
	}, []string{"outcome"})
	operatorDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intake_bot",
		Subsystem: "notify",
		Name:      "operator_deliveries_total",
		Help:      "Submission deliveries to operators by outcome.",
	}, []string{"outcome"})
	sweepBatches = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "intake_bot",
		Subsystem: "notify",
		Name:      "sweep_batches_total",
		Help:      "Catch-up sweep runs that found unreported submissions.",
	})
)

func init() {
	prometheus.MustRegister(submissionsCompleted, promoRedemptions, operatorDeliveries, sweepBatches)
}

// RecordSubmissionCompleted counts one persisted submission.
func RecordSubmissionCompleted() {
	submissionsCompleted.Inc()
}

// RecordPromoRedeemed counts one redemption attempt; outcome is one of
// ok, not_found, already_used.
func RecordPromoRedeemed(outcome string) {
	promoRedemptions.WithLabelValues(outcome).Inc()
}

// RecordOperatorDelivery counts one operator send; outcome is ok or error.
func RecordOperatorDelivery(outcome string) {
	operatorDeliveries.WithLabelValues(outcome).Inc()
}

// RecordSweepBatch counts one non-empty sweep.
func RecordSweepBatch() {
	sweepBatches.Inc()
}
