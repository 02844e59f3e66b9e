package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the funding engine. Counters track the
// money-moving operations; histograms cover the hot paths.
type Metrics struct {
	CampaignsCreated  prometheus.Counter
	DonationsAccepted prometheus.Counter
	DonatedAmount     prometheus.Counter
	MatchedAmount     prometheus.Counter
	GoalsReached      prometheus.Counter
	Withdrawals       prometheus.Counter
	DonateDuration    prometheus.Histogram
	WithdrawDuration  prometheus.Histogram
	CampaignCacheHits prometheus.Counter
}

// New creates a Metrics instance with all funding metrics registered on the
// default registry.
func New() *Metrics {
	return &Metrics{
		CampaignsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fundmatch_campaigns_created_total",
			Help: "Total number of campaigns created",
		}),
		DonationsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fundmatch_donations_accepted_total",
			Help: "Total number of accepted donations",
		}),
		DonatedAmount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fundmatch_donated_amount_total",
			Help: "Sum of donor-contributed base units",
		}),
		MatchedAmount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fundmatch_matched_amount_total",
			Help: "Sum of matching-pool base units disbursed",
		}),
		GoalsReached: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fundmatch_goals_reached_total",
			Help: "Total number of campaigns that reached their goal",
		}),
		Withdrawals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fundmatch_withdrawals_total",
			Help: "Total number of settled withdrawals",
		}),
		DonateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fundmatch_donate_duration_seconds",
			Help:    "Duration of donate operations (engine critical path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		WithdrawDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "fundmatch_withdraw_duration_seconds",
			Help:    "Duration of withdrawFunds operations (settlement path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CampaignCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fundmatch_campaign_cache_hits_total",
			Help: "Campaign reads served from the cache",
		}),
	}
}

// ObserveDonate records the duration of a donate operation.
func (m *Metrics) ObserveDonate(start time.Time) {
	m.DonateDuration.Observe(time.Since(start).Seconds())
}

// ObserveWithdraw records the duration of a withdrawFunds operation.
func (m *Metrics) ObserveWithdraw(start time.Time) {
	m.WithdrawDuration.Observe(time.Since(start).Seconds())
}
