// Package metrics exposes Prometheus instrumentation for the ledger.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Registry bundles the collectors the service layer reports into. Satisfies
// the Recorder/ViewGauge interfaces declared next to their consumers.
type Registry struct {
	bidsTotal        prometheus.Counter
	bidVolume        prometheus.Counter
	sellsTotal       prometheus.Counter
	redemptionsTotal prometheus.Counter
	redemptionValue  prometheus.Counter
	driftTicksTotal  prometheus.Counter
	openDriftViews   prometheus.Gauge
}

// New registers all ledger collectors with the default registry.
func New() *Registry {
	return &Registry{
		bidsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tokenizee_bids_total",
			Help: "Number of bids recorded by the ledger.",
		}),
		bidVolume: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tokenizee_bid_volume_tokens",
			Help: "Total token volume across all bids.",
		}),
		sellsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tokenizee_sells_total",
			Help: "Number of sell transactions recorded.",
		}),
		redemptionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tokenizee_redemptions_total",
			Help: "Number of holdings redeemed.",
		}),
		redemptionValue: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tokenizee_redemption_value_total",
			Help: "Cumulative redemption value credited.",
		}),
		driftTicksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "tokenizee_drift_ticks_total",
			Help: "Number of drift price bumps applied.",
		}),
		openDriftViews: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "tokenizee_open_drift_views",
			Help: "Posts currently holding an active drift timer.",
		}),
	}
}

// BidPlaced records a committed bid and its token amount.
func (r *Registry) BidPlaced(amount decimal.Decimal) {
	r.bidsTotal.Inc()
	r.bidVolume.Add(amount.InexactFloat64())
}

// TokensSold records a committed sell.
func (r *Registry) TokensSold(amount decimal.Decimal) {
	r.sellsTotal.Inc()
}

// TokensRedeemed records a settled redemption and its credited value.
func (r *Registry) TokensRedeemed(value decimal.Decimal) {
	r.redemptionsTotal.Inc()
	r.redemptionValue.Add(value.InexactFloat64())
}

// DriftTick records one drift price bump.
func (r *Registry) DriftTick() { r.driftTicksTotal.Inc() }

// ViewOpened tracks a post gaining its first open bidding view.
func (r *Registry) ViewOpened() { r.openDriftViews.Inc() }

// ViewClosed tracks a post losing its last open bidding view.
func (r *Registry) ViewClosed() { r.openDriftViews.Dec() }
