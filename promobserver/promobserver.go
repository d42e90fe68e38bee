// Package promobserver exports training progress as Prometheus metrics.
//
// Training is a batch job, so the usual way to ship these metrics is to
// write them to a node-exporter textfile when the run ends:
//
//	reg := prometheus.NewRegistry()
//	obs, err := promobserver.New(reg)
//	cfg.Observer = obs
//	// ... agglo.Train ...
//	err = prometheus.WriteToTextfile("agglo.prom", reg)
package promobserver

import (
	"time"

	"github.com/TrevorS/agglo"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "agglo"

// Observer implements agglo.Observer on top of Prometheus collectors.
type Observer struct {
	selectSeconds    prometheus.Histogram
	mergeSeconds     prometheus.Histogram
	candidates       prometheus.Counter
	merges           prometheus.Counter
	depth            prometheus.Gauge
	leaves           prometheus.Gauge
	globalImpurity   *prometheus.GaugeVec
	heldOutDistance  prometheus.Gauge
	heldOutUnrouted  prometheus.Gauge
	impurityComputed prometheus.Gauge
}

var _ agglo.Observer = (*Observer)(nil)

// New creates an Observer and registers its collectors with reg.
func New(reg prometheus.Registerer) (*Observer, error) {
	o := &Observer{
		selectSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "select_duration_seconds",
			Help:      "Time spent selecting the feature of one depth",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		mergeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "merge_duration_seconds",
			Help:      "Time spent grafting and merging the leaves of one depth",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidate_features_total",
			Help:      "Candidate features scored",
		}),
		merges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merges_total",
			Help:      "Leaf merges performed",
		}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "depth",
			Help:      "Number of completed depths",
		}),
		leaves: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "leaves",
			Help:      "Live leaves in the graph",
		}),
		globalImpurity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "global_impurity",
			Help:      "Global impurity of the last depth before and after merging",
		}, []string{"stage"}),
		heldOutDistance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "heldout_rms_distance",
			Help:      "Mean RMS distance of held-out vectors to their leaf",
		}),
		heldOutUnrouted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "heldout_unrouted",
			Help:      "Held-out vectors that reached an empty slot",
		}),
		impurityComputed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "impurity_computations",
			Help:      "Leaf impurities computed rather than served from cache",
		}),
	}

	for _, c := range []prometheus.Collector{
		o.selectSeconds, o.mergeSeconds, o.candidates, o.merges, o.depth,
		o.leaves, o.globalImpurity, o.heldOutDistance, o.heldOutUnrouted,
		o.impurityComputed,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// ObserveSelection implements agglo.Observer.
func (o *Observer) ObserveSelection(d time.Duration, candidates int) {
	o.selectSeconds.Observe(d.Seconds())
	o.candidates.Add(float64(candidates))
}

// ObserveMerge implements agglo.Observer.
func (o *Observer) ObserveMerge(d time.Duration, merges int) {
	o.mergeSeconds.Observe(d.Seconds())
	o.merges.Add(float64(merges))
}

// ObserveDepth implements agglo.Observer.
func (o *Observer) ObserveDepth(r agglo.DepthReport) {
	o.depth.Set(float64(r.Depth))
	o.leaves.Set(float64(r.Leaves))
	o.globalImpurity.WithLabelValues("selected").Set(r.GlobalImpurity)
	o.globalImpurity.WithLabelValues("merged").Set(r.MergedGlobalImpurity)
	o.heldOutDistance.Set(r.HeldOut.MeanDistance)
	o.heldOutUnrouted.Set(float64(r.HeldOut.Unrouted))
}

// ObserveCache implements agglo.Observer.
func (o *Observer) ObserveCache(computations int64) {
	o.impurityComputed.Set(float64(computations))
}
