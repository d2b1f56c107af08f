package light

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const MetricsSubsystem = "light"

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of slots folded into a tally, skipped slots included.
	SlotsScanned metrics.Counter
	// Number of vote records decoded from scanned blocks.
	VotesDecoded metrics.Counter
	// Number of vote transactions that could not be decoded.
	DecodeWarnings metrics.Counter
	// Number of failed provider calls, by method.
	RPCErrors metrics.Counter
	// Number of finished runs, by terminal status.
	Verifications metrics.Counter
	// Number of conflicting headers observed.
	ForksDetected metrics.Counter
	// Stake fraction accumulated for the target bank hash of the last scan.
	StakeFraction metrics.Gauge
	// Time spent scanning votes, in seconds.
	ScanDuration metrics.Histogram
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
func PrometheusMetrics(namespace string) *Metrics {
	return &Metrics{
		SlotsScanned: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "slots_scanned",
			Help:      "Number of slots scanned for votes.",
		}, []string{}),
		VotesDecoded: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "votes_decoded",
			Help:      "Number of vote records decoded.",
		}, []string{}),
		DecodeWarnings: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "decode_warnings",
			Help:      "Number of vote transactions skipped because they could not be decoded.",
		}, []string{}),
		RPCErrors: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "rpc_errors",
			Help:      "Number of provider calls that failed.",
		}, []string{"method"}),
		Verifications: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "verifications",
			Help:      "Number of finished verification runs.",
		}, []string{"status"}),
		ForksDetected: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "forks_detected",
			Help:      "Number of conflicting headers observed for the same slot.",
		}, []string{}),
		StakeFraction: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "stake_fraction",
			Help:      "Fraction of total stake that voted for the target bank hash in the last scan.",
		}, []string{}),
		ScanDuration: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "scan_duration_seconds",
			Help:      "Time spent scanning slots for votes.",
			Buckets:   stdprometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{}),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		SlotsScanned:   discard.NewCounter(),
		VotesDecoded:   discard.NewCounter(),
		DecodeWarnings: discard.NewCounter(),
		RPCErrors:      discard.NewCounter(),
		Verifications:  discard.NewCounter(),
		ForksDetected:  discard.NewCounter(),
		StakeFraction:  discard.NewGauge(),
		ScanDuration:   discard.NewHistogram(),
	}
}
