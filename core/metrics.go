package core

// metrics.go - in-process Prometheus counters for Sumeragi. These are
// registered against prometheus.NewRegistry() rather than the global
// DefaultRegisterer so multiple Sumeragi instances can coexist in one test
// binary without a "duplicate metrics collector registration" panic; an
// HTTP /metrics exporter is outside this module's scope, so the registry is
// only ever read back via Gather(), which only the tests call.

import "github.com/prometheus/client_golang/prometheus"

// ConsensusMetrics groups the counters Sumeragi updates as it runs.
type ConsensusMetrics struct {
	Registry            *prometheus.Registry
	blocksProposed      prometheus.Counter
	blocksCommitted     prometheus.Counter
	droppedMessages     prometheus.Counter
	viewChangesRaised   prometheus.Counter
	viewChangesFinished prometheus.Counter
}

// NewConsensusMetrics builds a fresh, independently-registered metric set.
func NewConsensusMetrics() *ConsensusMetrics {
	reg := prometheus.NewRegistry()
	m := &ConsensusMetrics{
		Registry: reg,
		blocksProposed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sumeragi_blocks_proposed_total",
			Help: "Blocks this peer has proposed as leader.",
		}),
		blocksCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sumeragi_blocks_committed_total",
			Help: "Blocks this peer has committed to its World State View.",
		}),
		droppedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sumeragi_dropped_messages_total",
			Help: "Consensus messages dropped due to a handling error.",
		}),
		viewChangesRaised: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sumeragi_view_changes_raised_total",
			Help: "View changes this peer initiated after a commit timeout.",
		}),
		viewChangesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sumeragi_view_changes_finished_total",
			Help: "View changes that reached quorum and rotated the topology.",
		}),
	}
	reg.MustRegister(m.blocksProposed, m.blocksCommitted, m.droppedMessages, m.viewChangesRaised, m.viewChangesFinished)
	return m
}
