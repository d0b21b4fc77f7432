package router

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultMatched  = "matched"
	resultNotFound = "not_found"
	resultOK       = "ok"
	resultNoLink   = "no_link"
)

// metrics holds the router counters. A nil *metrics records nothing.
type metrics struct {
	matches *prometheus.CounterVec
	links   *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	matches, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routing_matches_total",
		Help: "Number of paths matched against the route table, by result.",
	}, []string{"result"}))
	if err != nil {
		return nil, err
	}

	links, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "routing_links_total",
		Help: "Number of link generation attempts, by result.",
	}, []string{"result"}))
	if err != nil {
		return nil, err
	}

	return &metrics{matches: matches, links: links}, nil
}

// registerCounterVec registers c, reusing an identical collector that is
// already registered.
func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func (m *metrics) match(result string) {
	if m == nil {
		return
	}
	m.matches.WithLabelValues(result).Inc()
}

func (m *metrics) link(result string) {
	if m == nil {
		return
	}
	m.links.WithLabelValues(result).Inc()
}
