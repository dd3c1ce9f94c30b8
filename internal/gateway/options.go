package gateway

import "time"

// sim holds the knobs shared by the simulated gateways.
type sim struct {
	decide  Decider
	latency time.Duration
}

// Option configures a simulated gateway.
type Option func(*sim)

// WithDecider replaces the outcome source. Tests use this to force an
// approval or a decline.
func WithDecider(d Decider) Option {
	return func(s *sim) { s.decide = d }
}

// WithLatency sets the simulated processing delay.
func WithLatency(d time.Duration) Option {
	return func(s *sim) { s.latency = d }
}

func newSim(defaultRate float64, opts ...Option) sim {
	s := sim{
		decide:  RateDecider(defaultRate),
		latency: 100 * time.Millisecond,
	}
	for _, o := range opts {
		o(&s)
	}
	return s
}
