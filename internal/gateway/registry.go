package gateway

import (
	"time"

	domainErrors "github.com/nourhamdy/ordermgmt/internal/domain/errors"
	"github.com/sony/gobreaker/v2"
)

// Info describes a gateway in listings consumed by the presentation layer.
type Info struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Currencies  []string `json:"currencies"`
}

// Registry maps gateway names to implementations. Each registered gateway
// gets its own circuit breaker guarding settlement calls.
type Registry struct {
	gateways map[string]Gateway
	order    []string
	breakers map[string]*gobreaker.CircuitBreaker[*Outcome]
}

// NewRegistry creates a registry populated with the given gateways, keeping
// their registration order for listings.
func NewRegistry(gateways ...Gateway) (*Registry, error) {
	r := &Registry{
		gateways: make(map[string]Gateway),
		breakers: make(map[string]*gobreaker.CircuitBreaker[*Outcome]),
	}
	for _, g := range gateways {
		if err := r.Register(g); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or overwrites a gateway mapping.
func (r *Registry) Register(g Gateway) error {
	if g == nil || g.Name() == "" {
		return domainErrors.ErrInvalidGateway
	}

	name := g.Name()
	if _, exists := r.gateways[name]; !exists {
		r.order = append(r.order, name)
	}
	r.gateways[name] = g
	r.breakers[name] = gobreaker.NewCircuitBreaker[*Outcome](gobreaker.Settings{
		Name:        name,
		MaxRequests: 10,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
	})
	return nil
}

// Resolve looks up a gateway and its circuit breaker by name.
func (r *Registry) Resolve(name string) (Gateway, *gobreaker.CircuitBreaker[*Outcome], error) {
	g, ok := r.gateways[name]
	if !ok {
		return nil, nil, domainErrors.NewDomainError(
			"unsupported_gateway",
			"payment gateway ["+name+"] is not supported",
			domainErrors.ErrUnsupportedGateway,
		)
	}
	return g, r.breakers[name], nil
}

// BreakerStates returns the current circuit breaker state per gateway.
func (r *Registry) BreakerStates() map[string]gobreaker.State {
	states := make(map[string]gobreaker.State, len(r.breakers))
	for name, b := range r.breakers {
		states[name] = b.State()
	}
	return states
}

// ListAvailable returns the gateways whose credentials validate, in
// registration order.
func (r *Registry) ListAvailable() []Info {
	available := make([]Info, 0, len(r.order))
	for _, name := range r.order {
		g := r.gateways[name]
		if !g.ValidateCredentials() {
			continue
		}
		available = append(available, Info{
			Name:        g.Name(),
			DisplayName: g.DisplayName(),
			Currencies:  g.SupportedCurrencies(),
		})
	}
	return available
}
