package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/nourhamdy/ordermgmt/internal/domain/errors"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(
		NewCreditCard(CreditCardConfig{APIKey: "k", APISecret: "s"}, WithLatency(0)),
		NewPayPal(PayPalConfig{ClientID: "c", ClientSecret: "s"}, WithLatency(0)),
		NewStripe(StripeConfig{APIKey: "k"}, WithLatency(0)),
	)
	require.NoError(t, err)
	return r
}

func TestRegistryResolve(t *testing.T) {
	r := testRegistry(t)

	t.Run("known gateway", func(t *testing.T) {
		g, breaker, err := r.Resolve("paypal")
		require.NoError(t, err)
		assert.Equal(t, "paypal", g.Name())
		assert.NotNil(t, breaker)
	})

	t.Run("unknown gateway", func(t *testing.T) {
		_, _, err := r.Resolve("bitcoin")
		assert.ErrorIs(t, err, domainErrors.ErrUnsupportedGateway)
		assert.Contains(t, err.Error(), "bitcoin")
	})
}

func TestRegistryRegister(t *testing.T) {
	t.Run("rejects nil gateway", func(t *testing.T) {
		r, err := NewRegistry()
		require.NoError(t, err)
		assert.ErrorIs(t, r.Register(nil), domainErrors.ErrInvalidGateway)
	})

	t.Run("overwrite keeps registration order", func(t *testing.T) {
		r := testRegistry(t)

		// Re-register credit_card with fresh config; position must not change.
		require.NoError(t, r.Register(NewCreditCard(CreditCardConfig{APIKey: "k2", APISecret: "s2"})))

		names := make([]string, 0, 3)
		for _, info := range r.ListAvailable() {
			names = append(names, info.Name)
		}
		assert.Equal(t, []string{"credit_card", "paypal", "stripe"}, names)
	})
}

func TestRegistryListAvailable(t *testing.T) {
	t.Run("skips gateways with incomplete credentials", func(t *testing.T) {
		r, err := NewRegistry(
			NewCreditCard(CreditCardConfig{APIKey: "k", APISecret: "s"}),
			NewPayPal(PayPalConfig{}), // unconfigured
			NewStripe(StripeConfig{APIKey: "k"}),
		)
		require.NoError(t, err)

		names := make([]string, 0, 2)
		for _, info := range r.ListAvailable() {
			names = append(names, info.Name)
		}
		assert.Equal(t, []string{"credit_card", "stripe"}, names)
	})

	t.Run("includes display names and currencies", func(t *testing.T) {
		r := testRegistry(t)
		infos := r.ListAvailable()
		require.Len(t, infos, 3)
		assert.Equal(t, "Credit Card", infos[0].DisplayName)
		assert.Contains(t, infos[0].Currencies, "USD")
	})
}

func TestRegistryBreakerStates(t *testing.T) {
	r := testRegistry(t)
	states := r.BreakerStates()
	require.Len(t, states, 3)
	for name, state := range states {
		assert.Contains(t, []string{"credit_card", "paypal", "stripe"}, name)
		assert.Equal(t, "closed", state.String())
	}
}
