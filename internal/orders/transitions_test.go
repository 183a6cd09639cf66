package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

var allStatusNames = []string{
	domain.StatusNameOrdered,
	domain.StatusNameShipped,
	domain.StatusNameOutForDelivery,
	domain.StatusNameDelivered,
	domain.StatusNameCancelled,
	domain.StatusNameComplaintOpen,
	domain.StatusNameRefunded,
	domain.StatusNameReturned,
}

func TestIsTransitionAllowed_MatchesTable(t *testing.T) {
	allowed := map[[2]string]bool{
		{"ordered", "shipped"}:            true,
		{"ordered", "cancelled"}:          true,
		{"shipped", "out for delivery"}:   true,
		{"shipped", "returned"}:           true,
		{"out for delivery", "delivered"}: true,
		{"delivered", "refunded"}:         true,
	}

	for _, from := range allStatusNames {
		for _, to := range allStatusNames {
			want := allowed[[2]string{from, to}]
			assert.Equalf(t, want, IsTransitionAllowed(from, to), "%s -> %s", from, to)
		}
	}
}

func TestIsTransitionAllowed_CaseInsensitive(t *testing.T) {
	assert.True(t, IsTransitionAllowed("Out for Delivery", "Delivered"))
	assert.True(t, IsTransitionAllowed("  SHIPPED ", "returned"))
	assert.False(t, IsTransitionAllowed("Delivered", "Ordered"))
}

func TestIsTransitionAllowed_UnknownStatus(t *testing.T) {
	assert.False(t, IsTransitionAllowed("processing", "shipped"))
	assert.False(t, IsTransitionAllowed("ordered", "processing"))
	assert.Empty(t, AllowedTransitions("processing"))
}

func TestAllowedTransitions(t *testing.T) {
	assert.Equal(t, []string{"shipped", "cancelled"}, AllowedTransitions("Ordered"))
	assert.Empty(t, AllowedTransitions("refunded"))
	assert.Empty(t, AllowedTransitions("cancelled"))
	assert.Empty(t, AllowedTransitions("returned"))

	got := AllowedTransitions("ordered")
	got[0] = "mutated"
	assert.Equal(t, "shipped", AllowedTransitions("ordered")[0])
}

func TestCommonStatus(t *testing.T) {
	got, err := CommonStatus([]string{"Shipped", "shipped"})
	require.NoError(t, err)
	assert.Equal(t, "shipped", got)

	_, err = CommonStatus([]string{"shipped", "delivered"})
	assert.ErrorIs(t, err, ErrMixedStatuses)

	_, err = CommonStatus(nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthorizeBatch(t *testing.T) {
	tests := []struct {
		name    string
		current []string
		target  string
		wantErr error
	}{
		{name: "ordered to shipped", current: []string{"ordered", "ordered"}, target: "shipped"},
		{name: "delivered to delivered", current: []string{"delivered"}, target: "delivered", wantErr: ErrInvalidTransition},
		{name: "backwards", current: []string{"shipped"}, target: "ordered", wantErr: ErrInvalidTransition},
		{name: "mixed", current: []string{"ordered", "shipped"}, target: "cancelled", wantErr: ErrMixedStatuses},
		{name: "refund is complaint only", current: []string{"delivered"}, target: "refunded", wantErr: ErrComplaintOnly},
		{name: "complaint open is complaint only", current: []string{"delivered"}, target: "complaint open", wantErr: ErrComplaintOnly},
		{name: "terminal", current: []string{"cancelled"}, target: "shipped", wantErr: ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AuthorizeBatch(tt.current, tt.target)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
