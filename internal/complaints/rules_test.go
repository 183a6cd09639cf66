package complaints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

func TestResolutionTarget(t *testing.T) {
	got, err := ResolutionTarget(domain.ComplaintAccepted)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, got)

	got, err = ResolutionTarget(domain.ComplaintRejected)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, got)

	for _, d := range []domain.ComplaintStatus{domain.ComplaintPending, domain.ComplaintNone, "escalated"} {
		_, err := ResolutionTarget(d)
		var verr *ValidationError
		assert.ErrorAsf(t, err, &verr, "decision %q", d)
	}
}

func TestCanFileComplaint(t *testing.T) {
	assert.NoError(t, CanFileComplaint(domain.StatusDelivered, domain.ComplaintNone))

	assert.ErrorIs(t, CanFileComplaint(domain.StatusShipped, domain.ComplaintNone), ErrNotEligible)
	assert.ErrorIs(t, CanFileComplaint(domain.StatusComplaintOpen, domain.ComplaintPending), ErrNotEligible)
	assert.ErrorIs(t, CanFileComplaint(domain.StatusDelivered, domain.ComplaintRejected), ErrNotEligible)
	assert.ErrorIs(t, CanFileComplaint(domain.StatusRefunded, domain.ComplaintAccepted), ErrNotEligible)
}
