package complaints

import (
	"fmt"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

// ResolutionTarget returns the status an item takes when its complaint is
// resolved with decision. Accepted complaints refund the item; rejected ones
// put it back to delivered.
func ResolutionTarget(decision domain.ComplaintStatus) (domain.StatusID, error) {
	switch decision {
	case domain.ComplaintAccepted:
		return domain.StatusRefunded, nil
	case domain.ComplaintRejected:
		return domain.StatusDelivered, nil
	}
	return 0, invalid("status must be accepted or rejected")
}

// CanFileComplaint reports whether an item in the given state may receive a
// new complaint. Only delivered items without an earlier complaint qualify.
func CanFileComplaint(status domain.StatusID, complaint domain.ComplaintStatus) error {
	if status != domain.StatusDelivered {
		return fmt.Errorf("%w: item status %d", ErrNotEligible, status)
	}
	if complaint != domain.ComplaintNone {
		return fmt.Errorf("%w: complaint already %s", ErrNotEligible, complaint)
	}
	return nil
}
