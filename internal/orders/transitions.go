package orders

import (
	"fmt"
	"slices"

	"github.com/joao-fontenele/storefront-orders/internal/domain"
)

var transitions = map[string][]string{
	domain.StatusNameOrdered:        {domain.StatusNameShipped, domain.StatusNameCancelled},
	domain.StatusNameShipped:        {domain.StatusNameOutForDelivery, domain.StatusNameReturned},
	domain.StatusNameOutForDelivery: {domain.StatusNameDelivered},
	domain.StatusNameDelivered:      {domain.StatusNameRefunded},
	domain.StatusNameCancelled:      {},
	domain.StatusNameReturned:       {},
	domain.StatusNameRefunded:       {},
}

// Statuses only the complaint workflow may assign.
var complaintOnly = map[string]bool{
	domain.StatusNameRefunded:      true,
	domain.StatusNameComplaintOpen: true,
}

// AllowedTransitions returns the statuses reachable from current. Unknown
// statuses have no outgoing transitions.
func AllowedTransitions(current string) []string {
	return slices.Clone(transitions[domain.NormalizeStatusName(current)])
}

func IsTransitionAllowed(current, target string) bool {
	return slices.Contains(transitions[domain.NormalizeStatusName(current)], domain.NormalizeStatusName(target))
}

// CommonStatus returns the status shared by every name, or ErrMixedStatuses.
func CommonStatus(names []string) (string, error) {
	if len(names) == 0 {
		return "", ErrNotFound
	}
	first := domain.NormalizeStatusName(names[0])
	for _, n := range names[1:] {
		if domain.NormalizeStatusName(n) != first {
			return "", ErrMixedStatuses
		}
	}
	return first, nil
}

// AuthorizeBatch decides whether items currently in the given statuses may all
// move to target.
func AuthorizeBatch(current []string, target string) error {
	from, err := CommonStatus(current)
	if err != nil {
		return err
	}
	to := domain.NormalizeStatusName(target)
	if complaintOnly[to] {
		return fmt.Errorf("%w: %s", ErrComplaintOnly, to)
	}
	if !IsTransitionAllowed(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
