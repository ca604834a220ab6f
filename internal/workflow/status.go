package workflow

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/wolfeidau/tracker/internal/apperr"
	"github.com/wolfeidau/tracker/internal/models"
)

// DefaultStatuses are the statuses of the workflow created with every organization.
var DefaultStatuses = []string{"TODO", "IN_PROGRESS", "DONE"}

var statusPattern = regexp.MustCompile(`^[A-Z0-9_-]+$`)

// ValidateStatuses checks the shape of a workflow's status list: non-empty,
// every entry matching the status pattern and no duplicates.
func ValidateStatuses(statuses []string) error {
	if len(statuses) == 0 {
		return apperr.New(apperr.KindValidationFailed, "workflow must define at least one status")
	}

	seen := make(map[string]struct{}, len(statuses))
	for _, status := range statuses {
		if !statusPattern.MatchString(status) {
			return apperr.New(apperr.KindValidationFailed,
				"invalid status %q: must match %s", status, statusPattern.String())
		}
		if _, dup := seen[status]; dup {
			return apperr.New(apperr.KindValidationFailed, "duplicate status %q", status)
		}
		seen[status] = struct{}{}
	}

	return nil
}

// ValidateStatus checks that candidate is a member of wf.
func ValidateStatus(wf *models.Workflow, candidate string) Outcome {
	if wf.HasStatus(candidate) {
		return Allowed()
	}
	o := rejected(apperr.KindValidationFailed,
		fmt.Sprintf("status %q is not valid for workflow %q", candidate, wf.Name))
	o.ValidStatuses = slices.Clone(wf.Statuses)
	return o
}

// ResolveInitialStatus returns the status a new ticket starts in. An empty
// candidate selects the first status of wf; anything else must be a member.
func ResolveInitialStatus(wf *models.Workflow, candidate string) (string, error) {
	if candidate == "" {
		return wf.Statuses[0], nil
	}
	if err := ValidateStatus(wf, candidate).Err(); err != nil {
		return "", err
	}
	return candidate, nil
}

// removedStatuses returns the statuses of current missing from next, in
// current's order.
func removedStatuses(current, next []string) []string {
	var removed []string
	for _, status := range current {
		if !slices.Contains(next, status) {
			removed = append(removed, status)
		}
	}
	return removed
}
