// Package trigger evaluates the four fixed activation triggers.
package trigger

import (
	"strings"

	"github.com/doublemover/activationgate/internal/jsonv"
	"github.com/doublemover/activationgate/internal/model"
)

// Order is the fixed trigger sequence. It is never reordered.
var Order = []model.TriggerID{
	model.TriggerIssues,
	model.TriggerMilestones,
	model.TriggerActionableRows,
	model.TriggerOpenBlockers,
}

var conditions = map[model.TriggerID]string{
	model.TriggerIssues:         "open issues > 0",
	model.TriggerMilestones:     "open milestones > 0",
	model.TriggerActionableRows: "actionable catalog rows > 0",
	model.TriggerOpenBlockers:   "open blockers > 0",
}

// DefaultActionableStatuses is the usual defaults argument of
// NormalizeActionableStatuses.
var DefaultActionableStatuses = []string{"open", "open-blocked", "blocked"}

// Counts are the validated inputs of the trigger evaluation.
type Counts struct {
	OpenIssues     int
	OpenMilestones int
	ActionableRows int
	OpenBlockers   int
}

func (c Counts) byID() map[model.TriggerID]int {
	return map[model.TriggerID]int{
		model.TriggerIssues:         c.OpenIssues,
		model.TriggerMilestones:     c.OpenMilestones,
		model.TriggerActionableRows: c.ActionableRows,
		model.TriggerOpenBlockers:   c.OpenBlockers,
	}
}

// Evaluate builds the trigger results in Order and verifies the ordering
// before returning. An ordering failure is an internal error.
func Evaluate(c Counts) ([]model.TriggerResult, error) {
	counts := c.byID()
	results := make([]model.TriggerResult, 0, len(Order))
	for _, id := range Order {
		results = append(results, model.TriggerResult{
			ID:        id,
			Condition: conditions[id],
			Count:     counts[id],
			Fired:     counts[id] > 0,
		})
	}
	if err := ValidateOrder(results); err != nil {
		return nil, err
	}
	return results, nil
}

// ValidateOrder fails unless results follow Order exactly.
func ValidateOrder(results []model.TriggerResult) error {
	observed := make([]string, 0, len(results))
	for _, r := range results {
		observed = append(observed, string(r.ID))
	}
	expected := make([]string, 0, len(Order))
	for _, id := range Order {
		expected = append(expected, string(id))
	}

	drift := len(observed) != len(expected)
	for i := 0; !drift && i < len(expected); i++ {
		drift = observed[i] != expected[i]
	}
	if drift {
		return model.InternalErrorf("internal trigger order drift: expected=%s observed=%s",
			jsonv.QuoteList(expected), jsonv.QuoteList(observed))
	}
	return nil
}

// NormalizeActionableStatuses trims and lower-cases raw, drops repeats and
// keeps first-seen order. An empty raw selects a copy of defaults, which is
// normalized the same way.
func NormalizeActionableStatuses(raw, defaults []string) ([]string, error) {
	if len(raw) == 0 {
		raw = defaults
	}
	if len(raw) == 0 {
		return nil, model.InputErrorf("actionable status filters must be non-empty")
	}

	seen := make(map[string]bool, len(raw))
	statuses := make([]string, 0, len(raw))
	for _, r := range raw {
		status := strings.ToLower(strings.TrimSpace(r))
		if status == "" {
			return nil, model.InputErrorf("actionable status filters must be non-empty")
		}
		if seen[status] {
			continue
		}
		seen[status] = true
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// StatusSet converts normalized statuses into a lookup set.
func StatusSet(statuses []string) map[string]bool {
	set := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}
