package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doublemover/activationgate/internal/model"
)

func TestEvaluate(t *testing.T) {
	results, err := Evaluate(Counts{OpenIssues: 2, OpenMilestones: 1, ActionableRows: 0, OpenBlockers: 3})
	require.NoError(t, err)

	assert.Equal(t, []model.TriggerResult{
		{ID: model.TriggerIssues, Condition: "open issues > 0", Count: 2, Fired: true},
		{ID: model.TriggerMilestones, Condition: "open milestones > 0", Count: 1, Fired: true},
		{ID: model.TriggerActionableRows, Condition: "actionable catalog rows > 0", Count: 0, Fired: false},
		{ID: model.TriggerOpenBlockers, Condition: "open blockers > 0", Count: 3, Fired: true},
	}, results)
}

func TestEvaluate_AllZero(t *testing.T) {
	results, err := Evaluate(Counts{})
	require.NoError(t, err)
	require.Len(t, results, 4)
	for _, r := range results {
		assert.False(t, r.Fired, r.ID)
	}
}

func TestValidateOrder(t *testing.T) {
	swapped := []model.TriggerResult{
		{ID: model.TriggerMilestones},
		{ID: model.TriggerIssues},
		{ID: model.TriggerActionableRows},
		{ID: model.TriggerOpenBlockers},
	}
	err := ValidateOrder(swapped)
	require.Error(t, err)
	assert.Equal(t, model.KindInternal, model.KindOf(err))
	assert.Equal(t,
		"internal trigger order drift: expected=['T1-ISSUES', 'T2-MILESTONES', 'T3-ACTIONABLE-ROWS', 'T5-OPEN-BLOCKERS'] "+
			"observed=['T2-MILESTONES', 'T1-ISSUES', 'T3-ACTIONABLE-ROWS', 'T5-OPEN-BLOCKERS']",
		err.Error())

	assert.Error(t, ValidateOrder(swapped[:3]))
}

func TestNormalizeActionableStatuses(t *testing.T) {
	tests := []struct {
		name    string
		raw     []string
		want    []string
		wantErr string
	}{
		{"defaults", nil, []string{"open", "open-blocked", "blocked"}, ""},
		{"normalised and deduplicated", []string{" Open", "BLOCKED", "open"}, []string{"open", "blocked"}, ""},
		{"blank", []string{"open", "  "}, nil, "actionable status filters must be non-empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeActionableStatuses(tt.raw, DefaultActionableStatuses)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeActionableStatuses_DefaultsNotShared(t *testing.T) {
	got, err := NormalizeActionableStatuses(nil, DefaultActionableStatuses)
	require.NoError(t, err)
	got[0] = "mutated"
	assert.Equal(t, "open", DefaultActionableStatuses[0])
}

func TestNormalizeActionableStatuses_CustomDefaults(t *testing.T) {
	got, err := NormalizeActionableStatuses(nil, []string{"Ready", "ready", "review"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ready", "review"}, got)

	_, err = NormalizeActionableStatuses(nil, nil)
	assert.EqualError(t, err, "actionable status filters must be non-empty")
}
