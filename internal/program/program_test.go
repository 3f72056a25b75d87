package program

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "spec/planning/evidence/lane_b/", table.EvidencePrefix)
	assert.Equal(t, []string{"&&", "||", ";", "|", "<", ">"}, table.ForbiddenTokens)
	assert.Equal(t, []string{"\n", "\r", "\t"}, table.ControlCharacters)
	require.Len(t, table.Programs, 2)

	dispatch := table.Programs[0]
	assert.Equal(t, "dispatch-evidence", dispatch.Name)
	w5, ok := dispatch.Week(5)
	require.True(t, ok)
	assert.Equal(t, []string{"#1071", "#1072"}, w5.Dependencies)
	assert.Equal(t, "W5", w5.Label())
	_, ok = dispatch.Week(4)
	assert.False(t, ok)

	release := table.Programs[1]
	for week := 1; week <= 5; week++ {
		w, ok := release.Week(week)
		require.True(t, ok, "week %d", week)
		assert.Contains(t, w.EvidenceArtifact, "foundation_w")
		assert.Len(t, w.ValidationCommands, 3)
	}
	w3, _ := release.Week(3)
	assert.Equal(t, []string{"#1101", "#1102"}, w3.Dependencies)
	assert.Equal(t, "python scripts/check_release_and_scale_foundation_w3_contract.py", w3.ValidationCommands[1])
}

func TestProgram_Match(t *testing.T) {
	table, err := Default()
	require.NoError(t, err)
	dispatch := &table.Programs[0]

	tests := []struct {
		name      string
		lane      string
		milestone string
		week      int
		ok        bool
	}{
		{"in scope", "B", "v0.15 Dispatch Evidence Reliability W5", 5, true},
		{"other week", "B", "v0.15 Dispatch Evidence Reliability W12", 12, true},
		{"other lane", "A", "v0.15 Dispatch Evidence Reliability W5", 0, false},
		{"week zero", "B", "v0.15 Dispatch Evidence Reliability W0", 0, false},
		{"leading zero", "B", "v0.15 Dispatch Evidence Reliability W05", 0, false},
		{"suffix", "B", "v0.15 Dispatch Evidence Reliability W5 extra", 0, false},
		{"unrelated", "B", "v0.16 Release and Scale Foundation W1", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			week, ok := dispatch.Match(tt.lane, tt.milestone)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.week, week)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"unknown key", "evidence_prefix: a/\nbogus: 1\n", "field bogus not found"},
		{"prefix", "evidence_prefix: a\n", "evidence_prefix must be a directory path"},
		{
			"no capture group",
			"evidence_prefix: a/\nprograms:\n  - name: p\n    lane: B\n    milestone_pattern: '^x$'\n",
			"exactly one capture group",
		},
		{
			"bad regexp",
			"evidence_prefix: a/\nprograms:\n  - name: p\n    lane: B\n    milestone_pattern: '('\n",
			"invalid milestone_pattern",
		},
		{
			"artifact outside prefix",
			"evidence_prefix: a/\nprograms:\n  - name: p\n    lane: B\n    milestone_pattern: 'W(\\d+)'\n    weeks:\n      - week: 1\n        evidence_artifact: b/x.md\n",
			"evidence_artifact must live under a/",
		},
		{
			"duplicate week",
			"evidence_prefix: a/\nprograms:\n  - name: p\n    lane: B\n    milestone_pattern: 'W(\\d+)'\n    weeks:\n      - week: 1\n        evidence_artifact: a/x.md\n      - week: 1\n        evidence_artifact: a/y.md\n",
			"duplicate week 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "programs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("evidence_prefix: evidence/\nprograms: []\n"), 0o644))

	table, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "evidence/", table.EvidencePrefix)
	assert.Empty(t, table.Programs)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
