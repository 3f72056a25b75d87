package overlay

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doublemover/activationgate/internal/jsonv"
	"github.com/doublemover/activationgate/internal/model"
)

func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overlay.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestResolve_Precedence(t *testing.T) {
	state, err := Resolve(true, "", "")
	require.NoError(t, err)
	assert.Equal(t, model.OverlayState{NewScopePublish: true, Source: model.OverlaySourceCLI}, state)

	state, err = Resolve(false, "", "")
	require.NoError(t, err)
	assert.Equal(t, model.OverlayState{NewScopePublish: false, Source: model.OverlaySourceDefault}, state)

	path := writeOverlay(t, `{"t4_new_scope_publish": true}`)
	state, err = Resolve(false, path, "overlay.json")
	require.NoError(t, err)
	assert.Equal(t, model.OverlayState{NewScopePublish: true, Source: model.OverlaySourceFile, Path: path}, state)
}

func TestResolve_MissingFile(t *testing.T) {
	_, err := Resolve(false, filepath.Join(t.TempDir(), "nope.json"), "nope.json")
	require.Error(t, err)
	assert.Equal(t, "T4 governance overlay JSON file does not exist: nope.json", err.Error())
	assert.Equal(t, model.KindInput, model.KindOf(err))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    bool
		wantErr string
	}{
		{"bare true", `true`, true, ""},
		{"bare false", `false`, false, ""},
		{"lower key", `{"t4_new_scope_publish": false}`, false, ""},
		{"upper key", `{"T4_NEW_SCOPE_PUBLISH": true}`, true, ""},
		{"both agree", `{"t4_new_scope_publish": true, "T4_NEW_SCOPE_PUBLISH": true}`, true, ""},
		{
			"both disagree",
			`{"t4_new_scope_publish": true, "T4_NEW_SCOPE_PUBLISH": false}`,
			false,
			"T4 governance overlay fields 't4_new_scope_publish' and 'T4_NEW_SCOPE_PUBLISH' must match when both are provided",
		},
		{
			"wrong order",
			`{"T4_NEW_SCOPE_PUBLISH": true, "t4_new_scope_publish": true}`,
			false,
			"T4 governance overlay JSON object key order drift",
		},
		{
			"unexpected key",
			`{"t4_new_scope_publish": true, "note": "x"}`,
			false,
			"T4 governance overlay JSON object contains unexpected field(s) ['note']",
		},
		{
			"empty object",
			`{}`,
			false,
			"T4 governance overlay JSON object must include 't4_new_scope_publish' (or 'T4_NEW_SCOPE_PUBLISH')",
		},
		{"string value", `{"t4_new_scope_publish": "true"}`, false, "T4 governance overlay field 't4_new_scope_publish' must be a boolean"},
		{
			"legacy not bool",
			`{"t4_new_scope_publish": true, "T4_NEW_SCOPE_PUBLISH": 1}`,
			false,
			"T4 governance overlay field 'T4_NEW_SCOPE_PUBLISH' must be a boolean",
		},
		{
			"array root",
			`[true]`,
			false,
			"T4 governance overlay JSON must be either a boolean or an object containing a boolean 't4_new_scope_publish' field",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := jsonv.Parse([]byte(tt.input))
			require.NoError(t, err)

			got, err := Parse(payload)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, model.KindSchema, model.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
