package jsonv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_PreservesKeyOrder(t *testing.T) {
	v, err := Parse([]byte(`{"z": 1, "a": [true, null, "x"], "m": {"b": 2, "a": 1}}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a", "m"}, v.Keys())
	assert.Equal(t, []string{"b", "a"}, v.Field("m").Keys())

	items := v.Field("a").Items()
	require.Len(t, items, 3)
	b, ok := items[0].Bool()
	assert.True(t, ok)
	assert.True(t, b)
	assert.True(t, items[1].IsNull())
	s, ok := items[2].Str()
	assert.True(t, ok)
	assert.Equal(t, "x", s)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		wantErr string
	}{
		{"truncated", []byte(`{"a": `), "unexpected end of JSON input: line 1 column 7 (char 6)"},
		{"trailing comma", []byte(`[1, 2,]`), "invalid character ']' looking for beginning of value: line 1 column 7 (char 6)"},
		{"second line", []byte("{\"a\":\n}"), "invalid character '}' looking for beginning of value: line 2 column 1 (char 6)"},
		{"multibyte prefix", []byte("[\"é\",\n x]"), "invalid character 'x' looking for beginning of value: line 2 column 2 (char 7)"},
		{"invalid utf8", []byte{'"', 0xff, '"'}, ErrInvalidUTF8.Error()},
		{"duplicate key", []byte(`{"a": {"b": 1, "b": 2}}`), `duplicate object key "b" at $.a`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_SyntaxErrorPosition(t *testing.T) {
	_, err := Parse([]byte("{\n  \"a\": 1,\n  \"b\": tru\n}"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidJSON)

	var se *SyntaxError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 3, se.Line)
	assert.Equal(t, 11, se.Column)
	assert.Equal(t, 22, se.Char)
}

func TestValue_Int(t *testing.T) {
	tests := []struct {
		input string
		want  int64
		ok    bool
	}{
		{`0`, 0, true},
		{`42`, 42, true},
		{`-3`, -3, true},
		{`1.0`, 0, false},
		{`1e3`, 0, false},
		{`true`, 0, false},
		{`"7"`, 0, false},
		{`99999999999999999999`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse([]byte(tt.input))
			require.NoError(t, err)
			got, ok := v.Int()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValue_NilIsNull(t *testing.T) {
	var v *Value
	assert.True(t, v.IsNull())
	assert.Nil(t, v.Keys())
	assert.Equal(t, 0, v.Len())
	assert.False(t, v.Has("a"))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(good, []byte(`[]`), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(`[`), 0o644))

	v, err := Load(good, "open issues snapshot", "good.json")
	require.NoError(t, err)
	assert.True(t, v.IsArray())

	_, err = Load(filepath.Join(dir, "missing.json"), "open issues snapshot", "missing.json")
	require.Error(t, err)
	assert.Equal(t, "open issues snapshot JSON file does not exist: missing.json", err.Error())

	_, err = Load(bad, "remaining-task catalog", "bad.json")
	require.Error(t, err)
	assert.Equal(t, "invalid JSON in remaining-task catalog file bad.json: "+
		"unexpected end of JSON input: line 1 column 2 (char 1)", err.Error())

	_, err = Load(dir, "open issues snapshot", "dir")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unable to read open issues snapshot JSON dir")
}
