package jsonv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, input string) *Value {
	t.Helper()
	v, err := Parse([]byte(input))
	require.NoError(t, err)
	return v
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `'open'`, Quote("open"))
	assert.Equal(t, `"it's"`, Quote("it's"))
	assert.Equal(t, `'a\'b"c'`, Quote(`a'b"c`))
	assert.Equal(t, `'a\nb'`, Quote("a\nb"))
	assert.Equal(t, `['a', 'b']`, QuoteList([]string{"a", "b"}))
	assert.Equal(t, `[]`, QuoteList(nil))
}

func TestCheckKeyOrder(t *testing.T) {
	expected := []string{"generated_at_utc", "source", "count", "open"}

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"full order", `{"generated_at_utc": "x", "source": "y", "count": 0, "open": []}`, ""},
		{"subset in order", `{"count": 0, "open": []}`, ""},
		{"empty", `{}`, ""},
		{
			"unexpected",
			`{"count": 0, "extra": 1}`,
			`payload contains unexpected field(s) ['extra']; allowed fields are ['generated_at_utc', 'source', 'count', 'open']`,
		},
		{
			"drift",
			`{"open": [], "count": 0}`,
			`payload key order drift: expected=['count', 'open'] observed=['open', 'count']`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckKeyOrder(mustParse(t, tt.input), expected, "payload")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestCounts(t *testing.T) {
	n, err := NonNegativeInt(mustParse(t, `0`), "count")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = NonNegativeInt(mustParse(t, `-1`), "count")
	assert.EqualError(t, err, "count must be a non-negative integer")
	_, err = NonNegativeInt(mustParse(t, `true`), "count")
	assert.EqualError(t, err, "count must be a non-negative integer")

	_, err = PositiveInt(mustParse(t, `0`), "number")
	assert.EqualError(t, err, "number must be a positive integer")

	assert.NoError(t, OptionalNonNegativeInt(nil, "open_issues"))
	assert.NoError(t, OptionalNonNegativeInt(mustParse(t, `null`), "open_issues"))
	assert.Error(t, OptionalNonNegativeInt(mustParse(t, `1.5`), "open_issues"))
}

func TestCanonicalString(t *testing.T) {
	tests := []struct {
		input   string
		wantErr string
	}{
		{`"ok"`, ""},
		{`""`, "title must be a non-empty string"},
		{`"   "`, "title must be a non-empty string"},
		{`3`, "title must be a non-empty string"},
		{`" padded"`, "title must not contain leading/trailing whitespace"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := CanonicalString(mustParse(t, tt.input), "title")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
	assert.NoError(t, OptionalCanonicalString(nil, "title"))
}

func TestRelativePathText(t *testing.T) {
	tests := []struct {
		input   string
		wantErr string
	}{
		{"docs/a.md", ""},
		{`docs\a.md`, "p must use '/' path separators"},
		{"/etc/passwd", "p must be a relative path"},
		{"C:/x.md", "p must be a relative path"},
		{"docs//a.md", "p must be normalized (no empty path segments or trailing slash)"},
		{"docs/", "p must be normalized (no empty path segments or trailing slash)"},
		{"docs/../a.md", "p must be normalized ('.' and '..' segments are not allowed)"},
		{"./a.md", "p must be normalized ('.' and '..' segments are not allowed)"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := RelativePathText(tt.input, "p")
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestCanonicalStringArray(t *testing.T) {
	got, err := CanonicalStringArray(mustParse(t, `["b", "a"]`), "labels")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, got)

	_, err = CanonicalStringArray(mustParse(t, `"a"`), "labels")
	assert.EqualError(t, err, "labels must be an array of non-empty strings")
	_, err = CanonicalStringArray(mustParse(t, `[]`), "labels")
	assert.EqualError(t, err, "labels must not be an empty array")
	_, err = CanonicalStringArray(mustParse(t, `["a", " b"]`), "labels")
	assert.EqualError(t, err, "labels[1] must not contain leading/trailing whitespace")
	_, err = CanonicalStringArray(mustParse(t, `["a", "a"]`), "labels")
	assert.EqualError(t, err, "labels contains duplicate entry 'a'")
}
