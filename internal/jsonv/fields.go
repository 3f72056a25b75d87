package jsonv

import (
	"fmt"
	"strings"
	"unicode"
)

// Quote renders s with single quotes, switching to double quotes only when s
// contains a single quote and no double quote.
func Quote(s string) string {
	quote := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		quote = '"'
	}

	var b strings.Builder
	b.WriteByte(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(quote):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

// QuoteList formats values as a bracketed list of Quote'd strings.
func QuoteList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, Quote(v))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// CheckKeyOrder fails when obj carries a key outside expected, or when its
// keys are not a subsequence of expected in the same order.
func CheckKeyOrder(obj *Value, expected []string, context string) error {
	allowed := make(map[string]bool, len(expected))
	for _, k := range expected {
		allowed[k] = true
	}

	observed := obj.Keys()
	var unexpected []string
	for _, k := range observed {
		if !allowed[k] {
			unexpected = append(unexpected, k)
		}
	}
	if len(unexpected) > 0 {
		return fmt.Errorf("%s contains unexpected field(s) %s; allowed fields are %s",
			context, QuoteList(unexpected), QuoteList(expected))
	}

	want := make([]string, 0, len(observed))
	for _, k := range expected {
		if obj.Has(k) {
			want = append(want, k)
		}
	}
	for i := range want {
		if want[i] != observed[i] {
			return fmt.Errorf("%s key order drift: expected=%s observed=%s",
				context, QuoteList(want), QuoteList(observed))
		}
	}
	return nil
}

// NonNegativeInt parses a required count.
func NonNegativeInt(v *Value, context string) (int, error) {
	n, ok := v.Int()
	if !ok || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", context)
	}
	return int(n), nil
}

// OptionalNonNegativeInt accepts an absent or null value.
func OptionalNonNegativeInt(v *Value, context string) error {
	if v.IsNull() {
		return nil
	}
	_, err := NonNegativeInt(v, context)
	return err
}

func PositiveInt(v *Value, context string) (int, error) {
	n, ok := v.Int()
	if !ok || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", context)
	}
	return int(n), nil
}

// CanonicalString requires a non-blank string without surrounding whitespace.
func CanonicalString(v *Value, context string) (string, error) {
	s, ok := v.Str()
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%s must be a non-empty string", context)
	}
	return CanonicalText(s, context)
}

// CanonicalText applies the canonical string rule to text that did not come
// straight from a JSON value.
func CanonicalText(s, context string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%s must be a non-empty string", context)
	}
	if s != strings.TrimSpace(s) {
		return "", fmt.Errorf("%s must not contain leading/trailing whitespace", context)
	}
	return s, nil
}

// OptionalCanonicalString accepts an absent or null value.
func OptionalCanonicalString(v *Value, context string) error {
	if v.IsNull() {
		return nil
	}
	_, err := CanonicalString(v, context)
	return err
}

// RelativePath validates a normalized relative POSIX path.
func RelativePath(v *Value, context string) (string, error) {
	s, ok := v.Str()
	if !ok || strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%s must be a non-empty string", context)
	}
	return RelativePathText(s, context)
}

func RelativePathText(s, context string) (string, error) {
	value, err := CanonicalText(s, context)
	if err != nil {
		return "", err
	}
	if strings.Contains(value, `\`) {
		return "", fmt.Errorf("%s must use '/' path separators", context)
	}
	if strings.HasPrefix(value, "/") || hasDrivePrefix(value) {
		return "", fmt.Errorf("%s must be a relative path", context)
	}
	for _, segment := range strings.Split(value, "/") {
		if segment == "" {
			return "", fmt.Errorf("%s must be normalized (no empty path segments or trailing slash)", context)
		}
	}
	for _, segment := range strings.Split(value, "/") {
		if segment == "." || segment == ".." {
			return "", fmt.Errorf("%s must be normalized ('.' and '..' segments are not allowed)", context)
		}
	}
	return value, nil
}

func hasDrivePrefix(s string) bool {
	r := []rune(s)
	return len(r) >= 3 && unicode.IsLetter(r[0]) && r[1] == ':' && r[2] == '/'
}

// CanonicalStringArray parses a non-empty array of unique canonical strings.
func CanonicalStringArray(v *Value, context string) ([]string, error) {
	if !v.IsArray() {
		return nil, fmt.Errorf("%s must be an array of non-empty strings", context)
	}
	if v.Len() == 0 {
		return nil, fmt.Errorf("%s must not be an empty array", context)
	}

	entries := make([]string, 0, v.Len())
	seen := make(map[string]bool, v.Len())
	for i, item := range v.Items() {
		s, err := CanonicalString(item, fmt.Sprintf("%s[%d]", context, i))
		if err != nil {
			return nil, err
		}
		if seen[s] {
			return nil, fmt.Errorf("%s contains duplicate entry %s", context, Quote(s))
		}
		seen[s] = true
		entries = append(entries, s)
	}
	return entries, nil
}
