// Package jsonv decodes JSON documents into an ordered, immutable value tree.
//
// Snapshot schemas are order-sensitive: an object is only valid when its keys
// appear in a fixed sequence. encoding/json maps lose that order, so every
// object here keeps its members in document order.
package jsonv

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tidwall/gjson"
)

type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

var (
	ErrInvalidUTF8 = errors.New("document is not valid UTF-8")
	ErrInvalidJSON = errors.New("document is not valid JSON")
)

// SyntaxError locates the first syntax problem of an invalid document.
// Line and Column are 1-based; Char is the 0-based character offset.
type SyntaxError struct {
	Msg    string
	Line   int
	Column int
	Char   int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: line %d column %d (char %d)", e.Msg, e.Line, e.Column, e.Char)
}

func (e *SyntaxError) Is(target error) bool {
	return target == ErrInvalidJSON
}

var integerLiteral = regexp.MustCompile(`^-?(0|[1-9][0-9]*)$`)

// Member is one key/value pair of an object.
type Member struct {
	Key   string
	Value *Value
}

// Value is a decoded JSON value. The zero value is JSON null.
type Value struct {
	kind    Kind
	boolean bool
	text    string // string contents, or the raw literal of a number
	items   []*Value
	members []Member
}

// Parse decodes data. Duplicate object keys are rejected.
func Parse(data []byte) (*Value, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}
	if !gjson.ValidBytes(data) {
		return nil, locateSyntaxError(data)
	}
	return convert(gjson.ParseBytes(data), "$")
}

// locateSyntaxError asks encoding/json where data first goes wrong. data is
// valid UTF-8.
func locateSyntaxError(data []byte) error {
	var raw json.RawMessage
	var se *json.SyntaxError
	if err := json.Unmarshal(data, &raw); !errors.As(err, &se) {
		return ErrInvalidJSON
	}

	// Offset counts the bytes read, including the offending one; at end of
	// input it points just past the last byte.
	pos := int(se.Offset)
	if !strings.HasPrefix(se.Error(), "unexpected end") && pos > 0 {
		pos--
	}
	pos = min(max(pos, 0), len(data))

	before := data[:pos]
	lineStart := bytes.LastIndexByte(before, '\n') + 1
	return &SyntaxError{
		Msg:    se.Error(),
		Line:   bytes.Count(before, []byte{'\n'}) + 1,
		Column: utf8.RuneCount(before[lineStart:]) + 1,
		Char:   utf8.RuneCount(before),
	}
}

func convert(r gjson.Result, path string) (*Value, error) {
	switch r.Type {
	case gjson.Null:
		return &Value{kind: Null}, nil
	case gjson.False:
		return &Value{kind: Bool}, nil
	case gjson.True:
		return &Value{kind: Bool, boolean: true}, nil
	case gjson.Number:
		return &Value{kind: Number, text: r.Raw}, nil
	case gjson.String:
		return &Value{kind: String, text: r.Str}, nil
	}

	var convErr error
	if r.IsArray() {
		v := &Value{kind: Array}
		index := 0
		r.ForEach(func(_, item gjson.Result) bool {
			child, err := convert(item, fmt.Sprintf("%s[%d]", path, index))
			if err != nil {
				convErr = err
				return false
			}
			v.items = append(v.items, child)
			index++
			return true
		})
		if convErr != nil {
			return nil, convErr
		}
		return v, nil
	}

	v := &Value{kind: Object}
	seen := make(map[string]bool)
	r.ForEach(func(key, item gjson.Result) bool {
		if seen[key.Str] {
			convErr = fmt.Errorf("duplicate object key %q at %s", key.Str, path)
			return false
		}
		seen[key.Str] = true
		child, err := convert(item, path+"."+key.Str)
		if err != nil {
			convErr = err
			return false
		}
		v.members = append(v.members, Member{Key: key.Str, Value: child})
		return true
	})
	if convErr != nil {
		return nil, convErr
	}
	return v, nil
}

// Kind reports the value kind; a nil *Value is treated as null.
func (v *Value) Kind() Kind {
	if v == nil {
		return Null
	}
	return v.kind
}

func (v *Value) IsNull() bool   { return v.Kind() == Null }
func (v *Value) IsObject() bool { return v.Kind() == Object }
func (v *Value) IsArray() bool  { return v.Kind() == Array }

// Keys returns object keys in document order.
func (v *Value) Keys() []string {
	if !v.IsObject() {
		return nil
	}
	keys := make([]string, 0, len(v.members))
	for _, m := range v.members {
		keys = append(keys, m.Key)
	}
	return keys
}

// Get looks up an object member.
func (v *Value) Get(key string) (*Value, bool) {
	if !v.IsObject() {
		return nil, false
	}
	for _, m := range v.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

func (v *Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Field returns the member value, or nil when absent.
func (v *Value) Field(key string) *Value {
	f, _ := v.Get(key)
	return f
}

// Items returns array elements.
func (v *Value) Items() []*Value {
	if !v.IsArray() {
		return nil
	}
	return v.items
}

func (v *Value) Len() int {
	switch v.Kind() {
	case Array:
		return len(v.items)
	case Object:
		return len(v.members)
	}
	return 0
}

func (v *Value) Str() (string, bool) {
	if v.Kind() != String {
		return "", false
	}
	return v.text, true
}

func (v *Value) Bool() (bool, bool) {
	if v.Kind() != Bool {
		return false, false
	}
	return v.boolean, true
}

// Int returns the value of an integer literal. Fractions, exponents and
// values outside int64 are not integers.
func (v *Value) Int() (int64, bool) {
	if v.Kind() != Number || !integerLiteral.MatchString(v.text) {
		return 0, false
	}
	n, err := strconv.ParseInt(v.text, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
