// Package freshness gates snapshots on the age of their generated_at_utc
// provenance. A stale or unreadable timestamp aborts the run; it never
// becomes a soft "not fresh" result.
package freshness

import (
	"strings"
	"time"

	"github.com/doublemover/activationgate/internal/jsonv"
	"github.com/doublemover/activationgate/internal/model"
	"github.com/doublemover/activationgate/internal/snapshot"
)

// Check describes one requested (or not requested) freshness gate.
type Check struct {
	Label   snapshot.Label
	Display string
	// Flag is the CLI flag that requested the check, quoted in remediation hints.
	Flag   string
	MaxAge *int64
}

// Evaluate applies c to payload. now must be the single instant captured for
// the whole evaluation, already truncated to whole seconds.
func Evaluate(payload *jsonv.Value, c Check, now time.Time) (model.FreshnessState, error) {
	if c.MaxAge == nil {
		return model.FreshnessState{}, nil
	}

	if !payload.IsObject() {
		return model.FreshnessState{}, model.FreshnessErrorf(
			"%s snapshot freshness check requires an object payload with 'generated_at_utc'. "+
				"Found %s in %s. Provide an object snapshot or omit %s.",
			c.Label, shapeName(payload), c.Display, c.Flag)
	}
	if !payload.Has("generated_at_utc") {
		return model.FreshnessState{}, model.FreshnessErrorf(
			"%s snapshot freshness check requested via %s, but %s is missing object field 'generated_at_utc'. "+
				"Add the field or omit %s.",
			c.Label, c.Flag, c.Display, c.Flag)
	}
	source, ok := payload.Field("source").Str()
	if !ok || strings.TrimSpace(source) == "" {
		return model.FreshnessState{}, model.FreshnessErrorf(
			"%s snapshot freshness check requested via %s, but %s is missing non-empty string field 'source'. "+
				"Add provenance field 'source' or omit %s.",
			c.Label, c.Flag, c.Display, c.Flag)
	}

	generated, err := snapshot.ParseGeneratedAt(payload.Field("generated_at_utc"), string(c.Label))
	if err != nil {
		return model.FreshnessState{}, model.FreshnessErrorf(
			"%s snapshot freshness check requested via %s failed for %s: %v. Fix 'generated_at_utc' or omit %s.",
			c.Label, c.Flag, c.Display, err, c.Flag)
	}

	age := AgeSeconds(now, generated)
	generatedText := snapshot.FormatUTC(generated)
	if age > *c.MaxAge {
		return model.FreshnessState{}, model.FreshnessErrorf(
			"%s snapshot freshness check failed for %s: age_seconds=%d exceeds max_age_seconds=%d "+
				"(generated_at_utc=%s, now_utc=%s). Refresh the snapshot or increase %s.",
			c.Label, c.Display, age, *c.MaxAge, generatedText, snapshot.FormatUTC(now), c.Flag)
	}

	maxAge := *c.MaxAge
	fresh := true
	return model.FreshnessState{
		Requested:      true,
		MaxAgeSeconds:  &maxAge,
		GeneratedAtUTC: &generatedText,
		AgeSeconds:     &age,
		Fresh:          &fresh,
	}, nil
}

// AgeSeconds returns now-generated in whole seconds, truncated toward zero.
// Future timestamps yield a negative age.
func AgeSeconds(now, generated time.Time) int64 {
	secs := now.Unix() - generated.Unix()
	nanos := now.Nanosecond() - generated.Nanosecond()
	switch {
	case secs > 0 && nanos < 0:
		secs--
	case secs < 0 && nanos > 0:
		secs++
	}
	return secs
}

func shapeName(v *jsonv.Value) string {
	switch v.Kind() {
	case jsonv.Object:
		return "object"
	case jsonv.Array:
		return "array"
	case jsonv.Null:
		return "null"
	case jsonv.Bool:
		return "bool"
	case jsonv.String:
		return "str"
	}
	if _, ok := v.Int(); ok {
		return "int"
	}
	return "float"
}
