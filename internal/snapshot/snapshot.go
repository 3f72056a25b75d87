// Package snapshot validates the structure of the offline JSON snapshots the
// gate reads: open issues, open milestones, open blockers and the outer shell
// of the remaining-task catalog. Every check is fail-closed; the first problem
// found is returned as a schema error.
package snapshot

import (
	"fmt"

	"github.com/doublemover/activationgate/internal/jsonv"
	"github.com/doublemover/activationgate/internal/model"
)

// Label names an open-entry snapshot kind in diagnostics.
type Label string

const (
	LabelIssues     Label = "open issues"
	LabelMilestones Label = "open milestones"
)

// Snapshot is a validated open-entry snapshot.
type Snapshot struct {
	Label Label
	Count int
}

var openSnapshotKeyOrder = []string{
	"generated_at_utc",
	"source",
	"count",
	"open",
	"items",
	"issues",
	"milestones",
}

var openArrayFields = []string{"open", "items", "issues", "milestones"}

// InSuffix is the " in <path>" tail appended to diagnostics that name a file.
func InSuffix(display string) string {
	if display == "" {
		return ""
	}
	return " in " + display
}

// ParseOpen validates an issues or milestones snapshot and counts its rows.
// display is the reported path of the snapshot file.
func ParseOpen(payload *jsonv.Value, label Label, display string) (*Snapshot, error) {
	snap, err := parseOpen(payload, label, display)
	if err != nil {
		return nil, model.AsKind(err, model.KindSchema)
	}
	return snap, nil
}

func parseOpen(payload *jsonv.Value, label Label, display string) (*Snapshot, error) {
	suffix := InSuffix(display)

	if payload.IsArray() {
		rows := payload.Items()
		if err := ensureRowObjects(rows, label, "entries"); err != nil {
			return nil, err
		}
		if label == LabelMilestones {
			if err := validateMilestoneRows(rows, "entries", suffix); err != nil {
				return nil, err
			}
		}
		return &Snapshot{Label: label, Count: len(rows)}, nil
	}

	if !payload.IsObject() {
		return nil, shapeError(label)
	}

	if err := jsonv.CheckKeyOrder(payload, openSnapshotKeyOrder, fmt.Sprintf("%s snapshot object%s", label, suffix)); err != nil {
		return nil, err
	}
	if err := checkProvenance(payload, string(label), suffix); err != nil {
		return nil, err
	}
	snap := &Snapshot{Label: label}

	type arrayField struct {
		key  string
		rows []*jsonv.Value
	}
	var arrays []arrayField
	for _, key := range openArrayFields {
		raw, ok := payload.Get(key)
		if !ok {
			continue
		}
		if !raw.IsArray() {
			return nil, fmt.Errorf("%s snapshot field '%s' must be an array", label, key)
		}
		rows := raw.Items()
		context := fmt.Sprintf("field '%s'", key)
		if err := ensureRowObjects(rows, label, context); err != nil {
			return nil, err
		}
		if label == LabelMilestones {
			if err := validateMilestoneRows(rows, context, suffix); err != nil {
				return nil, err
			}
		}
		arrays = append(arrays, arrayField{key: key, rows: rows})
	}

	if len(arrays) > 0 {
		primary := arrays[0]
		for _, a := range arrays[1:] {
			if len(a.rows) != len(primary.rows) {
				return nil, fmt.Errorf("%s snapshot parity mismatch: field '%s' length %d != field '%s' length %d",
					label, primary.key, len(primary.rows), a.key, len(a.rows))
			}
		}
		if raw, ok := payload.Get("count"); ok {
			declared, err := jsonv.NonNegativeInt(raw, fmt.Sprintf("%s snapshot field 'count'", label))
			if err != nil {
				return nil, err
			}
			if declared != len(primary.rows) {
				return nil, fmt.Errorf("%s snapshot parity mismatch: declared count %d != discovered count %d",
					label, declared, len(primary.rows))
			}
		}
		snap.Count = len(primary.rows)
		return snap, nil
	}

	if raw, ok := payload.Get("count"); ok {
		count, err := jsonv.NonNegativeInt(raw, fmt.Sprintf("%s snapshot field 'count'", label))
		if err != nil {
			return nil, err
		}
		snap.Count = count
		return snap, nil
	}
	return nil, shapeError(label)
}

func shapeError(label Label) error {
	return fmt.Errorf("%s snapshot must be either an array or an object with "+
		"'open'/'items'/'issues'/'milestones' array (or non-negative 'count')", label)
}

func ensureRowObjects(rows []*jsonv.Value, label Label, context string) error {
	for i, row := range rows {
		if !row.IsObject() {
			return fmt.Errorf("%s snapshot %s[%d] must be an object", label, context, i)
		}
	}
	return nil
}

// checkProvenance enforces the generated_at_utc/source pairing of an object
// snapshot and validates both when present.
func checkProvenance(obj *jsonv.Value, label, suffix string) error {
	hasGenerated := obj.Has("generated_at_utc")
	hasSource := obj.Has("source")
	if hasGenerated != hasSource {
		return fmt.Errorf("%s snapshot object must include both 'generated_at_utc' and "+
			"'source' when either field is present%s", label, suffix)
	}
	if !hasGenerated {
		return nil
	}

	if _, err := ParseGeneratedAt(obj.Field("generated_at_utc"), label); err != nil {
		return fmt.Errorf("%w%s", err, suffix)
	}
	if _, err := jsonv.CanonicalString(obj.Field("source"), fmt.Sprintf("%s snapshot field 'source'", label)); err != nil {
		return fmt.Errorf("%w%s", err, suffix)
	}
	return nil
}
