// Package catalog validates remaining-task catalog rows and counts the rows
// whose execution status is actionable.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/doublemover/activationgate/internal/collate"
	"github.com/doublemover/activationgate/internal/jsonv"
	"github.com/doublemover/activationgate/internal/model"
	"github.com/doublemover/activationgate/internal/program"
	"github.com/doublemover/activationgate/internal/snapshot"
)

var taskRowKeyOrder = []string{
	"task_id",
	"title",
	"path",
	"line",
	"bucket",
	"lane",
	"lane_name",
	"milestone_title",
	"priority_label",
	"area_label",
	"type_label",
	"labels",
	"quality",
	"quality_gaps",
	"original",
	"cleaned",
	"objective",
	"deliverables",
	"acceptance_criteria",
	"dependencies",
	"validation_commands",
	"shard",
	"execution_status",
	"blocker_owner",
	"blocker_notes",
	"status",
	"execution_status_rationale",
	"execution_status_evidence_refs",
	"execution_status_override_source",
}

var (
	contractTextFields          = []string{"lane_name", "milestone_title"}
	executionContractTextFields = []string{
		"execution_status_rationale",
		"execution_status_override_source",
		"blocker_owner",
		"blocker_notes",
	}
	contractStringArrayFields = []string{
		"labels",
		"dependencies",
		"validation_commands",
		"execution_status_evidence_refs",
	}
)

// NormalizeStatus folds a status for comparison. Non-strings and blank
// strings normalize to "missing".
func NormalizeStatus(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "missing"
	}
	return s
}

// Validator checks catalog rows against the row schema and the governance
// program contracts. Root is the directory evidence paths are relative to.
type Validator struct {
	Root     string
	Programs *program.Table
}

// Result is the outcome of a successful catalog validation.
type Result struct {
	Tasks          int
	ActionableRows int
}

// row carries the parsed contract fields of one catalog row.
type row struct {
	index          int
	lane           string
	hasLane        bool
	text           map[string]string
	arrays         map[string][]string
	overrideSource string
	hasOverride    bool
	milestone      string
	hasMilestone   bool
}

// Validate checks every row of c and counts those whose normalized status
// is in actionable. display names the catalog file in diagnostics.
func (v *Validator) Validate(c *snapshot.Catalog, actionable map[string]bool, display string) (*Result, error) {
	suffix := snapshot.InSuffix(display)

	count := 0
	ids := make([]string, 0, len(c.Rows))
	seen := make(map[string]bool, len(c.Rows))

	for index, raw := range c.Rows {
		if !raw.IsObject() {
			return nil, model.SchemaErrorf("catalog task at index %d must be an object%s", index, suffix)
		}
		if err := jsonv.CheckKeyOrder(raw, taskRowKeyOrder, fmt.Sprintf("catalog task row %d%s", index, suffix)); err != nil {
			return nil, model.AsKind(err, model.KindSchema)
		}

		id, err := jsonv.CanonicalString(raw.Field("task_id"), fmt.Sprintf("catalog task row %d field 'task_id'", index))
		if err != nil {
			return nil, model.AsKind(err, model.KindSchema)
		}
		if seen[id] {
			return nil, model.SchemaErrorf("catalog tasks contain duplicate task_id %s%s", jsonv.Quote(id), suffix)
		}
		seen[id] = true
		ids = append(ids, id)

		status, err := rowStatus(raw, index, suffix)
		if err != nil {
			return nil, err
		}
		if err := v.validateContractFields(raw, index, suffix); err != nil {
			return nil, err
		}
		if actionable[NormalizeStatus(status)] {
			count++
		}
	}

	if !collate.IsSorted(ids) {
		return nil, model.SchemaErrorf("catalog tasks must be sorted by 'task_id'%s", suffix)
	}
	if err := c.CheckDeclaredCount(display); err != nil {
		return nil, err
	}
	return &Result{Tasks: len(c.Rows), ActionableRows: count}, nil
}

// rowStatus resolves execution_status and its legacy alias status.
func rowStatus(raw *jsonv.Value, index int, suffix string) (string, error) {
	hasExecution := raw.Has("execution_status")
	hasLegacy := raw.Has("status")
	if !hasExecution && !hasLegacy {
		return "", model.SchemaErrorf("catalog task row %d must include non-empty string "+
			"'execution_status' or legacy 'status'%s", index, suffix)
	}

	var execution, legacy string
	var err error
	if hasExecution {
		execution, err = jsonv.CanonicalString(raw.Field("execution_status"), fmt.Sprintf("catalog task row %d field 'execution_status'", index))
		if err != nil {
			return "", model.AsKind(err, model.KindSchema)
		}
	}
	if hasLegacy {
		legacy, err = jsonv.CanonicalString(raw.Field("status"), fmt.Sprintf("catalog task row %d field 'status'", index))
		if err != nil {
			return "", model.AsKind(err, model.KindSchema)
		}
	}
	if hasExecution && hasLegacy && NormalizeStatus(execution) != NormalizeStatus(legacy) {
		return "", model.SchemaErrorf("catalog task status alias mismatch%s for row index %d: execution_status=%s status=%s",
			suffix, index, jsonv.Quote(execution), jsonv.Quote(legacy))
	}
	if hasExecution {
		return execution, nil
	}
	return legacy, nil
}

func (v *Validator) validateContractFields(raw *jsonv.Value, index int, suffix string) error {
	schemaErr := func(err error) error { return model.AsKind(err, model.KindSchema) }
	field := func(name string) string {
		return fmt.Sprintf("catalog task row %d field %s", index, jsonv.Quote(name))
	}

	r := &row{
		index:  index,
		text:   make(map[string]string),
		arrays: make(map[string][]string),
	}

	hasPath, hasLine := raw.Has("path"), raw.Has("line")
	if hasPath != hasLine {
		return model.SchemaErrorf("catalog task row %d fields 'path' and 'line' "+
			"must either both be present or both be absent%s", index, suffix)
	}
	if hasPath {
		if _, err := jsonv.RelativePath(raw.Field("path"), field("path")); err != nil {
			return schemaErr(err)
		}
		if _, err := jsonv.PositiveInt(raw.Field("line"), field("line")); err != nil {
			return schemaErr(err)
		}
	}

	if raw.Has("lane") {
		lane, err := jsonv.CanonicalString(raw.Field("lane"), field("lane"))
		if err != nil {
			return schemaErr(err)
		}
		r.lane, r.hasLane = lane, true
	}

	for _, name := range append(append([]string(nil), contractTextFields...), executionContractTextFields...) {
		if !raw.Has(name) {
			continue
		}
		value, err := jsonv.CanonicalString(raw.Field(name), field(name))
		if err != nil {
			return schemaErr(err)
		}
		r.text[name] = value
	}
	r.milestone, r.hasMilestone = r.text["milestone_title"]
	r.overrideSource, r.hasOverride = r.text["execution_status_override_source"]

	for _, name := range contractStringArrayFields {
		if !raw.Has(name) {
			continue
		}
		values, err := jsonv.CanonicalStringArray(raw.Field(name), field(name))
		if err != nil {
			return schemaErr(err)
		}
		r.arrays[name] = values
	}

	if labels, ok := r.arrays["labels"]; ok && r.hasLane {
		laneLabel := "lane:" + r.lane
		if !slices.Contains(labels, laneLabel) {
			return model.SchemaErrorf("catalog task lane label alias mismatch%s for row index %d: "+
				"expected label %s in field 'labels'", suffix, index, jsonv.Quote(laneLabel))
		}
	}

	if raw.Has("milestone_title") {
		for _, required := range []string{"validation_commands", "execution_status_evidence_refs"} {
			if _, ok := r.arrays[required]; !ok {
				return model.SchemaErrorf("catalog task row %d field 'milestone_title' requires non-empty "+
					"field %s%s", index, jsonv.Quote(required), suffix)
			}
		}
	}

	if v.Programs != nil {
		for i := range v.Programs.Programs {
			if err := v.checkProgram(&v.Programs.Programs[i], r, suffix); err != nil {
				return err
			}
		}
	}

	if raw.Has("execution_status_rationale") != raw.Has("execution_status_override_source") {
		return model.SchemaErrorf("catalog task row %d fields 'execution_status_rationale' and "+
			"'execution_status_override_source' must either both be present "+
			"or both be absent%s", index, suffix)
	}
	if raw.Has("blocker_owner") != raw.Has("blocker_notes") {
		return model.SchemaErrorf("catalog task row %d fields 'blocker_owner' and 'blocker_notes' "+
			"must either both be present or both be absent%s", index, suffix)
	}
	return nil
}
