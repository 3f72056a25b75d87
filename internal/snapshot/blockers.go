package snapshot

import (
	"fmt"
	"sort"

	"github.com/doublemover/activationgate/internal/collate"
	"github.com/doublemover/activationgate/internal/jsonv"
	"github.com/doublemover/activationgate/internal/model"
)

var openBlockersKeyOrder = []string{
	"generated_at_utc",
	"source",
	"open_blocker_count",
	"count",
	"open_blockers",
}

var openBlockerRowKeyOrder = []string{
	"blocker_id",
	"source_path",
	"line_number",
	"line",
}

// Blocker is one validated open-blocker row.
type Blocker struct {
	ID         string
	SourcePath string
	Line       int
}

func (b Blocker) String() string {
	return fmt.Sprintf("(%s, %s, %d)", jsonv.Quote(b.ID), jsonv.Quote(b.SourcePath), b.Line)
}

func blockerLess(a, b Blocker) bool {
	if c := collate.Compare(a.SourcePath, b.SourcePath); c != 0 {
		return c < 0
	}
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return collate.Less(a.ID, b.ID)
}

// blockerRows describes where rows live so diagnostics can name them.
type blockerRows struct {
	field      string // entries or open_blockers
	collection string // how the container is named in messages
	rowPrefix  string // how a non-object row is named
	checkKeys  bool
}

// ParseBlockers validates an open-blockers snapshot and returns its rows.
func ParseBlockers(payload *jsonv.Value, display string) ([]Blocker, error) {
	blockers, err := parseBlockers(payload, display)
	if err != nil {
		return nil, model.AsKind(err, model.KindSchema)
	}
	return blockers, nil
}

func parseBlockers(payload *jsonv.Value, display string) ([]Blocker, error) {
	suffix := InSuffix(display)

	if payload.IsArray() {
		return parseBlockerRows(payload.Items(), blockerRows{
			field:      "entries",
			collection: "array",
			rowPrefix:  "open blockers snapshot entries[%d]",
		}, suffix)
	}
	if !payload.IsObject() {
		return nil, fmt.Errorf("open blockers snapshot must be either an array of blocker rows or an object with " +
			"'open_blockers' array and 'open_blocker_count' (or 'count')")
	}

	if err := jsonv.CheckKeyOrder(payload, openBlockersKeyOrder, "open blockers snapshot object"+suffix); err != nil {
		return nil, err
	}
	if !payload.Has("open_blockers") {
		return nil, fmt.Errorf("open blockers snapshot object must include 'open_blockers' array%s", suffix)
	}
	if err := checkProvenance(payload, "open blockers", suffix); err != nil {
		return nil, err
	}

	raw := payload.Field("open_blockers")
	if !raw.IsArray() {
		return nil, fmt.Errorf("open blockers snapshot field 'open_blockers' must be an array%s", suffix)
	}
	blockers, err := parseBlockerRows(raw.Items(), blockerRows{
		field:      "open_blockers",
		collection: "field 'open_blockers'",
		rowPrefix:  "open blockers snapshot field 'open_blockers[%d]'",
		checkKeys:  true,
	}, suffix)
	if err != nil {
		return nil, err
	}

	declared := -1
	if v, ok := payload.Get("open_blocker_count"); ok {
		n, err := jsonv.NonNegativeInt(v, "open blockers snapshot field 'open_blocker_count'")
		if err != nil {
			return nil, err
		}
		declared = n
	}
	if v, ok := payload.Get("count"); ok {
		legacy, err := jsonv.NonNegativeInt(v, "open blockers snapshot field 'count'")
		if err != nil {
			return nil, err
		}
		if declared < 0 {
			declared = legacy
		} else if declared != legacy {
			return nil, fmt.Errorf("open blockers snapshot fields 'open_blocker_count' and 'count' must match%s", suffix)
		}
	}
	if declared < 0 {
		return nil, fmt.Errorf("open blockers snapshot object must include non-negative integer "+
			"'open_blocker_count' (or legacy 'count')%s", suffix)
	}
	if declared != len(blockers) {
		return nil, fmt.Errorf("open blockers snapshot count mismatch%s: declared=%d discovered=%d",
			suffix, declared, len(blockers))
	}
	return blockers, nil
}

func parseBlockerRows(rows []*jsonv.Value, where blockerRows, suffix string) ([]Blocker, error) {
	blockers := make([]Blocker, 0, len(rows))
	seen := make(map[Blocker]bool, len(rows))

	for i, row := range rows {
		rowName := fmt.Sprintf(where.rowPrefix, i)
		if !row.IsObject() {
			return nil, fmt.Errorf("%s must be an object%s", rowName, suffix)
		}
		if where.checkKeys {
			if err := jsonv.CheckKeyOrder(row, openBlockerRowKeyOrder, rowName+" object"+suffix); err != nil {
				return nil, err
			}
		}

		field := func(name string) string {
			return fmt.Sprintf("open blockers snapshot field '%s[%d].%s'", where.field, i, name)
		}
		id, err := jsonv.CanonicalString(row.Field("blocker_id"), field("blocker_id"))
		if err != nil {
			return nil, err
		}
		path, err := jsonv.RelativePath(row.Field("source_path"), field("source_path"))
		if err != nil {
			return nil, err
		}

		var line int
		if row.Has("line_number") && row.Has("line") {
			canonical, err := jsonv.PositiveInt(row.Field("line_number"), field("line_number"))
			if err != nil {
				return nil, err
			}
			legacy, err := jsonv.PositiveInt(row.Field("line"), field("line"))
			if err != nil {
				return nil, err
			}
			if canonical != legacy {
				return nil, fmt.Errorf("open blockers snapshot line alias mismatch%s for row index %d: line_number=%d line=%d",
					suffix, i, canonical, legacy)
			}
			line = canonical
		} else {
			raw := row.Field("line_number")
			if raw == nil {
				raw = row.Field("line")
			}
			line, err = jsonv.PositiveInt(raw, field("line_number")+" (or legacy 'line')")
			if err != nil {
				return nil, err
			}
		}

		b := Blocker{ID: id, SourcePath: path, Line: line}
		if seen[b] {
			return nil, fmt.Errorf("open blockers snapshot %s contains duplicate blocker row %s%s",
				where.collection, b, suffix)
		}
		seen[b] = true
		blockers = append(blockers, b)
	}

	if !sort.SliceIsSorted(blockers, func(i, j int) bool { return blockerLess(blockers[i], blockers[j]) }) {
		return nil, fmt.Errorf("open blockers snapshot %s must be sorted by "+
			"'source_path', then line number, then 'blocker_id'%s", where.collection, suffix)
	}
	return blockers, nil
}
