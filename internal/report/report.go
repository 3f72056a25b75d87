// Package report projects one gate report into its JSON and markdown forms.
// Both renderers read the same *model.Report and compute nothing themselves.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/doublemover/activationgate/internal/model"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatMarkdown:
		return Format(s), nil
	}
	return "", fmt.Errorf("invalid format %q (choose from 'json', 'markdown')", s)
}

// Render dispatches to the renderer for f.
func Render(r *model.Report, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return RenderJSON(r)
	case FormatMarkdown:
		return []byte(RenderMarkdown(r)), nil
	}
	return nil, model.InternalErrorf("unsupported output format %q", f)
}

// Validate checks that content looks like a rendered report of format f.
func Validate(f Format) func([]byte) error {
	return func(content []byte) error {
		switch f {
		case FormatJSON:
			if !json.Valid(content) {
				return fmt.Errorf("rendered JSON report is not valid JSON")
			}
		case FormatMarkdown:
			if !bytes.HasPrefix(content, []byte(markdownTitle+"\n")) {
				return fmt.Errorf("rendered markdown report is missing its title")
			}
		}
		return nil
	}
}

// RenderJSON emits the report with two-space indentation, ASCII-only output
// and a trailing newline.
func RenderJSON(r *model.Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, model.InternalErrorf("encode report: %v", err)
	}
	return asciiEscape(buf.Bytes()), nil
}

// asciiEscape rewrites every rune outside printable ASCII as a \uXXXX escape,
// using surrogate pairs above the BMP. Such runes only occur inside strings.
func asciiEscape(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for len(data) > 0 {
		c := data[0]
		if c < utf8.RuneSelf && c != 0x7f {
			out = append(out, c)
			data = data[1:]
			continue
		}
		r, size := utf8.DecodeRune(data)
		data = data[size:]
		if r > 0xffff {
			r -= 0x10000
			out = fmt.Appendf(out, `\u%04x\u%04x`, 0xd800+(r>>10), 0xdc00+(r&0x3ff))
			continue
		}
		out = fmt.Appendf(out, `\u%04x`, r)
	}
	return out
}

const markdownTitle = "# Activation Trigger Check"

// RenderMarkdown emits the human-readable report.
func RenderMarkdown(r *model.Report) string {
	lines := []string{
		markdownTitle,
		"",
		fmt.Sprintf("- Mode: `%s`", r.Mode),
		fmt.Sprintf("- Contract ID: `%s`", r.ContractID),
		fmt.Sprintf("- Fail closed: `%t`", r.FailClosed),
		fmt.Sprintf("- Issues snapshot: `%s`", r.Inputs.IssuesJSON),
		fmt.Sprintf("- Milestones snapshot: `%s`", r.Inputs.MilestonesJSON),
		fmt.Sprintf("- Catalog JSON: `%s`", r.Inputs.CatalogJSON),
		"- Open blockers JSON: " + optionalPath(r.Inputs.OpenBlockersJSON),
		"- T4 governance overlay JSON: " + optionalPath(r.Inputs.OverlayJSON),
		"- Actionable statuses: " + codeList(r.ActionableStatuses),
		"- Trigger order: " + codeList(triggerStrings(r.TriggerOrder)),
		fmt.Sprintf("- Open blockers count: `%d`", r.OpenBlockers.Count),
		fmt.Sprintf("- Open blockers trigger fired: `%t`", r.OpenBlockers.TriggerFired),
		fmt.Sprintf("- Activation required: `%t`", r.ActivationRequired),
		fmt.Sprintf("- T4 new scope publish: `%t`", r.Overlay.NewScopePublish),
		fmt.Sprintf("- T4 source: `%s`", r.Overlay.Source),
		fmt.Sprintf("- Gate open: `%t`", r.GateOpen),
		fmt.Sprintf("- Queue state: `%s`", r.QueueState),
		fmt.Sprintf("- Exit code: `%d`", r.ExitCode),
		"",
		"## Snapshot Freshness",
		"",
		"| Snapshot | Requested | Max age (s) | Generated at UTC | Age (s) | Fresh |",
		"| --- | --- | --- | --- | --- | --- |",
		freshnessRow("Issues", r.Freshness.Issues),
		freshnessRow("Milestones", r.Freshness.Milestones),
		"",
		"## Trigger Results",
		"",
		"| Trigger ID | Fired | Count | Condition |",
		"| --- | --- | --- | --- |",
	}
	for _, t := range r.Triggers {
		lines = append(lines, fmt.Sprintf("| `%s` | `%t` | %d | %s |", t.ID, t.Fired, t.Count, t.Condition))
	}

	lines = append(lines, "")
	if len(r.ActiveTriggerIDs) > 0 {
		lines = append(lines, "- Active triggers: "+codeList(triggerStrings(r.ActiveTriggerIDs)))
	} else {
		lines = append(lines, "- Active triggers: _none_")
	}

	return strings.TrimRightFunc(strings.Join(lines, "\n"), unicode.IsSpace) + "\n"
}

const none = "_none_"

func optionalPath(p *string) string {
	if p == nil {
		return none
	}
	return "`" + *p + "`"
}

func codeList(values []string) string {
	quoted := make([]string, 0, len(values))
	for _, v := range values {
		quoted = append(quoted, "`"+v+"`")
	}
	return strings.Join(quoted, ", ")
}

func triggerStrings(ids []model.TriggerID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}

func freshnessRow(name string, s model.FreshnessState) string {
	cells := []string{
		fmt.Sprintf("`%t`", s.Requested),
		intCell(s.MaxAgeSeconds),
		stringCell(s.GeneratedAtUTC),
		intCell(s.AgeSeconds),
		boolCell(s.Fresh),
	}
	return "| " + name + " | " + strings.Join(cells, " | ") + " |"
}

func intCell(v *int64) string {
	if v == nil {
		return none
	}
	return fmt.Sprintf("`%d`", *v)
}

func stringCell(v *string) string {
	if v == nil {
		return none
	}
	return "`" + *v + "`"
}

func boolCell(v *bool) string {
	if v == nil {
		return none
	}
	return fmt.Sprintf("`%t`", *v)
}
