package catalog

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/doublemover/activationgate/internal/collate"
	"github.com/doublemover/activationgate/internal/fsutil"
	"github.com/doublemover/activationgate/internal/jsonv"
	"github.com/doublemover/activationgate/internal/model"
	"github.com/doublemover/activationgate/internal/program"
)

// evidenceRef is one parsed "path:line" evidence reference.
type evidenceRef struct {
	path string
	line int
	raw  string
}

func evidenceLess(a, b evidenceRef) bool {
	if c := collate.Compare(a.path, b.path); c != 0 {
		return c < 0
	}
	if a.line != b.line {
		return a.line < b.line
	}
	return collate.Less(a.raw, b.raw)
}

// checkProgram applies p's evidence-chain contract to r when r belongs to p.
func (v *Validator) checkProgram(p *program.Program, r *row, suffix string) error {
	if !r.hasLane || !r.hasMilestone {
		return nil
	}
	week, ok := p.Match(r.lane, r.milestone)
	if !ok {
		return nil
	}

	i := r.index
	fieldName := func(name string) string {
		return fmt.Sprintf("catalog task row %d field '%s'", i, name)
	}
	required := func(name string) error {
		return model.ContractErrorf("%s is required for lane-B %s contract rows%s",
			fieldName(name), jsonv.Quote(r.milestone), suffix)
	}

	commands, ok := r.arrays["validation_commands"]
	if !ok {
		return required("validation_commands")
	}
	if expected := collate.Sorted(commands); !slices.Equal(commands, expected) {
		return model.ContractErrorf("%s must be sorted deterministically "+
			"(case-insensitive lexicographic order) for lane-B %s contract rows%s: expected=%s observed=%s",
			fieldName("validation_commands"), p.Name, suffix, jsonv.QuoteList(expected), jsonv.QuoteList(commands))
	}
	for ci, command := range commands {
		entry := fieldName(fmt.Sprintf("validation_commands[%d]", ci))
		for _, control := range v.Programs.ControlCharacters {
			if strings.Contains(command, control) {
				return model.ContractErrorf("%s must be single-line text without control characters "+
					"for lane-B %s contract rows%s", entry, p.Name, suffix)
			}
		}
		for _, token := range v.Programs.ForbiddenTokens {
			if strings.Contains(command, token) {
				return model.ContractErrorf("%s contains forbidden shell token %s; "+
					"%s lane-B contract commands must be single deterministic commands%s",
					entry, jsonv.Quote(token), p.Name, suffix)
			}
		}
	}

	rawRefs, ok := r.arrays["execution_status_evidence_refs"]
	if !ok {
		return required("execution_status_evidence_refs")
	}
	refs := make([]evidenceRef, 0, len(rawRefs))
	for ei, raw := range rawRefs {
		context := fieldName(fmt.Sprintf("execution_status_evidence_refs[%d]", ei))
		ref, err := parseEvidenceRef(raw, context)
		if err != nil {
			return err
		}
		refs = append(refs, ref)
		if !strings.HasPrefix(ref.path, v.Programs.EvidencePrefix) {
			return model.ContractErrorf("%s must reference lane-B evidence under '%s'%s",
				context, v.Programs.EvidencePrefix, suffix)
		}
		if err := v.ensureEvidenceFile(ref.path, context, suffix); err != nil {
			return err
		}
	}

	sortedRefs := append([]evidenceRef(nil), refs...)
	sort.SliceStable(sortedRefs, func(a, b int) bool { return evidenceLess(sortedRefs[a], sortedRefs[b]) })
	expected := make([]string, 0, len(sortedRefs))
	for _, ref := range sortedRefs {
		expected = append(expected, ref.raw)
	}
	if !slices.Equal(rawRefs, expected) {
		return model.ContractErrorf("%s must be sorted deterministically by evidence path and numeric ':line' "+
			"for lane-B %s contract rows%s: expected=%s observed=%s",
			fieldName("execution_status_evidence_refs"), p.Name, suffix, jsonv.QuoteList(expected), jsonv.QuoteList(rawRefs))
	}

	overrideField := fieldName("execution_status_override_source")
	if !r.hasOverride {
		return required("execution_status_override_source")
	}
	override, err := jsonv.RelativePathText(r.overrideSource, overrideField)
	if err != nil {
		return model.AsKind(err, model.KindContract)
	}
	if !strings.HasSuffix(override, ".md") {
		return model.ContractErrorf("%s must reference a '.md' file%s", overrideField, suffix)
	}
	if !strings.HasPrefix(override, v.Programs.EvidencePrefix) {
		return model.ContractErrorf("%s must reference lane-B evidence under '%s'%s",
			overrideField, v.Programs.EvidencePrefix, suffix)
	}
	evidencePaths := uniquePaths(refs)
	if !slices.Contains(evidencePaths, override) {
		return model.ContractErrorf("%s must match one of the 'execution_status_evidence_refs' path components "+
			"for lane-B %s contract rows%s: override_source=%s evidence_paths=%s",
			overrideField, p.Name, suffix, jsonv.Quote(override), jsonv.QuoteList(evidencePaths))
	}
	if err := v.ensureEvidenceFile(override, overrideField, suffix); err != nil {
		return err
	}

	pinned, ok := p.Week(week)
	if !ok {
		return nil
	}
	return checkPinnedWeek(p, pinned, r, refs, override, suffix)
}

// checkPinnedWeek compares a row against the exact contract of its week.
func checkPinnedWeek(p *program.Program, w *program.Week, r *row, refs []evidenceRef, override, suffix string) error {
	i := r.index
	label := w.Label()

	deps, ok := r.arrays["dependencies"]
	if !ok {
		return model.ContractErrorf("catalog task row %d field 'dependencies' is required for lane-B %s contract rows%s",
			i, jsonv.Quote(r.milestone), suffix)
	}
	if !slices.Equal(deps, w.Dependencies) {
		return model.ContractErrorf("catalog task row %d field 'dependencies' must match deterministic %s "+
			"dependency set %s for lane-B %s contract rows%s: observed=%s",
			i, label, jsonv.QuoteList(w.Dependencies), p.Name, suffix, jsonv.QuoteList(deps))
	}

	commands := r.arrays["validation_commands"]
	var missing []string
	for _, command := range w.ValidationCommands {
		if !slices.Contains(commands, command) {
			missing = append(missing, command)
		}
	}
	if len(missing) > 0 {
		return model.ContractErrorf("catalog task row %d field 'validation_commands' is missing required "+
			"%s command(s) %s for lane-B %s contract rows%s",
			i, label, jsonv.QuoteList(missing), p.Name, suffix)
	}

	if override != w.EvidenceArtifact {
		return model.ContractErrorf("catalog task row %d field 'execution_status_override_source' must equal %s "+
			"lane-B tooling evidence artifact %s for lane-B %s contract rows%s: observed=%s",
			i, label, jsonv.Quote(w.EvidenceArtifact), p.Name, suffix, jsonv.Quote(override))
	}

	for _, ref := range refs {
		if ref.path == w.EvidenceArtifact {
			return nil
		}
	}
	return model.ContractErrorf("catalog task row %d field 'execution_status_evidence_refs' must include %s "+
		"lane-B tooling evidence artifact %s for lane-B %s contract rows%s",
		i, label, jsonv.Quote(w.EvidenceArtifact), p.Name, suffix)
}

// parseEvidenceRef splits "path:line" on the last colon.
func parseEvidenceRef(raw, context string) (evidenceRef, error) {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return evidenceRef{}, model.ContractErrorf("%s must be a local relative evidence reference with ':line'", context)
	}
	sep := strings.LastIndex(raw, ":")
	if sep <= 0 {
		return evidenceRef{}, model.ContractErrorf("%s must include explicit ':line' suffix", context)
	}

	path, lineText := raw[:sep], raw[sep+1:]
	if _, err := jsonv.RelativePathText(path, context+" path component"); err != nil {
		return evidenceRef{}, model.AsKind(err, model.KindContract)
	}
	if !strings.HasSuffix(path, ".md") {
		return evidenceRef{}, model.ContractErrorf("%s path component must reference a '.md' file", context)
	}
	line, err := strconv.Atoi(lineText)
	if err != nil || !isASCIIDigits(lineText) || line <= 0 {
		return evidenceRef{}, model.ContractErrorf("%s line component must be a positive integer", context)
	}
	return evidenceRef{path: path, line: line, raw: raw}, nil
}

func (v *Validator) ensureEvidenceFile(path, context, suffix string) error {
	exists, regular := fsutil.Inspect(v.Root, path)
	if !exists {
		return model.ContractErrorf("%s must reference existing evidence file %s%s", context, jsonv.Quote(path), suffix)
	}
	if !regular {
		return model.ContractErrorf("%s must reference a file path; observed=%s%s", context, jsonv.Quote(path), suffix)
	}
	return nil
}

func uniquePaths(refs []evidenceRef) []string {
	seen := make(map[string]bool, len(refs))
	var paths []string
	for _, ref := range refs {
		if !seen[ref.path] {
			seen[ref.path] = true
			paths = append(paths, ref.path)
		}
	}
	return collate.Sorted(paths)
}

func isASCIIDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
