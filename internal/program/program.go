// Package program holds the governance program table: which lane-B catalog
// rows carry an evidence chain, and what each program week pins down.
package program

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doublemover/activationgate/templates"
)

const defaultTableFile = "programs.yaml"

// Week is the exact contract a program imposes on rows of one week.
type Week struct {
	Week               int      `yaml:"week"`
	Dependencies       []string `yaml:"dependencies"`
	ValidationCommands []string `yaml:"validation_commands"`
	EvidenceArtifact   string   `yaml:"evidence_artifact"`
}

// Program matches catalog rows by lane and milestone title.
type Program struct {
	Name             string `yaml:"name"`
	Lane             string `yaml:"lane"`
	MilestonePattern string `yaml:"milestone_pattern"`
	Weeks            []Week `yaml:"weeks"`

	pattern *regexp.Regexp
}

// Table is the full program configuration.
type Table struct {
	EvidencePrefix    string    `yaml:"evidence_prefix"`
	ForbiddenTokens   []string  `yaml:"forbidden_tokens"`
	ControlCharacters []string  `yaml:"control_characters"`
	Programs          []Program `yaml:"programs"`
}

// Default returns the built-in program table.
func Default() (*Table, error) {
	data, err := templates.FS.ReadFile(defaultTableFile)
	if err != nil {
		return nil, fmt.Errorf("read embedded program table: %w", err)
	}
	return Parse(data)
}

// LoadFile reads a program table from disk.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program table %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("program table %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a program table. Unknown keys are rejected.
func Parse(data []byte) (*Table, error) {
	var t Table
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil {
		return nil, fmt.Errorf("parse program table: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Table) validate() error {
	if t.EvidencePrefix == "" || !strings.HasSuffix(t.EvidencePrefix, "/") {
		return fmt.Errorf("evidence_prefix must be a directory path ending in '/'")
	}
	for _, tok := range t.ForbiddenTokens {
		if tok == "" {
			return fmt.Errorf("forbidden_tokens must not contain empty entries")
		}
	}

	names := make(map[string]bool)
	for i := range t.Programs {
		p := &t.Programs[i]
		if p.Name == "" {
			return fmt.Errorf("programs[%d]: name is required", i)
		}
		if names[p.Name] {
			return fmt.Errorf("program %s: duplicate name", p.Name)
		}
		names[p.Name] = true
		if p.Lane == "" {
			return fmt.Errorf("program %s: lane is required", p.Name)
		}

		re, err := regexp.Compile(p.MilestonePattern)
		if err != nil {
			return fmt.Errorf("program %s: invalid milestone_pattern: %w", p.Name, err)
		}
		if re.NumSubexp() != 1 {
			return fmt.Errorf("program %s: milestone_pattern must have exactly one capture group (the week)", p.Name)
		}
		p.pattern = re

		weeks := make(map[int]bool)
		for _, w := range p.Weeks {
			if w.Week <= 0 {
				return fmt.Errorf("program %s: week must be positive, got %d", p.Name, w.Week)
			}
			if weeks[w.Week] {
				return fmt.Errorf("program %s: duplicate week %d", p.Name, w.Week)
			}
			weeks[w.Week] = true
			if !strings.HasPrefix(w.EvidenceArtifact, t.EvidencePrefix) {
				return fmt.Errorf("program %s week %d: evidence_artifact must live under %s", p.Name, w.Week, t.EvidencePrefix)
			}
		}
	}
	return nil
}

// Match reports whether a row with lane and milestone belongs to p and, if
// so, which week it targets.
func (p *Program) Match(lane, milestone string) (int, bool) {
	if lane != p.Lane {
		return 0, false
	}
	m := p.pattern.FindStringSubmatch(milestone)
	if m == nil {
		return 0, false
	}
	// A week too large for int still matches; it just never has a pinned contract.
	week, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, true
	}
	return week, true
}

// Week returns the pinned contract for week, if the program defines one.
func (p *Program) Week(week int) (*Week, bool) {
	for i := range p.Weeks {
		if p.Weeks[i].Week == week {
			return &p.Weeks[i], true
		}
	}
	return nil, false
}

func (w *Week) Label() string {
	return "W" + strconv.Itoa(w.Week)
}
