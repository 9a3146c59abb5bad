// Package muscles maps exercise names to the muscles they train and muscles to
// the renderable body-map parts and groups used by the heatmaps.
//
// A Model is loaded once and never mutated; callers construct it explicitly and
// pass it into every aggregation so tests can substitute fixtures.
package muscles

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PartID identifies a renderable region of the body map.
type PartID string

// Group names a cluster of parts that always share one volume figure.
type Group string

// Sentinel and non-muscle tokens found in attribution data.
const (
	FullBody = "Full Body"
	Cardio   = "Cardio"
	None     = "None"
)

// Attribution is the primary/secondary muscle split of one exercise.
type Attribution struct {
	Primary   []string `json:"primary"`
	Secondary []string `json:"secondary"`
}

// IsEmpty reports whether the attribution names no muscles at all.
func (a Attribution) IsEmpty() bool {
	return len(a.Primary) == 0 && len(a.Secondary) == 0
}

//go:embed default.yaml
var defaultData []byte

type fileGroup struct {
	Name  string   `yaml:"name"`
	Parts []PartID `yaml:"parts"`
}

type fileExercise struct {
	Name       string   `yaml:"name"`
	Aliases    []string `yaml:"aliases"`
	Primary    []string `yaml:"primary"`
	Secondary  []string `yaml:"secondary"`
	Bodyweight bool     `yaml:"bodyweight"`
}

type file struct {
	Groups     []fileGroup         `yaml:"groups"`
	Standalone []PartID            `yaml:"standalone"`
	Muscles    map[string][]PartID `yaml:"muscles"`
	Headless   map[PartID]string   `yaml:"headless"`
	Exercises  []fileExercise      `yaml:"exercises"`
}

// Model is the read-only attribution reference data.
type Model struct {
	exercises  map[string]Attribution
	bodyweight map[string]bool
	muscles    map[string][]PartID
	partGroup  map[PartID]Group
	groups     []Group
	groupParts map[Group][]PartID
	parts      []PartID
	headless   map[PartID]string
}

// Default returns the model built from the embedded attribution table.
func Default() (*Model, error) {
	return parse(defaultData)
}

// LoadFile reads a model from a YAML file.
func LoadFile(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading attribution file: %w", err)
	}
	return parse(data)
}

// Load reads a model from YAML.
func Load(r io.Reader) (*Model, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading attribution data: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Model, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing attribution data: %w", err)
	}

	m := &Model{
		exercises:  make(map[string]Attribution),
		bodyweight: make(map[string]bool),
		muscles:    make(map[string][]PartID),
		partGroup:  make(map[PartID]Group),
		groupParts: make(map[Group][]PartID),
		headless:   make(map[PartID]string),
	}

	declared := make(map[PartID]bool)
	for _, g := range f.Groups {
		group := Group(g.Name)
		if _, dup := m.groupParts[group]; dup {
			return nil, fmt.Errorf("group %q declared twice", g.Name)
		}
		if len(g.Parts) == 0 {
			return nil, fmt.Errorf("group %q has no parts", g.Name)
		}
		for _, p := range g.Parts {
			if declared[p] {
				return nil, fmt.Errorf("part %q belongs to more than one group", p)
			}
			declared[p] = true
			m.partGroup[p] = group
			m.parts = append(m.parts, p)
		}
		m.groups = append(m.groups, group)
		m.groupParts[group] = append([]PartID(nil), g.Parts...)
	}
	for _, p := range f.Standalone {
		if declared[p] {
			return nil, fmt.Errorf("standalone part %q is also grouped", p)
		}
		declared[p] = true
		m.parts = append(m.parts, p)
	}

	for name, parts := range f.Muscles {
		for _, p := range parts {
			if !declared[p] {
				return nil, fmt.Errorf("muscle %q references undeclared part %q", name, p)
			}
		}
		m.muscles[Normalize(name)] = parts
	}

	for p, id := range f.Headless {
		if !declared[p] {
			return nil, fmt.Errorf("headless mapping references undeclared part %q", p)
		}
		m.headless[p] = id
	}

	for _, ex := range f.Exercises {
		attr := Attribution{Primary: ex.Primary, Secondary: ex.Secondary}
		for _, name := range append([]string{ex.Name}, ex.Aliases...) {
			key := Normalize(name)
			m.exercises[key] = attr
			if ex.Bodyweight {
				m.bodyweight[key] = true
			}
		}
	}

	return m, nil
}

// Normalize lowercases and collapses whitespace.
func Normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// AttributionFor returns the muscles trained by an exercise. Unknown exercises
// return an empty attribution, which callers treat as contributing nothing.
func (m *Model) AttributionFor(exercise string) Attribution {
	return m.exercises[Normalize(exercise)]
}

// IsBodyweight reports whether the exercise is flagged as having no meaningful
// external load.
func (m *Model) IsBodyweight(exercise string) bool {
	return m.bodyweight[Normalize(exercise)]
}

// PartsFor returns the parts an anatomical muscle name renders to.
func (m *Model) PartsFor(muscle string) []PartID {
	return m.muscles[Normalize(muscle)]
}

// GroupFor returns the group a part belongs to.
func (m *Model) GroupFor(part PartID) (Group, bool) {
	g, ok := m.partGroup[part]
	return g, ok
}

// Groups returns every group in declaration order.
func (m *Model) Groups() []Group {
	return m.groups
}

// PartsInGroup returns the parts of a group.
func (m *Model) PartsInGroup(g Group) []PartID {
	return m.groupParts[g]
}

// Parts returns every declared part, grouped parts first.
func (m *Model) Parts() []PartID {
	return m.parts
}

// HeadlessFor returns the symmetric identifier a part collapses to. Parts
// without a mapping collapse to themselves.
func (m *Model) HeadlessFor(part PartID) string {
	if id, ok := m.headless[part]; ok {
		return id
	}
	return string(part)
}

// IsMuscleToken reports whether a name from attribution data refers to an
// actual muscle rather than a non-muscle token.
func IsMuscleToken(name string) bool {
	switch Normalize(name) {
	case "", Normalize(Cardio), Normalize(None):
		return false
	}
	return true
}

// IsFullBody reports whether a muscle name is the full-body sentinel.
func IsFullBody(name string) bool {
	return Normalize(name) == Normalize(FullBody)
}
