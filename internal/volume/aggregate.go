// Package volume attributes working sets to muscles and produces the per-part,
// per-group and headless volume maps the heatmaps render.
package volume

import (
	"fmt"

	"github.com/claude/liftmap/internal/models"
	"github.com/claude/liftmap/internal/muscles"
	"github.com/claude/liftmap/internal/setclass"
)

// Mode selects how volume is keyed.
type Mode string

const (
	ModeMuscle   Mode = "muscle"
	ModeGroup    Mode = "group"
	ModeHeadless Mode = "headless"
)

// ParseMode accepts "muscle", "group" or "headless"; empty defaults to muscle.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeMuscle:
		return ModeMuscle, nil
	case ModeGroup, ModeHeadless:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown volume mode %q", s)
}

// Breakdown is the raw attribution result. Group totals are kept once per group
// and only replicated across parts when a view is taken, so group and part views
// always agree on a region's set count.
type Breakdown struct {
	Groups map[muscles.Group]float64  `json:"groups"`
	Parts  map[muscles.PartID]float64 `json:"parts"`

	model *muscles.Model
}

func newBreakdown(m *muscles.Model) Breakdown {
	return Breakdown{
		Groups: make(map[muscles.Group]float64),
		Parts:  make(map[muscles.PartID]float64),
		model:  m,
	}
}

// Aggregate attributes every working set to the muscles its exercise trains.
//
// Per set: primary muscles receive the base increment (1 bilateral, 0.5
// unilateral) and secondary muscles half of it. A group is counted at most once
// per set and never as secondary when it was already hit as primary. Exercises
// with no recognised muscles are skipped.
func Aggregate(sets []models.LoggedSet, m *muscles.Model) Breakdown {
	b := newBreakdown(m)
	for _, s := range sets {
		if !setclass.IsWorking(s) {
			continue
		}
		b.add(s.ExerciseName, setclass.Increment(s))
	}
	return b
}

func (b *Breakdown) add(exercise string, base float64) {
	primary, secondary := resolve(b.model.AttributionFor(exercise))
	if len(primary) == 0 {
		return
	}

	for _, name := range primary {
		if muscles.IsFullBody(name) {
			for _, g := range b.model.Groups() {
				b.Groups[g] += base
			}
			return
		}
	}

	primaryGroups := make(map[muscles.Group]bool)
	primaryParts := make(map[muscles.PartID]bool)
	for _, name := range primary {
		for _, p := range b.model.PartsFor(name) {
			if g, ok := b.model.GroupFor(p); ok {
				primaryGroups[g] = true
			} else {
				primaryParts[p] = true
			}
		}
	}

	secondaryGroups := make(map[muscles.Group]bool)
	secondaryParts := make(map[muscles.PartID]bool)
	for _, name := range secondary {
		for _, p := range b.model.PartsFor(name) {
			if g, ok := b.model.GroupFor(p); ok {
				if !primaryGroups[g] {
					secondaryGroups[g] = true
				}
			} else if !primaryParts[p] {
				secondaryParts[p] = true
			}
		}
	}

	for g := range primaryGroups {
		b.Groups[g] += base
	}
	for p := range primaryParts {
		b.Parts[p] += base
	}
	for g := range secondaryGroups {
		b.Groups[g] += base / 2
	}
	for p := range secondaryParts {
		b.Parts[p] += base / 2
	}
}

// resolve drops non-muscle tokens and promotes the first secondary muscle when
// no primary is listed.
func resolve(attr muscles.Attribution) (primary, secondary []string) {
	for _, name := range attr.Primary {
		if muscles.IsMuscleToken(name) {
			primary = append(primary, name)
		}
	}
	for _, name := range attr.Secondary {
		if muscles.IsMuscleToken(name) {
			secondary = append(secondary, name)
		}
	}
	if len(primary) == 0 && len(secondary) > 0 {
		primary, secondary = secondary[:1], secondary[1:]
	}
	return primary, secondary
}

// Scale multiplies every total by f.
func (b Breakdown) Scale(f float64) Breakdown {
	out := newBreakdown(b.model)
	for g, v := range b.Groups {
		out.Groups[g] = v * f
	}
	for p, v := range b.Parts {
		out.Parts[p] = v * f
	}
	return out
}

// Total sums every group and standalone part once.
func (b Breakdown) Total() float64 {
	var total float64
	for _, v := range b.Groups {
		total += v
	}
	for _, v := range b.Parts {
		total += v
	}
	return total
}

// PartVolumes replicates each group total across its parts and adds standalone parts.
func (b Breakdown) PartVolumes() map[muscles.PartID]float64 {
	out := make(map[muscles.PartID]float64, len(b.Parts))
	for g, v := range b.Groups {
		for _, p := range b.model.PartsInGroup(g) {
			out[p] = v
		}
	}
	for p, v := range b.Parts {
		out[p] = v
	}
	return out
}
