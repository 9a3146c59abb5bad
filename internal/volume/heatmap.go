package volume

import (
	"sort"

	"github.com/claude/liftmap/internal/models"
	"github.com/claude/liftmap/internal/muscles"
	"github.com/claude/liftmap/internal/setclass"
)

// Heatmap is the view model handed to body-map rendering. MaxVolume is never
// below 1 so color scaling never divides by zero.
type Heatmap struct {
	Mode      Mode               `json:"mode"`
	Volumes   map[string]float64 `json:"volumes"`
	MaxVolume float64            `json:"max_volume"`
}

// RowKind tags what a Row's key refers to.
type RowKind string

const (
	RowPart     RowKind = "part"
	RowGroup    RowKind = "group"
	RowHeadless RowKind = "headless"
)

// Row is one entry of a volume listing. Part rows carry the group they share
// their figure with, if any.
type Row struct {
	Kind  RowKind `json:"kind"`
	Key   string  `json:"key"`
	Group string  `json:"group,omitempty"`
	Sets  float64 `json:"sets"`
}

// View renders the breakdown keyed for the given mode.
func (b Breakdown) View(mode Mode) Heatmap {
	volumes := make(map[string]float64)
	switch mode {
	case ModeGroup:
		for g, v := range b.Groups {
			volumes[string(g)] = v
		}
		for p, v := range b.Parts {
			volumes[string(p)] = v
		}
	case ModeHeadless:
		volumes = HeadlessCollapse(b.PartVolumes(), b.model)
	default:
		mode = ModeMuscle
		for p, v := range b.PartVolumes() {
			volumes[string(p)] = v
		}
	}
	return Heatmap{Mode: mode, Volumes: volumes, MaxVolume: maxVolume(volumes)}
}

// Rows lists the view for the given mode sorted by volume, largest first.
func (b Breakdown) Rows(mode Mode) []Row {
	var rows []Row
	switch mode {
	case ModeGroup:
		for g, v := range b.Groups {
			rows = append(rows, Row{Kind: RowGroup, Key: string(g), Group: string(g), Sets: v})
		}
		for p, v := range b.Parts {
			rows = append(rows, Row{Kind: RowPart, Key: string(p), Sets: v})
		}
	case ModeHeadless:
		for id, v := range HeadlessCollapse(b.PartVolumes(), b.model) {
			rows = append(rows, Row{Kind: RowHeadless, Key: id, Sets: v})
		}
	default:
		for p, v := range b.PartVolumes() {
			row := Row{Kind: RowPart, Key: string(p), Sets: v}
			if g, ok := b.model.GroupFor(p); ok {
				row.Group = string(g)
			}
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Sets != rows[j].Sets {
			return rows[i].Sets > rows[j].Sets
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

// HeadlessCollapse merges parts that show the same physiological muscle into
// one identifier. Collapsing parts take the maximum, never the sum.
func HeadlessCollapse(volumes map[muscles.PartID]float64, m *muscles.Model) map[string]float64 {
	out := make(map[string]float64)
	for p, v := range volumes {
		id := m.HeadlessFor(p)
		if cur, ok := out[id]; !ok || v > cur {
			out[id] = v
		}
	}
	return out
}

// WeightTable returns the per-part contribution of a single bilateral working
// set of the exercise.
func WeightTable(m *muscles.Model, exercise string) Breakdown {
	b := newBreakdown(m)
	b.add(exercise, 1.0)
	return b
}

// ExerciseHeatmap scales the exercise's weight table by its working-set count
// within sets (unilateral sets count half).
func ExerciseHeatmap(sets []models.LoggedSet, m *muscles.Model, exercise string, mode Mode) Heatmap {
	key := muscles.Normalize(exercise)
	var count float64
	for _, s := range sets {
		if setclass.IsWorking(s) && muscles.Normalize(s.ExerciseName) == key {
			count += setclass.Increment(s)
		}
	}
	if count == 0 || m.AttributionFor(exercise).IsEmpty() {
		return newBreakdown(m).View(mode)
	}
	return WeightTable(m, exercise).Scale(count).View(mode)
}

func maxVolume(volumes map[string]float64) float64 {
	maxV := 1.0
	for _, v := range volumes {
		if v > maxV {
			maxV = v
		}
	}
	return maxV
}
