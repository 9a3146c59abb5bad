package volume

import "github.com/claude/liftmap/internal/muscles"

// Sum totals the breakdown over a selection of identifiers interpreted in the
// given mode: part ids for ModeMuscle, group names or standalone part ids for
// ModeGroup, headless ids for ModeHeadless. An empty selection means all.
//
// Selections resolve to groups and standalone parts before summing, so picking
// several parts of one group counts that group once.
func (b Breakdown) Sum(mode Mode, selection []string) float64 {
	if len(selection) == 0 {
		return b.Total()
	}

	groups := make(map[muscles.Group]bool)
	parts := make(map[muscles.PartID]bool)
	addPart := func(p muscles.PartID) {
		if g, ok := b.model.GroupFor(p); ok {
			groups[g] = true
		} else {
			parts[p] = true
		}
	}

	for _, key := range selection {
		switch mode {
		case ModeGroup:
			if len(b.model.PartsInGroup(muscles.Group(key))) > 0 {
				groups[muscles.Group(key)] = true
			} else {
				parts[muscles.PartID(key)] = true
			}
		case ModeHeadless:
			for _, p := range b.model.Parts() {
				if b.model.HeadlessFor(p) == key {
					addPart(p)
				}
			}
		default:
			addPart(muscles.PartID(key))
		}
	}

	var total float64
	for g := range groups {
		total += b.Groups[g]
	}
	for p := range parts {
		total += b.Parts[p]
	}
	return total
}
