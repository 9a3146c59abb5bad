package alpha

import "github.com/claude/liftmap/internal/models"

// ToLoggedSets flattens parsed sessions into logged sets. Set indexes run
// across the whole session so every set has a unique position.
func ToLoggedSets(sessions []models.AlphaSession) []models.LoggedSet {
	var out []models.LoggedSet
	for _, s := range sessions {
		index := 0
		for _, ex := range s.Exercises {
			for _, set := range ex.Sets {
				out = append(out, models.LoggedSet{
					ExerciseName: ex.Name,
					Equipment:    ex.Equipment,
					WeightKg:     set.WeightKg,
					Reps:         set.Reps,
					SetIndex:     index,
					Date:         s.Date,
					EndTime:      s.End,
					SessionTitle: s.Name,
					Kind:         set.Kind,
					RIR:          set.RIR,
				})
				index++
			}
		}
	}
	return out
}
