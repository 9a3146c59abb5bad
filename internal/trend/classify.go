package trend

import (
	"fmt"
	"math"
	"strconv"

	"github.com/claude/liftmap/internal/models"
	"github.com/claude/liftmap/internal/muscles"
)

// Mode selects how many recent sessions the classifier weighs.
type Mode string

const (
	ModeStable   Mode = "stable"
	ModeReactive Mode = "reactive"
)

// ParseMode accepts stable or reactive; empty defaults to stable.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeStable:
		return ModeStable, nil
	case ModeReactive:
		return ModeReactive, nil
	}
	return "", fmt.Errorf("unknown trend mode %q", s)
}

// Config holds the classifier thresholds.
type Config struct {
	MinSessions       int     `yaml:"min_sessions"`
	PlateauWindow     int     `yaml:"plateau_window"`
	PlateauRepBand    int     `yaml:"plateau_rep_band"`
	NoiseThresholdPct float64 `yaml:"noise_threshold_pct"`
	StableWindow      int     `yaml:"stable_window"`
	ReactiveWindow    int     `yaml:"reactive_window"`
}

// DefaultConfig returns the thresholds the classifier has always used.
func DefaultConfig() Config {
	return Config{
		MinSessions:       4,
		PlateauWindow:     6,
		PlateauRepBand:    2,
		NoiseThresholdPct: 2,
		StableWindow:      4,
		ReactiveWindow:    2,
	}
}

// withDefaults fills unset thresholds from DefaultConfig. A zero rep band is a
// valid setting, so the band is only defaulted for a zero Config.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c == (Config{}) {
		return d
	}
	if c.MinSessions <= 0 {
		c.MinSessions = d.MinSessions
	}
	if c.PlateauWindow <= 0 {
		c.PlateauWindow = d.PlateauWindow
	}
	if c.PlateauRepBand < 0 {
		c.PlateauRepBand = d.PlateauRepBand
	}
	if c.NoiseThresholdPct <= 0 {
		c.NoiseThresholdPct = d.NoiseThresholdPct
	}
	if c.StableWindow <= 0 {
		c.StableWindow = d.StableWindow
	}
	if c.ReactiveWindow <= 0 {
		c.ReactiveWindow = d.ReactiveWindow
	}
	return c
}

func (c Config) window(mode Mode) int {
	if mode == ModeReactive {
		return c.ReactiveWindow
	}
	return c.StableWindow
}

// Classify labels an exercise's oldest-first session history.
func Classify(history []models.HistoryEntry, isBodyweight bool, cfg Config, mode Mode) models.TrendResult {
	cfg = cfg.withDefaults()
	n := len(history)
	res := models.TrendResult{
		SessionCount: n,
		PrematurePR:  prematurePR(history),
		IsBodyweight: isBodyweight || allUnloaded(history),
	}

	if n < cfg.MinSessions {
		res.Status = models.TrendNew
		res.Confidence = models.ConfidenceLow
		res.Evidence = []string{
			"sessions=" + strconv.Itoa(n),
			"min_sessions=" + strconv.Itoa(cfg.MinSessions),
			"sessions_until_trend=" + strconv.Itoa(cfg.MinSessions-n),
		}
		return withPrematureEvidence(res)
	}

	metric := "e1rm"
	value := func(h models.HistoryEntry) float64 { return h.OneRepMax }
	if res.IsBodyweight {
		metric = "reps"
		value = func(h models.HistoryEntry) float64 { return float64(h.Reps) }
	}

	window := cfg.window(mode)
	recentN := max(1, min(window, n/2))
	recentAvg := mean(history[n-recentN:], value)
	baselineAvg := mean(history[n-2*recentN:n-recentN], value)
	if baselineAvg > 0 {
		res.DiffPct = round1((recentAvg - baselineAvg) / baselineAvg * 100)
	}

	res.Evidence = []string{
		"sessions=" + strconv.Itoa(n),
		"metric=" + metric,
		"recent_window=" + strconv.Itoa(recentN),
		"baseline_window=" + strconv.Itoa(recentN),
		"recent_avg=" + formatFloat(recentAvg),
		"baseline_avg=" + formatFloat(baselineAvg),
		"diff_pct=" + formatFloat(res.DiffPct),
	}

	switch p := detectPlateau(history, cfg); {
	case p != nil:
		res.Status = models.TrendStagnant
		res.Plateau = p
		res.Evidence = append(res.Evidence,
			"plateau_weight="+formatFloat(p.WeightKg),
			fmt.Sprintf("plateau_reps=%d-%d", p.MinReps, p.MaxReps),
			"plateau_sessions="+strconv.Itoa(p.SessionsAtPlateau),
		)
	case math.Abs(res.DiffPct) < cfg.NoiseThresholdPct:
		res.Status = models.TrendStagnant
		res.Evidence = append(res.Evidence, "noise_threshold_pct="+formatFloat(cfg.NoiseThresholdPct))
	case res.DiffPct > 0:
		res.Status = models.TrendOverload
	default:
		res.Status = models.TrendRegression
	}

	res.Confidence = confidence(n, recentN, window, cfg.MinSessions)
	return withPrematureEvidence(res)
}

// ClassifyAll classifies every exercise in sets, keyed by the exercise name as
// first logged.
func ClassifyAll(sets []models.LoggedSet, m *muscles.Model, cfg Config, mode Mode) map[string]models.TrendResult {
	names := make(map[string]string)
	for _, s := range sets {
		key := muscles.Normalize(s.ExerciseName)
		if key == "" {
			continue
		}
		if _, ok := names[key]; !ok {
			names[key] = s.ExerciseName
		}
	}

	out := make(map[string]models.TrendResult, len(names))
	for _, name := range names {
		history := BuildHistory(sets, name)
		if len(history) == 0 {
			continue
		}
		res := Classify(history, m.IsBodyweight(name), cfg, mode)
		res.Exercise = name
		out[name] = res
	}
	return out
}

// detectPlateau looks for a static weight with reps inside the rep band across
// the last PlateauWindow sessions.
func detectPlateau(history []models.HistoryEntry, cfg Config) *models.Plateau {
	n := len(history)
	recent := history[n-min(cfg.PlateauWindow, n):]
	weight := recent[0].WeightKg
	lo, hi := recent[0].Reps, recent[0].Reps
	for _, h := range recent {
		if h.WeightKg != weight {
			return nil
		}
		lo, hi = min(lo, h.Reps), max(hi, h.Reps)
	}
	if hi-lo > cfg.PlateauRepBand {
		return nil
	}

	// Count back from the newest session while the pattern holds.
	count := 0
	bandLo, bandHi := history[n-1].Reps, history[n-1].Reps
	for i := n - 1; i >= 0; i-- {
		h := history[i]
		l, u := min(bandLo, h.Reps), max(bandHi, h.Reps)
		if h.WeightKg != weight || u-l > cfg.PlateauRepBand {
			break
		}
		bandLo, bandHi = l, u
		count++
	}
	return &models.Plateau{WeightKg: weight, MinReps: lo, MaxReps: hi, SessionsAtPlateau: count}
}

func confidence(n, recentN, window, minSessions int) models.Confidence {
	switch {
	case n < 2*minSessions || recentN < window:
		return models.ConfidenceLow
	case n >= 3*minSessions:
		return models.ConfidenceHigh
	default:
		return models.ConfidenceMedium
	}
}

// prematurePR reports a PR on the first or second session, where there is too
// little history to call it progress.
func prematurePR(history []models.HistoryEntry) bool {
	for i := 0; i < len(history) && i < 2; i++ {
		if history[i].IsPR {
			return true
		}
	}
	return false
}

func withPrematureEvidence(res models.TrendResult) models.TrendResult {
	if res.PrematurePR {
		res.Evidence = append(res.Evidence, "premature_pr=true")
	}
	return res
}

func allUnloaded(history []models.HistoryEntry) bool {
	for _, h := range history {
		if h.WeightKg > 0 {
			return false
		}
	}
	return len(history) > 0
}

func mean(entries []models.HistoryEntry, value func(models.HistoryEntry) float64) float64 {
	if len(entries) == 0 {
		return 0
	}
	var sum float64
	for _, e := range entries {
		sum += value(e)
	}
	return sum / float64(len(entries))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
