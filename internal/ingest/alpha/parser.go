package alpha

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftmap/internal/models"
)

// Line shapes of an export. A blank line ends a session.
var (
	// "Session Name";"2026-02-19 4:54 h";"1:02 hr"
	sessionLine = regexp.MustCompile(`^"(.+)";"(\d{4}-\d{2}-\d{2}\s+\d+:\d+)\s+h";"(.+)"$`)

	// "1. Exercise Name · Equipment · 8 reps[ · modifiers]"[;"warm-ups"]
	exerciseLine = regexp.MustCompile(`^"(\d+)\.\s+(.+?)(?:\s+·\s+(\S.*?))?\s+·\s+(\d+)\s+reps(.*?)"(?:;"(.+)")?$`)

	// 1;115;8;1
	setLine = regexp.MustCompile(`^(\d+);(.+);(\d+);(.+)$`)

	columnsLine = regexp.MustCompile(`^#;KG;REPS;RIR$`)

	// WU1 · 37,5 kg · 9 reps
	warmupField = regexp.MustCompile(`WU(\d+)\s+·\s+(.+?)\s+kg\s+·\s+(\d+)\s+reps`)

	// · 2 dropsets
	dropsetsModifier = regexp.MustCompile(`(\d+)\s+dropsets?`)

	hoursDuration   = regexp.MustCompile(`^(\d+):(\d{2})\s*hrs?$`)
	minutesDuration = regexp.MustCompile(`^(\d+)\s*min$`)
)

// parser accumulates sessions line by line. Sets are classified as they are
// read: warm-ups from the header field, dropsets when their exercise closes.
type parser struct {
	sessions []models.AlphaSession
	session  *models.AlphaSession
	exercise *models.AlphaExercise
	line     int
}

// Parse reads an Alpha Progression CSV export. Lines it does not recognise,
// such as notes, are ignored. An unparseable session date leaves that session
// undated instead of failing the export.
func Parse(r io.Reader) ([]models.AlphaSession, error) {
	p := &parser{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.line++
		if err := p.feed(strings.TrimSpace(scanner.Text())); err != nil {
			return nil, fmt.Errorf("line %d: %w", p.line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading export: %w", err)
	}
	p.closeSession()
	return p.sessions, nil
}

func (p *parser) feed(line string) error {
	if line == "" {
		p.closeSession()
		return nil
	}
	if columnsLine.MatchString(line) {
		return nil
	}
	if m := sessionLine.FindStringSubmatch(line); m != nil {
		p.openSession(m[1], m[2], m[3])
		return nil
	}
	if m := exerciseLine.FindStringSubmatch(line); m != nil {
		if p.session == nil {
			return fmt.Errorf("exercise without session: %q", line)
		}
		p.openExercise(m)
		return nil
	}
	if m := setLine.FindStringSubmatch(line); m != nil {
		if p.exercise == nil {
			return fmt.Errorf("set data without exercise: %q", line)
		}
		weight, bw := parseWeight(m[2])
		p.exercise.Sets = append(p.exercise.Sets, models.AlphaSet{
			Number:           atoi(m[1]),
			WeightKg:         weight,
			IsBodyweightPlus: bw,
			Reps:             atoi(m[3]),
			RIR:              parseEuropeanFloat(m[4]),
			Kind:             models.SetNormal,
		})
	}
	return nil
}

func (p *parser) openSession(name, date, duration string) {
	p.closeSession()
	p.session = &models.AlphaSession{Name: name, Duration: duration}
	if d, err := parseSessionDate(date); err == nil {
		p.session.Date = &d
	}
}

// openExercise starts an exercise from a header match: number, name,
// equipment, target reps, modifiers and the warm-up field.
func (p *parser) openExercise(m []string) {
	p.closeExercise()
	p.exercise = &models.AlphaExercise{
		Number:     atoi(m[1]),
		Name:       strings.TrimSpace(m[2]),
		Equipment:  strings.TrimSpace(m[3]),
		TargetReps: atoi(m[4]),
	}
	if d := dropsetsModifier.FindStringSubmatch(m[5]); d != nil {
		p.exercise.Dropsets = atoi(d[1])
	}
	if m[6] != "" {
		p.exercise.Sets = parseWarmups(m[6])
	}
}

// closeExercise marks the last Dropsets working sets as dropsets and attaches
// the exercise to its session.
func (p *parser) closeExercise() {
	if p.exercise == nil {
		return
	}
	left := p.exercise.Dropsets
	for i := len(p.exercise.Sets) - 1; i >= 0 && left > 0; i-- {
		if s := &p.exercise.Sets[i]; s.Kind == models.SetNormal {
			s.Kind = models.SetDropset
			left--
		}
	}
	p.session.Exercises = append(p.session.Exercises, *p.exercise)
	p.exercise = nil
}

func (p *parser) closeSession() {
	if p.session == nil {
		return
	}
	p.closeExercise()
	if d, ok := parseDuration(p.session.Duration); ok && p.session.Date != nil {
		end := p.session.Date.Add(d)
		p.session.End = &end
	}
	p.sessions = append(p.sessions, *p.session)
	p.session = nil
}

// parseSessionDate accepts "2026-02-19 4:54" and "2026-02-19 16:54".
func parseSessionDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 3:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse date %q", s)
}

// parseDuration parses "1:02 hr" or "48 min".
func parseDuration(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if m := hoursDuration.FindStringSubmatch(s); m != nil {
		return time.Duration(atoi(m[1]))*time.Hour + time.Duration(atoi(m[2]))*time.Minute, true
	}
	if m := minutesDuration.FindStringSubmatch(s); m != nil {
		return time.Duration(atoi(m[1])) * time.Minute, true
	}
	return 0, false
}

// parseWarmups reads the warm-up field, entries separated by <br>:
// "WU1 · 37,5 kg · 9 reps<br>WU2 · 72,5 kg · 7 reps".
func parseWarmups(s string) []models.AlphaSet {
	var sets []models.AlphaSet
	for _, part := range strings.Split(s, "<br>") {
		m := warmupField.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		weight, bw := parseWeight(m[2])
		sets = append(sets, models.AlphaSet{
			Number:           atoi(m[1]),
			WeightKg:         weight,
			IsBodyweightPlus: bw,
			Reps:             atoi(m[3]),
			Kind:             models.SetWarmup,
		})
	}
	return sets
}

// parseWeight reads European decimals and bodyweight-plus notation:
// "+35" is (35, true), "102,5" is (102.5, false).
func parseWeight(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "+"); ok {
		return parseEuropeanFloat(rest), true
	}
	return parseEuropeanFloat(s), false
}

// parseEuropeanFloat reads a comma decimal; malformed input is 0.
func parseEuropeanFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	return f
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
