package muscles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureYAML = `
groups:
  - name: Shoulders
    parts: [front-delts, rear-delts]
standalone: [forearms]
muscles:
  Shoulders: [front-delts, rear-delts]
  Forearms: [forearms]
headless:
  front-delts: deltoids
  rear-delts: deltoids
exercises:
  - name: Overhead Press
    aliases: [OHP]
    primary: [Shoulders]
    secondary: [Forearms]
  - name: Dead Hang
    primary: [Forearms]
    bodyweight: true
`

// TestDefaultModelLoads verifies the embedded table parses and is internally consistent.
func TestDefaultModelLoads(t *testing.T) {
	m, err := Default()
	require.NoError(t, err)
	assert.NotEmpty(t, m.Groups())
	for _, g := range m.Groups() {
		for _, p := range m.PartsInGroup(g) {
			got, ok := m.GroupFor(p)
			require.True(t, ok, "part %s", p)
			assert.Equal(t, g, got)
		}
	}
	attr := m.AttributionFor("Bench Press (Barbell)")
	assert.Equal(t, []string{"Chest"}, attr.Primary)
	assert.True(t, m.IsBodyweight("Pull Up"))
}

// TestAttributionLookupNormalizes verifies case- and whitespace-insensitive lookup
// including aliases.
func TestAttributionLookupNormalizes(t *testing.T) {
	m, err := Load(strings.NewReader(fixtureYAML))
	require.NoError(t, err)

	for _, name := range []string{"Overhead Press", "  overhead   PRESS ", "ohp"} {
		attr := m.AttributionFor(name)
		assert.Equal(t, []string{"Shoulders"}, attr.Primary, name)
		assert.Equal(t, []string{"Forearms"}, attr.Secondary, name)
	}
}

// TestUnknownExerciseIsEmpty verifies a lookup miss yields an empty attribution, not an error.
func TestUnknownExerciseIsEmpty(t *testing.T) {
	m, err := Load(strings.NewReader(fixtureYAML))
	require.NoError(t, err)
	assert.True(t, m.AttributionFor("Underwater Basket Weaving").IsEmpty())
	assert.Empty(t, m.PartsFor("Spleen"))
}

// TestGroupAndHeadlessLookup verifies part to group and headless resolution.
func TestGroupAndHeadlessLookup(t *testing.T) {
	m, err := Load(strings.NewReader(fixtureYAML))
	require.NoError(t, err)

	g, ok := m.GroupFor("front-delts")
	require.True(t, ok)
	assert.Equal(t, Group("Shoulders"), g)

	_, ok = m.GroupFor("forearms")
	assert.False(t, ok)

	assert.Equal(t, "deltoids", m.HeadlessFor("rear-delts"))
	assert.Equal(t, "forearms", m.HeadlessFor("forearms"))
	assert.True(t, m.IsBodyweight("dead hang"))
}

// TestLoadRejectsInconsistentData verifies validation of part declarations.
func TestLoadRejectsInconsistentData(t *testing.T) {
	tests := map[string]string{
		"undeclared part": `
standalone: [forearms]
muscles:
  Biceps: [biceps-left]
`,
		"part in two groups": `
groups:
  - name: A
    parts: [x]
  - name: B
    parts: [x]
`,
		"grouped standalone": `
groups:
  - name: A
    parts: [x]
standalone: [x]
`,
		"empty group": `
groups:
  - name: A
`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(data))
			assert.Error(t, err)
		})
	}
}

// TestMuscleTokens verifies Cardio/None filtering and the Full Body sentinel.
func TestMuscleTokens(t *testing.T) {
	assert.False(t, IsMuscleToken("Cardio"))
	assert.False(t, IsMuscleToken("none"))
	assert.False(t, IsMuscleToken(""))
	assert.True(t, IsMuscleToken("Chest"))
	assert.True(t, IsFullBody("full  body"))
	assert.False(t, IsFullBody("Chest"))
}
