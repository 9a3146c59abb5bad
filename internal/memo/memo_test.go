package memo

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/liftmap/internal/models"
)

type fakeTimer struct {
	now uint32
}

func (f *fakeTimer) Now() uint32 { return f.now }

func testCache(ttl time.Duration) (*Cache, *fakeTimer) {
	timer := &fakeTimer{now: 1_000}
	return newCache(1, ttl, timer, slog.New(slog.NewTextHandler(io.Discard, nil))), timer
}

type result struct {
	Volumes map[string]float64 `json:"volumes"`
	Max     float64            `json:"max"`
}

// TestComputesOnceWithinTTL verifies a second call with the same key and ref is served from cache.
func TestComputesOnceWithinTTL(t *testing.T) {
	c, timer := testCache(time.Minute)
	calls := 0
	compute := func() result {
		calls++
		return result{Volumes: map[string]float64{"chest": 3.5}, Max: 3.5}
	}

	first := GetOrCompute(c, "heatmap|muscle", Fingerprint(1), compute)
	timer.now += 30
	second := GetOrCompute(c, "heatmap|muscle", Fingerprint(1), compute)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Equal(t, Stats{Entries: 1, Hits: 1, Misses: 1}, c.Stats())
}

// TestDifferentRefRecomputes verifies a changed dataset fingerprint invalidates the entry.
func TestDifferentRefRecomputes(t *testing.T) {
	c, _ := testCache(time.Minute)
	calls := 0
	compute := func() int { calls++; return calls }

	assert.Equal(t, 1, GetOrCompute(c, "k", Fingerprint(1), compute))
	assert.Equal(t, 2, GetOrCompute(c, "k", Fingerprint(2), compute))
	assert.Equal(t, 2, GetOrCompute(c, "k", Fingerprint(2), compute))
	assert.Equal(t, 2, calls)
}

// TestExpiryRecomputes verifies entries past their TTL are recomputed.
func TestExpiryRecomputes(t *testing.T) {
	c, timer := testCache(10 * time.Second)
	calls := 0
	compute := func() int { calls++; return calls }

	GetOrCompute(c, "k", Fingerprint(7), compute)
	timer.now += 11
	GetOrCompute(c, "k", Fingerprint(7), compute)
	assert.Equal(t, 2, calls)

	GetOrCompute(c, "short", Fingerprint(7), compute, WithTTL(500*time.Millisecond))
	GetOrCompute(c, "short", Fingerprint(7), compute)
	assert.Equal(t, 3, calls, "sub-second ttl rounds up to one second")
	timer.now += 2
	GetOrCompute(c, "short", Fingerprint(7), compute)
	assert.Equal(t, 4, calls)
}

// TestClear verifies Clear forces recomputation.
func TestClear(t *testing.T) {
	c, _ := testCache(time.Minute)
	calls := 0
	compute := func() string { calls++; return "v" }

	GetOrCompute(c, "k", Fingerprint(1), compute)
	c.Clear()
	GetOrCompute(c, "k", Fingerprint(1), compute)
	assert.Equal(t, 2, calls)
}

// TestNilCacheAlwaysComputes verifies a nil cache is a pass-through.
func TestNilCacheAlwaysComputes(t *testing.T) {
	var c *Cache
	calls := 0
	for i := 0; i < 3; i++ {
		GetOrCompute(c, "k", Fingerprint(1), func() int { calls++; return calls })
	}
	assert.Equal(t, 3, calls)
	assert.Equal(t, Stats{}, c.Stats())
	c.Clear()
}

// TestLargeValueReturnedUncached verifies values too big for the arena are still returned.
func TestLargeValueReturnedUncached(t *testing.T) {
	c, _ := testCache(time.Minute)
	big := strings.Repeat("x", 4096)
	calls := 0
	compute := func() string { calls++; return big }

	assert.Equal(t, big, GetOrCompute(c, "big", Fingerprint(1), compute))
	assert.Equal(t, big, GetOrCompute(c, "big", Fingerprint(1), compute))
	assert.Equal(t, 2, calls)
}

// TestNilPointerRoundTrip verifies a cached nil pointer comes back nil.
func TestNilPointerRoundTrip(t *testing.T) {
	c, _ := testCache(time.Minute)
	calls := 0
	compute := func() *result { calls++; return nil }

	assert.Nil(t, GetOrCompute(c, "delta", Fingerprint(1), compute))
	assert.Nil(t, GetOrCompute(c, "delta", Fingerprint(1), compute))
	assert.Equal(t, 1, calls)
}

// TestFingerprintSetsIsContentBased verifies equal content hashes equal and any change differs.
func TestFingerprintSetsIsContentBased(t *testing.T) {
	d := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	build := func() []models.LoggedSet {
		d := d
		return []models.LoggedSet{
			{ExerciseName: "Bench Press", WeightKg: 60, Reps: 10, Date: &d, Kind: models.SetNormal},
			{ExerciseName: "Squat", WeightKg: 100, Reps: 5, Kind: models.SetWarmup},
		}
	}

	a, b := build(), build()
	require.NotSame(t, &a[0], &b[0])
	assert.Equal(t, FingerprintSets(a), FingerprintSets(b))

	b[1].Reps = 6
	assert.NotEqual(t, FingerprintSets(a), FingerprintSets(b))

	c := build()
	c[0], c[1] = c[1], c[0]
	assert.NotEqual(t, FingerprintSets(a), FingerprintSets(c))

	assert.Len(t, FingerprintSets(nil).String(), 16)
}

// TestKeyEncodesParameters verifies key parts are joined and normalised.
func TestKeyEncodesParameters(t *testing.T) {
	at := time.Date(2026, 2, 1, 10, 0, 0, 0, time.FixedZone("CET", 3600))
	got := Key("rate", at, []string{"lats", "chest"}, 7, Fingerprint(255))
	assert.Equal(t, "rate|2026-02-01T09:00:00Z|chest,lats|7|00000000000000ff", got)
	assert.Equal(t, Key("x", []string{"a", "b"}), Key("x", []string{"b", "a"}))
}
