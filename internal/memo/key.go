package memo

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/claude/liftmap/internal/models"
)

// Fingerprint identifies the content of an input dataset. Two slices holding
// the same sets in the same order share a fingerprint.
type Fingerprint uint64

// String renders the fingerprint as fixed-width hex.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", uint64(f))
}

// FingerprintSets hashes every field of every set, in order.
func FingerprintSets(sets []models.LoggedSet) Fingerprint {
	d := xxhash.New()
	buf := make([]byte, 0, 256)
	for _, s := range sets {
		buf = buf[:0]
		buf = append(buf, s.ExerciseName...)
		buf = append(buf, 0x1f)
		buf = append(buf, s.Equipment...)
		buf = append(buf, 0x1f)
		buf = strconv.AppendUint(buf, math.Float64bits(s.WeightKg), 16)
		buf = append(buf, 0x1f)
		buf = strconv.AppendInt(buf, int64(s.Reps), 10)
		buf = append(buf, 0x1f)
		buf = strconv.AppendInt(buf, int64(s.SetIndex), 10)
		buf = append(buf, 0x1f)
		buf = appendTime(buf, s.Date)
		buf = append(buf, 0x1f)
		buf = appendTime(buf, s.EndTime)
		buf = append(buf, 0x1f)
		buf = append(buf, s.SessionTitle...)
		buf = append(buf, 0x1f)
		buf = append(buf, s.SessionID...)
		buf = append(buf, 0x1f)
		buf = strconv.AppendBool(buf, s.IsPR)
		buf = append(buf, 0x1f)
		buf = append(buf, s.Kind...)
		buf = append(buf, 0x1f)
		buf = strconv.AppendUint(buf, math.Float64bits(s.RIR), 16)
		buf = append(buf, 0x1e)
		_, _ = d.Write(buf)
	}
	return Fingerprint(d.Sum64())
}

func appendTime(buf []byte, t *time.Time) []byte {
	if t == nil {
		return append(buf, '-')
	}
	return strconv.AppendInt(buf, t.UnixNano(), 10)
}

// Key joins every parameter that affects a result into a cache key. Times are
// encoded at nanosecond precision in UTC and string slices are sorted, so
// selections listed in a different order share an entry.
func Key(parts ...any) string {
	out := make([]string, len(parts))
	for i, p := range parts {
		switch v := p.(type) {
		case time.Time:
			out[i] = v.UTC().Format(time.RFC3339Nano)
		case []string:
			sorted := slices.Clone(v)
			slices.Sort(sorted)
			out[i] = strings.Join(sorted, ",")
		case fmt.Stringer:
			out[i] = v.String()
		default:
			out[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(out, "|")
}
