// Package duration parses the compound "<N>d <N>h <N>m <N>s" durations that
// moderators type into sanction commands.
package duration

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Fallback is used when a non-empty input contains no recognized segment:
// "soon" mutes for five minutes.
const Fallback = 5 * time.Minute

// ErrOverflow is returned when the segments do not fit in a time.Duration
var ErrOverflow = errors.New("duration out of range")

var segmentRe = regexp.MustCompile(`(?i)^(\d+)([dhms])$`)

var units = map[byte]time.Duration{
	'd': 24 * time.Hour,
	'h': time.Hour,
	'm': time.Minute,
	's': time.Second,
}

// Parse resolves raw into a duration.
//
// An empty (or blank) input returns ok=false so the caller can apply its own
// default. Tokens that are not a number followed by d, h, m or s are ignored.
// When nothing is recognized, or the recognized segments sum to zero, Parse
// returns Fallback.
func Parse(raw string) (d time.Duration, ok bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false, nil
	}

	var total time.Duration
	for _, tok := range strings.Fields(raw) {
		m := segmentRe.FindStringSubmatch(tok)
		if m == nil {
			continue
		}
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, true, fmt.Errorf("%w: %q", ErrOverflow, tok)
		}
		unit := units[strings.ToLower(m[2])[0]]
		if n > int64(math.MaxInt64/unit) {
			return 0, true, fmt.Errorf("%w: %q", ErrOverflow, tok)
		}
		seg := time.Duration(n) * unit
		if total > math.MaxInt64-seg {
			return 0, true, fmt.Errorf("%w: %q", ErrOverflow, raw)
		}
		total += seg
	}

	if total == 0 {
		return Fallback, true, nil
	}
	return total, true, nil
}

// Format renders d the way moderators type it, e.g. "1d 2h". Zero renders as "0s".
func Format(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	d = d.Truncate(time.Second)
	var parts []string
	for _, u := range []struct {
		suffix string
		size   time.Duration
	}{{"d", 24 * time.Hour}, {"h", time.Hour}, {"m", time.Minute}, {"s", time.Second}} {
		if n := d / u.size; n > 0 {
			parts = append(parts, strconv.FormatInt(int64(n), 10)+u.suffix)
			d -= n * u.size
		}
	}
	return strings.Join(parts, " ")
}
