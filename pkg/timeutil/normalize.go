// Package timeutil turns the loosely formatted timestamps found in exports
// into UTC wall-clock values suitable for TIMESTAMP columns.
package timeutil

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
)

type State int

const (
	// Absent means there was nothing to store; the column gets NULL.
	Absent State = iota
	Parsed
	// Defaulted means the input could not be parsed and Time holds the
	// current UTC time instead.
	Defaulted
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case Parsed:
		return "parsed"
	case Defaulted:
		return "defaulted"
	default:
		return "unknown"
	}
}

type Result struct {
	State  State
	Time   time.Time
	Reason error
}

// Value returns the time to bind as a query argument, or nil for Absent.
func (r Result) Value() *time.Time {
	if r.State == Absent {
		return nil
	}
	t := r.Time
	return &t
}

var fractionRe = regexp.MustCompile(`\.\d+`)

var layouts = []string{
	"2006-01-02T15:04:05-07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05-07",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04-07:00",
	"2006-01-02T15:04-0700",
	"2006-01-02T15:04",
	"2006-01-02T15",
	"2006-01-02",
}

type Normalizer struct {
	clock clockwork.Clock
}

func NewNormalizer(clock clockwork.Clock) *Normalizer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Normalizer{clock: clock}
}

// Normalize never fails: unparseable strings come back Defaulted with the
// parse error as Reason.
func (n *Normalizer) Normalize(v any) Result {
	switch t := v.(type) {
	case nil:
		return Result{State: Absent}
	case time.Time:
		return Result{State: Parsed, Time: t.UTC()}
	case *time.Time:
		if t == nil {
			return Result{State: Absent}
		}
		return Result{State: Parsed, Time: t.UTC()}
	case string:
		parsed, err := ParseISO(t)
		if err != nil {
			return Result{State: Defaulted, Time: n.clock.Now().UTC().Truncate(time.Microsecond), Reason: err}
		}
		return Result{State: Parsed, Time: parsed}
	default:
		return Result{State: Absent}
	}
}

// ParseISO parses an ISO-8601 date or date-time after dropping fractional
// seconds. A trailing Z is read as +00:00 and any offset is folded into UTC.
func ParseISO(s string) (time.Time, error) {
	raw := s
	s = fractionRe.ReplaceAllString(s, "")
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "+00:00"
	}
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + s[11:]
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid isoformat string: %q", raw)
}
