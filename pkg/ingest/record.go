package ingest

import (
	"errors"
	"fmt"
	"time"

	"github.com/malbeclabs/videolake/pkg/timeutil"
	"github.com/tidwall/gjson"
)

var (
	videoCounters = []string{"views_count", "likes_count", "comments_count", "reports_count"}

	snapshotCounters = []string{
		"views_count", "likes_count", "comments_count", "reports_count",
		"delta_views_count", "delta_likes_count", "delta_comments_count", "delta_reports_count",
	}
)

// recordID returns the id of an export record, accepting strings and
// integral numbers.
func recordID(rec gjson.Result) (string, error) {
	if !rec.IsObject() {
		return "", errors.New("record is not an object")
	}
	id, ok, err := idValue(rec.Get("id"))
	if err != nil {
		return "", fmt.Errorf("id: %w", err)
	}
	if !ok {
		return "", errors.New("missing id")
	}
	return id, nil
}

// idValue reads an identifier field. Strings are taken as-is and numbers by
// their raw text. ok is false for an absent, null or empty value.
func idValue(v gjson.Result) (id string, ok bool, err error) {
	switch v.Type {
	case gjson.Null:
		return "", false, nil
	case gjson.String:
		return v.Str, v.Str != "", nil
	case gjson.Number:
		return v.Raw, true, nil
	default:
		return "", false, fmt.Errorf("not a string or number: %s", v.Raw)
	}
}

// counters reads integer fields. Absent and null fields become 0.
func counters(rec gjson.Result, fields []string) ([]int64, error) {
	out := make([]int64, len(fields))
	for i, field := range fields {
		v := rec.Get(field)
		switch v.Type {
		case gjson.Null:
		case gjson.Number:
			if v.Num != float64(int64(v.Num)) {
				return nil, fmt.Errorf("%s: not an integer: %s", field, v.Raw)
			}
			out[i] = v.Int()
		default:
			return nil, fmt.Errorf("%s: not a number: %s", field, v.Raw)
		}
	}
	return out, nil
}

// rawTimestamp converts a field into the input expected by the normalizer.
func rawTimestamp(rec gjson.Result, field string) any {
	v := rec.Get(field)
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.String:
		return v.Str
	default:
		return v.Value()
	}
}

// timestamps normalizes the named fields of one record and applies the
// policy to any defaulted value.
func (l *Loader) timestamps(rec gjson.Result, recordID string, fields []string, summary *Summary) ([]*time.Time, error) {
	out := make([]*time.Time, len(fields))
	for i, field := range fields {
		res := l.normalizer.Normalize(rawTimestamp(rec, field))
		if res.State == timeutil.Defaulted {
			summary.DefaultedTimestamps++
			DefaultedTimestampsTotal.WithLabelValues(field, l.cfg.Policy.String()).Inc()
			l.log.Warn("ingest: could not parse timestamp",
				"id", recordID, "field", field, "value", rec.Get(field).String(),
				"policy", l.cfg.Policy, "error", res.Reason)
			switch l.cfg.Policy {
			case PolicyNull:
				continue
			case PolicySkip:
				return nil, fmt.Errorf("%s: %w", field, res.Reason)
			}
		}
		out[i] = res.Value()
	}
	return out, nil
}
