package ingest

import "fmt"

// TimestampPolicy decides what happens to a timestamp that could not be
// parsed.
type TimestampPolicy string

const (
	// PolicyNow stores the current UTC time in place of the bad value.
	PolicyNow TimestampPolicy = "now"
	// PolicyNull stores NULL.
	PolicyNull TimestampPolicy = "null"
	// PolicySkip fails the whole record.
	PolicySkip TimestampPolicy = "skip"
)

func ParseTimestampPolicy(s string) (TimestampPolicy, error) {
	switch p := TimestampPolicy(s); p {
	case PolicyNow, PolicyNull, PolicySkip:
		return p, nil
	case "":
		return PolicyNow, nil
	default:
		return "", fmt.Errorf("invalid timestamp policy %q (want now, null or skip)", s)
	}
}

func (p TimestampPolicy) String() string { return string(p) }

// Set and Type let the policy be bound directly as a pflag value.
func (p *TimestampPolicy) Set(s string) error {
	v, err := ParseTimestampPolicy(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p *TimestampPolicy) Type() string { return "policy" }
