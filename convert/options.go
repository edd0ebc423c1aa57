package convert

import "time"

// TimePrecision selects how timestamps and times become instants.
type TimePrecision int

const (
	// TimeFloat divides by the unit as a float64 number of seconds. Values
	// far from the epoch lose nanosecond precision past ~15 digits.
	TimeFloat TimePrecision = iota
	// TimeExact splits seconds and nanoseconds with integer arithmetic.
	TimeExact
)

const DefaultMaxDepth = 128

type config struct {
	maxDepth  int
	unionTags bool
	precision TimePrecision
	location  *time.Location
}

type Option func(*config)

// WithMaxDepth bounds how deeply nested containers may be.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithUnionTags makes union values convert to host.Tagged instead of just the
// member value.
func WithUnionTags(expose bool) Option {
	return func(c *config) {
		c.unionTags = expose
	}
}

func WithTimePrecision(p TimePrecision) Option {
	return func(c *config) {
		c.precision = p
	}
}

// WithLocation sets the location of produced instants. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(c *config) {
		if loc != nil {
			c.location = loc
		}
	}
}
