package value

import "time"

type TimeUnit int

const (
	Second TimeUnit = iota
	Millisecond
	Microsecond
	Nanosecond
)

func (u TimeUnit) String() string {
	switch u {
	case Second:
		return "s"
	case Millisecond:
		return "ms"
	case Microsecond:
		return "us"
	case Nanosecond:
		return "ns"
	default:
		return "unknown"
	}
}

// PerSecond returns the number of units in one second.
func (u TimeUnit) PerSecond() int64 {
	switch u {
	case Second:
		return 1
	case Millisecond:
		return 1_000
	case Microsecond:
		return 1_000_000
	default:
		return 1_000_000_000
	}
}

// TimestampOf expresses t in the given unit since the unix epoch.
func TimestampOf(t time.Time, unit TimeUnit) Timestamp {
	var v int64
	switch unit {
	case Second:
		v = t.Unix()
	case Millisecond:
		v = t.UnixMilli()
	case Microsecond:
		v = t.UnixMicro()
	default:
		v = t.UnixNano()
	}
	return Timestamp{Unit: unit, Value: v}
}

// TimeOfDay expresses the clock part of t in the given unit since midnight.
func TimeOfDay(t time.Time, unit TimeUnit) Time {
	ns := int64(t.Hour())*int64(time.Hour) +
		int64(t.Minute())*int64(time.Minute) +
		int64(t.Second())*int64(time.Second) +
		int64(t.Nanosecond())

	return Time{Unit: unit, Value: ns / (Nanosecond.PerSecond() / unit.PerSecond())}
}

// DateOf returns the number of days between the epoch and the calendar date of t.
func DateOf(t time.Time) Date32 {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Date32(midnight.Unix() / 86_400)
}
