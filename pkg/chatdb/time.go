package chatdb

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// AppleEpochOffset is the number of seconds between the Unix epoch and
// 2001-01-01T00:00:00Z, the reference point of the store's date columns.
const AppleEpochOffset int64 = 978307200

var ErrTimestampOutOfRange = errors.New("chatdb: timestamp out of range")

// Time converts a raw store timestamp (nanoseconds since 2001-01-01 UTC) to
// a UTC time with one-second resolution.
func Time(raw int64) (time.Time, error) {
	seconds := raw / int64(time.Second)
	if seconds > math.MaxInt64-AppleEpochOffset {
		return time.Time{}, errors.Wrapf(ErrTimestampOutOfRange, "raw value %d", raw)
	}
	t := time.Unix(seconds+AppleEpochOffset, 0).UTC()
	if y := t.Year(); y < 0 || y > 9999 {
		return time.Time{}, errors.Wrapf(ErrTimestampOutOfRange, "raw value %d", raw)
	}
	return t, nil
}

// MustTime is like Time but panics on out-of-range input.
func MustTime(raw int64) time.Time {
	t, err := Time(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// RawTime is the inverse of Time, used to build fixtures.
func RawTime(t time.Time) int64 {
	return (t.Unix() - AppleEpochOffset) * int64(time.Second)
}
