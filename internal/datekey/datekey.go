// Package datekey implements the canonical local calendar date used to record
// practice days. A Key is the string YYYY-MM-DD built from local calendar
// fields; fixed-width zero padding makes lexicographic order equal
// chronological order, so keys can be compared and sorted as plain strings.
package datekey

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"
)

// Layout is the time layout of a Key.
const Layout = "2006-01-02"

// ErrInvalid is wrapped by every error returned for a malformed key.
var ErrInvalid = errors.New("invalid date key")

// Key is a calendar date with no time of day or zone. The zero value is the
// empty key and never appears in a normalized list.
type Key string

// Parse validates s and returns it as a Key. s must be exactly YYYY-MM-DD and
// name a real calendar date.
func Parse(s string) (Key, error) {
	if len(s) != len(Layout) || s[4] != '-' || s[7] != '-' {
		return "", fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalid, s)
	}
	for i := 0; i < len(s); i++ {
		if i == 4 || i == 7 {
			continue
		}
		if s[i] < '0' || s[i] > '9' {
			return "", fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalid, s)
		}
	}
	y, m, d := split(s)
	if y == 0 || m < 1 || m > 12 || d < 1 {
		return "", fmt.Errorf("%w: %q is out of range", ErrInvalid, s)
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return "", fmt.Errorf("%w: %q is not a calendar date", ErrInvalid, s)
	}
	return Key(s), nil
}

// MustParse is like Parse but panics on malformed input.
func MustParse(s string) Key {
	k, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return k
}

// FromTime returns the key of t's calendar day in t's own location. Callers
// pass a wall-clock time in the user's zone; t is never converted to UTC.
func FromTime(t time.Time) Key {
	y, m, d := t.Date()
	return Key(fmt.Sprintf("%04d-%02d-%02d", y, int(m), d))
}

// Today returns the key of now in loc. A nil loc means time.Local.
func Today(now time.Time, loc *time.Location) Key {
	if loc == nil {
		loc = time.Local
	}
	return FromTime(now.In(loc))
}

// Time returns local midnight of k in loc. A nil loc means time.Local.
// FromTime(k.Time(loc)) == k for every valid key.
func (k Key) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := split(string(k))
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
}

// AddDays moves k by delta whole calendar days. Arithmetic runs on a UTC noon
// so daylight saving transitions can never skip or repeat a day.
func (k Key) AddDays(delta int) Key {
	y, m, d := split(string(k))
	return FromTime(time.Date(y, time.Month(m), d+delta, 12, 0, 0, 0, time.UTC))
}

// Weekday returns the day of the week of k.
func (k Key) Weekday() time.Weekday {
	return k.Time(time.UTC).Weekday()
}

// Day returns the day of month.
func (k Key) Day() int {
	_, _, d := split(string(k))
	return d
}

// Month returns the month of year.
func (k Key) Month() time.Month {
	_, m, _ := split(string(k))
	return time.Month(m)
}

func (k Key) String() string { return string(k) }

// IsZero reports whether k is the empty key.
func (k Key) IsZero() bool { return k == "" }

// Before reports whether k is strictly earlier than other.
func (k Key) Before(other Key) bool { return k < other }

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k), nil
}

// UnmarshalText implements encoding.TextUnmarshaler and validates the input,
// so decoding JSON into a Key or []Key rejects malformed dates.
func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// UniqueSorted drops empty keys, removes duplicates and sorts ascending.
// Every mutation of a practice log goes through here.
func UniqueSorted(keys []Key) []Key {
	out := make([]Key, 0, len(keys))
	seen := make(map[Key]struct{}, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// ParseAll validates every entry of raw and returns the normalized list. The
// first malformed entry fails the whole batch.
func ParseAll(raw []string) ([]Key, error) {
	keys := make([]Key, 0, len(raw))
	for i, s := range raw {
		k, err := Parse(s)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		keys = append(keys, k)
	}
	return UniqueSorted(keys), nil
}

// Lenient keeps the well-formed entries of raw and reports how many were
// dropped. It is only meant for data read back from storage.
func Lenient(raw []string) (keys []Key, dropped int) {
	keys = make([]Key, 0, len(raw))
	for _, s := range raw {
		k, err := Parse(s)
		if err != nil {
			dropped++
			continue
		}
		keys = append(keys, k)
	}
	return UniqueSorted(keys), dropped
}

// Strings converts keys to plain strings.
func Strings(keys []Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}

func split(s string) (y, m, d int) {
	if len(s) != len(Layout) {
		return 0, 0, 0
	}
	y, _ = strconv.Atoi(s[0:4])
	m, _ = strconv.Atoi(s[5:7])
	d, _ = strconv.Atoi(s[8:10])
	return y, m, d
}
