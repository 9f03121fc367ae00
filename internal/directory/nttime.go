package directory

import (
	"strconv"
	"time"
)

// Active Directory interval timestamps count 100-nanosecond ticks since
// January 1, 1601 (UTC).
const (
	// ntEpochOffset is the tick count between 1601 and the Unix epoch.
	ntEpochOffset int64 = 116444736000000000

	// AccountNeverExpires is the accountExpires value meaning "no expiry",
	// alongside the plain zero the filter builder also accepts.
	AccountNeverExpires int64 = 0x7FFFFFFFFFFFFFFF
)

// ToNTTime converts a time to Active Directory interval ticks.
func ToNTTime(t time.Time) int64 {
	return t.UTC().UnixNano()/100 + ntEpochOffset
}

// FromNTTime converts interval ticks back to a time. Zero and the
// never-expires sentinel report a zero time.
func FromNTTime(ticks int64) time.Time {
	if ticks <= 0 || ticks == AccountNeverExpires {
		return time.Time{}
	}
	return time.Unix(0, (ticks-ntEpochOffset)*100).UTC()
}

// ParseNTTime parses the decimal string form the directory returns.
func ParseNTTime(s string) (time.Time, error) {
	ticks, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return FromNTTime(ticks), nil
}
