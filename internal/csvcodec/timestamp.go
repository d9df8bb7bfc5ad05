package csvcodec

import (
	"strings"
	"time"
)

// TimestampLayout is the canonical ISO-8601 layout with zone offset and
// second precision.
const TimestampLayout = time.RFC3339

// DisplayLayout renders a timestamp for list output.
const DisplayLayout = "02/01 15:04"

// fallbackLayouts are tried in order after TimestampLayout. Layouts without
// an offset are interpreted in the codec location.
var fallbackLayouts = []struct {
	layout string
	local  bool
}{
	{"2006-01-02T15:04:05", true},
	{"2006-01-02T15:04", true},
	{"2006-01-02 15:04:05Z07:00", false},
	{"2006-01-02 15:04:05", true},
	{"02/01/2006 15:04:05", true},
	{"02/01/2006 15:04", true},
	{"02/01/2006", true},
	{"2006-01-02T15:04:05-0700", false},
	{"2006-01-02 15:04:05-0700", false},
}

// FormatTimestamp renders t with TimestampLayout in the codec location.
func (c *Codec) FormatTimestamp(t time.Time) string {
	return t.In(c.loc).Format(TimestampLayout)
}

// FormatDisplay renders t with DisplayLayout in the codec location.
func (c *Codec) FormatDisplay(t time.Time) string {
	return t.In(c.loc).Format(DisplayLayout)
}

// ParseTimestamp parses s with the canonical layout, then the fallback
// layouts, then as a zoned timestamp with a bracketed zone id such as
// "2025-03-01T10:00:00+01:00[Europe/Lisbon]". If nothing matches it returns
// the current time.
func (c *Codec) ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if t, ok := c.parseIn(s, c.loc); ok {
		return t
	}
	if t, ok := c.parseZoned(s); ok {
		return t
	}
	return c.now()
}

func (c *Codec) parseIn(s string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(TimestampLayout, s); err == nil {
		return t, true
	}
	for _, f := range fallbackLayouts {
		var (
			t   time.Time
			err error
		)
		if f.local {
			t, err = time.ParseInLocation(f.layout, s, loc)
		} else {
			t, err = time.Parse(f.layout, s)
		}
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (c *Codec) parseZoned(s string) (time.Time, bool) {
	open := strings.LastIndexByte(s, '[')
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return time.Time{}, false
	}
	zone, err := time.LoadLocation(s[open+1 : len(s)-1])
	if err != nil {
		return time.Time{}, false
	}
	t, ok := c.parseIn(s[:open], zone)
	if !ok {
		return time.Time{}, false
	}
	return t.In(zone), true
}
