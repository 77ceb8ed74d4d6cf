package linecount

import (
	"strconv"
	"strings"
)

// Count is a number of lines, or Unavailable when the tool did not report it.
type Count int

// Unavailable marks a line count that was never computed.
const Unavailable Count = -1

// ParseCount reads a CSV cell; empty and "-" cells are Unavailable.
func ParseCount(s string) Count {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return Unavailable
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return Unavailable
	}
	return Count(n)
}

// Available reports whether the count was computed.
func (c Count) Available() bool {
	return c >= 0
}

func (c Count) String() string {
	if c < 0 {
		return "-"
	}
	return strconv.Itoa(int(c))
}

// MarshalText renders Unavailable as "-".
func (c Count) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (c *Count) UnmarshalText(b []byte) error {
	*c = ParseCount(string(b))
	return nil
}

// Delta holds per-category line changes between two refs.
type Delta struct {
	Same     Count `json:"same"`
	Modified Count `json:"modified"`
	Added    Count `json:"added"`
	Removed  Count `json:"removed"`
}

// Stats groups the deltas for blank, comment and code lines.
type Stats struct {
	Blank   Delta `json:"blank"`
	Comment Delta `json:"comment"`
	Code    Delta `json:"code"`
}

// UnavailableStats returns Stats with every field set to Unavailable.
func UnavailableStats() Stats {
	d := Delta{Same: Unavailable, Modified: Unavailable, Added: Unavailable, Removed: Unavailable}
	return Stats{Blank: d, Comment: d, Code: d}
}

// Fields lists all twelve counts in CSV column order.
func (s Stats) Fields() []Count {
	return []Count{
		s.Blank.Same, s.Blank.Modified, s.Blank.Added, s.Blank.Removed,
		s.Comment.Same, s.Comment.Modified, s.Comment.Added, s.Comment.Removed,
		s.Code.Same, s.Code.Modified, s.Code.Added, s.Code.Removed,
	}
}
