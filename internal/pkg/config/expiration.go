package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Expiration is a token lifetime read from the environment. It accepts the
// compact forms used by the existing deployment ("1h", "7d", "2w", "1y"),
// any Go duration ("1h30m") and bare integers. A bare integer is read as
// milliseconds, so "3600" is 3.6s, the same as the jsonwebtoken "ms" rules
// the existing env files were written against. A year is 365.25 days.
type Expiration time.Duration

var expirationUnits = map[string]time.Duration{
	"ms":      time.Millisecond,
	"s":       time.Second,
	"sec":     time.Second,
	"secs":    time.Second,
	"seconds": time.Second,
	"m":       time.Minute,
	"min":     time.Minute,
	"mins":    time.Minute,
	"minutes": time.Minute,
	"h":       time.Hour,
	"hr":      time.Hour,
	"hrs":     time.Hour,
	"hours":   time.Hour,
	"d":       24 * time.Hour,
	"day":     24 * time.Hour,
	"days":    24 * time.Hour,
	"w":       7 * 24 * time.Hour,
	"week":    7 * 24 * time.Hour,
	"weeks":   7 * 24 * time.Hour,
	"y":       8766 * time.Hour,
	"year":    8766 * time.Hour,
	"years":   8766 * time.Hour,
}

// ParseExpiration converts s into a duration.
func ParseExpiration(s string) (time.Duration, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, fmt.Errorf("empty expiration")
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Millisecond, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if i <= 0 {
		return 0, fmt.Errorf("invalid expiration %q", s)
	}
	n, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid expiration %q: %w", s, err)
	}
	unit, ok := expirationUnits[strings.TrimSpace(s[i:])]
	if !ok {
		return 0, fmt.Errorf("invalid expiration unit in %q", s)
	}
	return time.Duration(n * float64(unit)), nil
}

// EnvDecode implements envconfig.Decoder.
func (e *Expiration) EnvDecode(val string) error {
	d, err := ParseExpiration(val)
	if err != nil {
		return err
	}
	*e = Expiration(d)
	return nil
}

func (e Expiration) Duration() time.Duration { return time.Duration(e) }
