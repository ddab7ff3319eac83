package shared

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the format layout for parsing dates.
	DateLayout = "2006-01-02 15:04:05"
)

// Timeframe represents the market data time period.
type Timeframe int

const (
	OneMinute Timeframe = iota
	FiveMinute
	FifteenMinute
	ThirtyMinute
	OneHour
	FourHour
	OneDay
)

// String stringifies the provided timeframe.
func (t Timeframe) String() string {
	switch t {
	case OneMinute:
		return "1m"
	case FiveMinute:
		return "5m"
	case FifteenMinute:
		return "15m"
	case ThirtyMinute:
		return "30m"
	case OneHour:
		return "1H"
	case FourHour:
		return "4H"
	case OneDay:
		return "1D"
	default:
		return "unknown"
	}
}

// Duration returns the wall clock period covered by a single candle of the timeframe.
func (t Timeframe) Duration() time.Duration {
	switch t {
	case OneMinute:
		return time.Minute
	case FiveMinute:
		return time.Minute * 5
	case FifteenMinute:
		return time.Minute * 15
	case ThirtyMinute:
		return time.Minute * 30
	case OneHour:
		return time.Hour
	case FourHour:
		return time.Hour * 4
	case OneDay:
		return time.Hour * 24
	default:
		return 0
	}
}

// ParseTimeframe parses the provided timeframe string, accepting both the display
// notation (5m, 1H) and the broker notation (M5, H1).
func ParseTimeframe(s string) (Timeframe, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1m", "m1":
		return OneMinute, nil
	case "5m", "m5":
		return FiveMinute, nil
	case "15m", "m15":
		return FifteenMinute, nil
	case "30m", "m30":
		return ThirtyMinute, nil
	case "1h", "h1":
		return OneHour, nil
	case "4h", "h4":
		return FourHour, nil
	case "1d", "d1":
		return OneDay, nil
	default:
		return 0, fmt.Errorf("unknown timeframe provided: %q", s)
	}
}

// UnmarshalText parses a textual timeframe, allowing timeframes in config files.
func (t *Timeframe) UnmarshalText(text []byte) error {
	tf, err := ParseTimeframe(string(text))
	if err != nil {
		return err
	}

	*t = tf
	return nil
}

// MarshalText stringifies the timeframe for config files.
func (t Timeframe) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
