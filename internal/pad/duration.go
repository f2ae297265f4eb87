package pad

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Duration is the elapsed session time. The device reports it either as
// "MM:SS" / "H:MM:SS" or as plain seconds, and it is rendered back as a clock string.
type Duration time.Duration

// MaxDurationSeconds caps any duration read from the device, larger values are clamped
const MaxDurationSeconds = math.MaxInt32

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return FormatDuration(time.Duration(d))
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = 0
		return nil
	}

	var seconds float64
	if err := json.Unmarshal(data, &seconds); err == nil {
		*d = Duration(DurationFromSeconds(seconds))
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string or number: %w", err)
	}

	parsed, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// ParseDuration accepts "SS", "MM:SS" and "H:MM:SS"; an empty string is a zero duration
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration: %q", s)
		}
		total = min(total*60+min(n, MaxDurationSeconds), MaxDurationSeconds)
	}

	return time.Duration(total) * time.Second, nil
}

// DurationFromSeconds converts seconds into a duration within [0, MaxDurationSeconds]
func DurationFromSeconds(seconds float64) time.Duration {
	if math.IsNaN(seconds) || seconds <= 0 {
		return 0
	}
	if seconds >= MaxDurationSeconds {
		return MaxDurationSeconds * time.Second
	}
	return time.Duration(seconds * float64(time.Second))
}

// FormatDuration renders MM:SS, or H:MM:SS once past the hour
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
