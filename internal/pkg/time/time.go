package time

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration is a time.Duration that reads and writes strings like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText lets env tags decode durations.
func (d *Duration) UnmarshalText(b []byte) error {
	parsed, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}

	d.Duration = parsed
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Of wraps a time.Duration.
func Of(d time.Duration) Duration {
	return Duration{Duration: d}
}
