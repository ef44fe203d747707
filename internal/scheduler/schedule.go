package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Interval fires a fixed duration after each cycle ends. Unlike cron.Every it
// keeps sub-second precision.
type Interval time.Duration

func (i Interval) Next(t time.Time) time.Time { return t.Add(time.Duration(i)) }

// NewSchedule returns a cron schedule when spec is set, else a fixed interval.
func NewSchedule(interval time.Duration, spec string) (cron.Schedule, error) {
	if spec != "" {
		s, err := cron.ParseStandard(spec)
		if err != nil {
			return nil, fmt.Errorf("parse schedule %q: %w", spec, err)
		}
		return s, nil
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", interval)
	}
	return Interval(interval), nil
}
