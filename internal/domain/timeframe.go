package domain

import (
	"strings"
	"time"
)

// TimeFrame is the reporting window of an analytics query.
type TimeFrame string

const (
	TimeFrame7Days  TimeFrame = "7days"
	TimeFrame30Days TimeFrame = "30days"
	TimeFrame90Days TimeFrame = "90days"
	TimeFrame1Year  TimeFrame = "1year"

	DefaultTimeFrame = TimeFrame30Days
)

const Day = 24 * time.Hour

var timeFrameDurations = map[TimeFrame]time.Duration{
	TimeFrame7Days:  7 * Day,
	TimeFrame30Days: 30 * Day,
	TimeFrame90Days: 90 * Day,
	TimeFrame1Year:  365 * Day,
}

// ParseTimeFrame validates a query value. Empty input yields DefaultTimeFrame.
func ParseTimeFrame(raw string) (TimeFrame, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultTimeFrame, nil
	}
	tf := TimeFrame(strings.ToLower(raw))
	if _, ok := timeFrameDurations[tf]; !ok {
		return "", InvalidRequestf("unknown timeFrame %q (want 7days, 30days, 90days or 1year)", raw)
	}
	return tf, nil
}

func (tf TimeFrame) Duration() time.Duration {
	if d, ok := timeFrameDurations[tf]; ok {
		return d
	}
	return timeFrameDurations[DefaultTimeFrame]
}

func AllTimeFrames() []TimeFrame {
	return []TimeFrame{TimeFrame7Days, TimeFrame30Days, TimeFrame90Days, TimeFrame1Year}
}
