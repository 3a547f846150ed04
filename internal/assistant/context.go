package assistant

import "time"

// Time-of-day buckets sent with every message.
const (
	TimeOfDayMorning   = "Morning"
	TimeOfDayAfternoon = "Afternoon"
	TimeOfDayEvening   = "Evening"
	TimeOfDayNight     = "Night"
)

// LocalContext describes the user's local clock at send time.
type LocalContext struct {
	Timestamp string `json:"timestamp"`
	TimeOfDay string `json:"timeOfDay"`
	// TimezoneOffset is UTC minus local time, in minutes (UTC+2 is -120).
	TimezoneOffset int `json:"timezoneOffset"`
}

// NewLocalContext builds the context for now, in now's location.
func NewLocalContext(now time.Time) LocalContext {
	_, offset := now.Zone()
	return LocalContext{
		Timestamp:      now.UTC().Format("2006-01-02T15:04:05.000Z"),
		TimeOfDay:      TimeOfDay(now.Hour()),
		TimezoneOffset: -offset / 60,
	}
}

// TimeOfDay maps a local hour to its bucket.
func TimeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return TimeOfDayMorning
	case hour >= 12 && hour < 17:
		return TimeOfDayAfternoon
	case hour >= 17 && hour < 21:
		return TimeOfDayEvening
	default:
		return TimeOfDayNight
	}
}
