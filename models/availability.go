package models

import (
	"fmt"
	"time"
)

// ClockLayout is the "HH:MM" 24h layout used for working hours and booking time slots.
const ClockLayout = "15:04"

// AvailabilitySlot is a provider's open interval for one day of the week.
// DayOfWeek follows time.Weekday: 0 is Sunday, 6 is Saturday.
type AvailabilitySlot struct {
	ProviderID string       `bson:"provider_id" json:"providerId"`
	DayOfWeek  time.Weekday `bson:"day_of_week" json:"dayOfWeek"`
	StartTime  string       `bson:"start_time" json:"startTime"` // "HH:MM"
	EndTime    string       `bson:"end_time" json:"endTime"`     // "HH:MM"
	UpdatedAt  time.Time    `bson:"updated_at" json:"updatedAt"`
}

// NewAvailabilitySlot validates and builds an AvailabilitySlot.
func NewAvailabilitySlot(providerID string, day time.Weekday, start, end string) (*AvailabilitySlot, error) {
	if providerID == "" {
		return nil, fmt.Errorf("providerId is required")
	}
	if day < time.Sunday || day > time.Saturday {
		return nil, fmt.Errorf("dayOfWeek must be between 0 and 6, got %d", day)
	}
	startMin, err := ParseClock(start)
	if err != nil {
		return nil, fmt.Errorf("invalid startTime: %w", err)
	}
	endMin, err := ParseClock(end)
	if err != nil {
		return nil, fmt.Errorf("invalid endTime: %w", err)
	}
	if startMin >= endMin {
		return nil, fmt.Errorf("startTime %s must be before endTime %s", start, end)
	}
	return &AvailabilitySlot{
		ProviderID: providerID,
		DayOfWeek:  day,
		StartTime:  start,
		EndTime:    end,
		UpdatedAt:  time.Now(),
	}, nil
}

// StartMinute returns the slot start in minutes from midnight.
func (s AvailabilitySlot) StartMinute() int {
	m, _ := ParseClock(s.StartTime)
	return m
}

// EndMinute returns the slot end in minutes from midnight.
func (s AvailabilitySlot) EndMinute() int {
	m, _ := ParseClock(s.EndTime)
	return m
}

// Covers reports whether a time slot (minutes from midnight) falls inside working hours.
// Both bounds are inclusive.
func (s AvailabilitySlot) Covers(minute int) bool {
	return minute >= s.StartMinute() && minute <= s.EndMinute()
}

// ParseClock parses an "HH:MM" string into minutes from midnight.
func ParseClock(v string) (int, error) {
	if len(v) != len(ClockLayout) {
		return 0, fmt.Errorf("time %q must use HH:MM format", v)
	}
	t, err := time.Parse(ClockLayout, v)
	if err != nil {
		return 0, fmt.Errorf("time %q must use HH:MM format", v)
	}
	return t.Hour()*60 + t.Minute(), nil
}
