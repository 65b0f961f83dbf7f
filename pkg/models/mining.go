package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// MiningSnapshot is the server state of the current mining session
type MiningSnapshot struct {
	Start  Timestamp `json:"start"`
	Miss   float64   `json:"miss"`   // accumulated downtime in milliseconds
	Hourly float64   `json:"hourly"` // points per hour
	Ended  int       `json:"ended"`  // 1 when the session has concluded
}

// MissDuration returns the accumulated downtime
func (s *MiningSnapshot) MissDuration() time.Duration {
	return time.Duration(s.Miss * float64(time.Millisecond))
}

// IsEnded reports whether the session is waiting to be claimed
func (s *MiningSnapshot) IsEnded() bool {
	return s.Ended == 1
}

// timestampLayouts are tried in order. Layouts without a zone are read in local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// Timestamp accepts either a date string or Unix milliseconds.
// A string in an unknown layout decodes to the zero time instead of failing the whole snapshot.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t.Time = parseTimestamp(s)
		return nil
	}

	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", string(data), err)
	}
	t.Time = time.UnixMilli(int64(ms))
	return nil
}

// MissionTask is an entry of the mission task list
type MissionTask struct {
	ID     string `json:"_id"`
	Status int    `json:"status"` // 1 = completed, reward claimable
}

// Claimable reports whether the reward can be claimed
func (t MissionTask) Claimable() bool {
	return t.Status == 1
}

// CheckIn is the daily check-in result
type CheckIn struct {
	Time string `json:"time"`
}

// MiningCycle is the outcome of one ping cycle
type MiningCycle struct {
	Points       float64
	ElapsedHours float64
	Balance      *float64 // nil when the balance fetch failed
	At           time.Time
}

// DailyResult summarizes one daily action
type DailyResult struct {
	CheckedIn    bool
	CheckInTime  string
	TasksFetched bool
	Claimed      []string // task ids
	FailedClaims []string // task ids
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
