package pad

import (
	"fmt"
	"strings"
)

// Mode can be one of:
//   - standby
//   - manual
//   - auto
type Mode string

const (
	ModeStandby Mode = "standby"
	ModeManual  Mode = "manual"
	ModeAuto    Mode = "auto"
)

func (m Mode) String() string {
	return string(m)
}

func (m Mode) IsValid() bool {
	switch m {
	case ModeStandby, ModeManual, ModeAuto:
		return true
	default:
		return false
	}
}

// ParseMode is case-insensitive, so "MANUAL" and "manual" are both fine
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", fmt.Errorf("invalid mode: %q", s)
	}
	return m, nil
}

// BeltState is what the belt motor is doing right now
type BeltState string

const (
	BeltIdle     BeltState = "idle"
	BeltRunning  BeltState = "running"
	BeltStandby  BeltState = "standby"
	BeltStarting BeltState = "starting"
)

func (b BeltState) String() string {
	return string(b)
}

// Active returns true while a session is accruing distance
func (b BeltState) Active() bool {
	return b == BeltRunning || b == BeltStarting
}

// SessionStats is the snapshot of the workout in progress
type SessionStats struct {
	Distance     float64  `json:"distance"` // km
	Steps        int      `json:"steps"`
	Calories     int      `json:"calories"`
	Duration     Duration `json:"duration"`
	CurrentSpeed float64  `json:"current_speed"` // km/h
}
