package device

import (
	"math"

	"github.com/2beens/padcontrol/internal/pad"
)

// speed on the wire is km/h x 10, and the device api accepts 0 - 60
const (
	MinRawSpeed = 0
	MaxRawSpeed = 60
)

// Status is the raw GET /device/status payload. Numbers are pointers so
// a missing field can be told apart from a zero.
type Status struct {
	Mode        string        `json:"mode"`
	BeltState   string        `json:"belt_state"`
	Speed       *float64      `json:"speed"` // km/h x 10
	Distance    *float64      `json:"distance"`
	Steps       *float64      `json:"steps"`
	Calories    *float64      `json:"calories"`
	Duration    *pad.Duration `json:"duration"`
	Time        *float64      `json:"time"` // seconds, sent by older firmware instead of duration
	IsConnected *bool         `json:"is_connected"`
}

type SessionSummary struct {
	Steps    int     `json:"steps"`
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
}

// SaveResponse is returned by both POST /save and GET /history
type SaveResponse struct {
	Message string         `json:"message"`
	Data    SessionSummary `json:"data"`
}

type apiErrorBody struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Preferences - nil fields are left untouched on the device
type Preferences struct {
	MaxSpeed    *float64 `json:"max_speed,omitempty"`   // km/h
	StartSpeed  *float64 `json:"start_speed,omitempty"` // km/h
	Sensitivity *int     `json:"sensitivity,omitempty"` // 1, 2 or 3
	ChildLock   *bool    `json:"child_lock,omitempty"`
	UnitsMiles  *bool    `json:"units_miles,omitempty"`
}

func (p Preferences) Empty() bool {
	return p.MaxSpeed == nil && p.StartSpeed == nil && p.Sensitivity == nil &&
		p.ChildLock == nil && p.UnitsMiles == nil
}

func SpeedToRaw(kmh float64) int {
	return int(math.Round(kmh * 10))
}

func RawToSpeed(raw float64) float64 {
	return raw / 10
}
