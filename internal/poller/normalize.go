package poller

import (
	"math"
	"strings"
	"time"

	"github.com/2beens/padcontrol/internal/device"
	"github.com/2beens/padcontrol/internal/pad"
	"github.com/2beens/padcontrol/internal/store"
)

// counters above this are device garbage, not real steps or calories
const maxCount = math.MaxInt32

// normalize turns a raw status payload into a store commit.
// Must be called with p.mutex held.
func (p *Poller) normalize(status *device.Status) store.PollResult {
	beltState := parseBeltState(status.BeltState)

	mode, err := pad.ParseMode(status.Mode)
	if err != nil {
		log.Warnf("device status: %s, keeping mode %s", err, p.store.Mode())
		mode = p.store.Mode()
	}

	duration := time.Duration(0)
	switch {
	case status.Duration != nil:
		duration = status.Duration.Std()
	case status.Time != nil:
		duration = pad.DurationFromSeconds(nonNegative(status.Time))
	}
	if duration < 0 {
		duration = 0
	}
	// duration never goes back while the same session keeps running
	if beltState.Active() && p.sessionActive && duration < p.lastDuration {
		duration = p.lastDuration
	}
	p.sessionActive = beltState.Active()
	p.lastDuration = duration

	return store.PollResult{
		Stats: pad.SessionStats{
			Distance:     nonNegative(status.Distance),
			Steps:        count(status.Steps),
			Calories:     count(status.Calories),
			Duration:     pad.Duration(duration),
			CurrentSpeed: p.clampSpeed(device.RawToSpeed(nonNegative(status.Speed))),
		},
		Mode:      mode,
		BeltState: beltState,
		At:        p.now(),
	}
}

// clampSpeed keeps a stopped belt at 0, any other reading is bounded to [minSpeed, maxSpeed]
func (p *Poller) clampSpeed(kmh float64) float64 {
	if kmh == 0 {
		return 0
	}
	if p.maxSpeed > 0 && kmh > p.maxSpeed {
		return p.maxSpeed
	}
	if kmh < p.minSpeed {
		return p.minSpeed
	}
	return kmh
}

func nonNegative(v *float64) float64 {
	if v == nil || math.IsNaN(*v) || *v < 0 {
		return 0
	}
	return *v
}

// count rounds a device counter into [0, maxCount]
func count(v *float64) int {
	n := math.Round(nonNegative(v))
	if n >= maxCount {
		return maxCount
	}
	return int(n)
}

func parseBeltState(s string) pad.BeltState {
	beltState := pad.BeltState(strings.ToLower(strings.TrimSpace(s)))
	switch beltState {
	case pad.BeltIdle, pad.BeltRunning, pad.BeltStandby, pad.BeltStarting:
		return beltState
	default:
		return pad.BeltIdle
	}
}
