package store

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/2beens/padcontrol/internal/device"
	"github.com/2beens/padcontrol/internal/pad"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Defaults(t *testing.T) {
	s := New()
	snap := s.Snapshot()

	assert.Equal(t, pad.SessionStats{}, snap.Stats)
	assert.Equal(t, pad.ModeStandby, snap.Mode)
	assert.Equal(t, pad.BeltIdle, snap.BeltState)
	assert.Nil(t, snap.Target)
	assert.False(t, snap.IsConnected)
	assert.False(t, snap.IsReconnecting)
	assert.Zero(t, snap.ConsecutiveFailures)
	assert.Nil(t, snap.Error)
	assert.NoError(t, s.Err())

	statsJson, err := json.Marshal(snap.Stats)
	require.NoError(t, err)
	assert.JSONEq(t, `{"distance":0,"steps":0,"calories":0,"duration":"00:00","current_speed":0}`, string(statsJson))
}

func TestStore_SetStatsMerges(t *testing.T) {
	s := New()
	distance := 1.5
	steps := 2000
	s.SetStats(StatsUpdate{Distance: &distance, Steps: &steps})

	speed := 3.2
	s.SetStats(StatsUpdate{CurrentSpeed: &speed})

	stats := s.Stats()
	assert.Equal(t, 1.5, stats.Distance)
	assert.Equal(t, 2000, stats.Steps)
	assert.Equal(t, 3.2, stats.CurrentSpeed)
	assert.Zero(t, stats.Calories)
	assert.Equal(t, uint64(2), s.Snapshot().Version)
}

func TestStore_SetConnectionMerges(t *testing.T) {
	s := New()
	connected := true
	s.SetConnection(ConnectionUpdate{IsConnected: &connected})
	failures := 2
	s.SetConnection(ConnectionUpdate{ConsecutiveFailures: &failures})

	snap := s.Snapshot()
	assert.True(t, snap.IsConnected)
	assert.Equal(t, 2, snap.ConsecutiveFailures)
	assert.False(t, snap.IsReconnecting)
}

func TestStore_ErrorOverwrittenNotAccumulated(t *testing.T) {
	s := New()
	s.SetError(device.NewValidationError("first"))
	s.SetError(errors.New("second"))

	err := s.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "second")
	assert.Equal(t, device.KindTransient, device.KindOf(err))

	s.SetError(nil)
	assert.NoError(t, s.Err())
}

func TestStore_CommitPollAndFailure(t *testing.T) {
	s := New()
	now := time.Now()
	stats := pad.SessionStats{Distance: 1.2, Steps: 1500, CurrentSpeed: 2.5}

	s.RecordPollFailure(errors.New("dial tcp: refused"), 1)
	s.CommitPoll(PollResult{Stats: stats, Mode: pad.ModeManual, BeltState: pad.BeltRunning, At: now})

	snap := s.Snapshot()
	assert.Equal(t, stats, snap.Stats)
	assert.Equal(t, pad.ModeManual, snap.Mode)
	assert.Equal(t, pad.BeltRunning, snap.BeltState)
	assert.True(t, snap.IsConnected)
	assert.False(t, snap.IsReconnecting)
	assert.Zero(t, snap.ConsecutiveFailures)
	assert.Nil(t, snap.Error)
	assert.Equal(t, now, snap.LastUpdate)

	s.RecordPollFailure(device.NewUnreachableError(errors.New("timeout"), 3), 3)
	snap = s.Snapshot()
	assert.Equal(t, stats, snap.Stats, "stats must survive a failed poll")
	assert.Equal(t, pad.ModeManual, snap.Mode)
	assert.False(t, snap.IsConnected)
	assert.True(t, snap.IsReconnecting)
	assert.True(t, s.IsReconnecting())
	assert.Equal(t, 3, snap.ConsecutiveFailures)
	assert.Equal(t, device.KindUnreachable, snap.Error.Kind)
	assert.Equal(t, now, snap.LastUpdate)
}

func TestStore_TargetAndReset(t *testing.T) {
	s := New()
	target := &pad.ExerciseTarget{Type: pad.TargetSteps, Value: 5000, Unit: "steps"}
	s.SetTarget(target)

	// store keeps its own copy
	target.Value = 1
	got := s.Target()
	require.NotNil(t, got)
	assert.Equal(t, 5000.0, got.Value)

	got.Value = 2
	assert.Equal(t, 5000.0, s.Snapshot().Target.Value)

	s.SetMode(pad.ModeAuto)
	s.SetBeltState(pad.BeltRunning)
	s.SetError(device.NewValidationError("bad"))
	versionBefore := s.Snapshot().Version

	s.Reset()
	snap := s.Snapshot()
	assert.Nil(t, snap.Target)
	assert.Equal(t, pad.ModeStandby, snap.Mode)
	assert.Equal(t, pad.BeltIdle, snap.BeltState)
	assert.Nil(t, snap.Error)
	assert.Greater(t, snap.Version, versionBefore)

	s.SetTarget(&pad.ExerciseTarget{Type: pad.TargetDistance, Value: 2})
	s.SetTarget(nil)
	assert.Nil(t, s.Target())
}

func TestStore_SnapshotErrorJSON(t *testing.T) {
	s := New()
	s.SetError(&device.Error{Kind: device.KindRejected, Message: "belt locked", Details: "child lock", StatusCode: 409})

	snapJson, err := json.Marshal(s.Snapshot())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(snapJson, &decoded))
	assert.Equal(t, map[string]any{
		"kind":        "rejected",
		"message":     "belt locked",
		"details":     "child lock",
		"status_code": float64(409),
	}, decoded["error"])
	assert.Equal(t, "standby", decoded["mode"])
}

func TestStore_ConcurrentAccess(t *testing.T) {
	s := New()
	wg := sync.WaitGroup{}
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.CommitPoll(PollResult{Stats: pad.SessionStats{Steps: i}, Mode: pad.ModeManual, At: time.Now()})
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(20), s.Snapshot().Version)
}
