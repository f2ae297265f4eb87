package store

import (
	"sync"
	"time"

	"github.com/2beens/padcontrol/internal/device"
	"github.com/2beens/padcontrol/internal/pad"
)

// Snapshot is an immutable copy of the session state
type Snapshot struct {
	Version             uint64              `json:"version"`
	Stats               pad.SessionStats    `json:"stats"`
	Mode                pad.Mode            `json:"mode"`
	BeltState           pad.BeltState       `json:"belt_state"`
	Target              *pad.ExerciseTarget `json:"target"`
	IsConnected         bool                `json:"is_connected"`
	IsReconnecting      bool                `json:"is_reconnecting"`
	ConsecutiveFailures int                 `json:"consecutive_failures"`
	LastUpdate          time.Time           `json:"last_update"`
	Error               *device.Error       `json:"error"`
}

// StatsUpdate - nil fields keep their current value
type StatsUpdate struct {
	Distance     *float64
	Steps        *int
	Calories     *int
	Duration     *time.Duration
	CurrentSpeed *float64
}

// ConnectionUpdate - nil fields keep their current value
type ConnectionUpdate struct {
	IsConnected         *bool
	IsReconnecting      *bool
	ConsecutiveFailures *int
}

// PollResult is everything a successful status poll writes
type PollResult struct {
	Stats     pad.SessionStats
	Mode      pad.Mode
	BeltState pad.BeltState
	At        time.Time
}

// Store is the single source of truth for the session state shared by the
// poller, the commands and the dashboard. All methods are safe for concurrent use.
type Store struct {
	mutex sync.RWMutex
	state Snapshot
}

func New() *Store {
	s := &Store{}
	s.state = defaults()
	return s
}

func defaults() Snapshot {
	return Snapshot{
		Mode:      pad.ModeStandby,
		BeltState: pad.BeltIdle,
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	snap := s.state
	if snap.Target != nil {
		target := *snap.Target
		snap.Target = &target
	}
	return snap
}

func (s *Store) Stats() pad.SessionStats {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state.Stats
}

func (s *Store) Mode() pad.Mode {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state.Mode
}

func (s *Store) BeltState() pad.BeltState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state.BeltState
}

func (s *Store) Target() *pad.ExerciseTarget {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.state.Target == nil {
		return nil
	}
	target := *s.state.Target
	return &target
}

// Err returns the current error, or nil.
func (s *Store) Err() error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.state.Error == nil {
		return nil
	}
	return s.state.Error
}

func (s *Store) IsReconnecting() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.state.IsReconnecting
}

func (s *Store) SetStats(update StatsUpdate) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if update.Distance != nil {
		s.state.Stats.Distance = *update.Distance
	}
	if update.Steps != nil {
		s.state.Stats.Steps = *update.Steps
	}
	if update.Calories != nil {
		s.state.Stats.Calories = *update.Calories
	}
	if update.Duration != nil {
		s.state.Stats.Duration = pad.Duration(*update.Duration)
	}
	if update.CurrentSpeed != nil {
		s.state.Stats.CurrentSpeed = *update.CurrentSpeed
	}
	s.state.Version++
}

func (s *Store) SetMode(mode pad.Mode) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.state.Mode = mode
	s.state.Version++
}

func (s *Store) SetBeltState(beltState pad.BeltState) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.state.BeltState = beltState
	s.state.Version++
}

// SetTarget stores the target; nil clears it
func (s *Store) SetTarget(target *pad.ExerciseTarget) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if target == nil {
		s.state.Target = nil
	} else {
		t := *target
		s.state.Target = &t
	}
	s.state.Version++
}

// SetError overwrites the current error; nil clears it
func (s *Store) SetError(err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.state.Error = device.AsError(err)
	s.state.Version++
}

func (s *Store) SetConnection(update ConnectionUpdate) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if update.IsConnected != nil {
		s.state.IsConnected = *update.IsConnected
	}
	if update.IsReconnecting != nil {
		s.state.IsReconnecting = *update.IsReconnecting
	}
	if update.ConsecutiveFailures != nil {
		s.state.ConsecutiveFailures = *update.ConsecutiveFailures
	}
	s.state.Version++
}

// CommitPoll applies a successful poll in one step: stats, mode and belt state
// replaced, connected, failures reset, error cleared
func (s *Store) CommitPoll(result PollResult) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.state.Stats = result.Stats
	s.state.Mode = result.Mode
	s.state.BeltState = result.BeltState
	s.state.IsConnected = true
	s.state.IsReconnecting = false
	s.state.ConsecutiveFailures = 0
	s.state.Error = nil
	s.state.LastUpdate = result.At
	s.state.Version++
}

// RecordPollFailure applies a failed poll in one step. Stats, mode and target are kept.
func (s *Store) RecordPollFailure(err error, failures int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.state.IsConnected = false
	s.state.IsReconnecting = true
	s.state.ConsecutiveFailures = failures
	s.state.Error = device.AsError(err)
	s.state.Version++
}

// Reset restores every field to its default, keeping the version counter going
func (s *Store) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	version := s.state.Version
	s.state = defaults()
	s.state.Version = version + 1
}
