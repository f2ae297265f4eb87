package pad

import (
	"errors"
	"fmt"
)

// TargetType can be one of:
//   - distance
//   - steps
//   - calories
//   - duration
type TargetType string

const (
	TargetDistance TargetType = "distance"
	TargetSteps    TargetType = "steps"
	TargetCalories TargetType = "calories"
	TargetDuration TargetType = "duration"
)

func (tt TargetType) String() string {
	return string(tt)
}

func (tt TargetType) IsValid() bool {
	switch tt {
	case TargetDistance, TargetSteps, TargetCalories, TargetDuration:
		return true
	default:
		return false
	}
}

// DefaultUnit used when the target is set without one
func (tt TargetType) DefaultUnit() string {
	switch tt {
	case TargetDistance:
		return "km"
	case TargetSteps:
		return "steps"
	case TargetCalories:
		return "kcal"
	case TargetDuration:
		return "min"
	default:
		return ""
	}
}

// ExerciseTarget is a workout goal, tracked for display only
type ExerciseTarget struct {
	Type  TargetType `json:"type"`
	Value float64    `json:"value"`
	Unit  string     `json:"unit"`
}

func (t ExerciseTarget) Validate() error {
	if !t.Type.IsValid() {
		return fmt.Errorf("invalid target type: %q", t.Type)
	}
	if t.Value <= 0 {
		return errors.New("target value must be greater than 0")
	}
	return nil
}

// WithDefaults fills in the unit if missing
func (t ExerciseTarget) WithDefaults() ExerciseTarget {
	if t.Unit == "" {
		t.Unit = t.Type.DefaultUnit()
	}
	return t
}
