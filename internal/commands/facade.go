package commands

import (
	"context"
	"math"

	"github.com/2beens/padcontrol/internal/device"
	"github.com/2beens/padcontrol/internal/logging"
	"github.com/2beens/padcontrol/internal/notify"
	"github.com/2beens/padcontrol/internal/pad"
	"github.com/2beens/padcontrol/internal/store"
	"github.com/2beens/padcontrol/internal/telemetry/metrics"
	"github.com/2beens/padcontrol/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

var log = logging.Component("commands")

//go:generate mockgen -source=$GOFILE -destination=facade_mocks_test.go -package=commands

type deviceClient interface {
	Start(ctx context.Context, speedRaw int) error
	Stop(ctx context.Context) error
	SetSpeed(ctx context.Context, speedRaw int) error
	SetMode(ctx context.Context, mode pad.Mode) error
	Save(ctx context.Context) (*device.SaveResponse, error)
	SetPreferences(ctx context.Context, prefs device.Preferences) error
	Calibrate(ctx context.Context) error
	History(ctx context.Context) (*device.SaveResponse, error)
}

type refresher interface {
	Refresh(ctx context.Context) error
}

type announcer interface {
	Announce(ctx context.Context, kind notify.Kind, title, description string)
}

type FacadeParams struct {
	Client    deviceClient
	Refresher refresher
	Store     *store.Store
	Announcer announcer // optional
	Metrics   *metrics.Manager

	MinSpeed   float64 // km/h
	MaxSpeed   float64 // km/h
	StartSpeed float64 // km/h
}

// Facade exposes the verbs the dashboard calls. Every device action is
// followed by a forced refresh, so the store shows the device's view
// rather than an assumed one.
type Facade struct {
	client    deviceClient
	refresher refresher
	store     *store.Store
	announcer announcer
	metrics   *metrics.Manager

	minSpeed   float64
	maxSpeed   float64
	startSpeed float64
}

func NewFacade(params FacadeParams) *Facade {
	return &Facade{
		client:     params.Client,
		refresher:  params.Refresher,
		store:      params.Store,
		announcer:  params.Announcer,
		metrics:    params.Metrics,
		minSpeed:   params.MinSpeed,
		maxSpeed:   params.MaxSpeed,
		startSpeed: params.StartSpeed,
	}
}

func (f *Facade) StartSession(ctx context.Context) error {
	err := f.run(ctx, "start_session", true, func(ctx context.Context) error {
		return f.client.Start(ctx, device.SpeedToRaw(f.startSpeed))
	})
	if err != nil {
		f.announce(ctx, notify.KindCommandFailed, "Failed to Start", err.Error())
		return err
	}
	f.announce(ctx, notify.KindSessionStarted, "Exercise Started", "Your walking session has begun")
	return nil
}

// EndSession stops the belt and then saves the session, in that order.
// If stopping fails nothing is saved. Once the belt stopped the store is
// refreshed even if saving fails.
func (f *Facade) EndSession(ctx context.Context) (*device.SaveResponse, error) {
	var saved *device.SaveResponse
	err := f.run(ctx, "end_session", true, func(ctx context.Context) error {
		if err := f.client.Stop(ctx); err != nil {
			return err
		}
		resp, err := f.client.Save(ctx)
		if err != nil {
			// refresh before run records the save error, a successful poll clears it
			f.refresh(ctx, "end_session")
			return err
		}
		saved = resp
		return nil
	})
	if err != nil {
		f.announce(ctx, notify.KindCommandFailed, "Failed to End", err.Error())
		return nil, err
	}
	f.announce(ctx, notify.KindSessionEnded, "Exercise Complete", "Your session has been saved")
	return saved, nil
}

// EmergencyStop stops the belt without saving the session
func (f *Facade) EmergencyStop(ctx context.Context) error {
	return f.run(ctx, "emergency_stop", true, func(ctx context.Context) error {
		return f.client.Stop(ctx)
	})
}

// SetSpeed validates kmh against the configured range before anything is sent
func (f *Facade) SetSpeed(ctx context.Context, kmh float64) error {
	return f.run(ctx, "set_speed", true, func(ctx context.Context) error {
		if math.IsNaN(kmh) {
			return device.NewValidationError("speed must be a number")
		}
		if kmh < f.minSpeed || kmh > f.maxSpeed {
			return device.NewValidationError(
				"speed %.1f km/h is outside the allowed range %.1f - %.1f km/h", kmh, f.minSpeed, f.maxSpeed,
			)
		}
		return f.client.SetSpeed(ctx, device.SpeedToRaw(kmh))
	})
}

func (f *Facade) SetMode(ctx context.Context, mode pad.Mode) error {
	return f.run(ctx, "set_mode", true, func(ctx context.Context) error {
		if !mode.IsValid() {
			return device.NewValidationError("invalid mode: %q", mode)
		}
		return f.client.SetMode(ctx, mode)
	})
}

// SetTarget stores the goal locally, the device never sees it
func (f *Facade) SetTarget(ctx context.Context, target pad.ExerciseTarget) error {
	return f.run(ctx, "set_target", false, func(ctx context.Context) error {
		if err := target.Validate(); err != nil {
			return device.NewValidationError("%s", err)
		}
		t := target.WithDefaults()
		f.store.SetTarget(&t)
		return nil
	})
}

func (f *Facade) ClearTarget() {
	f.store.SetTarget(nil)
	f.metrics.CounterCommands.WithLabelValues("clear_target", "success").Inc()
}

// ResetSession puts the store back to its defaults, target included
func (f *Facade) ResetSession() {
	f.store.Reset()
	f.metrics.CounterCommands.WithLabelValues("reset_session", "success").Inc()
}

func (f *Facade) SetPreferences(ctx context.Context, prefs device.Preferences) error {
	return f.run(ctx, "set_preferences", true, func(ctx context.Context) error {
		if prefs.MaxSpeed != nil && (*prefs.MaxSpeed <= 0 || *prefs.MaxSpeed > f.maxSpeed) {
			return device.NewValidationError("max speed %.1f km/h is outside (0, %.1f]", *prefs.MaxSpeed, f.maxSpeed)
		}
		if prefs.StartSpeed != nil && (*prefs.StartSpeed < f.minSpeed || *prefs.StartSpeed > f.maxSpeed) {
			return device.NewValidationError("start speed %.1f km/h is outside the allowed range", *prefs.StartSpeed)
		}
		return f.client.SetPreferences(ctx, prefs)
	})
}

func (f *Facade) Calibrate(ctx context.Context) error {
	return f.run(ctx, "calibrate", true, func(ctx context.Context) error {
		return f.client.Calibrate(ctx)
	})
}

// Reconnect forces a status fetch right away instead of waiting for the next poll
func (f *Facade) Reconnect(ctx context.Context) error {
	return f.run(ctx, "reconnect", false, func(ctx context.Context) error {
		if f.refresher == nil {
			return nil
		}
		return f.refresher.Refresh(ctx)
	})
}

// RejectInput records a request that could not be turned into a command,
// so it shows up in the store like any other validation failure
func (f *Facade) RejectInput(ctx context.Context, command string, err error) error {
	return f.run(ctx, command, false, func(context.Context) error {
		return err
	})
}

func (f *Facade) History(ctx context.Context) (*device.SaveResponse, error) {
	var history *device.SaveResponse
	err := f.run(ctx, "history", false, func(ctx context.Context) error {
		resp, err := f.client.History(ctx)
		history = resp
		return err
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// run executes one command. On failure the error lands in the store and is
// returned as *device.Error; nothing else in the store changes.
func (f *Facade) run(
	ctx context.Context,
	command string,
	refresh bool,
	action func(ctx context.Context) error,
) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "commands."+command)
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if actionErr := action(ctx); actionErr != nil {
		devErr := device.AsError(actionErr)
		span.SetAttributes(attribute.String("error.kind", string(devErr.Kind)))
		f.store.SetError(devErr)
		f.metrics.CounterCommands.WithLabelValues(command, string(devErr.Kind)).Inc()
		log.Errorf("command %s failed: %s", command, devErr)
		return devErr
	}

	f.metrics.CounterCommands.WithLabelValues(command, "success").Inc()
	log.Debugf("command %s done", command)

	if refresh {
		f.refresh(ctx, command)
	}

	return nil
}

// refresh pulls the device status after a command changed it.
// A failed refresh is already recorded by the poller.
func (f *Facade) refresh(ctx context.Context, command string) {
	if f.refresher == nil {
		return
	}
	if err := f.refresher.Refresh(ctx); err != nil {
		log.Warnf("command %s: refresh after action failed: %s", command, err)
	}
}

func (f *Facade) announce(ctx context.Context, kind notify.Kind, title, description string) {
	if f.announcer == nil {
		return
	}
	f.announcer.Announce(ctx, kind, title, description)
}
