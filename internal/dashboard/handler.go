package dashboard

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/2beens/padcontrol/internal/device"
	"github.com/2beens/padcontrol/internal/notify"
	"github.com/2beens/padcontrol/internal/pad"
	"github.com/2beens/padcontrol/internal/store"
	"github.com/2beens/padcontrol/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const maxBodyBytes = 64 * 1024

type padCommands interface {
	StartSession(ctx context.Context) error
	EndSession(ctx context.Context) (*device.SaveResponse, error)
	EmergencyStop(ctx context.Context) error
	SetSpeed(ctx context.Context, kmh float64) error
	SetMode(ctx context.Context, mode pad.Mode) error
	SetTarget(ctx context.Context, target pad.ExerciseTarget) error
	ClearTarget()
	ResetSession()
	SetPreferences(ctx context.Context, prefs device.Preferences) error
	Calibrate(ctx context.Context) error
	History(ctx context.Context) (*device.SaveResponse, error)
	Reconnect(ctx context.Context) error
	RejectInput(ctx context.Context, command string, err error) error
}

// Handler is the presentation boundary: it only reads store snapshots and
// calls command verbs, it never talks to the device itself
type Handler struct {
	store       *store.Store
	commands    padCommands
	feed        *notify.Feed
	versionInfo string
}

func NewHandler(
	store *store.Store,
	commands padCommands,
	feed *notify.Feed,
	versionInfo string,
) *Handler {
	return &Handler{
		store:       store,
		commands:    commands,
		feed:        feed,
		versionInfo: versionInfo,
	}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/", h.HandleRoot).Methods("GET", "OPTIONS").Name("root")
	r.HandleFunc("/state", h.HandleState).Methods("GET", "OPTIONS").Name("state")
	r.HandleFunc("/session/start", h.HandleStartSession).Methods("POST", "OPTIONS").Name("session-start")
	r.HandleFunc("/session/end", h.HandleEndSession).Methods("POST", "OPTIONS").Name("session-end")
	r.HandleFunc("/session/stop", h.HandleEmergencyStop).Methods("POST", "OPTIONS").Name("session-stop")
	r.HandleFunc("/session/reset", h.HandleResetSession).Methods("POST", "OPTIONS").Name("session-reset")
	r.HandleFunc("/speed", h.HandleSetSpeed).Methods("POST", "OPTIONS").Name("speed")
	r.HandleFunc("/mode", h.HandleSetMode).Methods("POST", "OPTIONS").Name("mode")
	r.HandleFunc("/target", h.HandleSetTarget).Methods("PUT", "OPTIONS").Name("target-set")
	r.HandleFunc("/target", h.HandleClearTarget).Methods("DELETE", "OPTIONS").Name("target-clear")
	r.HandleFunc("/preferences", h.HandleSetPreferences).Methods("POST", "OPTIONS").Name("preferences")
	r.HandleFunc("/calibrate", h.HandleCalibrate).Methods("POST", "OPTIONS").Name("calibrate")
	r.HandleFunc("/refresh", h.HandleRefresh).Methods("POST", "OPTIONS").Name("refresh")
	r.HandleFunc("/history", h.HandleHistory).Methods("GET", "OPTIONS").Name("history")
	r.HandleFunc("/notifications", h.HandleNotifications).Methods("GET", "OPTIONS").Name("notifications")
}

func (h *Handler) HandleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "padcontrol "+h.versionInfo)
}

func (h *Handler) HandleState(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSON(w, h.store.Snapshot(), http.StatusOK)
}

func (h *Handler) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.commands.StartSession(r.Context()))
}

func (h *Handler) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	saved, err := h.commands.EndSession(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.WriteJSON(w, struct {
		Saved *device.SaveResponse `json:"saved"`
		State store.Snapshot       `json:"state"`
	}{
		Saved: saved,
		State: h.store.Snapshot(),
	}, http.StatusOK)
}

func (h *Handler) HandleEmergencyStop(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.commands.EmergencyStop(r.Context()))
}

func (h *Handler) HandleResetSession(w http.ResponseWriter, _ *http.Request) {
	h.commands.ResetSession()
	h.respond(w, nil)
}

func (h *Handler) HandleSetSpeed(w http.ResponseWriter, r *http.Request) {
	// a missing or unparsable value goes through as NaN and is rejected by the facade
	kmh, err := strconv.ParseFloat(r.URL.Query().Get("value"), 64)
	if err != nil {
		kmh = math.NaN()
	}
	h.respond(w, h.commands.SetSpeed(r.Context(), kmh))
}

func (h *Handler) HandleSetMode(w http.ResponseWriter, r *http.Request) {
	modeParam := r.URL.Query().Get("mode")
	mode, err := pad.ParseMode(modeParam)
	if err != nil {
		// let the facade reject it, so the store error is set the same way
		mode = pad.Mode(modeParam)
	}
	h.respond(w, h.commands.SetMode(r.Context(), mode))
}

func (h *Handler) HandleSetTarget(w http.ResponseWriter, r *http.Request) {
	var target pad.ExerciseTarget
	if err := decodeBody(r, &target); err != nil {
		h.respond(w, h.commands.RejectInput(r.Context(), "set_target", err))
		return
	}
	h.respond(w, h.commands.SetTarget(r.Context(), target))
}

func (h *Handler) HandleClearTarget(w http.ResponseWriter, _ *http.Request) {
	h.commands.ClearTarget()
	h.respond(w, nil)
}

func (h *Handler) HandleSetPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs device.Preferences
	if err := decodeBody(r, &prefs); err != nil {
		h.respond(w, h.commands.RejectInput(r.Context(), "set_preferences", err))
		return
	}
	h.respond(w, h.commands.SetPreferences(r.Context(), prefs))
}

func (h *Handler) HandleCalibrate(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.commands.Calibrate(r.Context()))
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	h.respond(w, h.commands.Reconnect(r.Context()))
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.commands.History(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.WriteJSON(w, history, http.StatusOK)
}

func (h *Handler) HandleNotifications(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSON(w, h.feed.Recent(), http.StatusOK)
}

// respond writes the error, or the current state snapshot on success
func (h *Handler) respond(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	pkg.WriteJSON(w, h.store.Snapshot(), http.StatusOK)
}

func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return device.NewValidationError("invalid request body: %s", err)
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	devErr := device.AsError(err)
	statusCode := StatusCodeFor(devErr.Kind)
	if statusCode >= http.StatusInternalServerError {
		log.Errorf("dashboard: %s", devErr)
	}
	pkg.WriteJSON(w, devErr, statusCode)
}

// StatusCodeFor maps a device error kind to the dashboard response status
func StatusCodeFor(kind device.ErrorKind) int {
	switch kind {
	case device.KindValidation:
		return http.StatusBadRequest
	case device.KindRejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
