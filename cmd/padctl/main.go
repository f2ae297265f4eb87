package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/2beens/padcontrol/internal/commands"
	"github.com/2beens/padcontrol/internal/config"
	"github.com/2beens/padcontrol/internal/device"
	"github.com/2beens/padcontrol/internal/logging"
	"github.com/2beens/padcontrol/internal/pad"
	"github.com/2beens/padcontrol/internal/poller"
	"github.com/2beens/padcontrol/internal/store"
	"github.com/2beens/padcontrol/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

const usage = `usage: padctl [flags] <command> [arg]

commands:
  status              print the current device state
  start               start a session at the configured start speed
  end                 stop the belt and save the session
  stop                stop the belt without saving
  speed <km/h>        set the belt speed
  mode <mode>         set the mode (standby, manual, auto)
  calibrate           calibrate the belt
  history             print the saved sessions summary
`

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logging.Setup(logging.LoggerSetupParams{
		Service:     "padctl",
		LogToStdout: true,
		LogLevel:    *logLevel,
		Environment: *env,
	})
	// stdout carries the command output
	log.SetOutput(os.Stderr)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsManager := metrics.NewManager("padctl", "cli", metrics.SetupPrometheus(metrics.BuildInfo{Service: "padctl"}))
	client := device.NewClient(device.ClientParams{
		BaseURL:     cfg.DeviceApiURL,
		HTTPClient:  &http.Client{Timeout: cfg.DeviceRequestTimeout()},
		MaxAttempts: cfg.RequestMaxAttempts,
		RetryDelay:  cfg.RequestRetryDelay(),
		Metrics:     metricsManager,
	})
	sessionStore := store.New()
	statusPoller := poller.New(poller.Params{
		Fetcher:            client,
		Store:              sessionStore,
		Metrics:            metricsManager,
		PollInterval:       cfg.PollInterval(),
		ReconnectBaseDelay: cfg.ReconnectBaseDelay(),
		ReconnectMaxDelay:  cfg.ReconnectMaxDelay(),
		MinSpeed:           cfg.MinSpeed,
		MaxSpeed:           cfg.MaxSpeed,
	})
	facade := commands.NewFacade(commands.FacadeParams{
		Client:     client,
		Refresher:  statusPoller,
		Store:      sessionStore,
		Metrics:    metricsManager,
		MinSpeed:   cfg.MinSpeed,
		MaxSpeed:   cfg.MaxSpeed,
		StartSpeed: cfg.StartSpeed,
	})

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.RequestMaxAttempts+1)*cfg.DeviceRequestTimeout())
	defer cancel()

	out, err := run(ctx, facade, statusPoller, sessionStore, flag.Args())
	if err != nil {
		var devErr *device.Error
		if errors.As(err, &devErr) {
			printJSON(devErr)
		}
		log.Errorf("padctl: %s", err)
		os.Exit(1)
	}
	printJSON(out)
}

func run(
	ctx context.Context,
	facade *commands.Facade,
	statusPoller *poller.Poller,
	sessionStore *store.Store,
	args []string,
) (any, error) {
	arg := func() (string, error) {
		if len(args) < 2 {
			return "", fmt.Errorf("command %q needs an argument", args[0])
		}
		return args[1], nil
	}

	var err error
	switch args[0] {
	case "status":
		err = statusPoller.Refresh(ctx)
	case "start":
		err = facade.StartSession(ctx)
	case "end":
		saved, endErr := facade.EndSession(ctx)
		if endErr != nil {
			return nil, endErr
		}
		return saved, nil
	case "stop":
		err = facade.EmergencyStop(ctx)
	case "speed":
		value, argErr := arg()
		if argErr != nil {
			return nil, argErr
		}
		kmh, parseErr := strconv.ParseFloat(value, 64)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid speed %q: %w", value, parseErr)
		}
		err = facade.SetSpeed(ctx, kmh)
	case "mode":
		value, argErr := arg()
		if argErr != nil {
			return nil, argErr
		}
		mode, parseErr := pad.ParseMode(value)
		if parseErr != nil {
			return nil, parseErr
		}
		err = facade.SetMode(ctx, mode)
	case "calibrate":
		err = facade.Calibrate(ctx)
	case "history":
		return facade.History(ctx)
	default:
		return nil, fmt.Errorf("unknown command %q", args[0])
	}

	if err != nil {
		return nil, err
	}
	return sessionStore.Snapshot(), nil
}

func printJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		log.Errorf("encode output: %s", err)
	}
}
