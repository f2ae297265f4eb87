package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/padcontrol/internal/commands"
	"github.com/2beens/padcontrol/internal/config"
	"github.com/2beens/padcontrol/internal/device"
	"github.com/2beens/padcontrol/internal/middleware"
	"github.com/2beens/padcontrol/internal/notify"
	"github.com/2beens/padcontrol/internal/poller"
	"github.com/2beens/padcontrol/internal/store"
	"github.com/2beens/padcontrol/internal/telemetry/metrics"
	"github.com/2beens/padcontrol/internal/telemetry/tracing"

	"github.com/getsentry/sentry-go"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config       *config.Config
	store        *store.Store
	deviceClient *device.Client
	poller       *poller.Poller
	pollHandle   *poller.Handle
	facade       *commands.Facade
	bus          *notify.Bus
	feed         *notify.Feed
	feedDone     <-chan struct{}

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	HoneycombTracingEnabled bool
	// optional, otel traced client with the configured timeout is used if nil
	HTTPClient *http.Client
	// optional, a fresh registry is set up if nil
	PromRegistry *prometheus.Registry
}

func NewServer(params NewServerParams) (*Server, error) {
	cfg := params.Config
	if cfg == nil {
		return nil, errors.New("config not set")
	}

	promRegistry := params.PromRegistry
	if promRegistry == nil {
		promRegistry = metrics.SetupPrometheus(metrics.BuildInfo{
			Service: "padcontrol-dashboard",
			Version: params.VersionInfo,
		})
	}
	metricsManager := metrics.NewManager("padcontrol", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "padcontrol-dashboard")
	if err != nil {
		return nil, fmt.Errorf("tracing setup: %w", err)
	}

	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.DeviceRequestTimeout(),
		}
	}

	deviceClient := device.NewClient(device.ClientParams{
		BaseURL:         cfg.DeviceApiURL,
		HTTPClient:      httpClient,
		MaxAttempts:     cfg.RequestMaxAttempts,
		RetryDelay:      cfg.RequestRetryDelay(),
		HistoryCacheTTL: cfg.HistoryCacheTTL(),
		Metrics:         metricsManager,
	})

	sessionStore := store.New()
	bus := notify.NewBus(notify.NewLogrusAdapter(map[string]any{"component": "notify"}))

	statusPoller := poller.New(poller.Params{
		Fetcher:            deviceClient,
		Store:              sessionStore,
		Notifier:           bus,
		Metrics:            metricsManager,
		PollInterval:       cfg.PollInterval(),
		ReconnectBaseDelay: cfg.ReconnectBaseDelay(),
		ReconnectMaxDelay:  cfg.ReconnectMaxDelay(),
		MinSpeed:           cfg.MinSpeed,
		MaxSpeed:           cfg.MaxSpeed,
	})

	facade := commands.NewFacade(commands.FacadeParams{
		Client:     deviceClient,
		Refresher:  statusPoller,
		Store:      sessionStore,
		Announcer:  bus,
		Metrics:    metricsManager,
		MinSpeed:   cfg.MinSpeed,
		MaxSpeed:   cfg.MaxSpeed,
		StartSpeed: cfg.StartSpeed,
	})

	return &Server{
		versionInfo:    params.VersionInfo,
		config:         cfg,
		store:          sessionStore,
		deviceClient:   deviceClient,
		poller:         statusPoller,
		facade:         facade,
		bus:            bus,
		feed:           notify.NewFeed(notify.DefaultFeedSize),
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) Store() *store.Store {
	return s.store
}

func (s *Server) Facade() *commands.Facade {
	return s.facade
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("dashboard-router"))

	handler := NewHandler(s.store, s.facade, s.feed, s.versionInfo)
	handler.SetupRoutes(r)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(middleware.LimitAndDrainRequest(middleware.DefaultMaxBodyBytes))

	return r
}

// Start begins polling and consuming notifications, without listening on any port
func (s *Server) Start(ctx context.Context) error {
	feedDone, err := s.feed.Consume(ctx, s.bus)
	if err != nil {
		return fmt.Errorf("consume notifications: %w", err)
	}
	s.feedDone = feedDone
	s.pollHandle = s.poller.Start(ctx)
	return nil
}

func (s *Server) Serve(ctx context.Context, host string, port int) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > dashboard listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("dashboard, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
	return nil
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")
	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// in-flight commands still refresh the store and publish, let them finish first
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	// no store writes from polling past this point
	if s.pollHandle != nil {
		s.pollHandle.Cancel()
		log.Debugln("status poller stopped")
	}

	if err := s.bus.Close(); err != nil {
		log.Errorf("failed to close notification bus: %s", err)
	}
	if s.feedDone != nil {
		<-s.feedDone
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
