package test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2beens/padcontrol/internal/config"
	"github.com/2beens/padcontrol/internal/dashboard"
	"github.com/2beens/padcontrol/internal/store"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	serverPort  = 9000
	metricsPort = "9001"
	serverHost  = "127.0.0.1"
	testOrigin  = "http://localhost:3000"
)

var (
	serverEndpoint  = fmt.Sprintf("http://%s:%d", serverHost, serverPort)
	metricsEndpoint = fmt.Sprintf("http://%s:%s/metrics", serverHost, metricsPort)
)

// IntegrationTestSuite runs the dashboard server, with live polling,
// against a simulated walking pad
type IntegrationTestSuite struct {
	suite.Suite

	pad        *simulatedPad
	padServer  *httptest.Server
	server     *dashboard.Server
	httpClient *http.Client
	cancel     context.CancelFunc
}

func TestIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(IntegrationTestSuite))
}

func (s *IntegrationTestSuite) SetupSuite() {
	fmt.Println("setting up test suite...")

	s.pad = newSimulatedPad()
	s.padServer = httptest.NewServer(s.pad)
	s.httpClient = &http.Client{Timeout: 5 * time.Second}

	cfg := getTestConfig(s.padServer.URL)

	var err error
	s.server, err = dashboard.NewServer(dashboard.NewServerParams{
		Config:      cfg,
		VersionInfo: "test-version-info",
	})
	require.NoError(s.T(), err)
	fmt.Println("server created")

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())
	require.NoError(s.T(), s.server.Serve(ctx, cfg.Host, cfg.Port))

	require.Eventually(s.T(), func() bool {
		req, err := http.NewRequest(http.MethodGet, serverEndpoint+"/", nil)
		require.NoError(s.T(), err)
		req.Header.Set("User-Agent", "test-agent")
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)
	fmt.Println("server started")
}

func (s *IntegrationTestSuite) TearDownSuite() {
	fmt.Println(" --> cleaning up test suite...")
	if s.server != nil {
		s.server.GracefulShutdown()
	}
	if s.cancel != nil {
		s.cancel()
	}
	if s.padServer != nil {
		s.padServer.Close()
	}
	fmt.Println(" --> test suite cleanup done")
}

// every test starts with the pad online and idle
func (s *IntegrationTestSuite) SetupTest() {
	s.pad.SetOnline(true)
	resp, _ := s.do(http.MethodPost, "/session/stop")
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	resp, _ = s.do(http.MethodPost, "/session/reset")
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
}

func getTestConfig(padURL string) *config.Config {
	cfg := &config.Config{
		Environment:           "test",
		Host:                  serverHost,
		Port:                  serverPort,
		PrometheusMetricsHost: serverHost,
		PrometheusMetricsPort: metricsPort,
		AllowedOrigins:        []string{testOrigin},
		DeviceApiURL:          padURL + "/api",
		RequestMaxAttempts:    2,
		RequestRetryDelayMs:   5,
		PollIntervalMs:        50,
		ReconnectBaseDelayMs:  50,
		ReconnectMaxDelayMs:   200,
		MinSpeed:              0.5,
		MaxSpeed:              6.0,
		StartSpeed:            2.0,
	}
	cfg.ApplyDefaults()
	return cfg
}

func (s *IntegrationTestSuite) do(method, path string) (*http.Response, []byte) {
	t := s.T()
	req, err := http.NewRequest(method, serverEndpoint+path, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Origin", testOrigin)

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, respBytes
}

func (s *IntegrationTestSuite) state() store.Snapshot {
	resp, body := s.do(http.MethodGet, "/state")
	require.Equal(s.T(), http.StatusOK, resp.StatusCode, string(body))

	var snapshot store.Snapshot
	require.NoError(s.T(), json.Unmarshal(body, &snapshot))
	return snapshot
}

func (s *IntegrationTestSuite) scrapeMetrics() string {
	resp, err := s.httpClient.Get(metricsEndpoint)
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	return strings.TrimSpace(string(respBytes))
}
