package test

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/2beens/padcontrol/internal/device"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestConnectionLostAndRestored() {
	t := s.T()

	s.pad.SetOnline(false)
	require.Eventually(t, func() bool {
		return s.state().IsReconnecting
	}, 3*time.Second, 25*time.Millisecond)

	snapshot := s.state()
	assert.False(t, snapshot.IsConnected)
	require.NotNil(t, snapshot.Error)
	assert.Equal(t, device.KindUnreachable, snapshot.Error.Kind)

	// commands fail fast with the device error while it is gone
	resp, body := s.do(http.MethodPost, "/session/start")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode, string(body))

	s.pad.SetOnline(true)
	require.Eventually(t, func() bool {
		snapshot := s.state()
		return snapshot.IsConnected && !snapshot.IsReconnecting
	}, 3*time.Second, 25*time.Millisecond)

	snapshot = s.state()
	assert.Nil(t, snapshot.Error)
	assert.Zero(t, snapshot.ConsecutiveFailures)

	var kinds []string
	require.Eventually(t, func() bool {
		_, body := s.do(http.MethodGet, "/notifications")
		var notifications []map[string]any
		require.NoError(t, json.Unmarshal(body, &notifications))
		kinds = kinds[:0]
		for _, n := range notifications {
			kinds = append(kinds, n["kind"].(string))
		}
		return len(kinds) > 0 && kinds[0] == "connection_restored"
	}, 2*time.Second, 20*time.Millisecond)

	// a single outage gives exactly one lost notification
	lost := 0
	for _, kind := range kinds {
		if kind == "connection_lost" {
			lost++
		}
	}
	assert.Equal(t, 1, lost, kinds)
}

func (s *IntegrationTestSuite) TestMetricsExposed() {
	t := s.T()

	resp, body := s.do(http.MethodGet, "/state")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	metrics := s.scrapeMetrics()
	assert.True(t, strings.Contains(metrics, "padcontrol_main_status_polls"), "polls counter missing")
	assert.True(t, strings.Contains(metrics, "padcontrol_main_device_connected 1"), "device connected gauge missing")
	assert.True(t, strings.Contains(metrics, `padcontrol_main_request_duration_seconds_count{method="GET",route="/state"`), "request histogram missing")
}

func (s *IntegrationTestSuite) TestCorsRejectsUnknownOrigin() {
	t := s.T()

	req, err := http.NewRequest(http.MethodGet, serverEndpoint+"/state", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://evil.example")

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
