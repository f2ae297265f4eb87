package test

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/2beens/padcontrol/internal/device"
	"github.com/2beens/padcontrol/internal/pad"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestSessionLifecycle() {
	t := s.T()
	savedBefore := s.pad.Saved()

	resp, body := s.do(http.MethodPost, "/session/start")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	// the poller keeps pulling stats while the belt runs
	require.Eventually(t, func() bool {
		return s.state().Stats.Steps >= 9
	}, 3*time.Second, 50*time.Millisecond)

	snapshot := s.state()
	assert.Equal(t, pad.BeltRunning, snapshot.BeltState)
	assert.Equal(t, 2.0, snapshot.Stats.CurrentSpeed)
	assert.True(t, snapshot.IsConnected)
	assert.Nil(t, snapshot.Error)

	resp, body = s.do(http.MethodPost, "/speed?value=4.2")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	// a poll already in flight may land after the forced refresh
	assert.Eventually(t, func() bool {
		return s.state().Stats.CurrentSpeed == 4.2
	}, time.Second, 20*time.Millisecond)

	resp, body = s.do(http.MethodPost, "/session/end")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var endResp struct {
		Saved device.SaveResponse `json:"saved"`
	}
	require.NoError(t, json.Unmarshal(body, &endResp))
	assert.Equal(t, "session saved", endResp.Saved.Message)
	assert.GreaterOrEqual(t, endResp.Saved.Data.Steps, 9)
	assert.Equal(t, savedBefore+1, s.pad.Saved())
	assert.Eventually(t, func() bool {
		return s.state().BeltState == pad.BeltIdle
	}, time.Second, 20*time.Millisecond)

	var notifications []map[string]any
	require.Eventually(t, func() bool {
		_, body := s.do(http.MethodGet, "/notifications")
		notifications = nil
		require.NoError(t, json.Unmarshal(body, &notifications))
		return len(notifications) > 0 && notifications[0]["kind"] == "session_ended"
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, "Exercise Complete", notifications[0]["title"])
}

func (s *IntegrationTestSuite) TestOutOfRangeSpeedIsRejectedLocally() {
	t := s.T()

	resp, body := s.do(http.MethodPost, "/speed?value=9")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	snapshot := s.state()
	require.NotNil(t, snapshot.Error)
	assert.Equal(t, device.KindValidation, snapshot.Error.Kind)
	assert.Equal(t, pad.BeltIdle, snapshot.BeltState)
}
