package device

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/padcontrol/internal/logging"
	"github.com/2beens/padcontrol/internal/pad"
	"github.com/2beens/padcontrol/internal/telemetry/metrics"
	"github.com/2beens/padcontrol/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	"go.opentelemetry.io/otel/attribute"
)

var log = logging.Component("device")

const (
	DefaultMaxAttempts = 3

	historyCacheKey = "history"
)

type ClientParams struct {
	BaseURL         string // e.g. http://localhost:5678/api
	HTTPClient      *http.Client
	MaxAttempts     int
	RetryDelay      time.Duration
	HistoryCacheTTL time.Duration
	Metrics         *metrics.Manager
}

// Client performs requests against the walking pad device API.
// It never touches the session store; callers decide what to do with errors.
type Client struct {
	baseURL         string
	httpClient      *http.Client
	maxAttempts     int
	retryDelay      time.Duration
	historyCacheTTL time.Duration
	cache           *freecache.Cache
	metrics         *metrics.Manager

	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(params ClientParams) *Client {
	maxAttempts := params.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	megabyte := 1024 * 1024
	return &Client{
		baseURL:         strings.TrimRight(params.BaseURL, "/"),
		httpClient:      httpClient,
		maxAttempts:     maxAttempts,
		retryDelay:      params.RetryDelay,
		historyCacheTTL: params.HistoryCacheTTL,
		cache:           freecache.NewCache(megabyte),
		metrics:         params.Metrics,
		sleep:           sleepCtx,
	}
}

// Request performs one logical request: up to maxAttempts tries, waiting
// attempt*retryDelay between them. Only transient failures are retried.
func (c *Client) Request(
	ctx context.Context,
	method, endpoint string,
	query url.Values,
	body any,
	out any,
) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "device.request")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.String("device.endpoint", endpoint),
		attribute.String("device.method", method),
	)

	var bodyBytes []byte
	if body != nil {
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindValidation, Message: "encode request body", Cause: err}
		}
	}

	var lastErr *Error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			c.metrics.CounterDeviceRetries.Inc()
			delay := time.Duration(attempt-1) * c.retryDelay
			log.Debugf("device api %s %s: retrying in %s (attempt %d/%d)", method, endpoint, delay, attempt, c.maxAttempts)
			if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
				log.Debugf("device api %s %s: retry aborted: %s", method, endpoint, sleepErr)
				return lastErr
			}
		}

		lastErr = c.doOnce(ctx, method, endpoint, query, bodyBytes, out)
		if lastErr == nil {
			span.SetAttributes(attribute.Int("device.attempts", attempt))
			return nil
		}
		if !lastErr.Retryable() || ctx.Err() != nil {
			return lastErr
		}
		log.Warnf("device api %s %s, attempt %d failed: %s", method, endpoint, attempt, lastErr)
	}

	span.SetAttributes(attribute.Int("device.attempts", c.maxAttempts))
	log.Errorf("device api %s %s: giving up after %d attempts: %s", method, endpoint, c.maxAttempts, lastErr)
	return lastErr
}

func (c *Client) doOnce(
	ctx context.Context,
	method, endpoint string,
	query url.Values,
	body []byte,
	out any,
) *Error {
	reqURL := c.baseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
	if err != nil {
		return &Error{Kind: KindValidation, Message: "build device api request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.Tracef("calling device api: %s %s", method, reqURL)

	begin := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.HistogramDeviceRequestDuration.WithLabelValues(endpoint).Observe(time.Since(begin).Seconds())
	if err != nil {
		c.metrics.CounterDeviceRequests.WithLabelValues(endpoint, "error").Inc()
		return &Error{
			Kind:    KindTransient,
			Message: "failed to communicate with device api",
			Cause:   err,
		}
	}
	defer resp.Body.Close()

	c.metrics.CounterDeviceRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{
			Kind:    KindTransient,
			Message: "failed to read device api response",
			Cause:   err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errorFromResponse(resp.StatusCode, respBytes)
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(respBytes)) == 0 {
		return &Error{Kind: KindMalformed, Message: "empty device api response"}
	}
	if err := json.Unmarshal(respBytes, out); err != nil {
		return &Error{Kind: KindMalformed, Message: "malformed device api response", Cause: err}
	}

	return nil
}

// errorFromResponse reads the {message, details} error body, falling back to the status text
func errorFromResponse(statusCode int, body []byte) *Error {
	kind := KindRejected
	if statusCode >= http.StatusInternalServerError ||
		statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests {
		kind = KindTransient
	}

	devErr := &Error{
		Kind:       kind,
		Message:    http.StatusText(statusCode),
		StatusCode: statusCode,
	}

	var apiErr apiErrorBody
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		devErr.Message = apiErr.Message
		devErr.Details = apiErr.Details
	}
	if devErr.Message == "" {
		devErr.Message = fmt.Sprintf("request failed with status %d", statusCode)
	}

	return devErr
}

func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	status := &Status{}
	if err := c.Request(ctx, http.MethodGet, "/device/status", nil, nil, status); err != nil {
		return nil, err
	}
	return status, nil
}

// Start starts the belt at the given speed (km/h x 10)
func (c *Client) Start(ctx context.Context, speedRaw int) error {
	if err := validateRawSpeed(speedRaw); err != nil {
		return err
	}
	query := url.Values{"speed": []string{strconv.Itoa(speedRaw)}}
	return c.Request(ctx, http.MethodPost, "/device/start", query, nil, nil)
}

func (c *Client) Stop(ctx context.Context) error {
	return c.Request(ctx, http.MethodPost, "/device/stop", nil, nil, nil)
}

// SetSpeed sets the belt speed (km/h x 10)
func (c *Client) SetSpeed(ctx context.Context, speedRaw int) error {
	if err := validateRawSpeed(speedRaw); err != nil {
		return err
	}
	query := url.Values{"speed": []string{strconv.Itoa(speedRaw)}}
	return c.Request(ctx, http.MethodPost, "/device/speed", query, nil, nil)
}

func (c *Client) SetMode(ctx context.Context, mode pad.Mode) error {
	if !mode.IsValid() {
		return NewValidationError("invalid mode: %q", mode)
	}
	query := url.Values{"mode": []string{mode.String()}}
	return c.Request(ctx, http.MethodPost, "/device/mode", query, nil, nil)
}

// Save persists the session that just ended
func (c *Client) Save(ctx context.Context) (*SaveResponse, error) {
	resp := &SaveResponse{}
	if err := c.Request(ctx, http.MethodPost, "/save", nil, nil, resp); err != nil {
		return nil, err
	}
	c.cache.Del([]byte(historyCacheKey))
	return resp, nil
}

func (c *Client) SetPreferences(ctx context.Context, prefs Preferences) error {
	if prefs.Empty() {
		return NewValidationError("no preferences to set")
	}

	query := url.Values{}
	if prefs.MaxSpeed != nil {
		query.Set("max_speed", strconv.Itoa(SpeedToRaw(*prefs.MaxSpeed)))
	}
	if prefs.StartSpeed != nil {
		query.Set("start_speed", strconv.Itoa(SpeedToRaw(*prefs.StartSpeed)))
	}
	if prefs.Sensitivity != nil {
		if *prefs.Sensitivity < 1 || *prefs.Sensitivity > 3 {
			return NewValidationError("sensitivity must be 1, 2 or 3, got %d", *prefs.Sensitivity)
		}
		query.Set("sensitivity", strconv.Itoa(*prefs.Sensitivity))
	}
	if prefs.ChildLock != nil {
		query.Set("child_lock", strconv.FormatBool(*prefs.ChildLock))
	}
	if prefs.UnitsMiles != nil {
		query.Set("units_miles", strconv.FormatBool(*prefs.UnitsMiles))
	}

	return c.Request(ctx, http.MethodPost, "/device/preferences", query, nil, nil)
}

func (c *Client) Calibrate(ctx context.Context) error {
	return c.Request(ctx, http.MethodPost, "/device/calibrate", nil, nil, nil)
}

// History returns the last saved sessions summary, cached for historyCacheTTL
func (c *Client) History(ctx context.Context) (*SaveResponse, error) {
	history := &SaveResponse{}
	if historyBytes, err := c.cache.Get([]byte(historyCacheKey)); err == nil {
		log.Tracef("found device history in cache")
		if err = json.Unmarshal(historyBytes, history); err == nil {
			return history, nil
		}
		log.Errorf("failed to unmarshal device history from cache: %s", err)
	}

	var raw json.RawMessage
	if err := c.Request(ctx, http.MethodGet, "/history", nil, nil, &raw); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, history); err != nil {
		return nil, &Error{Kind: KindMalformed, Message: "malformed device history response", Cause: err}
	}

	if c.historyCacheTTL > 0 {
		if err := c.cache.Set([]byte(historyCacheKey), raw, int(c.historyCacheTTL.Seconds())); err != nil {
			log.Errorf("failed to write device history cache: %s", err)
		}
	}

	return history, nil
}

func validateRawSpeed(speedRaw int) error {
	if speedRaw < MinRawSpeed || speedRaw > MaxRawSpeed {
		return NewValidationError("speed must be between %d and %d, got %d", MinRawSpeed, MaxRawSpeed, speedRaw)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
