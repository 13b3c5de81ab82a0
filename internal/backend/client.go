package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/youthmultiply/welcoming-college/internal/models"
	"github.com/youthmultiply/welcoming-college/internal/participant"
	"github.com/youthmultiply/welcoming-college/pkg/config"
	appErrors "github.com/youthmultiply/welcoming-college/pkg/errors"
	"github.com/youthmultiply/welcoming-college/pkg/middleware/requestid"
)

const (
	// PageSize is the fixed page size used when walking the collection.
	PageSize = 100

	participantsPath = "/api/participants"
	maxBodyBytes     = 32 << 20
)

type requestObserver interface {
	ObserveBackendRequest(operation string, status int, duration time.Duration)
}

// StatusError reports a non-2xx answer from the backend. Message carries the
// body's "message" field when one was sent.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend responded %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend responded %d", e.StatusCode)
}

// Page is one decoded page of the participant collection.
type Page struct {
	Participants []participant.Record
	Page         int
	Limit        int
	TotalPages   int
}

// Client talks to the participant REST API.
type Client struct {
	baseURL string
	http    *http.Client
	metrics requestObserver
	logger  *zap.Logger
}

// NewClient constructs a backend client. An empty base URL targets the same
// origin the service is mounted on, so relative URLs are resolved by the
// provided http.Client transport.
func NewClient(cfg config.BackendConfig, httpClient *http.Client, metrics requestObserver, logger *zap.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: cfg.BaseURL, http: httpClient, metrics: metrics, logger: logger}
}

// ListPage fetches a single page of participants.
func (c *Client) ListPage(ctx context.Context, token string, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = PageSize
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	req, err := c.newRequest(ctx, http.MethodGet, participantsPath+"?"+query.Encode(), token, nil)
	if err != nil {
		return nil, err
	}

	var envelope listEnvelope
	if err := c.do(req, "list_participants", &envelope); err != nil {
		return nil, err
	}

	result := &Page{Page: page, Limit: limit, TotalPages: 1}
	if envelope.Data != nil {
		result.Participants = envelope.Data.Participants
		if envelope.Data.Pagination != nil {
			if n, err := strconv.Atoi(participant.Stringify(envelope.Data.Pagination.TotalPages)); err == nil && n > 0 {
				result.TotalPages = n
			}
		}
	}
	if result.Participants == nil {
		result.Participants = []participant.Record{}
	}
	return result, nil
}

// ListAll walks every page sequentially, starting at page 1, until the
// server-reported total_pages is exceeded. Any failing page aborts the walk.
func (c *Client) ListAll(ctx context.Context, token string) ([]participant.Record, error) {
	all := make([]participant.Record, 0, PageSize)
	for page, totalPages := 1, 1; page <= totalPages; page++ {
		result, err := c.ListPage(ctx, token, page, PageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, result.Participants...)
		totalPages = result.TotalPages
	}
	c.logger.Debug("participants fetched", zap.Int("count", len(all)))
	return all, nil
}

// Register posts a registration payload. A non-2xx answer yields an error
// wrapping *StatusError; transport and decoding failures wrap the cause as
// BACKEND_UNAVAILABLE.
func (c *Client) Register(ctx context.Context, payload models.RegistrationPayload) (*models.RegistrationResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode registration: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, participantsPath, "", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var result models.RegistrationResult
	if err := c.do(req, "register_participant", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type listEnvelope struct {
	Data *struct {
		Participants []participant.Record `json:"participants"`
		Pagination   *struct {
			TotalPages any `json:"total_pages"`
		} `json:"pagination"`
	} `json:"data"`
}

type messageBody struct {
	Message string `json:"message"`
}

func (c *Client) newRequest(ctx context.Context, method, path, token string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build backend request")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if reqID := requestid.FromContext(ctx); reqID != "" {
		req.Header.Set(requestid.Header, reqID)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, operation string, dest interface{}) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	status := http.StatusServiceUnavailable
	if resp != nil {
		status = resp.StatusCode
	}
	if c.metrics != nil {
		c.metrics.ObserveBackendRequest(operation, status, time.Since(start))
	}
	if err != nil {
		c.logger.Warn("backend request failed", zap.String("operation", operation), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, appErrors.ErrBackendUnavailable.Message)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, "failed to read backend response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg messageBody
		_ = json.Unmarshal(raw, &msg)
		statusErr := &StatusError{StatusCode: resp.StatusCode, Message: msg.Message}
		c.logger.Info("backend rejected request", zap.String("operation", operation), zap.Int("status", resp.StatusCode), zap.String("message", msg.Message))
		message := msg.Message
		if message == "" {
			message = appErrors.ErrBackendRejected.Message
		}
		return appErrors.Wrap(statusErr, appErrors.ErrBackendRejected.Code, rejectionStatus(resp.StatusCode), message)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		return appErrors.Wrap(fmt.Errorf("decode %s response: %w", operation, err), appErrors.ErrBackendUnavailable.Code, appErrors.ErrBackendUnavailable.Status, "malformed backend response")
	}
	return nil
}

// AsStatusError extracts the backend rejection from err, if any.
func AsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}

// rejectionStatus mirrors client errors so callers can see auth and validation
// failures; backend 5xx answers surface as a bad gateway.
func rejectionStatus(code int) int {
	if code >= 400 && code < 500 {
		return code
	}
	return http.StatusBadGateway
}
