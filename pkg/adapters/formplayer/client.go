// Package formplayer forwards answer events to a form server over HTTP.
package formplayer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/aretw0/fullform/internal/logging"
	"github.com/aretw0/fullform/pkg/domain"
)

// ErrUnexpectedStatus is returned for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected status from form server")

// maxResponseSize bounds the response body read from the server.
const maxResponseSize = 8 << 20

// Client implements ports.AnswerTransport against a formplayer-style server.
//
// Each answer is POSTed as JSON to BaseURL + "/answer". Cookies set by the server are
// kept in a jar and sent back on later requests.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	domain  string
	user    string
	logger  *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (10s timeout, cookie jar).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithAuthToken sends "Authorization: Bearer <token>" on every request.
func WithAuthToken(token string) Option {
	return func(cl *Client) {
		cl.token = token
	}
}

// WithUser scopes requests to a project domain and username.
func WithUser(domainName, username string) Option {
	return func(cl *Client) {
		cl.domain = domainName
		cl.user = username
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) {
		cl.logger = l
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second, Jar: jar},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// answerRequest is the wire shape of an answer action.
type answerRequest struct {
	Action    string `json:"action"`
	SessionID string `json:"session-id"`
	Ix        string `json:"ix"`
	Answer    any    `json:"answer"`
	SeqID     int    `json:"seq_id"`
	Domain    string `json:"domain,omitempty"`
	Username  string `json:"username,omitempty"`
}

// SendAnswer posts the answer and decodes the server response.
// A body the runtime does not recognize yields a nil response.
func (c *Client) SendAnswer(ctx context.Context, evt domain.AnswerEvent) (*domain.Response, error) {
	body, err := json.Marshal(answerRequest{
		Action:    "answer",
		SessionID: evt.SessionID,
		Ix:        evt.Ix,
		Answer:    evt.Answer,
		SeqID:     evt.SeqID,
		Domain:    c.domain,
		Username:  c.user,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal answer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/answer", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("answer request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.logger.Debug("answer sent",
		"session_id", evt.SessionID, "ix", evt.Ix,
		"status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	parsed, err := domain.ParseResponse(data)
	if err != nil {
		c.logger.Debug("ignoring unparseable response", "err", err)
		return nil, nil
	}
	if !parsed.Recognized() {
		return nil, nil
	}
	return parsed, nil
}
