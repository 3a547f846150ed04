package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dotcommander/playbook/internal/models"
)

// ConnectionFailedMessage is the content of the synthetic log returned when
// the assistant cannot be reached.
const ConnectionFailedMessage = "Failed to connect to Neural Link. Please try again."

const (
	maxMessageBytes  = 16000
	maxResponseBytes = 1 << 20
)

// Client posts user messages to the assistant endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger for transport failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock replaces time.Now for filled-in timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a client for endpoint.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("assistant endpoint is required (set assistant_url or PLAYBOOK_ASSISTANT_URL)")
	}
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type request struct {
	Message      string       `json:"message"`
	LocalContext LocalContext `json:"local_context"`
}

// ValidateMessage rejects blank, oversized or NUL-carrying messages.
func ValidateMessage(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("message is empty")
	}
	if len(s) > maxMessageBytes {
		return fmt.Errorf("message exceeds %d byte limit (%d bytes)", maxMessageBytes, len(s))
	}
	if strings.ContainsRune(s, 0) {
		return errors.New("message contains null byte")
	}
	return nil
}

// Send posts text and returns the assistant's action logs. Transport
// failures and non-2xx replies yield a single SYSTEM_MESSAGE log and a nil
// error; a reply that cannot be parsed yields a MalformedResponseError.
func (c *Client) Send(ctx context.Context, text string, lc LocalContext) ([]models.ActionLog, error) {
	if err := ValidateMessage(text); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(request{Message: text, LocalContext: lc})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("assistant request failed", "endpoint", c.endpoint, "error", err)
		return c.connectionFailed(), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logger.Warn("assistant response read failed", "endpoint", c.endpoint, "error", err)
		return c.connectionFailed(), nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("assistant returned error status", "endpoint", c.endpoint, "status", resp.StatusCode)
		return c.connectionFailed(), nil
	}

	logs, err := ParseResponse(body, c.now())
	if err != nil {
		c.logger.Warn("assistant response rejected", "endpoint", c.endpoint, "error", err)
		return nil, err
	}
	return logs, nil
}

func (c *Client) connectionFailed() []models.ActionLog {
	return []models.ActionLog{{
		ID:        uuid.NewString(),
		Type:      models.ActionSystemMessage,
		Content:   ConnectionFailedMessage,
		Timestamp: c.now().UTC(),
	}}
}

// NewUserNote records the user's own message as a transcript entry.
func NewUserNote(text string, now time.Time) models.ActionLog {
	return models.ActionLog{
		ID:        uuid.NewString(),
		Type:      models.ActionUserNote,
		Content:   text,
		Timestamp: now.UTC(),
	}
}
