// Package chat talks to the workspace chat service: directory lookups,
// direct-message conversations and message delivery.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultPostRate = 1.0 // messages per second
)

// Channel is a directory entry for a conversation.
type Channel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// User is a directory entry for a workspace member.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
	Profile struct {
		DisplayName string `json:"display_name"`
		RealName    string `json:"real_name"`
	} `json:"profile"`
}

// API is the chat service surface the dispatch engine depends on.
type API interface {
	ListChannels(ctx context.Context, cursor string, limit int) ([]Channel, string, error)
	ListUsers(ctx context.Context, cursor string, limit int) ([]User, string, error)
	OpenDM(ctx context.Context, userID string) (string, error)
	PostMessage(ctx context.Context, channelID, text string) (string, error)
}

// ClientConfig holds chat API client configuration.
type ClientConfig struct {
	BaseURL  string
	BotToken string
	Timeout  time.Duration
	PostRate float64 // messages per second for PostMessage
}

// Client implements API over the service's HTTP interface.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a chat API client.
func NewClient(config ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.PostRate == 0 {
		config.PostRate = defaultPostRate
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.PostRate), 1),
	}
}

// apiEnvelope is the common response wrapper of the chat service.
type apiEnvelope struct {
	OK               bool      `json:"ok"`
	Error            string    `json:"error"`
	Channels         []Channel `json:"channels"`
	Members          []User    `json:"members"`
	Channel          *Channel  `json:"channel"`
	TS               string    `json:"ts"`
	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

// ListChannels fetches one page of the conversation directory.
func (c *Client) ListChannels(ctx context.Context, cursor string, limit int) ([]Channel, string, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("types", "public_channel,private_channel")
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	env, err := c.get(ctx, "conversations.list", q)
	if err != nil {
		return nil, "", err
	}
	return env.Channels, env.ResponseMetadata.NextCursor, nil
}

// ListUsers fetches one page of the member directory.
func (c *Client) ListUsers(ctx context.Context, cursor string, limit int) ([]User, string, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	env, err := c.get(ctx, "users.list", q)
	if err != nil {
		return nil, "", err
	}
	return env.Members, env.ResponseMetadata.NextCursor, nil
}

// OpenDM opens (or retrieves) a one-to-one conversation with a user.
func (c *Client) OpenDM(ctx context.Context, userID string) (string, error) {
	env, err := c.post(ctx, "conversations.open", map[string]string{"users": userID})
	if err != nil {
		return "", err
	}
	if env.Channel == nil {
		return "", &APIError{Code: "no_channel_returned"}
	}
	return env.Channel.ID, nil
}

// PostMessage delivers text to a conversation and returns the delivery timestamp.
func (c *Client) PostMessage(ctx context.Context, channelID, text string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	env, err := c.post(ctx, "chat.postMessage", map[string]string{
		"channel": channelID,
		"text":    text,
	})
	if err != nil {
		return "", err
	}
	return env.TS, nil
}

func (c *Client) get(ctx context.Context, method string, q url.Values) (*apiEnvelope, error) {
	u := fmt.Sprintf("%s/%s?%s", c.config.BaseURL, method, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	return c.do(req, method)
}

func (c *Client) post(ctx context.Context, method string, payload map[string]string) (*apiEnvelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	u := fmt.Sprintf("%s/%s", c.config.BaseURL, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, method)
}

func (c *Client) do(req *http.Request, method string) (*apiEnvelope, error) {
	req.Header.Set("Authorization", "Bearer "+c.config.BotToken)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	recordAPIRequest(method, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", method, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Code: fmt.Sprintf("http_%d", resp.StatusCode)}
	}

	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", method, err)
	}
	if !env.OK {
		code := env.Error
		if code == "" {
			code = "unknown_error"
		}
		return nil, &APIError{Code: code}
	}

	return &env, nil
}
