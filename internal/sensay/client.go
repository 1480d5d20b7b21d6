package sensay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound marks a lookup that the platform answered with 404.
var ErrNotFound = errors.New("sensay: not found")

// APIError is a non-2xx platform response.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sensay api status %d: %s", e.Status, e.Body)
}

// Retryable reports whether the failure class is worth retrying upstream.
// The workflow itself never retries; callers use this for surfacing only.
func (e *APIError) Retryable() bool {
	switch e.Status {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// Config controls client construction.
type Config struct {
	BaseURL   string
	OrgSecret string
	Timeout   time.Duration
}

// Client talks to a Sensay-compatible persona platform. Authentication is an
// organization secret header on every call plus a per-user id header on
// user-scoped calls.
type Client struct {
	baseURL   string
	orgSecret string
	client    *http.Client
}

func NewClient(cfg Config) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "https://api.sensay.io/v1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   base,
		orgSecret: strings.TrimSpace(cfg.OrgSecret),
		client:    &http.Client{Timeout: timeout},
	}
}

// GetUser fetches a user record by id. Returns ErrNotFound on 404.
func (c *Client) GetUser(ctx context.Context, id string) (User, error) {
	var out User
	err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(id), "", nil, &out)
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return out, nil
}

// CreateUser registers a user with the supplied id.
func (c *Client) CreateUser(ctx context.Context, id string) (User, error) {
	var out User
	err := c.do(ctx, http.MethodPost, "/users", "", map[string]string{"id": id}, &out)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	if out.ID == "" {
		out.ID = id
	}
	return out, nil
}

// ListReplicas returns all replicas owned by userID.
func (c *Client) ListReplicas(ctx context.Context, userID string) ([]Replica, error) {
	var out ReplicaList
	err := c.do(ctx, http.MethodGet, "/replicas", userID, nil, &out)
	if err != nil {
		return nil, fmt.Errorf("list replicas: %w", err)
	}
	return out.Items, nil
}

// CreateReplica provisions a new replica owned by userID.
func (c *Client) CreateReplica(ctx context.Context, userID string, req CreateReplicaRequest) (Replica, error) {
	var out Replica
	err := c.do(ctx, http.MethodPost, "/replicas", userID, req, &out)
	if err != nil {
		return Replica{}, fmt.Errorf("create replica: %w", err)
	}
	return out, nil
}

// Chat sends one message to a replica and returns its reply. Single request,
// no streaming; the client timeout bounds the call.
func (c *Client) Chat(ctx context.Context, userID, replicaID, content string) (ChatReply, error) {
	var out ChatReply
	path := "/replicas/" + url.PathEscape(replicaID) + "/chat/completions"
	err := c.do(ctx, http.MethodPost, path, userID, map[string]string{"content": content}, &out)
	if err != nil {
		return ChatReply{}, fmt.Errorf("chat completion: %w", err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path, userID string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-ORGANIZATION-SECRET", c.orgSecret)
	if userID != "" {
		req.Header.Set("X-USER-ID", userID)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return &APIError{Status: res.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
