package kaisar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mixelka/zeronode/pkg/models"
)

// DefaultBaseURL is the production API endpoint
const DefaultBaseURL = "https://zero-api.kaisar.io/"

// Config for a per-account API client
type Config struct {
	BaseURL     string
	Token       string
	Email       string
	ExtensionID string
	Proxy       string        // empty for a direct connection
	Timeout     time.Duration // 0 means no client timeout
}

// Client is a ZeroNode API client bound to one account
type Client struct {
	rest        *resty.Client
	token       string
	email       string
	extensionID string
}

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s (status %d)", e.Body, e.StatusCode)
}

// NewClient creates a client for one account
func NewClient(cfg Config) (*Client, error) {
	httpClient, err := NewHTTPClient(cfg.Proxy, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	rest := resty.NewWithClient(httpClient).
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(cfg.Token).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json, text/plain, */*")

	// Finalize identifies the device by extension id; older data files only carry the token.
	extensionID := cfg.ExtensionID
	if extensionID == "" {
		extensionID = cfg.Token
	}

	return &Client{
		rest:        rest,
		token:       cfg.Token,
		email:       cfg.Email,
		extensionID: extensionID,
	}, nil
}

// envelope is the common response wrapper
type envelope[T any] struct {
	Data T `json:"data"`
}

// CheckIn performs the daily login
func (c *Client) CheckIn(ctx context.Context) (*models.CheckIn, error) {
	var resp envelope[*models.CheckIn]
	if err := c.do(ctx, c.rest.R().SetBody(struct{}{}), http.MethodPost, "/checkin/check", &resp); err != nil {
		return nil, fmt.Errorf("failed to check in: %w", err)
	}
	return resp.Data, nil
}

// MissionTasks lists the account's mission tasks
func (c *Client) MissionTasks(ctx context.Context) ([]models.MissionTask, error) {
	var resp envelope[[]models.MissionTask]
	if err := c.do(ctx, c.rest.R(), http.MethodGet, "/mission/tasks", &resp); err != nil {
		return nil, fmt.Errorf("failed to get mission tasks: %w", err)
	}
	return resp.Data, nil
}

// ClaimTask claims the reward of a completed task
func (c *Client) ClaimTask(ctx context.Context, taskID string) error {
	req := c.rest.R().SetPathParam("id", taskID).SetBody(struct{}{})
	if err := c.do(ctx, req, http.MethodPost, "/mission/tasks/{id}/claim", nil); err != nil {
		return fmt.Errorf("failed to claim task %s: %w", taskID, err)
	}
	return nil
}

// Ping sends the extension keep-alive. The server expects the account token as the extension.
func (c *Client) Ping(ctx context.Context) error {
	req := c.rest.R().SetBody(map[string]string{"extension": c.token})
	if err := c.do(ctx, req, http.MethodPost, "/extension/ping", nil); err != nil {
		return fmt.Errorf("failed to ping: %w", err)
	}
	return nil
}

// CurrentMining returns the current mining session, nil if the server reports none
func (c *Client) CurrentMining(ctx context.Context) (*models.MiningSnapshot, error) {
	var resp envelope[*models.MiningSnapshot]
	req := c.rest.R().SetQueryParam("extension", c.email)
	if err := c.do(ctx, req, http.MethodGet, "/mining/current", &resp); err != nil {
		return nil, fmt.Errorf("failed to get mining data: %w", err)
	}
	return resp.Data, nil
}

// ClaimMining finalizes a concluded mining session. The response body is ignored.
func (c *Client) ClaimMining(ctx context.Context) error {
	req := c.rest.R().SetBody(map[string]string{"extension": c.extensionID})
	if err := c.do(ctx, req, http.MethodPost, "/mining/claim", nil); err != nil {
		return fmt.Errorf("failed to claim mining points: %w", err)
	}
	return nil
}

// Balance returns the first balance entry of the account
func (c *Client) Balance(ctx context.Context) (float64, error) {
	var resp envelope[[]struct {
		Balance amount `json:"balance"`
	}]
	if err := c.do(ctx, c.rest.R(), http.MethodGet, "/user/balances", &resp); err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	if len(resp.Data) == 0 {
		return 0, fmt.Errorf("failed to get balance: empty balance list")
	}
	return float64(resp.Data[0].Balance), nil
}

// do executes req and decodes the JSON body into out when out is not nil
func (c *Client) do(ctx context.Context, req *resty.Request, method, path string, out any) error {
	resp, err := req.SetContext(ctx).Execute(method, path)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}

	if resp.IsError() {
		return &APIError{StatusCode: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("failed to parse response: %w (body: %s)", err, resp.String())
	}
	return nil
}

// amount decodes a balance sent either as a number or a numeric string
type amount float64

func (a *amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid balance %s: %w", string(data), err)
	}
	*a = amount(v)
	return nil
}
