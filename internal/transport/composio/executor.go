// Package composio executes external productivity actions through a Composio-style
// tool execution API on behalf of connected user accounts.
package composio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/campusagent/internal/domain"
	"github.com/kailas-cloud/campusagent/internal/domain/tool"
)

const (
	// DefaultBaseURL is the public API endpoint.
	DefaultBaseURL = "https://backend.composio.dev"
	// DefaultTimeout bounds one API call.
	DefaultTimeout = 60 * time.Second

	statusActive = "ACTIVE"
	maxErrorBody = 4 << 10
)

// Config holds the executor settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client // optional, overrides Timeout
	Logger     *zap.Logger
}

// Connection is one of a user's connected app accounts.
type Connection struct {
	ID      string `json:"id"`
	App     string `json:"app"`
	Status  string `json:"status"`
	Created string `json:"created_at,omitempty"`
}

// Active reports whether the account can execute actions.
func (c Connection) Active() bool { return strings.EqualFold(c.Status, statusActive) }

// Executor implements tool.Executor over HTTP.
type Executor struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// New creates an executor.
func New(cfg Config) *Executor {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{baseURL: base, apiKey: cfg.APIKey, http: client, logger: log}
}

type accountDTO struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	Toolkit   struct {
		Slug string `json:"slug"`
	} `json:"toolkit"`
	ToolkitSlug string `json:"toolkitSlug"`
}

func (a *accountDTO) app() string {
	if a.Toolkit.Slug != "" {
		return strings.ToLower(a.Toolkit.Slug)
	}
	return strings.ToLower(a.ToolkitSlug)
}

// Connections lists the user's connected accounts, active or not.
func (e *Executor) Connections(ctx context.Context, userID string) ([]Connection, error) {
	q := url.Values{"user_ids": {userID}}

	var resp struct {
		Items []accountDTO `json:"items"`
	}
	if err := e.do(ctx, http.MethodGet, "/api/v3/connected_accounts?"+q.Encode(), nil, &resp); err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	out := make([]Connection, len(resp.Items))
	for i := range resp.Items {
		a := &resp.Items[i]
		out[i] = Connection{ID: a.ID, App: a.app(), Status: a.Status, Created: a.CreatedAt}
	}
	return out, nil
}

// Execute runs actionID with the user's active connection for the action's app.
// A missing connection is returned as *domain.NoActiveConnectionError.
func (e *Executor) Execute(ctx context.Context, userID, actionID string, params map[string]any) (tool.Result, error) {
	app := tool.AppForAction(actionID)

	conns, err := e.Connections(ctx, userID)
	if err != nil {
		return tool.Result{}, fmt.Errorf("%w: %w", domain.ErrExternalExecution, err)
	}
	accountID := ""
	for _, c := range conns {
		if c.Active() && c.App == string(app) {
			accountID = c.ID
			break
		}
	}
	if accountID == "" {
		return tool.Result{}, &domain.NoActiveConnectionError{App: string(app)}
	}

	body := map[string]any{
		"connected_account_id": accountID,
		"user_id":              userID,
		"arguments":            params,
	}
	var resp struct {
		Data       any     `json:"data"`
		Successful bool    `json:"successful"`
		Error      *string `json:"error"`
	}
	start := time.Now()
	if err := e.do(ctx, http.MethodPost, "/api/v3/tools/execute/"+url.PathEscape(actionID), body, &resp); err != nil {
		return tool.Result{}, fmt.Errorf("%w: %s: %w", domain.ErrExternalExecution, actionID, err)
	}

	e.logger.Debug("Action executed",
		zap.String("action", actionID),
		zap.String("app", string(app)),
		zap.Bool("successful", resp.Successful),
		zap.Duration("duration", time.Since(start)),
	)

	if !resp.Successful {
		msg := "action reported failure"
		if resp.Error != nil && *resp.Error != "" {
			msg = *resp.Error
		}
		return tool.Fail(fmt.Errorf("%w: %s: %s", domain.ErrExternalExecution, actionID, msg)), nil
	}
	return tool.OK(resp.Data), nil
}

// HealthCheck verifies the endpoint and key with a cheap authenticated call.
func (e *Executor) HealthCheck(ctx context.Context) error {
	var resp json.RawMessage
	if err := e.do(ctx, http.MethodGet, "/api/v3/toolkits?limit=1", nil, &resp); err != nil {
		return fmt.Errorf("composio health: %w", err)
	}
	return nil
}

func (e *Executor) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, e.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("x-api-key", e.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(detail))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// StatusError is a non-2xx API response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("composio API status %d", e.Code)
	}
	return fmt.Sprintf("composio API status %d: %s", e.Code, e.Body)
}

var _ tool.Executor = (*Executor)(nil)
