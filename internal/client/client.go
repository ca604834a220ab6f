package client

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

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const apiPrefix = "/api/v1"

// Config holds common client configuration
type Config struct {
	ServerURL string
	Token     string
	Timeout   time.Duration
	// MaxTries bounds attempts for idempotent requests.
	MaxTries uint
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:8080",
		Timeout:   30 * time.Second,
		MaxTries:  3,
	}
}

// Client calls the tracker HTTP API.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a client for the given configuration.
func New(cfg Config) *Client {
	if cfg.MaxTries == 0 {
		cfg.MaxTries = 1
	}
	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")

	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// WithToken returns a copy of the client that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cfg := c.cfg
	cfg.Token = token
	return &Client{cfg: cfg, http: c.http}
}

// APIError is the decoded error body of a non 2xx response.
type APIError struct {
	Status    int            `json:"-"`
	Kind      string         `json:"kind"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

type User struct {
	ID        uuid.UUID  `json:"id"`
	OrgID     *uuid.UUID `json:"org_id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

type Workflow struct {
	ID        uuid.UUID `json:"id"`
	OrgID     uuid.UUID `json:"org_id"`
	Name      string    `json:"name"`
	Statuses  []string  `json:"statuses"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Project struct {
	ID          uuid.UUID  `json:"id"`
	OrgID       uuid.UUID  `json:"org_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	WorkflowID  *uuid.UUID `json:"workflow_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Ticket struct {
	ID          uuid.UUID  `json:"id"`
	OrgID       uuid.UUID  `json:"org_id"`
	ProjectID   uuid.UUID  `json:"project_id"`
	EpicID      *uuid.UUID `json:"epic_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssigneeID  *uuid.UUID `json:"assignee_id"`
	ReporterID  uuid.UUID  `json:"reporter_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TicketFilter narrows ListTickets. Zero values are ignored.
type TicketFilter struct {
	ProjectID  *uuid.UUID
	Status     string
	AssigneeID *uuid.UUID
}

func (f TicketFilter) query() url.Values {
	q := url.Values{}
	if f.ProjectID != nil {
		q.Set("project_id", f.ProjectID.String())
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.AssigneeID != nil {
		q.Set("assignee_id", f.AssigneeID.String())
	}
	return q
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	var token Token
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/token", nil, body, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/me", nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListWorkflows(ctx context.Context) ([]Workflow, error) {
	var resp listResponse[Workflow]
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/workflows", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var resp listResponse[Project]
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/projects", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// ProjectWorkflow returns the workflow currently governing a project.
func (c *Client) ProjectWorkflow(ctx context.Context, projectID uuid.UUID) (*Workflow, error) {
	var wf Workflow
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/projects/"+projectID.String()+"/workflow", nil, nil, &wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

func (c *Client) ListTickets(ctx context.Context, filter TicketFilter) ([]Ticket, error) {
	var resp listResponse[Ticket]
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/tickets", filter.query(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) GetTicket(ctx context.Context, ticketID uuid.UUID) (*Ticket, error) {
	var ticket Ticket
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/tickets/"+ticketID.String(), nil, nil, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// SetTicketStatus changes a ticket's status within its project's workflow.
func (c *Client) SetTicketStatus(ctx context.Context, ticketID uuid.UUID, status string) (*Ticket, error) {
	var ticket Ticket
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPut, apiPrefix+"/tickets/"+ticketID.String()+"/status", nil, body, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// MoveTicket moves a ticket into another project of the same organization.
func (c *Client) MoveTicket(ctx context.Context, ticketID, projectID uuid.UUID) (*Ticket, error) {
	var ticket Ticket
	body := map[string]uuid.UUID{"project_id": projectID}
	if err := c.do(ctx, http.MethodPost, apiPrefix+"/tickets/"+ticketID.String()+"/move", nil, body, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// do sends a request and decodes the JSON response into out. GET requests
// are retried on transport errors, 429 and 5xx responses.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.cfg.ServerURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	tries := uint(1)
	if method == http.MethodGet {
		tries = c.cfg.MaxTries
	}

	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		err := c.send(ctx, method, target, payload, out)
		if err == nil {
			return struct{}{}, nil
		}
		if !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		zerolog.Ctx(ctx).Debug().Err(err).Str("url", target).Int("attempt", attempts).Msg("request failed, retrying")
		return struct{}{}, err
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(tries))

	return err
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte, out any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var envelope struct {
		Error     APIError `json:"error"`
		RequestID string   `json:"request_id"`
	}

	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Kind != "" {
		*apiErr = envelope.Error
		apiErr.Status = resp.StatusCode
		apiErr.RequestID = envelope.RequestID
	} else {
		apiErr.Kind = "http_error"
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusTooManyRequests || apiErr.Status >= 500
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
