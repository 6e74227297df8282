package asana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const DefaultBaseURL = "https://app.asana.com/api/1.0"

var (
	ErrRequest = errors.New("asana: request failed")
	ErrDecode  = errors.New("asana: malformed response")
)

// optFields are the task fields the digest needs; everything else is left
// out of the response.
var optFields = []string{
	"name",
	"due_on",
	"assignee_status",
	"parent.name",
	"parent.projects.name",
	"parent.projects.team.name",
	"projects.name",
	"projects.team.name",
	"workspace",
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client authenticating with a personal access token.
// A nil httpClient gets a bearer-token transport with a 30s timeout.
func NewClient(apiKey, baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"})
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// ID accepts both string gids and legacy numeric ids.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

type Ref struct {
	GID  ID     `json:"gid"`
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Key returns the gid, falling back to the legacy numeric id.
func (r Ref) Key() string {
	if r.GID != "" {
		return string(r.GID)
	}
	return string(r.ID)
}

type AsanaProject struct {
	Ref
	Team *Ref `json:"team"`
}

type AsanaTask struct {
	Ref
	DueOn          *string        `json:"due_on"`
	AssigneeStatus string         `json:"assignee_status"`
	Workspace      *Ref           `json:"workspace"`
	Parent         *AsanaTask     `json:"parent"`
	Projects       []AsanaProject `json:"projects"`
}

type User struct {
	Ref
	Email      string `json:"email"`
	Workspaces []Ref  `json:"workspaces"`
}

type tasksResponse struct {
	Data []AsanaTask `json:"data"`
}

type userResponse struct {
	Data User `json:"data"`
}

type errorResponse struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchTasks lists the incomplete tasks assigned to the token owner in workspace.
func (c *Client) FetchTasks(ctx context.Context, workspace string) ([]AsanaTask, error) {
	query := url.Values{}
	query.Set("workspace", workspace)
	query.Set("assignee", "me")
	query.Set("completed_since", "now")
	query.Set("opt_fields", strings.Join(optFields, ","))

	var result tasksResponse
	if err := c.get(ctx, "/tasks", query, &result); err != nil {
		return nil, err
	}
	if result.Data == nil {
		return nil, fmt.Errorf("%w: missing data array", ErrDecode)
	}
	return result.Data, nil
}

// Me returns the token owner. It doubles as a credentials check.
func (c *Client) Me(ctx context.Context) (User, error) {
	query := url.Values{}
	query.Set("opt_fields", "name,email,workspaces.name")

	var result userResponse
	if err := c.get(ctx, "/users/me", query, &result); err != nil {
		return User{}, err
	}
	return result.Data, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dst any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: API error (status %d): %s", ErrRequest, resp.StatusCode, errorMessage(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: failed to decode response: %w", ErrDecode, err)
	}
	return nil
}

func errorMessage(body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Errors) > 0 {
		messages := make([]string, 0, len(parsed.Errors))
		for _, e := range parsed.Errors {
			messages = append(messages, e.Message)
		}
		return strings.Join(messages, "; ")
	}
	return strings.TrimSpace(string(body))
}
