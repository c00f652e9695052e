// Package client provides a typed REST client for the Arbor service.
// It is used by arborctl and is suitable for embedding in other Go
// programs that talk to a running Arbor deployment.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/arborhq/arbor/internal/model"
)

// Client wraps a resty client pointed at an Arbor service.
type Client struct {
	rc    *resty.Client
	token string
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.rc.SetTimeout(d) }
}

// WithToken supplies a previously issued bearer token, skipping Login.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
		c.rc.SetAuthToken(token)
	}
}

// New constructs a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		rc: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetHeader("Content-Type", "application/json"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the bearer token acquired by Login, if any.
func (c *Client) Token() string { return c.token }

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *Client) fail(resp *resty.Response) error {
	var apiErr apiError
	if err := json.Unmarshal(resp.Body(), &apiErr); err == nil {
		detail := apiErr.Message
		if detail == "" {
			detail = apiErr.Error
		}
		if detail != "" {
			return fmt.Errorf("arbor: %s (status %d)", detail, resp.StatusCode())
		}
	}
	return fmt.Errorf("arbor: unexpected status %d", resp.StatusCode())
}

// ---------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------

// Register creates a new user account.
func (c *Client) Register(ctx context.Context, username, password string) (*model.User, error) {
	var user model.User
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username, "password": password}).
		SetResult(&user).
		Post("/auth/register")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, c.fail(resp)
	}
	return &user, nil
}

// Login authenticates and stores the bearer token on the client for
// subsequent calls.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username, "password": password}).
		SetResult(&out).
		Post("/auth/login")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return c.fail(resp)
	}
	c.token = out.Token
	c.rc.SetAuthToken(out.Token)
	return nil
}

// ---------------------------------------------------------------------
// Containers
// ---------------------------------------------------------------------

// CreateContainerParams mirrors the container creation payload.
type CreateContainerParams struct {
	Name     string                  `json:"name"`
	Settings model.ContainerSettings `json:"settings"`
	Parents  []string                `json:"parents,omitempty"`
	Children []string                `json:"children,omitempty"`
}

// CreateContainer creates a container owned by the authenticated user.
func (c *Client) CreateContainer(ctx context.Context, params CreateContainerParams) (*model.Container, error) {
	var container model.Container
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(params).
		SetResult(&container).
		Post("/containers")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, c.fail(resp)
	}
	return &container, nil
}

// GetContainer fetches a container by id.
func (c *Client) GetContainer(ctx context.Context, containerID string) (*model.Container, error) {
	var container model.Container
	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&container).
		Get("/containers/" + containerID)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.fail(resp)
	}
	return &container, nil
}

// DeleteContainer removes a container and everything hanging off it.
func (c *Client) DeleteContainer(ctx context.Context, containerID string) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(map[string]string{"containerId": containerID}).
		Post("/containers/delete")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return c.fail(resp)
	}
	return nil
}

type containerListResponse struct {
	Containers []*model.Container `json:"containers"`
	Count      int                `json:"count"`
}

// SearchPrivate finds the authenticated user's containers by name prefix.
func (c *Client) SearchPrivate(ctx context.Context, prefix string, limit int) ([]*model.Container, error) {
	return c.searchContainers(ctx, "/containersearch/private", prefix, limit)
}

// SearchPublic finds public containers by name prefix.
func (c *Client) SearchPublic(ctx context.Context, prefix string, limit int) ([]*model.Container, error) {
	return c.searchContainers(ctx, "/containersearch/public", prefix, limit)
}

func (c *Client) searchContainers(ctx context.Context, path, prefix string, limit int) ([]*model.Container, error) {
	var out containerListResponse
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"prefix": prefix, "limit": limit}).
		SetResult(&out).
		Post(path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.fail(resp)
	}
	return out.Containers, nil
}

// ---------------------------------------------------------------------
// Linking
// ---------------------------------------------------------------------

// LinkOutcome reports whether a link attempt completed directly or was
// queued as a request pending the target owner's approval.
type LinkOutcome struct {
	Status  string             `json:"status"`
	Request *model.LinkRequest `json:"request,omitempty"`
}

// RequestGetLink asks to make parent an upstream of container.
func (c *Client) RequestGetLink(ctx context.Context, containerID, parentID string) (*LinkOutcome, error) {
	return c.link(ctx, "/link/getlink", containerID, "parentId", parentID)
}

// RequestPutLink asks to make child a downstream of container.
func (c *Client) RequestPutLink(ctx context.Context, containerID, childID string) (*LinkOutcome, error) {
	return c.link(ctx, "/link/putlink", containerID, "childId", childID)
}

func (c *Client) link(ctx context.Context, path, containerID, otherKey, otherID string) (*LinkOutcome, error) {
	var out LinkOutcome
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(map[string]string{"containerId": containerID, otherKey: otherID}).
		SetResult(&out).
		Post(path)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.fail(resp)
	}
	return &out, nil
}

// UnlinkGet removes parent from container's parents.
func (c *Client) UnlinkGet(ctx context.Context, containerID, parentID string) error {
	return c.unlink(ctx, "/link/unlinkget", containerID, "parentId", parentID)
}

// UnlinkPut removes child from container's children.
func (c *Client) UnlinkPut(ctx context.Context, containerID, childID string) error {
	return c.unlink(ctx, "/link/unlinkput", containerID, "childId", childID)
}

func (c *Client) unlink(ctx context.Context, path, containerID, otherKey, otherID string) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(map[string]string{"containerId": containerID, otherKey: otherID}).
		Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return c.fail(resp)
	}
	return nil
}

type requestListResponse struct {
	Requests []*model.LinkRequest `json:"requests"`
	Count    int                  `json:"count"`
}

// RequestsMadeBy lists pending requests a container has initiated.
func (c *Client) RequestsMadeBy(ctx context.Context, containerID string, link model.LinkType) ([]*model.LinkRequest, error) {
	var out requestListResponse
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(map[string]string{"containerId": containerID, "linkType": string(link)}).
		SetResult(&out).
		Post("/link/madebyme")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.fail(resp)
	}
	return out.Requests, nil
}

// RequestsMadeToMe lists pending requests targeting the authenticated
// user's containers.
func (c *Client) RequestsMadeToMe(ctx context.Context, link model.LinkType) ([]*model.LinkRequest, error) {
	var out requestListResponse
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(map[string]string{"linkType": string(link)}).
		SetResult(&out).
		Post("/link/madetome")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.fail(resp)
	}
	return out.Requests, nil
}

// AcceptRequest approves a pending link request by id.
func (c *Client) AcceptRequest(ctx context.Context, requestID string) error {
	return c.resolveRequest(ctx, "/link/accept", requestID)
}

// CancelRequest withdraws or declines a pending link request by id.
func (c *Client) CancelRequest(ctx context.Context, requestID string) error {
	return c.resolveRequest(ctx, "/link/cancel", requestID)
}

func (c *Client) resolveRequest(ctx context.Context, path, requestID string) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(map[string]string{"requestId": requestID}).
		Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return c.fail(resp)
	}
	return nil
}

// ---------------------------------------------------------------------
// Topics & ancestry search
// ---------------------------------------------------------------------

// CreateTopic records a topic under its origin container.
func (c *Client) CreateTopic(ctx context.Context, originID, name, content string) (*model.Topic, error) {
	var topic model.Topic
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(map[string]string{"origin": originID, "name": name, "content": content}).
		SetResult(&topic).
		Post("/topics")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusCreated {
		return nil, c.fail(resp)
	}
	return &topic, nil
}

// DeleteTopic removes a topic by id.
func (c *Client) DeleteTopic(ctx context.Context, topicID string) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		Delete("/topics/" + topicID)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return c.fail(resp)
	}
	return nil
}

// TopicSearchParams shapes an upward ancestry search. TimeRange is
// required; topics outside the window are skipped.
type TopicSearchParams struct {
	ContainerID     string          `json:"containerId"`
	NumberOfTopics  int             `json:"numberOfTopics"`
	TimeRange       model.TimeRange `json:"timeRange"`
	AvoidContainers []string        `json:"avoidContainers,omitempty"`
}

type topicListResponse struct {
	Topics []*model.Topic `json:"topics"`
	Count  int            `json:"count"`
}

// SearchTopics walks the ancestry of the start container collecting topics.
func (c *Client) SearchTopics(ctx context.Context, params TopicSearchParams) ([]*model.Topic, error) {
	var out topicListResponse
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(params).
		SetResult(&out).
		Post("/topicsearch")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, c.fail(resp)
	}
	return out.Topics, nil
}

// ---------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------

// Healthy reports whether the service answers its health probe.
func (c *Client) Healthy(ctx context.Context) bool {
	resp, err := c.rc.R().SetContext(ctx).Get("/api/health")
	return err == nil && resp.StatusCode() == http.StatusOK
}
