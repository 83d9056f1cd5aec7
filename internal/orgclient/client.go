// Package orgclient is the typed REST client for the organization service.
package orgclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/orgctl/internal/domain"
	"github.com/go-resty/resty/v2"
)

// Config holds connection settings for the organization service.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client exposes one method per organization service endpoint. Each call is
// a single attempt; there is no retry.
type Client interface {
	FetchTree(ctx context.Context, q TreeQuery) ([]domain.OrgNode, error)
	FetchDetail(ctx context.Context, id string) (*domain.OrgDetail, error)
	Create(ctx context.Context, d domain.OrgDraft) (string, error)
	Update(ctx context.Context, id string, p domain.OrgPatch) error
	Delete(ctx context.Context, id string) error
	Move(ctx context.Context, req MoveRequest) error

	ListMembers(ctx context.Context, orgID string, recursive bool) ([]domain.DeptUser, error)
	SetPrimary(ctx context.Context, userID, orgID string) error
	AddAuxiliary(ctx context.Context, userID, orgID string) error
	RemoveAuxiliary(ctx context.Context, userID, orgID string) error
}

// restClient implements Client on top of resty.
type restClient struct {
	http     *resty.Client
	observer Observer
}

// New creates a Client for the service at cfg.BaseURL.
func New(cfg Config, observer Observer) Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	h := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		h.SetAuthToken(cfg.Token)
	}
	return &restClient{http: h, observer: observer}
}

func (c *restClient) FetchTree(ctx context.Context, q TreeQuery) ([]domain.OrgNode, error) {
	var resp treeResponse
	if err := c.do(ctx, http.MethodGet, "/organization/tree", q.params(), nil, &resp); err != nil {
		return nil, err
	}
	return flattenTree(resp.Tree), nil
}

func (c *restClient) FetchDetail(ctx context.Context, id string) (*domain.OrgDetail, error) {
	var resp detailResponse
	if err := c.do(ctx, http.MethodGet, "/organization/"+url.PathEscape(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Detail.ID == "" {
		return nil, fmt.Errorf("%w: detail for %s has no id", ErrDecode, id)
	}
	return resp.Detail.toDomain(), nil
}

func (c *restClient) Create(ctx context.Context, d domain.OrgDraft) (string, error) {
	var resp createResponse
	if err := c.do(ctx, http.MethodPost, "/organization", nil, newCreateRequest(d), &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *restClient) Update(ctx context.Context, id string, p domain.OrgPatch) error {
	return c.do(ctx, http.MethodPut, "/organization/"+url.PathEscape(id), nil, updateBody(p), &successResponse{})
}

func (c *restClient) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/organization/"+url.PathEscape(id), nil, nil, &successResponse{})
}

func (c *restClient) Move(ctx context.Context, req MoveRequest) error {
	return c.do(ctx, http.MethodPost, "/organization/move", nil, req, &successResponse{})
}

func (c *restClient) ListMembers(ctx context.Context, orgID string, recursive bool) ([]domain.DeptUser, error) {
	var resp usersResponse
	params := map[string]string{"recursive": strconv.FormatBool(recursive)}
	if err := c.do(ctx, http.MethodGet, "/organization/"+url.PathEscape(orgID)+"/users", params, nil, &resp); err != nil {
		return nil, err
	}
	users := make([]domain.DeptUser, 0, len(resp.Users))
	for _, u := range resp.Users {
		users = append(users, domain.DeptUser{UserID: u.UserID, UserName: u.UserName, IsPrimary: u.IsPrimary})
	}
	return users, nil
}

func (c *restClient) SetPrimary(ctx context.Context, userID, orgID string) error {
	return c.do(ctx, http.MethodPost, "/user/primary-dept", nil, userDeptRequest{UserID: userID, DeptID: orgID}, &successResponse{})
}

func (c *restClient) AddAuxiliary(ctx context.Context, userID, orgID string) error {
	return c.do(ctx, http.MethodPost, "/user/aux-dept", nil, userDeptRequest{UserID: userID, DeptID: orgID}, &successResponse{})
}

func (c *restClient) RemoveAuxiliary(ctx context.Context, userID, orgID string) error {
	path := "/user/" + url.PathEscape(userID) + "/aux-dept/" + url.PathEscape(orgID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, &successResponse{})
}

// do sends one request and decodes the body into out.
func (c *restClient) do(ctx context.Context, method, path string, query map[string]string, body, out any) error {
	start := time.Now()

	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	status := 0
	if resp != nil {
		status = resp.StatusCode()
	}
	if err != nil {
		err = transportError(ctx, err)
	} else {
		err = decodeResponse(status, resp.Body(), out)
	}

	c.observer.OnCallComplete(CallEvent{
		Method:     method,
		Path:       path,
		HTTPStatus: status,
		LatencyMs:  time.Since(start).Milliseconds(),
		Success:    err == nil,
		ErrorCode:  errorCode(err),
	})
	return err
}

// decodeResponse turns a status and body into either a decoded payload or
// an *APIError carrying the service's message.
func decodeResponse(status int, body []byte, out any) error {
	var env envelope
	trimmed := bytes.TrimSpace(body)
	envErr := json.Unmarshal(trimmed, &env)

	if status < 200 || status >= 300 {
		msg := fmt.Sprintf("request failed (%d)", status)
		if envErr == nil {
			msg = domain.CoalesceStr(env.Message, env.Msg, env.Error, msg)
		}
		return &APIError{HTTPStatus: status, Code: int(env.Code), Message: msg}
	}
	if status == http.StatusNoContent || len(trimmed) == 0 {
		return nil
	}
	if envErr == nil && env.Code > 0 {
		msg := domain.CoalesceStr(env.Msg, env.Message, env.Description, env.Error,
			fmt.Sprintf("operation failed (code %d)", int(env.Code)))
		return &APIError{HTTPStatus: status, Code: int(env.Code), Message: msg}
	}
	if err := decodeInto(trimmed, out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
