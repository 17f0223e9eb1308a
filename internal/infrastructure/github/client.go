// Package github is the IssueStore client, built on go-github.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v69/github"
	"golang.org/x/oauth2"

	"github.com/felixgeelhaar/tasksync/pkg/domain/tracking"
)

// Client manages issues in a single repository.
type Client struct {
	issues *gh.IssuesService
	owner  string
	repo   string
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// WithBaseURL points the client at a different API root (GitHub Enterprise or
// a test server).
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithHTTPClient replaces the transport. The token is still applied on top.
func WithHTTPClient(h *http.Client) Option {
	return func(o *options) { o.httpClient = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// SplitRepository splits "owner/name".
func SplitRepository(full string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(full, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("repository %q is not in owner/name form", full)
	}
	return owner, repo, nil
}

// NewClient creates a client for repository ("owner/name") authenticated
// with token.
func NewClient(ctx context.Context, token, repository string, opts ...Option) (*Client, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	owner, repo, err := SplitRepository(repository)
	if err != nil {
		return nil, err
	}

	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	client := gh.NewClient(httpClient)

	if o.baseURL != "" {
		base, err := url.Parse(strings.TrimRight(o.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parse github api url: %w", err)
		}
		client.BaseURL = base
	}

	return &Client{
		issues: client.Issues,
		owner:  owner,
		repo:   repo,
		logger: o.logger,
	}, nil
}

var _ tracking.IssueStore = (*Client)(nil)

// CreateIssue opens an issue. The create endpoint has no state field, so a
// closed target is applied with a follow-up edit. If that edit fails the
// open issue is returned along with the error.
func (c *Client) CreateIssue(ctx context.Context, title, body string, state tracking.IssueState, labels []string) (tracking.Issue, error) {
	req := &gh.IssueRequest{
		Title: gh.Ptr(title),
		Body:  gh.Ptr(body),
	}
	if len(labels) > 0 {
		req.Labels = &labels
	}

	issue, _, err := c.issues.Create(ctx, c.owner, c.repo, req)
	if err != nil {
		return tracking.Issue{}, apiError(err)
	}
	created := toIssue(issue)
	c.logger.Debug("github issue created", "repo", c.owner+"/"+c.repo, "number", created.Number)

	if state == tracking.IssueClosed {
		if err := c.PatchIssue(ctx, created.Number, &state, nil); err != nil {
			return created, err
		}
		created.State = tracking.IssueClosed
	}

	return created, nil
}

// PatchIssue edits state and/or labels. A nil labels slice leaves labels
// untouched; an empty one clears them.
func (c *Client) PatchIssue(ctx context.Context, number int, state *tracking.IssueState, labels []string) error {
	req := &gh.IssueRequest{}
	if state != nil {
		req.State = gh.Ptr(string(*state))
	}
	if labels != nil {
		req.Labels = &labels
	}

	if _, _, err := c.issues.Edit(ctx, c.owner, c.repo, number, req); err != nil {
		return apiError(err)
	}
	c.logger.Debug("github issue patched", "repo", c.owner+"/"+c.repo, "number", number)
	return nil
}

// GetIssue reads an issue.
func (c *Client) GetIssue(ctx context.Context, number int) (tracking.Issue, error) {
	issue, _, err := c.issues.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		return tracking.Issue{}, apiError(err)
	}
	return toIssue(issue), nil
}

func toIssue(i *gh.Issue) tracking.Issue {
	out := tracking.Issue{
		Number:  i.GetNumber(),
		Title:   i.GetTitle(),
		Body:    i.GetBody(),
		State:   tracking.IssueState(i.GetState()),
		HTMLURL: i.GetHTMLURL(),
	}
	for _, l := range i.Labels {
		out.Labels = append(out.Labels, l.GetName())
	}
	return out
}

// apiError normalizes go-github errors into ExternalAPIError. Transport
// failures without a response are returned unchanged.
func apiError(err error) error {
	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		body, mErr := json.Marshal(errResp)
		if mErr != nil {
			body = []byte(errResp.Message)
		}
		return &tracking.ExternalAPIError{
			System:     tracking.SystemIssueStore,
			StatusCode: errResp.Response.StatusCode,
			Body:       string(body),
		}
	}
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return &tracking.ExternalAPIError{
			System:     tracking.SystemIssueStore,
			StatusCode: rateErr.Response.StatusCode,
			Body:       rateErr.Message,
		}
	}
	return fmt.Errorf("github request: %w", err)
}
