package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sitetester-cli/lib/telemetry"
	"sitetester-cli/lib/urlutil"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/publicsuffix"
)

var tracer = otel.Tracer("audit")

// Client talks to the SiteTester backend. The backend authenticates
// through the access_token cookie, everything else is plain JSON or
// multipart over fixed paths.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
}

type ClientOptions struct {
	BaseUrl     string
	AccessToken string
	// zero means the default of 30 seconds
	Timeout time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(strings.TrimRight(opts.BaseUrl, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("base url %q is not absolute", opts.BaseUrl)
	}

	client := resty.New()
	client.SetBaseURL(baseUrl.String())
	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)

	client.SetHeader("user-agent", "SiteTesterCLI/1.0")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)

	if opts.AccessToken != "" {
		client.SetCookie(&http.Cookie{
			Name:  "access_token",
			Value: opts.AccessToken,
			Path:  "/",
		})
	}
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetHeader("x-request-id", uuid.NewString())
		return nil
	})

	telemetry.InstrumentResty(client, "audit/http")

	return &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}, nil
}

func (c *Client) LoginURL() string {
	return c.BaseUrl.JoinPath("platform", "login").String()
}

func (c *Client) HistoryURL() string {
	return c.BaseUrl.JoinPath("platform", "history").String()
}

// CompareResultsURL is the server page where a finished comparison renders.
func (c *Client) CompareResultsURL(sessionID string) string {
	return c.BaseUrl.JoinPath("compare-results", sessionID).String()
}

// ScreenshotURL resolves a screenshot path from a visual result record.
func (c *Client) ScreenshotURL(path string) string {
	return c.BaseUrl.JoinPath(strings.TrimLeft(path, "/")).String()
}

// maps a response onto the shared error taxonomy, nil for 2xx
func (c *Client) checkStatus(res *resty.Response) error {
	if res.StatusCode() == http.StatusUnauthorized {
		return AuthExpiredError{LoginURL: c.LoginURL()}
	}
	if res.IsError() {
		return RequestFailedError{
			Status: res.StatusCode(),
			Body:   apiErrorMessage(res.Body()),
		}
	}
	return nil
}

// pulls the error/detail field out of a json error body, falling back to
// the raw text
func apiErrorMessage(body []byte) string {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Detail != "" {
			return payload.Detail
		}
	}
	return strings.TrimSpace(string(body))
}

// CompareRequest is the url comparison form.
type CompareRequest struct {
	URLA             string `json:"url_a"`
	URLB             string `json:"url_b"`
	IgnoreCase       bool   `json:"ignore_case"`
	IgnoreWhitespace bool   `json:"ignore_whitespace"`
	IgnoreLinebreaks bool   `json:"ignore_linebreaks"`
	SortLines        bool   `json:"sort_lines"`
}

func (r CompareRequest) validate() error {
	for _, raw := range []string{r.URLA, r.URLB} {
		if !urlutil.IsAuditable(raw) {
			return ValidationError{Msg: "Please enter valid URLs (including http:// or https://)"}
		}
		if _, err := url.ParseRequestURI(strings.TrimSpace(raw)); err != nil {
			return ValidationError{Msg: "Please enter valid URLs (including http:// or https://)"}
		}
	}
	return nil
}

// SubmitCompare starts a url comparison and returns its session id. The
// comparison renders server-side, see CompareResultsURL.
func (c *Client) SubmitCompare(ctx context.Context, req CompareRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "client:SubmitCompare")
	defer span.End()

	if err := req.validate(); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return "", err
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(req).
		Post(ToolURLCompare.Spec().SubmitPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "compare request failed")
		return "", RequestFailedError{Err: err}
	}
	if err := c.checkStatus(res); err != nil {
		span.SetStatus(codes.Error, "compare request rejected")
		return "", err
	}

	var payload struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(res.Body(), &payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode compare response")
		return "", RequestFailedError{Status: res.StatusCode(), Err: err}
	}
	return payload.SessionID, nil
}

// UploadRequest is the shared form of the upload-style tools.
type UploadRequest struct {
	Tool Tool
	Name string
	URLs []string
	// phone only, comma-separated expected numbers
	TargetNumbers string
	// performance only, desktop or mobile
	Strategy string
}

func (r UploadRequest) validate() ([]string, error) {
	spec := r.Tool.Spec()
	if spec.SubmitPath == "" || !strings.HasPrefix(spec.SubmitPath, "/upload/") {
		return nil, ValidationError{Msg: fmt.Sprintf("%s is not an upload tool", r.Tool)}
	}
	if strings.TrimSpace(r.Name) == "" {
		return nil, ValidationError{Msg: "Please enter a session name"}
	}
	urls := urlutil.Filter(r.URLs)
	if len(urls) == 0 {
		return nil, ValidationError{Msg: "No valid URLs found"}
	}
	if r.Tool == ToolSitemap && len(urls) > 1 {
		return nil, ValidationError{Msg: "Sitemap audits take a single sitemap URL"}
	}
	return urls, nil
}

// Submission is the backend's acknowledgement of an upload-tool run.
type Submission struct {
	SessionID     string `json:"session"`
	TotalExpected int    `json:"total_expected"`
	Type          string `json:"type"`
}

// SubmitUpload starts an upload-style audit. Input is validated before
// anything goes on the wire.
func (c *Client) SubmitUpload(ctx context.Context, req UploadRequest) (Submission, error) {
	ctx, span := tracer.Start(ctx, "client:SubmitUpload")
	defer span.End()

	urls, err := req.validate()
	if err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return Submission{}, err
	}

	fields := map[string]string{
		"session_name": strings.TrimSpace(req.Name),
	}
	if req.Tool == ToolSitemap {
		fields["url"] = urls[0]
	} else {
		fields["manual_urls"] = strings.Join(urls, "\n")
	}
	if req.Tool == ToolPhone && req.TargetNumbers != "" {
		fields["target_numbers"] = req.TargetNumbers
	}
	if req.Tool == ToolPerformance {
		strategy := req.Strategy
		if strategy == "" {
			strategy = "desktop"
		}
		fields["strategy"] = strategy
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetMultipartFormData(fields).
		Post(req.Tool.Spec().SubmitPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "upload request failed")
		return Submission{}, RequestFailedError{Err: err}
	}
	if err := c.checkStatus(res); err != nil {
		span.SetStatus(codes.Error, "upload request rejected")
		return Submission{}, err
	}

	var sub Submission
	if err := json.Unmarshal(res.Body(), &sub); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode upload response")
		return Submission{}, RequestFailedError{Status: res.StatusCode(), Err: err}
	}
	if sub.SessionID == "" {
		span.SetStatus(codes.Error, "upload response is missing a session id")
		return Submission{}, RequestFailedError{
			Status: res.StatusCode(),
			Body:   "response is missing a session id",
		}
	}
	return sub, nil
}

// SubmitVisual starts a visual regression run comparing two pages.
func (c *Client) SubmitVisual(ctx context.Context, baseURL, compareURL string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:SubmitVisual")
	defer span.End()

	for _, raw := range []string{baseURL, compareURL} {
		if !urlutil.IsAuditable(raw) {
			span.SetStatus(codes.Error, "validation failed")
			return "", ValidationError{Msg: "Please enter valid URLs (including http:// or https://)"}
		}
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"base_url":    strings.TrimSpace(baseURL),
			"compare_url": strings.TrimSpace(compareURL),
		}).
		Post(ToolVisual.Spec().SubmitPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "visual test request failed")
		return "", RequestFailedError{Err: err}
	}
	if err := c.checkStatus(res); err != nil {
		span.SetStatus(codes.Error, "visual test request rejected")
		return "", err
	}

	var payload struct {
		Status    string `json:"status"`
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(res.Body(), &payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode visual test response")
		return "", RequestFailedError{Status: res.StatusCode(), Err: err}
	}
	if payload.SessionID == "" {
		span.SetStatus(codes.Error, "visual test response is missing a session id")
		return "", RequestFailedError{
			Status: res.StatusCode(),
			Body:   "response is missing a session id",
		}
	}
	return payload.SessionID, nil
}

// Progress reads one progress observation for a running session.
func (c *Client) Progress(ctx context.Context, tool Tool, sessionID string) (Progress, error) {
	ctx, span := tracer.Start(ctx, "client:Progress")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(tool.Spec().ProgressPath(sessionID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "progress request failed")
		return Progress{}, RequestFailedError{Err: err}
	}
	if err := c.checkStatus(res); err != nil {
		span.SetStatus(codes.Error, "progress request rejected")
		return Progress{}, err
	}

	var progress Progress
	if err := json.Unmarshal(res.Body(), &progress); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode progress body")
		return Progress{}, RequestFailedError{Status: res.StatusCode(), Err: err}
	}
	return progress, nil
}

// FetchResults pulls and decodes the finished payload for a session.
// Decoding is lenient, missing fields read as zero values.
func (c *Client) FetchResults(ctx context.Context, tool Tool, sessionID string) (Results, error) {
	ctx, span := tracer.Start(ctx, "client:FetchResults")
	defer span.End()

	out := Results{Tool: tool, SessionID: sessionID}

	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("accept", "application/json").
		Get(tool.Spec().ResultsPath(sessionID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "results request failed")
		return out, RequestFailedError{Err: err}
	}
	if err := c.checkStatus(res); err != nil {
		span.SetStatus(codes.Error, "results request rejected")
		return out, err
	}

	body := res.Body()
	switch tool {
	case ToolMetaTags:
		var payload struct {
			Results []MetaTagsResult `json:"results"`
		}
		err = json.Unmarshal(body, &payload)
		out.MetaTags = payload.Results
	case ToolSitemap:
		var payload struct {
			Results SitemapResult `json:"results"`
		}
		err = json.Unmarshal(body, &payload)
		if payload.Results.URL != "" {
			out.Sitemap = &payload.Results
		}
	case ToolPhone:
		err = json.Unmarshal(body, &out.Phone)
	case ToolPerformance:
		err = json.Unmarshal(body, &out.Performance)
	case ToolAccessibility:
		err = json.Unmarshal(body, &out.Accessibility)
	case ToolH1:
		err = json.Unmarshal(body, &out.H1)
	case ToolVisual:
		var payload VisualResults
		err = json.Unmarshal(body, &payload)
		out.Visual = &payload
	default:
		return out, fmt.Errorf("tool %q has no results endpoint", tool)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode results body")
		return out, RequestFailedError{Status: res.StatusCode(), Err: err}
	}
	return out, nil
}

// StopSession asks the backend to stop a running session. Best effort,
// the backend may still finish work already in flight.
func (c *Client) StopSession(ctx context.Context, sessionID string) error {
	ctx, span := tracer.Start(ctx, "client:StopSession")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Post(fmt.Sprintf("/api/sessions/%s/stop", sessionID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stop request failed")
		return RequestFailedError{Err: err}
	}
	return c.checkStatus(res)
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	ctx, span := tracer.Start(ctx, "client:DeleteSession")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/api/sessions/%s", sessionID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete request failed")
		return RequestFailedError{Err: err}
	}
	return c.checkStatus(res)
}

func (c *Client) DeleteAllSessions(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:DeleteAllSessions")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Delete("/api/sessions")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete-all request failed")
		return RequestFailedError{Err: err}
	}
	return c.checkStatus(res)
}

// SessionConfig is the saved form input of a prior session, the source
// for restart deep links.
type SessionConfig struct {
	SessionID   string     `json:"session_id"`
	SessionType string     `json:"session_type"`
	Name        string     `json:"name"`
	URLs        StringList `json:"urls"`
	Browsers    StringList `json:"browsers"`
	Resolutions StringList `json:"resolutions"`
}

func (c *Client) FetchSessionConfig(ctx context.Context, sessionID string) (SessionConfig, error) {
	ctx, span := tracer.Start(ctx, "client:FetchSessionConfig")
	defer span.End()

	res, err := c.Http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/api/session/%s/config", sessionID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session config request failed")
		return SessionConfig{}, RequestFailedError{Err: err}
	}
	if err := c.checkStatus(res); err != nil {
		span.SetStatus(codes.Error, "session config request rejected")
		return SessionConfig{}, err
	}

	var config SessionConfig
	if err := json.Unmarshal(res.Body(), &config); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode session config")
		return SessionConfig{}, RequestFailedError{Status: res.StatusCode(), Err: err}
	}
	return config, nil
}
