// Package api is the HTTP client for the customer analysis service. Every
// call goes through Client.do, which attaches the bearer token, maps failures
// to *Error and turns a 401 into a cleared session plus a SessionExpired
// event.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/zulandar/segdash/internal/logger"
	"github.com/zulandar/segdash/internal/session"
)

// SessionStore is the part of session.Store the client depends on.
type SessionStore interface {
	Current() session.Session
	Token() *oauth2.Token
	Set(session.Session) error
	Rotate(accessToken, refreshToken string) error
	Clear() error
	Expire() error
}

// SessionExpired is emitted once for every 401 response, after the session
// has been cleared. The receiver decides how to get the user back to login.
type SessionExpired struct {
	Op   string
	Path string
	At   time.Time
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration // per request, default 60s
	RetryMax   int           // retries for GET requests, 0 disables
	RetryWait  time.Duration // initial backoff interval, default 200ms
	Store      SessionStore
	Logger     *zap.Logger
	HTTPClient *http.Client

	OnSessionExpired func(SessionExpired)
}

// Client talks to one backend origin. The base URL is fixed at construction.
type Client struct {
	baseURL   string
	http      *http.Client
	store     SessionStore
	log       *zap.Logger
	retryMax  int
	retryWait time.Duration

	mu       sync.Mutex
	handlers []func(SessionExpired)
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("api: session store is required")
	}
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("api: invalid base url %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = 200 * time.Millisecond
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	c := &Client{
		baseURL:   strings.TrimSuffix(opts.BaseURL, "/"),
		http:      httpClient,
		store:     opts.Store,
		log:       logger.OrNop(opts.Logger).Named("api"),
		retryMax:  opts.RetryMax,
		retryWait: opts.RetryWait,
	}
	if opts.OnSessionExpired != nil {
		c.handlers = append(c.handlers, opts.OnSessionExpired)
	}
	return c, nil
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string { return c.baseURL }

// OnSessionExpired registers an additional handler for SessionExpired.
func (c *Client) OnSessionExpired(fn func(SessionExpired)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, fn)
}

// filePart is a multipart upload sent under the form field "file".
type filePart struct {
	name        string
	contentType string
	r           io.Reader
}

// request describes one backend call.
type request struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     any
	file     *filePart
	fallback string
}

// do sends req and returns the successful response; the caller closes the
// body. Failures are always *Error.
func (c *Client) do(ctx context.Context, req request) (*http.Response, error) {
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var payload []byte
	if req.body != nil && req.file == nil {
		var err error
		if payload, err = json.Marshal(req.body); err != nil {
			return nil, &Error{Kind: KindDecode, Op: req.op, Message: "encode request", Err: err}
		}
	}

	attempt := func() (*http.Response, error) {
		httpReq, err := c.newRequest(ctx, req, target, payload)
		if err != nil {
			return nil, backoff.Permanent(&Error{Kind: KindNetwork, Op: req.op, Message: req.fallback, Err: err})
		}
		reqID := httpReq.Header.Get("X-Request-ID")
		start := time.Now()
		resp, err := c.http.Do(httpReq)
		if err != nil {
			c.log.Debug("request failed", zap.String("op", req.op), zap.String("request_id", reqID), zap.Error(err))
			apiErr := &Error{Kind: KindNetwork, Op: req.op, Message: req.fallback, Err: err}
			if ctx.Err() != nil {
				return nil, backoff.Permanent(apiErr)
			}
			return nil, apiErr
		}
		c.log.Debug("request",
			zap.String("op", req.op),
			zap.String("method", req.method),
			zap.String("path", req.path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", reqID),
		)
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		resp.Body.Close()
		msg := backendMessage(body, req.fallback)
		if resp.StatusCode == http.StatusUnauthorized {
			c.expire(req)
			return nil, backoff.Permanent(&Error{Kind: KindAuthentication, Op: req.op, Status: resp.StatusCode, Message: msg})
		}
		apiErr := &Error{Kind: KindBackend, Op: req.op, Status: resp.StatusCode, Message: msg}
		if resp.StatusCode >= 500 {
			return nil, apiErr
		}
		return nil, backoff.Permanent(apiErr)
	}

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if req.method == http.MethodGet && c.retryMax > 0 {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = c.retryWait
		policy = backoff.WithMaxRetries(bo, uint64(c.retryMax))
	}
	resp, err := backoff.RetryWithData(attempt, backoff.WithContext(policy, ctx))
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, &Error{Kind: KindNetwork, Op: req.op, Message: req.fallback, Err: err}
	}
	return resp, nil
}

// newRequest builds a fresh *http.Request for one attempt.
func (c *Client) newRequest(ctx context.Context, req request, target string, payload []byte) (*http.Request, error) {
	var (
		body        io.Reader
		contentType string
		pw          *io.PipeWriter
		mw          *multipart.Writer
	)
	switch {
	case req.file != nil:
		var pr *io.PipeReader
		pr, pw = io.Pipe()
		mw = multipart.NewWriter(pw)
		contentType = mw.FormDataContentType()
		body = pr
	case payload != nil:
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		if pw != nil {
			pw.CloseWithError(err)
		}
		return nil, err
	}
	// The writer starts only once something will read the pipe.
	if pw != nil {
		go writeMultipart(pw, mw, req.file)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if tok := c.store.Token(); tok != nil {
		tok.SetAuthHeader(httpReq)
	}
	return httpReq, nil
}

func writeMultipart(pw *io.PipeWriter, mw *multipart.Writer, f *filePart) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(f.name)))
	ct := f.contentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err == nil {
		_, err = io.Copy(part, f.r)
	}
	if err == nil {
		err = mw.Close()
	}
	pw.CloseWithError(err)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }

// expire clears the session and notifies handlers. Called once per 401.
func (c *Client) expire(req request) {
	if err := c.store.Expire(); err != nil {
		c.log.Warn("clear expired session", zap.Error(err))
	}
	c.log.Info("session expired", zap.String("op", req.op), zap.String("path", req.path))

	evt := SessionExpired{Op: req.op, Path: req.path, At: time.Now()}
	c.mu.Lock()
	handlers := append([]func(SessionExpired){}, c.handlers...)
	c.mu.Unlock()
	for _, h := range handlers {
		h(evt)
	}
}

// doJSON sends req and decodes a JSON response into out (when non-nil).
func (c *Client) doJSON(ctx context.Context, req request, out any) error {
	resp, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindDecode, Op: req.op, Message: req.fallback, Err: err}
	}
	return nil
}

// backendMessage extracts the error text the backend sent, falling back to
// the per-operation message.
func backendMessage(body []byte, fallback string) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fallback
	}
	if trimmed[0] == '{' {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(trimmed, &payload) == nil {
			if payload.Message != "" {
				return payload.Message
			}
			if payload.Error != "" {
				return payload.Error
			}
		}
		return fallback
	}
	// Short plain-text bodies (e.g. "Clustering failed: ...") are messages;
	// HTML error pages are not.
	if trimmed[0] != '<' && len(trimmed) <= 300 {
		return string(trimmed)
	}
	return fallback
}
