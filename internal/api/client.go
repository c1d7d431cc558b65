// Package api contains the resource clients for the marketplace backend.
// Each client wraps one backend resource collection and produces either a
// typed record from internal/models or a typed failure from this package.
// The base client enforces the cross-cutting rules: bearer-token
// attachment, the no-token short circuit, and the uniform handling of
// authorization failures.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"artmarket/internal/pkg/logger"
	"artmarket/internal/session"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

// AuthFailureHandler is invoked exactly once per authorization failure,
// whether the token was missing locally or rejected by the backend. The
// installed handler clears the session and sends the user to login.
type AuthFailureHandler func()

// Upload describes a file attached to a multipart request, such as an
// artwork image or a profile picture.
type Upload struct {
	Field   string
	Name    string
	Content io.Reader
}

// Client is the shared HTTP layer under all resource clients.
type Client struct {
	http          *http.Client
	apiBase       string
	shopBase      string
	session       *session.Session
	limiter       *rate.Limiter
	onAuthFailure AuthFailureHandler
	log           *logger.Logger
}

// NewClient creates the base client. Requests are logged through the
// logger's RoundTripper and throttled to rps requests per second so the
// feed poller cannot flood the backend.
func NewClient(apiBase, shopBase string, sess *session.Session, timeout time.Duration, rps float64, l *logger.Logger) *Client {
	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: l.WithLogging(nil),
		},
		apiBase:  strings.TrimRight(apiBase, "/"),
		shopBase: strings.TrimRight(shopBase, "/"),
		session:  sess,
		limiter:  rate.NewLimiter(rate.Limit(rps), int(rps)),
		log:      l,
	}
}

// SetAuthFailureHandler installs the hook run on every authorization
// failure. Resource clients never make this decision individually.
func (c *Client) SetAuthFailureHandler(h AuthFailureHandler) {
	c.onAuthFailure = h
}

// request describes one call to the backend.
type request struct {
	method      string
	url         string
	body        io.Reader
	contentType string
	// anonymous calls (login, register) skip token attachment entirely.
	anonymous bool
	// token overrides the session token when non-empty; the login flow
	// uses it to fetch the profile before the session is established.
	token string
	// resource names the entity for NotFoundError messages.
	resource string
	// out, when non-nil, receives the decoded response body.
	out any
	// statusHook, when non-nil, observes the status code of a successful
	// response; the follow toggle uses it to tell create from delete.
	statusHook func(status int)
}

// jsonBody marshals a payload for requests built directly with do.
// Marshalling of the fixed map/struct payloads used here cannot fail.
func jsonBody(payload any) io.Reader {
	body, _ := json.Marshal(payload)
	return bytes.NewReader(body)
}

// apiURL joins a path onto the main API base.
func (c *Client) apiURL(path string) string {
	return c.apiBase + path
}

// shopURL joins a path onto the ecommerce base.
func (c *Client) shopURL(path string) string {
	return c.shopBase + path
}

// do performs one request against the backend, attaching the bearer token
// and mapping the response onto the error taxonomy. A missing token on an
// authenticated call short-circuits without any network traffic.
func (c *Client) do(ctx context.Context, req request) error {
	token := req.token
	if token == "" && !req.anonymous {
		token = c.session.Token()
		if token == "" {
			c.authFailure()
			return ErrNoToken
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return &NetworkError{Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url, req.body)
	if err != nil {
		return &NetworkError{Err: err}
	}
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}

	if err := c.checkStatus(resp.StatusCode, body, req.resource, req.anonymous); err != nil {
		return err
	}
	if req.statusHook != nil {
		req.statusHook(resp.StatusCode)
	}

	if req.out == nil {
		return nil
	}
	if err := json.Unmarshal(body, req.out); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}

// checkStatus maps a non-2xx response onto the error taxonomy. A 401 on
// an anonymous call means rejected credentials, not an expired session,
// so it never tears the current session down.
func (c *Client) checkStatus(status int, body []byte, resource string, anonymous bool) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized:
		if anonymous {
			return &ValidationError{Msg: errorMessage(body)}
		}
		c.authFailure()
		return ErrAuthExpired
	case status == http.StatusNotFound:
		if resource == "" {
			resource = "resource"
		}
		return &NotFoundError{Resource: resource}
	case status == http.StatusConflict:
		return &ConflictError{Msg: errorMessage(body)}
	case status == http.StatusBadRequest:
		msg, fields := errorDetails(body)
		if isSoldConflict(msg) {
			return &ConflictError{Msg: msg}
		}
		return &ValidationError{Msg: msg, Fields: fields}
	default:
		return &NetworkError{Err: fmt.Errorf("backend returned status %d: %s", status, errorMessage(body))}
	}
}

// authFailure runs the installed handler, if any.
func (c *Client) authFailure() {
	if c.onAuthFailure != nil {
		c.onAuthFailure()
	}
}

// errorMessage extracts a human-readable message from a backend error
// body without committing to one schema: the two deployments variously
// use {"detail": ...}, {"error": ...}, {"message": ...} and bare arrays.
func errorMessage(body []byte) string {
	if len(body) == 0 {
		return "no error details provided"
	}
	for _, key := range []string{"detail", "error", "message"} {
		if v := gjson.GetBytes(body, key); v.Exists() {
			return v.String()
		}
	}
	if v := gjson.GetBytes(body, "0"); v.Exists() {
		return v.String()
	}
	return strings.TrimSpace(string(body))
}

// errorDetails extracts the overall message plus any field-level
// messages from a 400 body ({"field": ["msg", ...], ...}).
func errorDetails(body []byte) (string, map[string]string) {
	msg := errorMessage(body)

	parsed := gjson.ParseBytes(body)
	if !parsed.IsObject() {
		return msg, nil
	}

	fields := map[string]string{}
	parsed.ForEach(func(key, value gjson.Result) bool {
		switch key.String() {
		case "detail", "error", "message":
			return true
		}
		if value.IsArray() {
			if arr := value.Array(); len(arr) > 0 {
				fields[key.String()] = arr[0].String()
			}
			return true
		}
		if value.Type == gjson.String {
			fields[key.String()] = value.String()
		}
		return true
	})
	if len(fields) == 0 {
		return msg, nil
	}
	return msg, fields
}

// isSoldConflict recognises the sold-artwork precondition failure, which
// the backend reports as a plain validation error.
func isSoldConflict(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "sold")
}

// getJSON issues an authenticated GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, url, resource string, out any) error {
	return c.do(ctx, request{method: http.MethodGet, url: url, resource: resource, out: out})
}

// postJSON issues a POST with a JSON body, authenticated unless anonymous.
func (c *Client) postJSON(ctx context.Context, url string, payload any, anonymous bool, resource string, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &ParseError{Err: err}
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		url:         url,
		body:        bytes.NewReader(body),
		contentType: "application/json",
		anonymous:   anonymous,
		resource:    resource,
		out:         out,
	})
}

// deleteReq issues an authenticated DELETE.
func (c *Client) deleteReq(ctx context.Context, url, resource string) error {
	return c.do(ctx, request{method: http.MethodDelete, url: url, resource: resource})
}

// sendMultipart issues an authenticated multipart request carrying form
// fields and an optional file upload.
func (c *Client) sendMultipart(ctx context.Context, method, url string, fields map[string]string, upload *Upload, token, resource string, out any) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return &NetworkError{Err: err}
		}
	}
	if upload != nil {
		part, err := writer.CreateFormFile(upload.Field, upload.Name)
		if err != nil {
			return &NetworkError{Err: err}
		}
		if _, err := io.Copy(part, upload.Content); err != nil {
			return &NetworkError{Err: err}
		}
	}
	if err := writer.Close(); err != nil {
		return &NetworkError{Err: err}
	}

	return c.do(ctx, request{
		method:      method,
		url:         url,
		body:        &buf,
		contentType: writer.FormDataContentType(),
		token:       token,
		resource:    resource,
		out:         out,
	})
}
