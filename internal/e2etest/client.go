// Package e2etest starts the real server binary entrypoint and drives its
// JSON API with a passkey-capable HTTP client.
package e2etest

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/descope/virtualwebauthn"
	"github.com/justinas/nosurf"
	"github.com/kishanss4/corrupt-watch/internal/errors"
)

type Client struct {
	client        *http.Client
	url           string
	rp            virtualwebauthn.RelyingParty
	authenticator virtualwebauthn.Authenticator
	csrfToken     string
}

// NewClient creates a Webauthn-aware HTTP client.
//
// rpID and rpOrigin should correspond to the Webauthn setup on the server.
func NewClient(url, rpID, rpOrigin string) (*Client, error) {
	jar, err := newUnsafeCookieJar()
	if err != nil {
		return nil, errors.Wrap(err, "create unsafe cookie jar")
	}
	return &Client{
		client:        &http.Client{Jar: jar},
		url:           url,
		rp:            virtualwebauthn.RelyingParty{Name: "Corrupt Watch", ID: rpID, Origin: rpOrigin},
		authenticator: virtualwebauthn.NewAuthenticator(),
	}, nil
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := time.Second
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = http.NewRequestWithContext(
			ctx,
			http.MethodGet,
			c.url+urlPath,
			nil,
		); err != nil {
			return errors.Wrap(err, "create request")
		}

		if resp, err = c.client.Do(req); err == nil {
			if resp.StatusCode == http.StatusOK {
				if err = resp.Body.Close(); err != nil {
					return errors.Wrap(err, "close response body")
				}
				return nil
			}
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

func (c *Client) newRequestWithContext(ctx context.Context, method, urlPath string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, body)
	if err != nil {
		return nil, errors.Wrap(err, "new request with context")
	}
	if c.csrfToken != "" {
		req.Header.Set(nosurf.HeaderName, c.csrfToken)
	}
	return req, nil
}

// do runs the request and refreshes the cached CSRF token from the response
// headers.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	if token := resp.Header.Get(nosurf.HeaderName); token != "" {
		c.csrfToken = token
	}
	return resp, nil
}

// RefreshCSRFToken fetches a fresh CSRF token. Needed before the first
// mutating request and after any call that rotates the session.
func (c *Client) RefreshCSRFToken(ctx context.Context) error {
	resp, err := c.Get(ctx, "/api/csrf")
	if err != nil {
		return errors.Wrap(err, "get csrf endpoint")
	}
	if err = resp.Body.Close(); err != nil {
		return errors.Wrap(err, "close response body")
	}
	if c.csrfToken == "" {
		return errors.New("no CSRF token in response")
	}
	return nil
}

// Get fetches a URL and returns the response.
func (c *Client) Get(ctx context.Context, urlPath string) (*http.Response, error) {
	req, err := c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// PostJSON sends a JSON document using the given method and returns the
// response.
func (c *Client) PostJSON(ctx context.Context, method, urlPath, body string) (*http.Response, error) {
	req, err := c.newRequestWithContext(ctx, method, urlPath, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// FormFile is one file attached to a multipart request, in submission order.
type FormFile struct {
	Field    string
	FileName string
	Contents string
}

// PostMultipart sends a multipart form with the given fields and files.
func (c *Client) PostMultipart(ctx context.Context, urlPath string, fields map[string]string, files []FormFile) (*http.Response, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for field, value := range fields {
		if err := writer.WriteField(field, value); err != nil {
			return nil, errors.Wrap(err, "write form field")
		}
	}
	for _, file := range files {
		part, err := writer.CreateFormFile(file.Field, file.FileName)
		if err != nil {
			return nil, errors.Wrap(err, "create form file")
		}
		if _, err = io.WriteString(part, file.Contents); err != nil {
			return nil, errors.Wrap(err, "write form file")
		}
	}
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "close multipart writer")
	}

	req, err := c.newRequestWithContext(ctx, http.MethodPost, urlPath, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req)
}

// Register creates a passkey account on the server and leaves the client
// logged in.
func (c *Client) Register(ctx context.Context) error {
	if err := c.RefreshCSRFToken(ctx); err != nil {
		return errors.Wrap(err, "refresh CSRF token")
	}

	resp, err := c.PostJSON(ctx, http.MethodPost, "/api/registration/start", "")
	if err != nil {
		return errors.Wrap(err, "start registration")
	}
	attOpts, err := parseBody(resp, virtualwebauthn.ParseAttestationOptions)
	if err != nil {
		return errors.Wrap(err, "parse attestation options")
	}

	credential := virtualwebauthn.NewCredential(virtualwebauthn.KeyTypeEC2)
	attResp := virtualwebauthn.CreateAttestationResponse(c.rp, c.authenticator, credential, *attOpts)
	if resp, err = c.PostJSON(ctx, http.MethodPost, "/api/registration/finish", attResp); err != nil {
		return errors.Wrap(err, "finish registration")
	}
	if err = drainAndExpectOK(resp); err != nil {
		return errors.Wrap(err, "finish registration response")
	}
	c.authenticator.AddCredential(credential)

	// The session was renewed on login, so the CSRF token rotated.
	return c.RefreshCSRFToken(ctx)
}

// Login signs in with the passkey created by Register.
func (c *Client) Login(ctx context.Context) error {
	if err := c.RefreshCSRFToken(ctx); err != nil {
		return errors.Wrap(err, "refresh CSRF token")
	}

	resp, err := c.PostJSON(ctx, http.MethodPost, "/api/login/start", "")
	if err != nil {
		return errors.Wrap(err, "start login")
	}
	asOpts, err := parseBody(resp, virtualwebauthn.ParseAssertionOptions)
	if err != nil {
		return errors.Wrap(err, "parse assertion options")
	}

	credential := c.authenticator.Credentials[0]
	asResp := virtualwebauthn.CreateAssertionResponse(c.rp, c.authenticator, credential, *asOpts)
	if resp, err = c.PostJSON(ctx, http.MethodPost, "/api/login/finish", asResp); err != nil {
		return errors.Wrap(err, "finish login")
	}
	if err = drainAndExpectOK(resp); err != nil {
		return errors.Wrap(err, "finish login response")
	}

	return c.RefreshCSRFToken(ctx)
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.PostJSON(ctx, http.MethodPost, "/api/logout", "")
	if err != nil {
		return errors.Wrap(err, "post logout")
	}
	if err = resp.Body.Close(); err != nil {
		return errors.Wrap(err, "close response body")
	}
	if resp.StatusCode != http.StatusNoContent {
		return errors.New("unexpected status code", slog.Int("status", resp.StatusCode))
	}
	return c.RefreshCSRFToken(ctx)
}

func parseBody[T any](resp *http.Response, parse func(string) (*T, error)) (*T, error) {
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status code", slog.Int("status", resp.StatusCode))
	}
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read body bytes")
	}
	return parse(string(bodyBytes))
}

func drainAndExpectOK(resp *http.Response) error {
	defer func() {
		_ = resp.Body.Close()
	}()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return errors.Wrap(err, "drain response body")
	}
	if resp.StatusCode != http.StatusOK {
		return errors.New("unexpected status code", slog.Int("status", resp.StatusCode))
	}
	return nil
}
