package doctorapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/zatekoja/doctorconnect/internal/domain/entities"
	"github.com/zatekoja/doctorconnect/internal/domain/providers"
)

const maxErrorBody = 4 << 10

// StatusError is returned for any non-2xx response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("doctor api returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("doctor api returned status %d", e.StatusCode)
}

// StatusCode extracts the HTTP status from err, or 0 if err is not a StatusError.
func StatusCode(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// Client is the consumed surface of the doctor-connect backend
type Client interface {
	providers.IdentityProvider
	providers.DirectoryProvider
	providers.AppointmentProvider
}

// HTTPClient talks JSON to the backend. Session credentials live in its cookie jar.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewClient creates a client with its own cookie jar
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *HTTPClient {
	jar, _ := cookiejar.New(nil)
	return NewClientWithHTTP(baseURL, &http.Client{
		Timeout: timeout,
		Jar:     jar,
	}, opts...)
}

// NewClientWithHTTP wraps a preconfigured http.Client
func NewClientWithHTTP(baseURL string, httpClient *http.Client, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (*entities.SessionUser, error) {
	out := &entities.SessionUser{}
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Login(ctx context.Context, creds entities.Credentials) (*entities.SessionUser, error) {
	out := &entities.SessionUser{}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", creds, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Register(ctx context.Context, reg entities.Registration) (*entities.SessionUser, error) {
	out := &entities.SessionUser{}
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", reg, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *HTTPClient) ListDoctors(ctx context.Context) ([]entities.DoctorRecord, error) {
	var out []entities.DoctorRecord
	if err := c.doJSON(ctx, http.MethodGet, "/api/doctor/all", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetDoctor(ctx context.Context, id string) (*entities.DoctorProfile, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("doctor id is required")
	}
	out := &entities.DoctorProfile{}
	if err := c.doJSON(ctx, http.MethodGet, "/api/doctor/"+url.PathEscape(id), nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) CreateAppointment(ctx context.Context, req entities.AppointmentRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/api/appointments", req, nil)
}

func (c *HTTPClient) ListDoctorAppointments(ctx context.Context, doctorID string) ([]entities.Appointment, error) {
	if strings.TrimSpace(doctorID) == "" {
		return nil, fmt.Errorf("doctor id is required")
	}
	var out []entities.Appointment
	if err := c.doJSON(ctx, http.MethodGet, "/api/appointments/doctor/"+url.PathEscape(doctorID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// doJSON sends in (if non-nil) as JSON and decodes the response into out (if non-nil).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Accept", "application/json")
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}

	return nil
}
