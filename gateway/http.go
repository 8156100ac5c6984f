package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
)

// DefaultRequestTimeout bounds a single API call
const DefaultRequestTimeout = 30 * time.Second

var validate = validator.New()

// StatusError is returned for non 2xx responses
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api request failed: %d %s", e.StatusCode, e.Message)
}

// HTTPClient is a Gateway backed by the remote API
type HTTPClient struct {
	apiKey      string
	credentials *Credentials
	client      *http.Client
	logger      *slog.Logger
}

// HTTPOption configures an HTTPClient
type HTTPOption func(*HTTPClient)

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// WithHTTPLogger sets the logger
func WithHTTPLogger(logger *slog.Logger) HTTPOption {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// NewHTTPClient creates a gateway client for apiKey
func NewHTTPClient(apiKey string, opts ...HTTPOption) (*HTTPClient, error) {
	credentials, err := DecodeAPIKey(apiKey)
	if err != nil {
		return nil, err
	}
	ret := &HTTPClient{apiKey: apiKey, credentials: credentials}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.client == nil {
		ret.client = &http.Client{Timeout: DefaultRequestTimeout}
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	return ret, nil
}

// GetActiveDetectionProgramForRule returns active programs of a rule
func (c *HTTPClient) GetActiveDetectionProgramForRule(ctx context.Context, query RuleQuery) (*RulePrograms, error) {
	return c.ruleProgram(ctx, query, "active")
}

// GetDraftDetectionProgramForRule returns draft programs of a rule
func (c *HTTPClient) GetDraftDetectionProgramForRule(ctx context.Context, query RuleQuery) (*RulePrograms, error) {
	return c.ruleProgram(ctx, query, "draft")
}

func (c *HTTPClient) ruleProgram(ctx context.Context, query RuleQuery, kind string) (*RulePrograms, error) {
	if err := validate.Struct(query); err != nil {
		return nil, fmt.Errorf("invalid rule query: %w", err)
	}
	endpoint := c.endpoint("standards", query.StandardSlug, "rules", query.RuleID, "detection-programs", kind)
	if query.Language != "" {
		endpoint += "?" + url.Values{"language": {string(query.Language)}}.Encode()
	}
	ret := &RulePrograms{}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, ret); err != nil {
		return nil, fmt.Errorf("failed to get %v detection programs for rule %v: %w", kind, query.RuleID, err)
	}
	return ret, nil
}

// GetDetectionProgramsForPackages returns targets with the programs of every standard of the packages
func (c *HTTPClient) GetDetectionProgramsForPackages(ctx context.Context, query PackagesQuery) (*PackagesPrograms, error) {
	if err := validate.Struct(query); err != nil {
		return nil, fmt.Errorf("invalid packages query: %w", err)
	}
	values := url.Values{}
	for _, slug := range query.PackagesSlugs {
		values.Add("packageSlug", slug)
	}
	endpoint := c.endpoint("packages", "detection-programs") + "?" + values.Encode()
	ret := &PackagesPrograms{}
	if err := c.do(ctx, http.MethodGet, endpoint, nil, ret); err != nil {
		return nil, fmt.Errorf("failed to get detection programs for packages: %w", err)
	}
	return ret, nil
}

// TrackLinterExecution reports a lint run
func (c *HTTPClient) TrackLinterExecution(ctx context.Context, execution Execution) error {
	body, err := json.Marshal(execution)
	if err != nil {
		return err
	}
	if err = c.do(ctx, http.MethodPost, c.endpoint("linter", "track"), body, nil); err != nil {
		return fmt.Errorf("failed to track linter execution: %w", err)
	}
	return nil
}

func (c *HTTPClient) endpoint(elements ...string) string {
	ret := c.credentials.Host + "/api/v0/organizations/" + url.PathEscape(c.credentials.OrganizationID)
	for _, element := range elements {
		ret += "/" + url.PathEscape(element)
	}
	return ret
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body []byte, output interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	request, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Authorization", "Bearer "+c.apiKey)
	c.logger.Debug("api request", slog.String("method", method), slog.String("url", endpoint))

	response, err := c.client.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return fmt.Errorf("%w at %v: %v", ErrServerUnreachable, c.credentials.Host, err)
		}
		return err
	}
	defer response.Body.Close()
	data, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if response.StatusCode < 200 || response.StatusCode > 299 {
		return statusError(response, data)
	}
	if output == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err = json.Unmarshal(data, output); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func statusError(response *http.Response, data []byte) error {
	ret := &StatusError{StatusCode: response.StatusCode, Message: http.StatusText(response.StatusCode)}
	body := struct {
		Message string `json:"message"`
	}{}
	if json.Unmarshal(data, &body) == nil && body.Message != "" {
		ret.Message = body.Message
	}
	return ret
}
