package eligibilityapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bnema/eligibility-cli/internal/domain"
	"github.com/bnema/eligibility-cli/internal/ports"
)

const maxResponseBytes = 1 << 20

const (
	policiesCreatePath           = "/v2/policies"
	policiesPath                 = "/v1/policies/"
	serviceEligibilityCreatePath = "/v2/service-eligibility"
	serviceEligibilityPath       = "/v1/service-eligibility/"
	providerEligibilityPath      = "/v1/provider-eligibility"
)

// Client talks to the eligibility REST API. Get and stream calls present
// the scoped access token returned when the resource was created.
type Client struct {
	BaseURL        string
	APIKey         string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	Limiter        *rate.Limiter
}

var _ ports.EligibilityClient = (*Client)(nil)

func NewClient(cfg Config) *Client {
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		BaseURL:        cfg.BaseURL,
		APIKey:         cfg.APIKey,
		HTTPClient:     &http.Client{},
		RequestTimeout: cfg.RequestTimeout,
		Limiter:        limiter,
	}
}

func (c *Client) CreatePolicy(ctx context.Context, input domain.PolicyInput) (domain.Policy, error) {
	var resp policyResponse
	err := c.doJSON(ctx, "create policy", http.MethodPost, policiesCreatePath, "", createPolicyRequest{
		PayerID:       input.PayerID,
		State:         string(input.State),
		DateOfService: input.DateOfService,
		MemberID:      input.MemberID,
		Person:        input.Person,
	}, &resp)
	if err != nil {
		return domain.Policy{}, err
	}
	return resp.toDomain(""), nil
}

func (c *Client) GetPolicy(ctx context.Context, ref domain.ResourceRef) (domain.Policy, error) {
	var resp policyResponse
	if err := c.doJSON(ctx, "get policy", http.MethodGet, policiesPath+url.PathEscape(ref.ID), ref.Token, nil, &resp); err != nil {
		return domain.Policy{}, err
	}
	return resp.toDomain(ref.Token), nil
}

func (c *Client) StreamPolicy(ctx context.Context, ref domain.ResourceRef) (ports.Stream[domain.Policy], error) {
	body, err := c.openStream(ctx, "stream policy", policiesPath+url.PathEscape(ref.ID)+"/stream", ref.Token)
	if err != nil {
		return nil, err
	}
	return newEventStream(body, func(data []byte) (domain.Policy, error) {
		var resp policyResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return domain.Policy{}, fmt.Errorf("decode policy event: %w", err)
		}
		return resp.toDomain(ref.Token), nil
	}), nil
}

func (c *Client) CreateServiceEligibility(ctx context.Context, input domain.ServiceEligibilityInput) (domain.Eligibility, error) {
	var resp eligibilityResponse
	err := c.doJSON(ctx, "create service eligibility", http.MethodPost, serviceEligibilityCreatePath, "", createServiceEligibilityRequest{
		ServiceCategoryID: string(input.ServiceCategoryID),
		PolicyIDs:         input.PolicyIDs,
		DateOfService:     input.DateOfService,
		State:             string(input.State),
		ClinicalInfo:      input.ClinicalInfo,
	}, &resp)
	if err != nil {
		return domain.Eligibility{}, err
	}
	return resp.toDomain(""), nil
}

func (c *Client) GetServiceEligibility(ctx context.Context, ref domain.ResourceRef) (domain.Eligibility, error) {
	var resp eligibilityResponse
	if err := c.doJSON(ctx, "get service eligibility", http.MethodGet, serviceEligibilityPath+url.PathEscape(ref.ID), ref.Token, nil, &resp); err != nil {
		return domain.Eligibility{}, err
	}
	return resp.toDomain(ref.Token), nil
}

func (c *Client) StreamServiceEligibility(ctx context.Context, ref domain.ResourceRef) (ports.Stream[domain.Eligibility], error) {
	body, err := c.openStream(ctx, "stream service eligibility", serviceEligibilityPath+url.PathEscape(ref.ID)+"/stream", ref.Token)
	if err != nil {
		return nil, err
	}
	return newEventStream(body, func(data []byte) (domain.Eligibility, error) {
		var resp eligibilityResponse
		if err := json.Unmarshal(data, &resp); err != nil {
			return domain.Eligibility{}, fmt.Errorf("decode service eligibility event: %w", err)
		}
		return resp.toDomain(ref.Token), nil
	}), nil
}

func (c *Client) CreateProviderEligibility(ctx context.Context, input domain.ProviderEligibilityInput) (domain.Eligibility, error) {
	var resp eligibilityResponse
	err := c.doJSON(ctx, "create provider eligibility", http.MethodPost, providerEligibilityPath, "", createProviderEligibilityRequest{
		PayerID:           input.PayerID,
		State:             string(input.State),
		DateOfService:     input.DateOfService,
		ServiceCategoryID: string(input.ServiceCategoryID),
	}, &resp)
	if err != nil {
		return domain.Eligibility{}, err
	}
	return resp.toDomain(""), nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path, scopedToken string, payload any, out any) error {
	endpoint, err := buildAPIURL(c.BaseURL, path)
	if err != nil {
		return err
	}
	if err := c.wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(encoded)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(requestCtx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	c.authorize(req, scopedToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return statusError(op, resp)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

// openStream starts a server-sent events request. The request lives as long
// as ctx, so no per-request timeout applies.
func (c *Client) openStream(ctx context.Context, op, path, scopedToken string) (io.ReadCloser, error) {
	endpoint, err := buildAPIURL(c.BaseURL, path)
	if err != nil {
		return nil, err
	}
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", op, err)
	}
	c.authorize(req, scopedToken)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer func() { _ = resp.Body.Close() }()
		return nil, statusError(op, resp)
	}
	if contentType := resp.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "text/event-stream") {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%s: unexpected content type %q", op, contentType)
	}
	return resp.Body, nil
}

func (c *Client) authorize(req *http.Request, scopedToken string) {
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	if scopedToken != "" {
		req.Header.Set(scopedTokenHeader, scopedToken)
	}
}

func (c *Client) wait(ctx context.Context) error {
	if c.Limiter == nil {
		return nil
	}
	return c.Limiter.Wait(ctx)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func statusError(op string, resp *http.Response) error {
	detail := decodeAPIError(resp)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%s: %w: %s", op, ports.ErrUnauthorized, detail)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w: %s", op, ports.ErrNotFound, detail)
	default:
		return fmt.Errorf("%s: %s", op, detail)
	}
}

func decodeAPIError(resp *http.Response) string {
	var apiErr apiErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&apiErr); err != nil || apiErr.Code == "" {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	if apiErr.Message != "" {
		return apiErr.Code + ": " + apiErr.Message
	}
	return apiErr.Code
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}

	return strings.TrimRight(parsed.String(), "/") + path, nil
}
