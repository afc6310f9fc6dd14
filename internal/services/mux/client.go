package mux

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"matchreel/internal/config"
	"matchreel/internal/services"
)

const apiPrefix = "/video/v1"

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client implements the provider contract against the Mux REST API.
type Client struct {
	baseURL        string
	tokenID        string
	tokenSecret    string
	requestTimeout time.Duration
	api            HTTPDoer
	transfer       HTTPDoer
}

// NewClient constructs a client. The API backend carries no timeout of its
// own; each API call is bounded by requestTimeout while transfers rely on the
// caller's context.
func NewClient(baseURL, tokenID, tokenSecret string, requestTimeout time.Duration, client HTTPDoer) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL:        strings.TrimRight(strings.TrimSpace(baseURL), "/") + apiPrefix,
		tokenID:        strings.TrimSpace(tokenID),
		tokenSecret:    strings.TrimSpace(tokenSecret),
		requestTimeout: requestTimeout,
		api:            client,
		transfer:       client,
	}
}

// NewConfiguredClient builds a client from config, failing with
// services.ErrConfiguration when credentials are missing.
func NewConfiguredClient(cfg *config.Config) (*Client, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "mux", "configure", "config is required", nil)
	}
	if err := cfg.RequireMux(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "mux", "configure", "missing credentials", err)
	}
	timeout := time.Duration(cfg.Mux.RequestTimeout) * time.Second
	return NewClient(cfg.Mux.BaseURL, cfg.Mux.TokenID, cfg.Mux.TokenSecret, timeout, &http.Client{}), nil
}

// PolicyFromConfig returns the upload policy configured for ingestion.
func PolicyFromConfig(cfg *config.Config) UploadPolicy {
	return UploadPolicy{
		CORSOrigin: cfg.Mux.CORSOrigin,
		Timeout:    time.Duration(cfg.Mux.UploadTimeout) * time.Second,
		Public:     true,
	}
}

// CreateUpload asks Mux for a signed direct-upload URL.
func (c *Client) CreateUpload(ctx context.Context, policy UploadPolicy) (Upload, error) {
	body := createUploadBody{CORSOrigin: policy.CORSOrigin}
	if policy.Public {
		body.NewAssetSettings.PlaybackPolicy = []string{"public"}
	} else {
		body.NewAssetSettings.PlaybackPolicy = []string{"signed"}
	}
	if policy.Timeout > 0 {
		body.Timeout = int(policy.Timeout / time.Second)
	}

	var resp envelope[uploadData]
	if err := c.doJSON(ctx, http.MethodPost, "/uploads", body, &resp); err != nil {
		return Upload{}, services.Wrap(services.ErrProvider, "mux", "create upload", "request failed", err)
	}
	if resp.Data.ID == "" || resp.Data.URL == "" {
		return Upload{}, services.Wrap(services.ErrProvider, "mux", "create upload", "response missing id or url", nil)
	}
	return Upload{ID: resp.Data.ID, URL: resp.Data.URL}, nil
}

// Transfer PUTs the video body to the signed upload URL. Any non-2xx status
// is a failure.
func (c *Client) Transfer(ctx context.Context, uploadURL string, body io.Reader, size int64) error {
	if strings.TrimSpace(uploadURL) == "" {
		return services.Wrap(services.ErrProvider, "mux", "transfer", "empty upload url", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return services.Wrap(services.ErrProvider, "mux", "transfer", "build request", err)
	}
	if size > 0 {
		req.ContentLength = size
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.transfer.Do(req)
	if err != nil {
		return services.Wrap(services.ErrProvider, "mux", "transfer", "upload failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return services.Wrap(services.ErrProvider, "mux", "transfer",
			fmt.Sprintf("upload returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// ResolveAsset reports the asset created from an upload. ok is false while
// the upload has not produced an asset yet.
func (c *Client) ResolveAsset(ctx context.Context, uploadID string) (string, bool, error) {
	var resp envelope[uploadData]
	if err := c.doJSON(ctx, http.MethodGet, "/uploads/"+url.PathEscape(uploadID), nil, &resp); err != nil {
		return "", false, services.Wrap(services.ErrProvider, "mux", "resolve asset", "upload "+uploadID, err)
	}
	assetID := strings.TrimSpace(resp.Data.AssetID)
	return assetID, assetID != "", nil
}

// AssetStatus fetches an asset's state and playback ids.
func (c *Client) AssetStatus(ctx context.Context, assetID string) (Asset, error) {
	var resp envelope[assetData]
	if err := c.doJSON(ctx, http.MethodGet, "/assets/"+url.PathEscape(assetID), nil, &resp); err != nil {
		return Asset{}, services.Wrap(services.ErrProvider, "mux", "asset status", "asset "+assetID, err)
	}
	asset := resp.Data.toAsset()
	if asset.ID == "" {
		asset.ID = assetID
	}
	return asset, nil
}

// Ping verifies credentials with a minimal authenticated listing.
func (c *Client) Ping(ctx context.Context) error {
	var resp envelope[[]assetData]
	if err := c.doJSON(ctx, http.MethodGet, "/assets?limit=1", nil, &resp); err != nil {
		return services.Wrap(services.ErrProvider, "mux", "ping", "list assets", err)
	}
	return nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.tokenID, c.tokenSecret)

	resp, err := c.api.Do(req)
	if err != nil {
		return fmt.Errorf("mux request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mux %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
