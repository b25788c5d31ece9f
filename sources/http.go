package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"checkeasy-report/config"
	"checkeasy-report/utils"
)

// Source names, used in errors, logs and metrics labels.
const (
	SourceAI           = "ai"
	SourceSession      = "session"
	SourceSignalements = "signalements"
	SourceBundle       = "bundle"
)

// Endpoint names on the workflow API.
const (
	EndpointAI           = "rapportdataia"
	EndpointSession      = "rapportdata"
	EndpointSignalements = "signalementlist"
	EndpointBundle       = "rapportfulldata"
)

const maxErrorBody = 512

// NewHTTPClient returns the client shared by every source.
func NewHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.HTTPTimeout}
}

type baseClient struct {
	source     string
	cfg        *config.Config
	httpClient *http.Client
	logger     *utils.Logger
}

func newBaseClient(source string, cfg *config.Config, httpClient *http.Client, logger *utils.Logger) baseClient {
	if httpClient == nil {
		httpClient = NewHTTPClient(cfg)
	}
	return baseClient{source: source, cfg: cfg, httpClient: httpClient, logger: logger}
}

// getText performs a GET and returns the body of a 2xx response.
func (c *baseClient) getText(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	url := c.cfg.BuildURL(endpoint, params)
	c.logger.Debug("[%s] GET %s", c.source, url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", c.source, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Source: c.source, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{Source: c.source, URL: url, StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Source: c.source, URL: url, Err: err}
	}
	return body, nil
}

// getJSON performs a GET and decodes the body into out.
func (c *baseClient) getJSON(ctx context.Context, endpoint string, params map[string]string, out any) error {
	body, err := c.getText(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.source, err)
	}
	return nil
}
