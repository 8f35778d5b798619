// Package search wraps the SerpApi Google results endpoint used for
// discovering discount pages on bank domains.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"mzohaib/bankdealworker/helpers"
	"mzohaib/bankdealworker/logger"
	apperrors "mzohaib/bankdealworker/pkg/errors"
)

const defaultBaseURL = "https://serpapi.com/search.json"

// Result is one organic search hit
type Result struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Client performs web searches for discount page discovery
type Client interface {
	Search(ctx context.Context, query string, num int) ([]Result, error)
}

// SerpClient implements Client against SerpApi
type SerpClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *logger.Logger
}

// NewSerpClient creates a SerpApi-backed search client. An empty API key
// yields a client that returns no results; callers then fall back to the
// source's registered website only.
func NewSerpClient(apiKey string) *SerpClient {
	return &SerpClient{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.ForComponent("search"),
	}
}

type serpResponse struct {
	OrganicResults []Result `json:"organic_results"`
}

// Search runs a Google query through SerpApi and returns the organic hits.
func (c *SerpClient) Search(ctx context.Context, query string, num int) ([]Result, error) {
	if c.apiKey == "" {
		c.log.Debug().Msg("No search API key configured, skipping discovery")
		return nil, nil
	}

	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", strconv.Itoa(num))
	params.Set("api_key", c.apiKey)
	endpoint := c.baseURL + "?" + params.Encode()

	var parsed serpResponse
	err := helpers.Retry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("search returned status %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&parsed)
	})
	if err != nil {
		return nil, apperrors.NewNetworkError("search", "search request failed", err)
	}

	return parsed.OrganicResults, nil
}
